package rest

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"voyager.com/ofc/game"
	"voyager.com/ofc/history"
	"voyager.com/ofc/logging"
	"voyager.com/ofc/model"
	"voyager.com/ofc/store"
)

var restLogger = log.With().Str("logger_name", "ofc::rest").Logger()

// APP error definition
type appError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type newTableRequest struct {
	Spots int `json:"spots"`
}

type tableStatus struct {
	TableID string      `json:"tableId"`
	State   model.State `json:"state"`
}

type server struct {
	manager *game.Manager
	hands   history.Reader
}

// NewRouter builds the internal API served for operators and tooling.
func NewRouter(manager *game.Manager, hands history.Reader) *gin.Engine {
	if hands == nil {
		hands = history.NopRecorder{}
	}
	s := &server{manager: manager, hands: hands}

	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/ready", s.ready)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.POST("/tables", s.newTable)
	r.GET("/tables/:id", s.getTable)
	r.GET("/tables/:id/hands", s.tableHands)
	r.POST("/tables/:id/resume", s.resumeTable)
	r.DELETE("/tables/:id", s.deleteTable)
	return r
}

func RunRestServer(port uint, manager *game.Manager, hands history.Reader) error {
	r := NewRouter(manager, hands)
	restLogger.Info().Msgf("Listening on port %d", port)
	return r.Run(fmt.Sprintf(":%d", port))
}

func (s *server) ready(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

func (s *server) newTable(c *gin.Context) {
	var req newTableRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		restLogger.Error().Msgf("Failed to parse table request. Error: %v", err)
		s.fail(c, http.StatusBadRequest, err)
		return
	}

	tableID, err := s.manager.CreateTable(c.Request.Context(), req.Spots)
	if err != nil {
		if errors.Is(err, game.ErrInvalidRules) {
			s.fail(c, http.StatusBadRequest, err)
			return
		}
		restLogger.Error().Msgf("Unable to create table. Error: %v", err)
		s.fail(c, http.StatusInternalServerError, err)
		return
	}

	c.JSON(http.StatusOK, tableStatus{
		TableID: tableID,
		State:   model.StateDead,
	})
}

func (s *server) getTable(c *gin.Context) {
	tableID := c.Param("id")
	table, err := s.manager.Get(c.Request.Context(), tableID)
	if err != nil {
		s.storeError(c, tableID, err)
		return
	}
	c.JSON(http.StatusOK, table)
}

func (s *server) tableHands(c *gin.Context) {
	tableID := c.Param("id")
	hands, err := s.hands.TableHands(c.Request.Context(), tableID)
	if err != nil {
		restLogger.Error().Str(logging.TableIDKey, tableID).Msgf("Unable to read hands. Error: %v", err)
		s.fail(c, http.StatusInternalServerError, err)
		return
	}
	if hands == nil {
		hands = []history.HandRecord{}
	}
	c.JSON(http.StatusOK, hands)
}

func (s *server) resumeTable(c *gin.Context) {
	tableID := c.Param("id")
	_, err := s.manager.Attach(c.Request.Context(), tableID)
	if err != nil {
		s.storeError(c, tableID, err)
		return
	}
	table, err := s.manager.Get(c.Request.Context(), tableID)
	if err != nil {
		s.storeError(c, tableID, err)
		return
	}
	c.JSON(http.StatusOK, tableStatus{
		TableID: tableID,
		State:   table.State,
	})
}

func (s *server) deleteTable(c *gin.Context) {
	tableID := c.Param("id")
	err := s.manager.DeleteTable(c.Request.Context(), tableID)
	if err != nil {
		s.storeError(c, tableID, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *server) storeError(c *gin.Context, tableID string, err error) {
	if errors.Is(err, store.ErrTableNotFound) {
		s.fail(c, http.StatusNotFound, fmt.Errorf("table %s not found", tableID))
		return
	}
	restLogger.Error().Str(logging.TableIDKey, tableID).Msgf("Store error: %v", err)
	s.fail(c, http.StatusInternalServerError, err)
}

func (s *server) fail(c *gin.Context, code int, err error) {
	c.AbortWithStatusJSON(code, appError{
		Code:    code,
		Message: err.Error(),
	})
}
