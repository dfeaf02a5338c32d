package rest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voyager.com/ofc/game"
	"voyager.com/ofc/history"
	"voyager.com/ofc/model"
	"voyager.com/ofc/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router   *gin.Engine
	store    *store.MemoryStore
	manager  *game.Manager
	recorder *history.MemoryRecorder
}

func newTestServer(t *testing.T) *testServer {
	st := store.NewMemoryStore()
	recorder := history.NewMemoryRecorder()
	manager := game.NewManager(st, game.MachineConfig{Recorder: recorder})
	t.Cleanup(func() {
		manager.Shutdown()
		st.Close()
	})
	return &testServer{
		router:   NewRouter(manager, recorder),
		store:    st,
		manager:  manager,
		recorder: recorder,
	}
}

func (ts *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func TestReady(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMetrics(t *testing.T) {
	ts := newTestServer(t)
	_, err := ts.manager.CreateTable(context.Background(), 2)
	require.NoError(t, err)

	w := ts.do(http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.Contains(w.Body.String(), "ofc_active_tables"))
}

func TestCreateAndGetTable(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(http.MethodPost, "/tables", `{"spots": 3}`)
	require.Equal(t, http.StatusOK, w.Code)

	var status tableStatus
	require.NoError(t, jsoniter.Unmarshal(w.Body.Bytes(), &status))
	assert.NotEmpty(t, status.TableID)
	assert.Equal(t, model.StateDead, status.State)

	w = ts.do(http.MethodGet, "/tables/"+status.TableID, "")
	require.Equal(t, http.StatusOK, w.Code)
	var table model.Table
	require.NoError(t, jsoniter.Unmarshal(w.Body.Bytes(), &table))
	assert.Equal(t, 3, table.Rules.Spots)
	assert.Len(t, table.Spots, 3)

	_, ok := ts.manager.Machine(status.TableID)
	assert.True(t, ok)
}

func TestCreateTableRejectsBadRequests(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(http.MethodPost, "/tables", `{"spots": 1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(http.MethodPost, "/tables", `{"spots": `)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var appErr appError
	require.NoError(t, jsoniter.Unmarshal(w.Body.Bytes(), &appErr))
	assert.Equal(t, http.StatusBadRequest, appErr.Code)
}

func TestMissingTable(t *testing.T) {
	ts := newTestServer(t)
	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodGet, "/tables/nope", "").Code)
	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodDelete, "/tables/nope", "").Code)
	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodPost, "/tables/nope/resume", "").Code)
}

func TestDeleteTable(t *testing.T) {
	ts := newTestServer(t)
	tableID, err := ts.manager.CreateTable(context.Background(), 2)
	require.NoError(t, err)

	w := ts.do(http.MethodDelete, "/tables/"+tableID, "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	_, ok := ts.manager.Machine(tableID)
	assert.False(t, ok)
	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodGet, "/tables/"+tableID, "").Code)
}

func TestResumeTable(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()
	require.NoError(t, ts.store.Create(ctx, "existing", model.NewTable(2)))

	w := ts.do(http.MethodPost, "/tables/existing/resume", "")
	require.Equal(t, http.StatusOK, w.Code)
	var status tableStatus
	require.NoError(t, jsoniter.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, "existing", status.TableID)
	assert.Equal(t, model.StateDead, status.State)

	m, ok := ts.manager.Machine("existing")
	require.True(t, ok)
	assert.Eventually(t, func() bool { return m.Rules() != nil }, 5*time.Second, 5*time.Millisecond)
}

func TestTableHands(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()

	w := ts.do(http.MethodGet, "/tables/t1/hands", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	require.NoError(t, ts.recorder.RecordHand(ctx, history.HandRecord{HandID: "h1", TableID: "t1", Game: 1}))
	w = ts.do(http.MethodGet, "/tables/t1/hands", "")
	require.Equal(t, http.StatusOK, w.Code)
	var hands []history.HandRecord
	require.NoError(t, jsoniter.Unmarshal(w.Body.Bytes(), &hands))
	require.Len(t, hands, 1)
	assert.Equal(t, "h1", hands[0].HandID)
}
