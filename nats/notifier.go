// Package nats announces committed table documents over NATS so that every
// engine process sharing a redis database observes the same changes.
package nats

import (
	jsoniter "github.com/json-iterator/go"
	natsgo "github.com/nats-io/nats.go"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

var natsLogger = log.With().Str("logger_name", "nats::notifier").Logger()

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// TableChanged is the payload published for each commit.
type TableChanged struct {
	TableID string              `json:"tableId"`
	Version uint64              `json:"version"`
	Doc     jsoniter.RawMessage `json:"doc"`
}

// Notifier implements store.Notifier on top of a NATS connection.
type Notifier struct {
	nc *natsgo.Conn
}

func NewNotifier(nc *natsgo.Conn) *Notifier {
	return &Notifier{nc: nc}
}

// Connect dials the NATS server and returns a notifier using the connection.
func Connect(natsURL string) (*Notifier, error) {
	nc, err := natsgo.Connect(natsURL)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to connect to nats server %s", natsURL)
	}
	return NewNotifier(nc), nil
}

func EncodeTableChanged(tableID string, version uint64, doc []byte) ([]byte, error) {
	msg := TableChanged{
		TableID: tableID,
		Version: version,
		Doc:     doc,
	}
	if doc == nil {
		msg.Doc = jsoniter.RawMessage("null")
	}
	return json.Marshal(&msg)
}

// DecodeTableChanged parses a payload. A deleted table yields a nil doc.
func DecodeTableChanged(data []byte) (*TableChanged, error) {
	var msg TableChanged
	err := json.Unmarshal(data, &msg)
	if err != nil {
		return nil, errors.Wrap(err, "Invalid table changed message")
	}
	if string(msg.Doc) == "null" || len(msg.Doc) == 0 {
		msg.Doc = nil
	}
	return &msg, nil
}

func (n *Notifier) Publish(tableID string, version uint64, doc []byte) error {
	data, err := EncodeTableChanged(tableID, version, doc)
	if err != nil {
		return err
	}
	subject := GetTableChangedSubject(tableID)
	err = n.nc.Publish(subject, data)
	if err != nil {
		return errors.Wrapf(err, "Failed to publish to %s", subject)
	}
	return nil
}

func (n *Notifier) Listen(tableID string, fn func(version uint64, doc []byte)) (func(), error) {
	subject := GetTableChangedSubject(tableID)
	sub, err := n.nc.Subscribe(subject, func(m *natsgo.Msg) {
		msg, err := DecodeTableChanged(m.Data)
		if err != nil {
			natsLogger.Error().Str("table", tableID).Msgf("Dropping message on %s: %v", subject, err)
			return
		}
		fn(msg.Version, msg.Doc)
	})
	if err != nil {
		natsLogger.Error().Msgf("Failed to subscribe to %s", subject)
		return nil, err
	}
	return func() {
		err := sub.Unsubscribe()
		if err != nil {
			natsLogger.Warn().Msgf("Failed to unsubscribe from %s: %v", subject, err)
		}
	}, nil
}

func (n *Notifier) Close() {
	n.nc.Close()
}
