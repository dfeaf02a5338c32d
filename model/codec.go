package model

import (
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Encode serializes a table document.
func Encode(t *Table) ([]byte, error) {
	data, err := json.Marshal(t)
	if err != nil {
		return nil, errors.Wrap(err, "Unable to encode table document")
	}
	return data, nil
}

// Decode parses a table document. A JSON null decodes to a nil table.
func Decode(data []byte) (*Table, error) {
	var t *Table
	err := json.Unmarshal(data, &t)
	if err != nil {
		return nil, errors.Wrap(err, "Unable to decode table document")
	}
	return t, nil
}
