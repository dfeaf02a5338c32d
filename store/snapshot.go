package store

import (
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

// Snapshot is the value found at a subscribed path after a commit.
type Snapshot struct {
	TableID string
	Path    string
	Version uint64
	value   jsoniter.Any
}

// Exists is false when the path is missing or null.
func (s Snapshot) Exists() bool {
	return present(s.value)
}

// Int returns the value as an integer when it is a number.
func (s Snapshot) Int() (int, bool) {
	if s.value == nil || s.value.ValueType() != jsoniter.NumberValue {
		return 0, false
	}
	return s.value.ToInt(), true
}

// String returns the value of a string path, or the raw JSON text otherwise.
func (s Snapshot) String() string {
	if !s.Exists() {
		return ""
	}
	return s.value.ToString()
}

// Decode unmarshals the value into v.
func (s Snapshot) Decode(v interface{}) error {
	if !s.Exists() {
		return nil
	}
	return jsoniter.UnmarshalFromString(s.value.ToString(), v)
}

// parsePath turns "spots/0/user" into a jsoniter path.
func parsePath(path string) []interface{} {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	segments := strings.Split(path, "/")
	keys := make([]interface{}, len(segments))
	for i, seg := range segments {
		if n, err := strconv.Atoi(seg); err == nil {
			keys[i] = n
		} else {
			keys[i] = seg
		}
	}
	return keys
}

func valueAt(doc []byte, keys []interface{}) jsoniter.Any {
	if doc == nil {
		return nil
	}
	return jsoniter.Get(doc, keys...)
}

func present(v jsoniter.Any) bool {
	if v == nil {
		return false
	}
	t := v.ValueType()
	return t != jsoniter.InvalidValue && t != jsoniter.NilValue
}

func sameValue(a, b jsoniter.Any) bool {
	pa, pb := present(a), present(b)
	if !pa || !pb {
		return pa == pb
	}
	return a.ValueType() == b.ValueType() && a.ToString() == b.ToString()
}
