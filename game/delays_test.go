package game

import (
	"io/ioutil"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDelayConfig(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "delays.yaml")
	require.NoError(t, ioutil.WriteFile(file, []byte("nextGame: 1500\nreset: 3000\n"), 0644))

	delays, err := ParseDelayConfig(file)
	require.NoError(t, err)
	assert.Equal(t, Delays{NextGame: 1500, Reset: 3000}, delays)
	assert.Equal(t, 1500*time.Millisecond, delays.NextGameDelay())
	assert.Equal(t, 3*time.Second, delays.ResetDelay())
}

func TestParseDelayConfigPartial(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "delays.yaml")
	require.NoError(t, ioutil.WriteFile(file, []byte("reset: 20000\n"), 0644))

	delays, err := ParseDelayConfig(file)
	require.NoError(t, err)
	assert.Equal(t, Delays{NextGame: 5000, Reset: 20000}, delays)
}

func TestParseDelayConfigMissingFile(t *testing.T) {
	delays, err := ParseDelayConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultDelays(), delays)
	assert.Equal(t, 5*time.Second, delays.NextGameDelay())
	assert.Equal(t, 10*time.Second, delays.ResetDelay())
}

func TestParseDelayConfigBadYAML(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "delays.yaml")
	require.NoError(t, ioutil.WriteFile(file, []byte("nextGame: [oops\n"), 0644))

	_, err := ParseDelayConfig(file)
	assert.Error(t, err)
}
