package indicator

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingIndicator struct {
	calls      []string
	releaseErr error
}

func (r *recordingIndicator) Idle()           { r.calls = append(r.calls, "idle") }
func (r *recordingIndicator) Busy()           { r.calls = append(r.calls, "busy") }
func (r *recordingIndicator) ConnectionLost() { r.calls = append(r.calls, "lost") }
func (r *recordingIndicator) Release() error {
	r.calls = append(r.calls, "release")
	return r.releaseErr
}

func TestNewNoop(t *testing.T) {
	ind, err := New(Config{})
	require.NoError(t, err)
	assert.IsType(t, &Noop{}, ind)
	assert.NoError(t, ind.Release())
}

func TestMulti(t *testing.T) {
	a := &recordingIndicator{}
	b := &recordingIndicator{releaseErr: errors.New("line busy")}
	m := &Multi{indicators: []Indicator{a, b}}

	m.Busy()
	m.Idle()
	m.ConnectionLost()
	err := m.Release()

	assert.EqualError(t, err, "line busy")
	for _, r := range []*recordingIndicator{a, b} {
		assert.Equal(t, []string{"busy", "idle", "lost", "release"}, r.calls)
	}
}

func TestNeopixel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "neopixel")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	ind, err := New(Config{NeopixelPipe: path})
	require.NoError(t, err)
	require.IsType(t, &Neopixel{}, ind)

	ind.Busy()
	ind.Idle()
	require.NoError(t, ind.Release())

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, neoBusy+"\n"+neoIdle+"\n"+neoOff+"\n", string(b))
}

func TestNeopixelMissingPipe(t *testing.T) {
	_, err := New(Config{NeopixelPipe: filepath.Join(t.TempDir(), "missing")})
	assert.Error(t, err)
}
