package rotary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

func TestDecoder(t *testing.T) {
	var d decoder

	// DT low on CLK rising edge: clockwise.
	assert.Equal(t, 1, d.edge(true, 1))
	assert.Equal(t, 0, d.edge(true, 0))

	// DT high on CLK rising edge: counterclockwise.
	assert.Equal(t, 0, d.edge(false, 1))
	assert.Equal(t, -1, d.edge(true, 1))

	// Repeated high level is not an edge.
	assert.Equal(t, 0, d.edge(true, 1))
}

func TestNewDisabled(t *testing.T) {
	r, err := New(Config{}, zaptest.NewLogger(t).Sugar(), Handlers{})
	assert.NoError(t, err)
	assert.Nil(t, r)
}
