package console

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"servoap/servo"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		line string
		want Command
	}{
		{"cw 3", Command{Kind: KindRotate, Direction: servo.Clockwise, Turns: 3}},
		{"CCW 1", Command{Kind: KindRotate, Direction: servo.CounterClockwise, Turns: 1}},
		{"cw 0", Command{Kind: KindRotate, Direction: servo.Clockwise}},
		{"duty 700", Command{Kind: KindDuty, Duty: 700}},
		{"stop", Command{Kind: KindStop}},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := ParseLine(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseLineErrors(t *testing.T) {
	for _, line := range []string{"", "cw", "cw -1", "ccw many", "duty", "duty -5", "spin 3"} {
		_, err := ParseLine(line)
		assert.Error(t, err, line)
	}
}

func TestLineAccumulator(t *testing.T) {
	var got []string
	var acc lineAccumulator
	collect := func(s string) { got = append(got, s) }

	acc.feed([]byte("cw "), collect)
	acc.feed([]byte("2\r\nstop\n"), collect)
	acc.feed([]byte("duty 6"), collect)
	assert.Equal(t, []string{"cw 2", "stop"}, got)

	acc.feed([]byte("14\n"), collect)
	assert.Equal(t, []string{"cw 2", "stop", "duty 614"}, got)

	long := make([]byte, maxLine+10)
	for i := range long {
		long[i] = 'x'
	}
	acc.feed(append(long, '\n'), collect)
	acc.feed([]byte("stop\n"), collect)
	assert.Equal(t, []string{"cw 2", "stop", "duty 614", "stop"}, got)
}

func TestNewNothingConfigured(t *testing.T) {
	c, err := New(Config{}, nil, zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestPipe(t *testing.T) {
	path := filepath.Join(t.TempDir(), "servoap")
	cmds := make(chan Command, 4)

	c, err := New(Config{Pipe: path}, func(cmd Command) { cmds <- cmd }, zaptest.NewLogger(t).Sugar())
	require.NoError(t, err)
	require.NotNil(t, c)

	ctx, cancel := context.WithCancel(context.Background())
	c.Start(ctx)

	w, err := os.OpenFile(path, os.O_WRONLY, 0)
	require.NoError(t, err)
	_, err = w.WriteString("# comment\n\nbogus\ncw 2\nstop\n")
	require.NoError(t, err)
	require.NoError(t, w.Close())

	for _, want := range []Command{
		{Kind: KindRotate, Direction: servo.Clockwise, Turns: 2},
		{Kind: KindStop},
	} {
		select {
		case got := <-cmds:
			assert.Equal(t, want, got)
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for command")
		}
	}

	cancel()
	c.Wait()
	assert.NoError(t, c.Close())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
