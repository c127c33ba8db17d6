package servo

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// recorder is a fake PWM channel and sleeper sharing one ordered event log.
type recorder struct {
	mu        sync.Mutex
	events    []string
	staged    uint32
	setErr    error
	committed []uint32
}

func (r *recorder) SetDuty(duty uint32) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.setErr != nil {
		return r.setErr
	}
	r.staged = duty
	r.events = append(r.events, fmt.Sprintf("set %d", duty))
	return nil
}

func (r *recorder) Commit() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.committed = append(r.committed, r.staged)
	r.events = append(r.events, "commit")
	return nil
}

func (r *recorder) Sleep(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, fmt.Sprintf("hold %s", d))
}

func newTestDriver(t *testing.T, handlers Handlers) (*Driver, *recorder) {
	rec := &recorder{}
	return New(rec, rec, zaptest.NewLogger(t).Sugar(), handlers), rec
}

func TestMapSpeedToDuty(t *testing.T) {
	for s := -100; s <= 100; s++ {
		duty := MapSpeedToDuty(Speed(s))
		assert.GreaterOrEqual(t, duty, MinDuty)
		assert.LessOrEqual(t, duty, MaxDuty)
		assert.Equal(t, Duty(614+s), duty)
	}

	assert.Equal(t, Duty(614), MapSpeedToDuty(0))
	assert.Equal(t, Duty(368), MapSpeedToDuty(-500))
	assert.Equal(t, Duty(860), MapSpeedToDuty(500))
	assert.Equal(t, Duty(368), MapSpeedToDuty(-246))
	assert.Equal(t, Duty(860), MapSpeedToDuty(246))
}

func TestSetSpeedCommits(t *testing.T) {
	var seen []Duty
	drv, rec := newTestDriver(t, Handlers{OnDuty: func(d Duty) { seen = append(seen, d) }})

	assert.Equal(t, Duty(514), drv.SetSpeed(-100))
	assert.Equal(t, []string{"set 514", "commit"}, rec.events)
	assert.Equal(t, Duty(514), drv.Duty())
	assert.Equal(t, []Duty{514}, seen)
}

func TestSetDutyRawNoClamp(t *testing.T) {
	drv, rec := newTestDriver(t, Handlers{})

	drv.SetDutyRaw(8000)
	drv.SetDutyRaw(0)
	assert.Equal(t, []uint32{8000, 0}, rec.committed)
	assert.Equal(t, Duty(0), drv.Duty())
}

func TestSetDutyErrorSkipsCommit(t *testing.T) {
	drv, rec := newTestDriver(t, Handlers{})
	rec.setErr = errors.New("bus fault")

	drv.SetSpeed(50)
	assert.Empty(t, rec.committed)
	assert.Equal(t, NeutralDuty, drv.Duty())
}

func TestRotateClockwise(t *testing.T) {
	drv, rec := newTestDriver(t, Handlers{})

	drv.Rotate(Clockwise, 3)

	assert.Equal(t, []string{
		"set 514", "commit", "hold 1s",
		"set 514", "commit", "hold 1s",
		"set 514", "commit", "hold 1s",
		"set 614", "commit",
	}, rec.events)
	assert.Len(t, rec.committed, 4)
}

func TestRotateCounterClockwise(t *testing.T) {
	drv, rec := newTestDriver(t, Handlers{})

	drv.Rotate(CounterClockwise, 2)

	assert.Equal(t, []uint32{714, 714, 614}, rec.committed)
}

func TestRotateZeroTurns(t *testing.T) {
	drv, rec := newTestDriver(t, Handlers{})

	drv.Rotate(Clockwise, 0)
	assert.Equal(t, []string{"set 614", "commit"}, rec.events)

	rec.events = nil
	drv.Rotate(CounterClockwise, -4)
	assert.Equal(t, []string{"set 614", "commit"}, rec.events)
}

func TestRotateUnknownDirection(t *testing.T) {
	drv, rec := newTestDriver(t, Handlers{})

	drv.Rotate(ParseDirection("up"), 2)

	assert.Equal(t, []string{"hold 1s", "hold 1s", "set 614", "commit"}, rec.events)
}

func TestRotateReportsBusy(t *testing.T) {
	var states []bool
	drv, _ := newTestDriver(t, Handlers{})
	drv.handlers.OnBusy = func(busy bool) {
		states = append(states, busy)
		assert.Equal(t, busy, drv.Busy())
	}

	drv.Rotate(Clockwise, 1)
	assert.Equal(t, []bool{true, false}, states)
	assert.False(t, drv.Busy())
}

func TestHoldDuty(t *testing.T) {
	drv, rec := newTestDriver(t, Handlers{})

	drv.HoldDuty(700)
	assert.Equal(t, []string{"set 700", "commit", "hold 1s"}, rec.events)
	assert.Equal(t, Duty(700), drv.Duty())
}

func TestParseDirection(t *testing.T) {
	assert.Equal(t, Clockwise, ParseDirection("cw"))
	assert.Equal(t, CounterClockwise, ParseDirection("ccw"))
	assert.Equal(t, Unknown, ParseDirection("CW"))
	assert.Equal(t, Unknown, ParseDirection(""))
	assert.Equal(t, "ccw", CounterClockwise.String())
}

func TestRotateWallClock(t *testing.T) {
	rec := &recorder{}
	mock := clock.NewMock()
	drv := New(rec, mock, zaptest.NewLogger(t).Sugar(), Handlers{})

	start := mock.Now()
	done := make(chan struct{})
	go func() {
		drv.Rotate(CounterClockwise, 2)
		close(done)
	}()

	for {
		select {
		case <-done:
			assert.GreaterOrEqual(t, mock.Since(start), 2*TurnDuration)
			assert.Equal(t, []uint32{714, 714, 614}, rec.committed)
			return
		default:
			mock.Add(100 * time.Millisecond)
		}
	}
}

func TestRotationsSerialize(t *testing.T) {
	rec := &recorder{}
	mock := clock.NewMock()
	drv := New(rec, mock, zaptest.NewLogger(t).Sugar(), Handlers{})

	var wg sync.WaitGroup
	for _, dir := range []Direction{Clockwise, CounterClockwise} {
		wg.Add(1)
		go func(dir Direction) {
			defer wg.Done()
			drv.Rotate(dir, 2)
		}(dir)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

loop:
	for {
		select {
		case <-done:
			break loop
		default:
			mock.Add(100 * time.Millisecond)
		}
	}

	require.Len(t, rec.committed, 6)
	// Each rotation's commits are contiguous: two full-speed then one stop.
	for _, seq := range [][]uint32{rec.committed[:3], rec.committed[3:]} {
		assert.Equal(t, seq[0], seq[1])
		assert.NotEqual(t, uint32(NeutralDuty), seq[0])
		assert.Equal(t, uint32(NeutralDuty), seq[2])
	}
}
