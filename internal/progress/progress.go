// Package progress models the two progress indicators the console shows:
// a simulated bar for calls with no measurable payload, and a byte-level
// bar for uploads.
package progress

import (
	"context"
	"time"
)

// Simulation parameters for send calls.
const (
	SimStep       = 2
	SimCap        = 90
	SimInterval   = 300 * time.Millisecond
	SimResetAfter = 1500 * time.Millisecond
)

// UploadCap is the highest percentage an upload reports before the backend
// has answered.
const UploadCap = 98

// Simulated is an artificial progress bar: it creeps towards Cap while a
// call is outstanding and jumps to 100 when the call ends.
type Simulated struct {
	Step    int
	Cap     int
	percent int
}

// NewSimulated returns a bar with the console's default step and cap.
func NewSimulated() *Simulated {
	return &Simulated{Step: SimStep, Cap: SimCap}
}

// Percent is the current value.
func (s *Simulated) Percent() int { return s.percent }

// Tick advances by one step, never past Cap.
func (s *Simulated) Tick() int {
	s.percent = min(s.percent+s.Step, s.Cap)
	return s.percent
}

// Complete marks the call finished, successfully or not.
func (s *Simulated) Complete() int {
	s.percent = 100
	return s.percent
}

// Reset returns the bar to zero.
func (s *Simulated) Reset() int {
	s.percent = 0
	return s.percent
}

// Clock abstracts timers so runs can be driven by tests.
type Clock interface {
	NewTicker(d time.Duration) (<-chan time.Time, func())
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) NewTicker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// RealClock is the wall clock.
var RealClock Clock = realClock{}

// Run drives a simulated bar. It emits 0, then a step on every interval
// until done is closed, then 100, then 0 after resetAfter. Emit is only
// called when the value changes. Run returns early if ctx ends.
func Run(ctx context.Context, clock Clock, done <-chan struct{}, emit func(percent int)) {
	bar := NewSimulated()
	emit(bar.Reset())

	ticks, stop := clock.NewTicker(SimInterval)
	defer stop()

	last := 0
loop:
	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			break loop
		case <-ticks:
			if p := bar.Tick(); p != last {
				last = p
				emit(p)
			}
		}
	}

	emit(bar.Complete())
	select {
	case <-ctx.Done():
		return
	case <-clock.After(SimResetAfter):
	}
	emit(bar.Reset())
}

// UploadPercent converts bytes sent into a percentage held at UploadCap
// until the upload is acknowledged.
func UploadPercent(sent, total int64) int {
	if total <= 0 {
		return 0
	}
	p := int(sent * 100 / total)
	return max(0, min(p, UploadCap))
}
