package viewport

import (
	"sync"
	"sync/atomic"

	"scopeview/internal/model"
)

// Redrawer coalesces redraw requests: however many requests arrive before
// the dispatcher runs the repaint, only one repaint happens.
type Redrawer struct {
	d       model.Dispatcher
	pending atomic.Bool

	mu    sync.Mutex
	paint func()
}

// NewRedrawer returns a Redrawer scheduling repaints through d.
func NewRedrawer(d model.Dispatcher) *Redrawer {
	return &Redrawer{d: d}
}

// SetPaintFunc sets the repaint function.
func (r *Redrawer) SetPaintFunc(paint func()) {
	r.mu.Lock()
	r.paint = paint
	r.mu.Unlock()
}

// Request schedules a repaint unless one is already pending.
func (r *Redrawer) Request() {
	if !r.pending.CompareAndSwap(false, true) {
		return
	}
	r.d.CallAfter(func() {
		r.pending.Store(false)
		r.mu.Lock()
		paint := r.paint
		r.mu.Unlock()
		if paint != nil {
			paint()
		}
	})
}

// Pending reports whether a repaint is scheduled.
func (r *Redrawer) Pending() bool {
	return r.pending.Load()
}
