package router

import "time"

// ScrollDispatchHelper coalesces scroll samples and estimates fling
// velocity in pixels per millisecond. The last known position starts at
// the origin.
type ScrollDispatchHelper struct {
	now func() time.Time

	prevX, prevY int
	lastAt       time.Time
	velocityX    float64
	velocityY    float64
}

func NewScrollDispatchHelper(now func() time.Time) *ScrollDispatchHelper {
	if now == nil {
		now = time.Now
	}
	return &ScrollDispatchHelper{now: now}
}

// OnScrollChanged records a sample and reports whether it is a new,
// distinct position worth dispatching.
func (h *ScrollDispatchHelper) OnScrollChanged(x, y int) bool {
	at := h.now()
	changed := x != h.prevX || y != h.prevY

	if changed && !h.lastAt.IsZero() {
		if elapsed := float64(at.Sub(h.lastAt)) / float64(time.Millisecond); elapsed > 0 {
			h.velocityX = float64(x-h.prevX) / elapsed
			h.velocityY = float64(y-h.prevY) / elapsed
		}
	}

	h.lastAt = at
	h.prevX = x
	h.prevY = y
	return changed
}

func (h *ScrollDispatchHelper) XFlingVelocity() float64 { return h.velocityX }
func (h *ScrollDispatchHelper) YFlingVelocity() float64 { return h.velocityY }
