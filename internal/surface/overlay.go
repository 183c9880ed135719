package surface

import (
	"context"
	"log/slog"
)

// fullscreenOverlay mirrors the content's fullscreen element. While it is
// active the page must be taken out of fullscreen before it is released.
type fullscreenOverlay struct {
	active bool
}

func (o *fullscreenOverlay) set(active bool) {
	o.active = active
}

// close forces an active overlay shut. Errors are logged; teardown goes on.
func (o *fullscreenOverlay) close(ctx context.Context, eng Engine, tag int) {
	if !o.active {
		return
	}
	if err := eng.ExitFullscreen(ctx); err != nil {
		slog.Warn("surface fullscreen exit failed", "tag", tag, "error", err)
	}
	o.active = false
}
