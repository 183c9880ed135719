package types

// EventKind names an outbound signal delivered to the host.
type EventKind string

const (
	KindMessage             EventKind = "message"
	KindScroll              EventKind = "scroll"
	KindSizeChange          EventKind = "sizeChange"
	KindCustomMenuSelection EventKind = "customMenuSelection"
	KindLoadingStart        EventKind = "loadingStart"
	KindLoadingProgress     EventKind = "loadingProgress"
	KindLoadingFinish       EventKind = "loadingFinish"
)

// Event is a generic tagged event addressed to a surface identifier.
// Seq is assigned by the dispatcher.
type Event struct {
	Seq     int64     `json:"seq"`
	Kind    EventKind `json:"kind"`
	Target  int       `json:"target"`
	Payload any       `json:"payload"`
}

// ScrollEvent is the payload of a scroll event.
type ScrollEvent struct {
	X              int     `json:"x"`
	Y              int     `json:"y"`
	VelocityX      float64 `json:"velocityX"`
	VelocityY      float64 `json:"velocityY"`
	ContentWidth   int     `json:"contentWidth"`
	ContentHeight  int     `json:"contentHeight"`
	ViewportWidth  int     `json:"viewportWidth"`
	ViewportHeight int     `json:"viewportHeight"`
}

// SizeChangeEvent is the payload of a sizeChange event.
type SizeChangeEvent struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// CustomMenuSelectionEvent is the payload of a customMenuSelection event.
type CustomMenuSelectionEvent struct {
	Label        string `json:"label"`
	Key          string `json:"key"`
	SelectedText string `json:"selectedText"`
}

// MenuItem is one host supplied entry of the custom selection menu.
type MenuItem struct {
	Label string `json:"label" yaml:"label"`
	Key   string `json:"key" yaml:"key"`
}

// ScrollSample is a raw scroll callback from the rendering engine.
type ScrollSample struct {
	X              int `json:"x"`
	Y              int `json:"y"`
	ContentWidth   int `json:"contentWidth"`
	ContentHeight  int `json:"contentHeight"`
	ViewportWidth  int `json:"viewportWidth"`
	ViewportHeight int `json:"viewportHeight"`
}
