package router

// CommandFunc handles a reserved message payload.
type CommandFunc func(payload string)

// ReservedCommands maps exact message payloads to control handlers that
// run in addition to normal message delivery.
type ReservedCommands struct {
	handlers map[string]CommandFunc
}

func NewReservedCommands() *ReservedCommands {
	return &ReservedCommands{handlers: make(map[string]CommandFunc)}
}

// Register installs fn for payload, replacing any previous handler. An
// empty payload or nil fn removes the entry.
func (r *ReservedCommands) Register(payload string, fn CommandFunc) {
	if payload == "" {
		return
	}
	if fn == nil {
		delete(r.handlers, payload)
		return
	}
	r.handlers[payload] = fn
}

func (r *ReservedCommands) Lookup(payload string) (CommandFunc, bool) {
	fn, ok := r.handlers[payload]
	return fn, ok
}

func (r *ReservedCommands) Len() int {
	return len(r.handlers)
}
