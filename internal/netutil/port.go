package netutil

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
)

var errNoBindAddr = errors.New("no available bind addresses")

// Listen opens the preferred address, or the first free candidate when
// autoFallback is set. The listener is returned already bound so the
// choice cannot be lost to another process.
func Listen(preferred string, candidates []string, autoFallback bool) (net.Listener, error) {
	if preferred != "" {
		ln, err := net.Listen("tcp", preferred)
		if err == nil {
			return ln, nil
		}
		if !autoFallback {
			return nil, fmt.Errorf("preferred bind address in use: %s: %w", preferred, err)
		}
		slog.Warn("preferred bind address unavailable, trying candidates", "preferred", preferred, "error", err)
	}

	for _, addr := range candidates {
		if addr == preferred {
			continue
		}
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			slog.Debug("bind candidate unavailable", "addr", addr, "error", err)
			continue
		}
		return ln, nil
	}
	return nil, errNoBindAddr
}
