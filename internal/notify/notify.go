// Package notify posts plain text notifications to an ntfy style endpoint.
package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dgnsrekt/surfacebridge/internal/printjob"
)

const sendTimeout = 10 * time.Second

var errNoEndpoint = errors.New("notify: endpoint is required")

// Notifier announces finished print jobs.
type Notifier struct {
	endpoint string
	client   *http.Client
}

// New returns a Notifier for endpoint. client may be nil.
func New(endpoint string, client *http.Client) *Notifier {
	if client == nil {
		client = &http.Client{Timeout: sendTimeout}
	}
	return &Notifier{endpoint: endpoint, client: client}
}

// PrintSaved posts a one line summary of job.
func (n *Notifier) PrintSaved(ctx context.Context, job printjob.Job) error {
	return Send(ctx, n.client, n.endpoint, printMessage(job))
}

// PrintSavedAsync is PrintSaved on its own goroutine; failures are logged.
func (n *Notifier) PrintSavedAsync(job printjob.Job) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()
		if err := n.PrintSaved(ctx, job); err != nil {
			slog.Warn("notify print saved failed", "print_id", job.ID, "error", err)
		}
	}()
}

func printMessage(job printjob.Job) string {
	title := job.Title
	if title == "" {
		title = job.URL
	}
	return fmt.Sprintf("Print ready from surface %d: %s (%d bytes) /api/v1/prints/%s/pdf", job.SurfaceTag, title, job.SizeBytes, job.ID)
}

// Send sends a message to the requested endpoint using HTTP POST.
func Send(ctx context.Context, client *http.Client, endpoint, message string) error {
	if endpoint == "" {
		return errNoEndpoint
	}
	c := client
	if c == nil {
		c = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(message))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "text/plain")

	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("ntfy notification failed: status=%d", resp.StatusCode)
	}
	return nil
}
