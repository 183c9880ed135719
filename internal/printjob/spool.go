// Package printjob keeps PDFs produced by content print requests.
package printjob

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dgnsrekt/surfacebridge/internal/types"
)

var uuidRe = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// Job describes a stored print.
type Job struct {
	ID         string    `json:"id"`
	SurfaceTag int       `json:"surface_tag"`
	URL        string    `json:"url,omitempty"`
	Title      string    `json:"title,omitempty"`
	SizeBytes  int       `json:"size_bytes"`
	CreatedAt  time.Time `json:"created_at"`
}

// Spool manages print files on disk: <id>.pdf plus a <id>.json sidecar.
type Spool struct {
	dir     string
	mu      sync.RWMutex
	now     func() time.Time
	onSaved func(Job)
}

// NewSpool creates a Spool and ensures the directory exists.
func NewSpool(dir string) (*Spool, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("print spool: mkdir %s: %w", dir, err)
	}
	return &Spool{dir: dir, now: time.Now}, nil
}

func validateID(id string) error {
	if !uuidRe.MatchString(id) {
		return types.NewError(types.CodeValidation, fmt.Sprintf("invalid print id: %q", id), nil)
	}
	return nil
}

// SavePDF stores pdf under a fresh id and returns it.
func (s *Spool) SavePDF(surfaceTag int, url, title string, pdf []byte) (string, error) {
	job := Job{
		ID:         uuid.NewString(),
		SurfaceTag: surfaceTag,
		URL:        url,
		Title:      title,
		SizeBytes:  len(pdf),
		CreatedAt:  s.now().UTC(),
	}
	if err := s.Save(job, pdf); err != nil {
		return "", err
	}

	s.mu.RLock()
	fn := s.onSaved
	s.mu.RUnlock()
	if fn != nil {
		fn(job)
	}
	return job.ID, nil
}

// OnSaved registers fn to run after each SavePDF, on the saving goroutine.
func (s *Spool) OnSaved(fn func(Job)) {
	s.mu.Lock()
	s.onSaved = fn
	s.mu.Unlock()
}

// Save writes both the PDF and its metadata sidecar.
func (s *Spool) Save(job Job, pdf []byte) error {
	if err := validateID(job.ID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	pdfPath := filepath.Join(s.dir, job.ID+".pdf")
	jsonPath := filepath.Join(s.dir, job.ID+".json")

	if err := os.WriteFile(pdfPath, pdf, 0o644); err != nil {
		return fmt.Errorf("print spool: write pdf: %w", err)
	}

	data, err := json.MarshalIndent(job, "", "  ")
	if err != nil {
		_ = os.Remove(pdfPath)
		return fmt.Errorf("print spool: marshal meta: %w", err)
	}

	if err := os.WriteFile(jsonPath, data, 0o644); err != nil {
		_ = os.Remove(pdfPath)
		return fmt.Errorf("print spool: write meta: %w", err)
	}

	return nil
}

// Get reads job metadata by id.
func (s *Spool) Get(id string) (Job, error) {
	if err := validateID(id); err != nil {
		return Job{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.readMeta(id)
}

func (s *Spool) readMeta(id string) (Job, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, id+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			return Job{}, types.NewError(types.CodePrintNotFound, "print not found: "+id, nil)
		}
		return Job{}, fmt.Errorf("print spool: read meta: %w", err)
	}

	var job Job
	if err := json.Unmarshal(data, &job); err != nil {
		return Job{}, fmt.Errorf("print spool: unmarshal meta: %w", err)
	}
	return job, nil
}

// List returns all jobs, newest first.
func (s *Spool) List() ([]Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches, err := filepath.Glob(filepath.Join(s.dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("print spool: glob: %w", err)
	}

	jobs := make([]Job, 0, len(matches))
	for _, path := range matches {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var job Job
		if err := json.Unmarshal(data, &job); err != nil {
			continue
		}
		jobs = append(jobs, job)
	}

	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
	})
	return jobs, nil
}

// ReadPDF returns the stored document bytes.
func (s *Spool) ReadPDF(id string) ([]byte, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, err := s.readMeta(id); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.dir, id+".pdf"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, types.NewError(types.CodePrintNotFound, "print document not found: "+id, nil)
		}
		return nil, fmt.Errorf("print spool: read pdf: %w", err)
	}
	return data, nil
}

// Delete removes both files.
func (s *Spool) Delete(id string) error {
	if err := validateID(id); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.readMeta(id); err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(s.dir, id+".pdf")); err != nil {
		slog.Debug("print pdf cleanup failed", "id", id, "error", err)
	}
	if err := os.Remove(filepath.Join(s.dir, id+".json")); err != nil {
		return fmt.Errorf("print spool: remove meta: %w", err)
	}
	return nil
}
