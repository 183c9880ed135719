package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/danielgtaylor/huma/v2"

	"github.com/dgnsrekt/surfacebridge/internal/controller"
	"github.com/dgnsrekt/surfacebridge/internal/printjob"
	"github.com/dgnsrekt/surfacebridge/internal/selection"
	"github.com/dgnsrekt/surfacebridge/internal/surface"
	"github.com/dgnsrekt/surfacebridge/internal/types"
)

type stubService struct {
	surfaces  map[int]surface.Info
	clickErr  error
	loadedURL string
	reporting controller.ReportingRequest
	pdf       []byte
}

func newStubService() *stubService {
	return &stubService{
		surfaces: map[int]surface.Info{1: {Tag: 1, State: "attached", URL: "https://example.com"}},
		pdf:      []byte("%PDF-1.4"),
	}
}

func (s *stubService) lookup(tag int) (surface.Info, error) {
	info, ok := s.surfaces[tag]
	if !ok {
		return surface.Info{}, types.NewError(types.CodeSurfaceNotFound, "surface not found", nil)
	}
	return info, nil
}

func (s *stubService) CreateSurface(ctx context.Context, req controller.CreateSurfaceRequest) (surface.Info, error) {
	info := surface.Info{Tag: len(s.surfaces) + 1, State: "attached", URL: req.URL}
	s.surfaces[info.Tag] = info
	return info, nil
}
func (s *stubService) ListSurfaces(ctx context.Context) ([]surface.Info, error) {
	return []surface.Info{s.surfaces[1]}, nil
}
func (s *stubService) GetSurface(ctx context.Context, tag int) (surface.Info, error) {
	return s.lookup(tag)
}
func (s *stubService) DestroySurface(ctx context.Context, tag int) error {
	_, err := s.lookup(tag)
	return err
}
func (s *stubService) SetMessaging(ctx context.Context, tag int, enabled bool) (surface.Info, error) {
	info, err := s.lookup(tag)
	info.MessagingEnabled = enabled
	return info, err
}
func (s *stubService) SetInjectedObject(ctx context.Context, tag int, value string) error {
	return nil
}
func (s *stubService) SetMenuItems(ctx context.Context, tag int, items []types.MenuItem) ([]selection.Entry, error) {
	var out []selection.Entry
	for i, it := range items {
		out = append(out, selection.Entry{ID: string(rune('a' + i)), Label: it.Label, Key: it.Key})
	}
	return out, nil
}
func (s *stubService) SetReporting(ctx context.Context, tag int, req controller.ReportingRequest) (surface.Info, error) {
	s.reporting = req
	return s.lookup(tag)
}
func (s *stubService) LoadURL(ctx context.Context, tag int, url string) (surface.Info, error) {
	s.loadedURL = url
	return s.lookup(tag)
}
func (s *stubService) InjectJavaScript(ctx context.Context, tag int, script string) error {
	return nil
}
func (s *stubService) SetInjectedScripts(ctx context.Context, tag int, afterLoad, beforeContentLoaded *string) error {
	return nil
}
func (s *stubService) ActionMode(ctx context.Context, tag int) (selection.Snapshot, error) {
	return selection.Snapshot{State: "inactive"}, nil
}
func (s *stubService) StartActionMode(ctx context.Context, tag int) (selection.Snapshot, error) {
	return selection.Snapshot{State: "active", Override: true}, nil
}
func (s *stubService) ClickMenuItem(ctx context.Context, tag int, itemID string) (selection.Snapshot, error) {
	return selection.Snapshot{State: "resolvingSelection"}, s.clickErr
}
func (s *stubService) ListPrints(ctx context.Context) ([]printjob.Job, error) { return nil, nil }
func (s *stubService) GetPrint(ctx context.Context, id string) (printjob.Job, error) {
	return printjob.Job{ID: id}, nil
}
func (s *stubService) ReadPrintPDF(ctx context.Context, id string) ([]byte, error) {
	return s.pdf, nil
}
func (s *stubService) DeletePrint(ctx context.Context, id string) error {
	return types.NewError(types.CodePrintNotFound, "print not found: "+id, nil)
}

func serve(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestDocsDarkMode(t *testing.T) {
	h := NewServer(newStubService(), Streams{})
	w := serve(t, h, http.MethodGet, "/docs", "")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	body := w.Body.String()
	if !strings.Contains(body, `data-theme="dark"`) {
		t.Fatalf("docs missing dark theme marker")
	}
	if !strings.Contains(body, `/docs/streams`) {
		t.Fatalf("docs missing streams link")
	}
	for _, op := range []string{"list-surfaces", "set-menu-items", "list-prints"} {
		if !strings.Contains(body, "#/operations/"+op) {
			t.Fatalf("docs missing group link to %s", op)
		}
	}
}

func TestStreamsDocs(t *testing.T) {
	h := NewServer(newStubService(), Streams{})
	w := serve(t, h, http.MethodGet, "/docs/streams", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if !strings.Contains(w.Body.String(), "/api/v1/hostlink") {
		t.Fatalf("streams docs missing hostlink endpoint")
	}
}

func TestHealth(t *testing.T) {
	h := NewServer(newStubService(), Streams{})
	w := serve(t, h, http.MethodGet, "/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if !strings.Contains(w.Body.String(), `"ok"`) {
		t.Fatalf("body = %s; want status ok", w.Body.String())
	}
}

func TestGetSurface_NotFoundMapsTo404(t *testing.T) {
	h := NewServer(newStubService(), Streams{})
	w := serve(t, h, http.MethodGet, "/api/v1/surfaces/7", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestCreateSurface_Returns201(t *testing.T) {
	h := NewServer(newStubService(), Streams{})
	w := serve(t, h, http.MethodPost, "/api/v1/surfaces", `{"url":"https://example.org"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d; body = %s", w.Code, http.StatusCreated, w.Body.String())
	}
	var info surface.Info
	if err := json.Unmarshal(w.Body.Bytes(), &info); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if info.Tag != 2 || info.URL != "https://example.org" {
		t.Fatalf("CreateSurface() = %+v; want tag 2 at https://example.org", info)
	}
}

func TestLoadURL_PassesURL(t *testing.T) {
	svc := newStubService()
	h := NewServer(svc, Streams{})
	w := serve(t, h, http.MethodPost, "/api/v1/surfaces/1/load-url", `{"url":"https://example.com/next"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body = %s", w.Code, http.StatusOK, w.Body.String())
	}
	if svc.loadedURL != "https://example.com/next" {
		t.Fatalf("LoadURL() url = %q; want %q", svc.loadedURL, "https://example.com/next")
	}
}

func TestSetReporting_OmittedFieldsStayNil(t *testing.T) {
	svc := newStubService()
	h := NewServer(svc, Streams{})
	w := serve(t, h, http.MethodPut, "/api/v1/surfaces/1/reporting", `{"has_scroll_event":true}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d; body = %s", w.Code, http.StatusOK, w.Body.String())
	}
	if svc.reporting.HasScrollEvent == nil || !*svc.reporting.HasScrollEvent {
		t.Fatalf("HasScrollEvent = %v; want true", svc.reporting.HasScrollEvent)
	}
	if svc.reporting.SendContentSizeChangeEvents != nil || svc.reporting.NestedScrollEnabled != nil {
		t.Fatalf("reporting = %+v; want untouched fields nil", svc.reporting)
	}
}

func TestClickMenuItem_BusyMapsTo409(t *testing.T) {
	svc := newStubService()
	svc.clickErr = types.NewError(types.CodeSelectionBusy, "selection already resolving", nil)
	h := NewServer(svc, Streams{})
	w := serve(t, h, http.MethodPost, "/api/v1/surfaces/1/action-mode/items/abc", "")
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusConflict)
	}
}

func TestListPrints_EmptyArray(t *testing.T) {
	h := NewServer(newStubService(), Streams{})
	w := serve(t, h, http.MethodGet, "/api/v1/prints", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if !strings.Contains(w.Body.String(), `"prints":[]`) {
		t.Fatalf("body = %s; want empty prints array", w.Body.String())
	}
}

func TestPrintPDF_ContentType(t *testing.T) {
	h := NewServer(newStubService(), Streams{})
	w := serve(t, h, http.MethodGet, "/api/v1/prints/abc/pdf", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if got := w.Header().Get("Content-Type"); got != "application/pdf" {
		t.Fatalf("Content-Type = %q; want application/pdf", got)
	}
	if w.Body.String() != "%PDF-1.4" {
		t.Fatalf("body = %q; want %q", w.Body.String(), "%PDF-1.4")
	}
}

func TestStreamsMounted(t *testing.T) {
	hit := ""
	mark := func(name string) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hit = name
			w.WriteHeader(http.StatusTeapot)
		})
	}
	h := NewServer(newStubService(), Streams{Events: mark("events"), HostLink: mark("hostlink"), Metrics: mark("metrics")})

	for path, want := range map[string]string{
		"/api/v1/events":   "events",
		"/api/v1/hostlink": "hostlink",
		"/metrics":         "metrics",
	} {
		hit = ""
		w := serve(t, h, http.MethodGet, path, "")
		if w.Code != http.StatusTeapot || hit != want {
			t.Fatalf("GET %s = %d via %q; want %d via %q", path, w.Code, hit, http.StatusTeapot, want)
		}
	}
}

func TestRecoverer(t *testing.T) {
	h := recoverer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	w := serve(t, h, http.MethodGet, "/", "")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
}

func TestMapErr(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{types.NewError(types.CodeValidation, "bad", nil), http.StatusBadRequest},
		{types.NewError(types.CodeSurfaceNotFound, "missing", nil), http.StatusNotFound},
		{types.NewError(types.CodePrintNotFound, "missing", nil), http.StatusNotFound},
		{types.NewError(types.CodeSelectionBusy, "busy", nil), http.StatusConflict},
		{types.NewError(types.CodeSurfaceDestroyed, "gone", nil), http.StatusGone},
		{types.NewError(types.CodeEngineUnavailable, "down", nil), http.StatusBadGateway},
		{types.NewError(types.CodeEvalFailure, "eval", nil), http.StatusBadGateway},
		{types.NewError(types.CodeLoopClosed, "closed", nil), http.StatusServiceUnavailable},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{errors.New("other"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		var se huma.StatusError
		if !errors.As(mapErr(tt.err), &se) {
			t.Fatalf("mapErr(%v) is not a huma.StatusError", tt.err)
		}
		if se.GetStatus() != tt.want {
			t.Fatalf("mapErr(%v) status = %d; want %d", tt.err, se.GetStatus(), tt.want)
		}
	}
	if mapErr(nil) != nil {
		t.Fatalf("mapErr(nil) != nil")
	}
}
