package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dgnsrekt/surfacebridge/internal/controller"
	"github.com/dgnsrekt/surfacebridge/internal/printjob"
	"github.com/dgnsrekt/surfacebridge/internal/selection"
	"github.com/dgnsrekt/surfacebridge/internal/surface"
	"github.com/dgnsrekt/surfacebridge/internal/types"
)

type Service interface {
	CreateSurface(ctx context.Context, req controller.CreateSurfaceRequest) (surface.Info, error)
	ListSurfaces(ctx context.Context) ([]surface.Info, error)
	GetSurface(ctx context.Context, tag int) (surface.Info, error)
	DestroySurface(ctx context.Context, tag int) error
	SetMessaging(ctx context.Context, tag int, enabled bool) (surface.Info, error)
	SetInjectedObject(ctx context.Context, tag int, value string) error
	SetMenuItems(ctx context.Context, tag int, items []types.MenuItem) ([]selection.Entry, error)
	SetReporting(ctx context.Context, tag int, req controller.ReportingRequest) (surface.Info, error)
	LoadURL(ctx context.Context, tag int, url string) (surface.Info, error)
	InjectJavaScript(ctx context.Context, tag int, script string) error
	SetInjectedScripts(ctx context.Context, tag int, afterLoad, beforeContentLoaded *string) error
	ActionMode(ctx context.Context, tag int) (selection.Snapshot, error)
	StartActionMode(ctx context.Context, tag int) (selection.Snapshot, error)
	ClickMenuItem(ctx context.Context, tag int, itemID string) (selection.Snapshot, error)
	ListPrints(ctx context.Context) ([]printjob.Job, error)
	GetPrint(ctx context.Context, id string) (printjob.Job, error)
	ReadPrintPDF(ctx context.Context, id string) ([]byte, error)
	DeletePrint(ctx context.Context, id string) error
}

// Streams are the raw handlers mounted beside the JSON API. Nil entries
// are not mounted.
type Streams struct {
	Events   http.Handler
	HostLink http.Handler
	Metrics  http.Handler
}

type tagInput struct {
	Tag int `path:"tag" minimum:"1" doc:"Surface tag"`
}

type statusOutput struct {
	Body struct {
		Status string `json:"status"`
	}
}

func newStatus(status string) *statusOutput {
	out := &statusOutput{}
	out.Body.Status = status
	return out
}

func NewServer(svc Service, streams Streams) http.Handler {
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(requestLogger)
	router.Use(recoverer)

	cfg := huma.DefaultConfig("Surface Bridge API", "1.0.0")
	cfg.DocsPath = ""
	api := humachi.New(router, cfg)

	router.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		if _, err := w.Write([]byte(docsHTML)); err != nil {
			slog.Debug("docs response write failed", "error", err)
		}
	})
	router.Get("/docs/streams", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		if _, err := w.Write([]byte(streamsDocsHTML)); err != nil {
			slog.Debug("streams docs response write failed", "error", err)
		}
	})
	if streams.Events != nil {
		router.Method(http.MethodGet, "/api/v1/events", streams.Events)
	}
	if streams.HostLink != nil {
		router.Method(http.MethodGet, "/api/v1/hostlink", streams.HostLink)
	}
	if streams.Metrics != nil {
		router.Method(http.MethodGet, "/metrics", streams.Metrics)
	}

	huma.Register(api, huma.Operation{OperationID: "health", Method: http.MethodGet, Path: "/health", Summary: "Health check", Tags: []string{"Health"}},
		func(ctx context.Context, input *struct{}) (*statusOutput, error) {
			return newStatus("ok"), nil
		})

	registerSurfaceHandlers(api, svc)
	registerSelectionHandlers(api, svc)
	registerPrintHandlers(api, svc)

	return router
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	var coded *types.CodedError
	if errors.As(err, &coded) {
		switch coded.Code {
		case types.CodeValidation:
			return huma.Error400BadRequest(coded.Message)
		case types.CodeSurfaceNotFound, types.CodePrintNotFound:
			return huma.Error404NotFound(coded.Message)
		case types.CodeSelectionBusy:
			return huma.Error409Conflict(coded.Message)
		case types.CodeSurfaceDestroyed:
			return huma.Error410Gone(coded.Message)
		case types.CodeEngineUnavailable, types.CodeEvalFailure:
			return huma.Error502BadGateway(coded.Message)
		case types.CodeLoopClosed:
			return huma.Error503ServiceUnavailable(coded.Message)
		default:
			return huma.Error500InternalServerError(fmt.Sprintf("%s: %s", coded.Code, coded.Message))
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return huma.Error504GatewayTimeout(err.Error())
	}
	return huma.Error500InternalServerError(err.Error())
}
