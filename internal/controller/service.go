package controller

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dgnsrekt/surfacebridge/internal/metrics"
	"github.com/dgnsrekt/surfacebridge/internal/printjob"
	"github.com/dgnsrekt/surfacebridge/internal/router"
	"github.com/dgnsrekt/surfacebridge/internal/selection"
	"github.com/dgnsrekt/surfacebridge/internal/surface"
	"github.com/dgnsrekt/surfacebridge/internal/types"
	"github.com/dgnsrekt/surfacebridge/internal/uiloop"
	"github.com/dgnsrekt/surfacebridge/internal/viewtree"
)

// SurfaceDefaults apply to every new surface.
type SurfaceDefaults struct {
	ModuleName       string
	PrintCommand     string
	SelectionTimeout time.Duration
	MessagingEnabled bool
	MenuItems        []types.MenuItem
}

// Options wires the service.
type Options struct {
	Loop       *uiloop.Loop
	Registry   *viewtree.Registry[*surface.Surface]
	OpenEngine func(ctx context.Context) (surface.Engine, error)
	Dispatcher router.Dispatcher
	Sink       func(module string) router.MessageSink
	Prints     *printjob.Spool
	Metrics    *metrics.Metrics
	Defaults   SurfaceDefaults
}

// CreateSurfaceRequest describes a new surface.
type CreateSurfaceRequest struct {
	URL              string
	MessagingEnabled *bool
}

// ReportingRequest toggles event reporting; nil fields are left alone.
type ReportingRequest struct {
	HasScrollEvent              *bool
	SendContentSizeChangeEvents *bool
	NestedScrollEnabled         *bool
}

// Service runs every host operation on the UI loop.
type Service struct {
	opts Options
}

func NewService(opts Options) *Service {
	return &Service{opts: opts}
}

func (s *Service) requireNonEmpty(value, fieldName string) error {
	if strings.TrimSpace(value) == "" {
		return &types.CodedError{Code: types.CodeValidation, Message: fieldName + " is required"}
	}
	return nil
}

// withSurface resolves tag and runs fn on the UI loop.
func (s *Service) withSurface(ctx context.Context, tag int, fn func(sf *surface.Surface) error) error {
	var opErr error
	err := s.opts.Loop.Call(ctx, func() {
		sf, ok := s.opts.Registry.Lookup(tag)
		if !ok {
			opErr = types.NewError(types.CodeSurfaceNotFound, fmt.Sprintf("surface %d not found", tag), nil)
			return
		}
		opErr = fn(sf)
	})
	if err != nil {
		return err
	}
	return opErr
}

// CreateSurface opens an engine page, attaches a surface to it and
// optionally starts loading a URL.
func (s *Service) CreateSurface(ctx context.Context, req CreateSurfaceRequest) (surface.Info, error) {
	if s.opts.OpenEngine == nil {
		return surface.Info{}, types.NewError(types.CodeEngineUnavailable, "no engine configured", nil)
	}
	eng, err := s.opts.OpenEngine(ctx)
	if err != nil {
		return surface.Info{}, err
	}

	messaging := s.opts.Defaults.MessagingEnabled
	if req.MessagingEnabled != nil {
		messaging = *req.MessagingEnabled
	}

	var (
		info  surface.Info
		opErr error
	)
	err = s.opts.Loop.Call(ctx, func() {
		sf := surface.New(surface.Config{
			Loop:             s.opts.Loop,
			Engine:           eng,
			Registry:         s.opts.Registry,
			Dispatcher:       s.opts.Dispatcher,
			Sink:             s.opts.Sink,
			ModuleName:       s.opts.Defaults.ModuleName,
			Printer:          s.printer(),
			PrintCommand:     s.opts.Defaults.PrintCommand,
			SelectionTimeout: s.opts.Defaults.SelectionTimeout,
			Metrics:          s.opts.Metrics,
		})
		if opErr = sf.Attach(); opErr != nil {
			sf.Destroy(ctx)
			return
		}
		if opErr = sf.SetMessagingEnabled(messaging); opErr != nil {
			sf.Destroy(ctx)
			return
		}
		if len(s.opts.Defaults.MenuItems) > 0 {
			if _, opErr = sf.SetMenuCustomItems(s.opts.Defaults.MenuItems); opErr != nil {
				sf.Destroy(ctx)
				return
			}
		}
		if strings.TrimSpace(req.URL) != "" {
			if opErr = sf.LoadURL(req.URL); opErr != nil {
				sf.Destroy(ctx)
				return
			}
		}
		info = sf.Info()
	})
	if err != nil {
		eng.Close()
		return surface.Info{}, err
	}
	if opErr != nil {
		return surface.Info{}, opErr
	}
	slog.Info("controller surface created", "tag", info.Tag, "url", req.URL, "messaging", messaging)
	return info, nil
}

// printer avoids handing a typed nil spool to the surface.
func (s *Service) printer() surface.Printer {
	if s.opts.Prints == nil {
		return nil
	}
	return s.opts.Prints
}

func (s *Service) ListSurfaces(ctx context.Context) ([]surface.Info, error) {
	var infos []surface.Info
	err := s.opts.Loop.Call(ctx, func() {
		for _, tag := range s.opts.Registry.List() {
			if sf, ok := s.opts.Registry.Lookup(tag); ok {
				infos = append(infos, sf.Info())
			}
		}
	})
	if infos == nil {
		infos = []surface.Info{}
	}
	return infos, err
}

func (s *Service) GetSurface(ctx context.Context, tag int) (surface.Info, error) {
	var info surface.Info
	err := s.withSurface(ctx, tag, func(sf *surface.Surface) error {
		info = sf.Info()
		return nil
	})
	return info, err
}

func (s *Service) DestroySurface(ctx context.Context, tag int) error {
	return s.withSurface(ctx, tag, func(sf *surface.Surface) error {
		sf.Destroy(ctx)
		return nil
	})
}

func (s *Service) SetMessaging(ctx context.Context, tag int, enabled bool) (surface.Info, error) {
	var info surface.Info
	err := s.withSurface(ctx, tag, func(sf *surface.Surface) error {
		if err := sf.SetMessagingEnabled(enabled); err != nil {
			return err
		}
		info = sf.Info()
		return nil
	})
	return info, err
}

// SetInjectedObject replaces the injected object. An empty value clears
// the slot.
func (s *Service) SetInjectedObject(ctx context.Context, tag int, value string) error {
	if strings.TrimSpace(value) == "" {
		return s.withSurface(ctx, tag, func(sf *surface.Surface) error {
			return sf.ClearInjectedObjectJSON()
		})
	}
	if !json.Valid([]byte(value)) {
		return types.NewError(types.CodeValidation, "injected_object_json must be valid JSON", nil)
	}
	return s.withSurface(ctx, tag, func(sf *surface.Surface) error {
		return sf.SetInjectedObjectJSON(value)
	})
}

func (s *Service) SetMenuItems(ctx context.Context, tag int, items []types.MenuItem) ([]selection.Entry, error) {
	var entries []selection.Entry
	err := s.withSurface(ctx, tag, func(sf *surface.Surface) error {
		var err error
		entries, err = sf.SetMenuCustomItems(items)
		return err
	})
	return entries, err
}

func (s *Service) SetReporting(ctx context.Context, tag int, req ReportingRequest) (surface.Info, error) {
	var info surface.Info
	err := s.withSurface(ctx, tag, func(sf *surface.Surface) error {
		if req.HasScrollEvent != nil {
			if err := sf.SetHasScrollEvent(*req.HasScrollEvent); err != nil {
				return err
			}
		}
		if req.SendContentSizeChangeEvents != nil {
			if err := sf.SetSendContentSizeChangeEvents(*req.SendContentSizeChangeEvents); err != nil {
				return err
			}
		}
		if req.NestedScrollEnabled != nil {
			if err := sf.SetNestedScrollEnabled(*req.NestedScrollEnabled); err != nil {
				return err
			}
		}
		info = sf.Info()
		return nil
	})
	return info, err
}

func (s *Service) LoadURL(ctx context.Context, tag int, url string) (surface.Info, error) {
	if err := s.requireNonEmpty(url, "url"); err != nil {
		return surface.Info{}, err
	}
	var info surface.Info
	err := s.withSurface(ctx, tag, func(sf *surface.Surface) error {
		if err := sf.LoadURL(strings.TrimSpace(url)); err != nil {
			return err
		}
		info = sf.Info()
		return nil
	})
	return info, err
}

func (s *Service) InjectJavaScript(ctx context.Context, tag int, script string) error {
	if err := s.requireNonEmpty(script, "script"); err != nil {
		return err
	}
	return s.withSurface(ctx, tag, func(sf *surface.Surface) error {
		return sf.InjectJavaScript(script)
	})
}

// SetInjectedScripts replaces the after-load and before-content-loaded
// scripts; nil leaves a script unchanged and "" clears it.
func (s *Service) SetInjectedScripts(ctx context.Context, tag int, afterLoad, beforeContentLoaded *string) error {
	return s.withSurface(ctx, tag, func(sf *surface.Surface) error {
		if afterLoad != nil {
			if err := sf.SetInjectedJavaScript(*afterLoad); err != nil {
				return err
			}
		}
		if beforeContentLoaded != nil {
			if err := sf.SetInjectedJavaScriptBeforeContentLoaded(*beforeContentLoaded); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Service) ActionMode(ctx context.Context, tag int) (selection.Snapshot, error) {
	var snap selection.Snapshot
	err := s.withSurface(ctx, tag, func(sf *surface.Surface) error {
		var err error
		snap, err = sf.ActionMode()
		return err
	})
	return snap, err
}

func (s *Service) StartActionMode(ctx context.Context, tag int) (selection.Snapshot, error) {
	var snap selection.Snapshot
	err := s.withSurface(ctx, tag, func(sf *surface.Surface) error {
		var err error
		snap, err = sf.StartActionMode()
		return err
	})
	return snap, err
}

func (s *Service) ClickMenuItem(ctx context.Context, tag int, itemID string) (selection.Snapshot, error) {
	if err := s.requireNonEmpty(itemID, "item_id"); err != nil {
		return selection.Snapshot{}, err
	}
	var snap selection.Snapshot
	err := s.withSurface(ctx, tag, func(sf *surface.Surface) error {
		if err := sf.ClickMenuItem(itemID); err != nil {
			return err
		}
		var err error
		snap, err = sf.ActionMode()
		return err
	})
	return snap, err
}

func (s *Service) ListPrints(ctx context.Context) ([]printjob.Job, error) {
	_ = ctx
	if s.opts.Prints == nil {
		return []printjob.Job{}, nil
	}
	return s.opts.Prints.List()
}

func (s *Service) GetPrint(ctx context.Context, id string) (printjob.Job, error) {
	_ = ctx
	if s.opts.Prints == nil {
		return printjob.Job{}, types.NewError(types.CodePrintNotFound, "print not found: "+id, nil)
	}
	return s.opts.Prints.Get(id)
}

func (s *Service) ReadPrintPDF(ctx context.Context, id string) ([]byte, error) {
	_ = ctx
	if s.opts.Prints == nil {
		return nil, types.NewError(types.CodePrintNotFound, "print not found: "+id, nil)
	}
	return s.opts.Prints.ReadPDF(id)
}

func (s *Service) DeletePrint(ctx context.Context, id string) error {
	_ = ctx
	if s.opts.Prints == nil {
		return types.NewError(types.CodePrintNotFound, "print not found: "+id, nil)
	}
	return s.opts.Prints.Delete(id)
}

// Shutdown destroys every surface.
func (s *Service) Shutdown(ctx context.Context) error {
	return s.opts.Loop.Call(ctx, func() {
		for _, tag := range s.opts.Registry.List() {
			if sf, ok := s.opts.Registry.Lookup(tag); ok {
				sf.Destroy(ctx)
			}
		}
	})
}
