package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/dgnsrekt/surfacebridge/internal/controller"
	"github.com/dgnsrekt/surfacebridge/internal/surface"
)

type surfaceOutput struct {
	Body surface.Info
}

func registerSurfaceHandlers(api huma.API, svc Service) {
	type listSurfacesOutput struct {
		Body struct {
			Surfaces []surface.Info `json:"surfaces"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "list-surfaces", Method: http.MethodGet, Path: "/api/v1/surfaces", Summary: "List attached surfaces", Tags: []string{"Surfaces"}},
		func(ctx context.Context, input *struct{}) (*listSurfacesOutput, error) {
			infos, err := svc.ListSurfaces(ctx)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &listSurfacesOutput{}
			out.Body.Surfaces = infos
			if out.Body.Surfaces == nil {
				out.Body.Surfaces = []surface.Info{}
			}
			return out, nil
		})

	huma.Register(api, huma.Operation{OperationID: "create-surface", Method: http.MethodPost, Path: "/api/v1/surfaces", Summary: "Open a new surface", DefaultStatus: http.StatusCreated, Tags: []string{"Surfaces"}},
		func(ctx context.Context, input *struct {
			Body struct {
				URL              string `json:"url,omitempty" doc:"URL to load once attached"`
				MessagingEnabled *bool  `json:"messaging_enabled,omitempty" doc:"Overrides the configured messaging default"`
			}
		}) (*surfaceOutput, error) {
			info, err := svc.CreateSurface(ctx, controller.CreateSurfaceRequest{
				URL:              input.Body.URL,
				MessagingEnabled: input.Body.MessagingEnabled,
			})
			if err != nil {
				return nil, mapErr(err)
			}
			return &surfaceOutput{Body: info}, nil
		})

	huma.Register(api, huma.Operation{OperationID: "get-surface", Method: http.MethodGet, Path: "/api/v1/surfaces/{tag}", Summary: "Get surface state", Tags: []string{"Surfaces"}},
		func(ctx context.Context, input *tagInput) (*surfaceOutput, error) {
			info, err := svc.GetSurface(ctx, input.Tag)
			if err != nil {
				return nil, mapErr(err)
			}
			return &surfaceOutput{Body: info}, nil
		})

	huma.Register(api, huma.Operation{OperationID: "destroy-surface", Method: http.MethodDelete, Path: "/api/v1/surfaces/{tag}", Summary: "Destroy a surface", Tags: []string{"Surfaces"}},
		func(ctx context.Context, input *tagInput) (*statusOutput, error) {
			if err := svc.DestroySurface(ctx, input.Tag); err != nil {
				return nil, mapErr(err)
			}
			return newStatus("destroyed"), nil
		})

	huma.Register(api, huma.Operation{OperationID: "set-messaging", Method: http.MethodPut, Path: "/api/v1/surfaces/{tag}/messaging", Summary: "Enable or disable page messaging", Tags: []string{"Surfaces"}},
		func(ctx context.Context, input *struct {
			Tag  int `path:"tag" minimum:"1"`
			Body struct {
				Enabled bool `json:"enabled"`
			}
		}) (*surfaceOutput, error) {
			info, err := svc.SetMessaging(ctx, input.Tag, input.Body.Enabled)
			if err != nil {
				return nil, mapErr(err)
			}
			return &surfaceOutput{Body: info}, nil
		})

	huma.Register(api, huma.Operation{OperationID: "set-injected-object", Method: http.MethodPut, Path: "/api/v1/surfaces/{tag}/injected-object", Summary: "Publish a JSON object to page scripts", Tags: []string{"Surfaces"}},
		func(ctx context.Context, input *struct {
			Tag  int `path:"tag" minimum:"1"`
			Body struct {
				JSON string `json:"json" doc:"JSON text exposed to the page as window.ReactNativeWebView.injectedObjectJson(). Empty clears it."`
			}
		}) (*statusOutput, error) {
			if err := svc.SetInjectedObject(ctx, input.Tag, input.Body.JSON); err != nil {
				return nil, mapErr(err)
			}
			return newStatus("updated"), nil
		})

	huma.Register(api, huma.Operation{OperationID: "set-reporting", Method: http.MethodPut, Path: "/api/v1/surfaces/{tag}/reporting", Summary: "Toggle scroll, size and nested scroll reporting", Tags: []string{"Surfaces"}},
		func(ctx context.Context, input *struct {
			Tag  int `path:"tag" minimum:"1"`
			Body struct {
				HasScrollEvent              *bool `json:"has_scroll_event,omitempty"`
				SendContentSizeChangeEvents *bool `json:"send_content_size_change_events,omitempty"`
				NestedScrollEnabled         *bool `json:"nested_scroll_enabled,omitempty"`
			}
		}) (*surfaceOutput, error) {
			info, err := svc.SetReporting(ctx, input.Tag, controller.ReportingRequest{
				HasScrollEvent:              input.Body.HasScrollEvent,
				SendContentSizeChangeEvents: input.Body.SendContentSizeChangeEvents,
				NestedScrollEnabled:         input.Body.NestedScrollEnabled,
			})
			if err != nil {
				return nil, mapErr(err)
			}
			return &surfaceOutput{Body: info}, nil
		})

	huma.Register(api, huma.Operation{OperationID: "load-url", Method: http.MethodPost, Path: "/api/v1/surfaces/{tag}/load-url", Summary: "Load a URL as a host command", Tags: []string{"Surfaces"}},
		func(ctx context.Context, input *struct {
			Tag  int `path:"tag" minimum:"1"`
			Body struct {
				URL string `json:"url" required:"true"`
			}
		}) (*surfaceOutput, error) {
			info, err := svc.LoadURL(ctx, input.Tag, input.Body.URL)
			if err != nil {
				return nil, mapErr(err)
			}
			return &surfaceOutput{Body: info}, nil
		})

	huma.Register(api, huma.Operation{OperationID: "inject-javascript", Method: http.MethodPost, Path: "/api/v1/surfaces/{tag}/inject", Summary: "Evaluate a script in the current document", Tags: []string{"Surfaces"}},
		func(ctx context.Context, input *struct {
			Tag  int `path:"tag" minimum:"1"`
			Body struct {
				Script string `json:"script" required:"true"`
			}
		}) (*statusOutput, error) {
			if err := svc.InjectJavaScript(ctx, input.Tag, input.Body.Script); err != nil {
				return nil, mapErr(err)
			}
			return newStatus("queued"), nil
		})

	huma.Register(api, huma.Operation{OperationID: "set-injected-scripts", Method: http.MethodPut, Path: "/api/v1/surfaces/{tag}/injected-scripts", Summary: "Set scripts run on every load", Description: "Omitted fields are left unchanged; an empty string clears a script.", Tags: []string{"Surfaces"}},
		func(ctx context.Context, input *struct {
			Tag  int `path:"tag" minimum:"1"`
			Body struct {
				AfterLoad           *string `json:"after_load,omitempty" doc:"Evaluated when each load finishes"`
				BeforeContentLoaded *string `json:"before_content_loaded,omitempty" doc:"Evaluated before page scripts in each new document"`
			}
		}) (*statusOutput, error) {
			if err := svc.SetInjectedScripts(ctx, input.Tag, input.Body.AfterLoad, input.Body.BeforeContentLoaded); err != nil {
				return nil, mapErr(err)
			}
			return newStatus("updated"), nil
		})
}
