package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/dgnsrekt/surfacebridge/internal/selection"
	"github.com/dgnsrekt/surfacebridge/internal/types"
)

func registerSelectionHandlers(api huma.API, svc Service) {
	type menuItemsOutput struct {
		Body struct {
			Items []selection.Entry `json:"items"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "set-menu-items", Method: http.MethodPut, Path: "/api/v1/surfaces/{tag}/menu-items", Summary: "Replace the custom selection menu", Description: "An empty list restores the engine's default menu.", Tags: []string{"Selection"}},
		func(ctx context.Context, input *struct {
			Tag  int `path:"tag" minimum:"1"`
			Body struct {
				Items []types.MenuItem `json:"items"`
			}
		}) (*menuItemsOutput, error) {
			entries, err := svc.SetMenuItems(ctx, input.Tag, input.Body.Items)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &menuItemsOutput{}
			out.Body.Items = entries
			if out.Body.Items == nil {
				out.Body.Items = []selection.Entry{}
			}
			return out, nil
		})

	type actionModeOutput struct {
		Body selection.Snapshot
	}
	huma.Register(api, huma.Operation{OperationID: "get-action-mode", Method: http.MethodGet, Path: "/api/v1/surfaces/{tag}/action-mode", Summary: "Get selection menu state", Tags: []string{"Selection"}},
		func(ctx context.Context, input *tagInput) (*actionModeOutput, error) {
			snap, err := svc.ActionMode(ctx, input.Tag)
			if err != nil {
				return nil, mapErr(err)
			}
			return &actionModeOutput{Body: snap}, nil
		})

	huma.Register(api, huma.Operation{OperationID: "start-action-mode", Method: http.MethodPost, Path: "/api/v1/surfaces/{tag}/action-mode", Summary: "Open the selection menu", Tags: []string{"Selection"}},
		func(ctx context.Context, input *tagInput) (*actionModeOutput, error) {
			snap, err := svc.StartActionMode(ctx, input.Tag)
			if err != nil {
				return nil, mapErr(err)
			}
			return &actionModeOutput{Body: snap}, nil
		})

	huma.Register(api, huma.Operation{OperationID: "click-menu-item", Method: http.MethodPost, Path: "/api/v1/surfaces/{tag}/action-mode/items/{item_id}", Summary: "Click a custom menu item", Description: "Reads the current selection and reports it to the host with the item's key.", Tags: []string{"Selection"}},
		func(ctx context.Context, input *struct {
			Tag    int    `path:"tag" minimum:"1"`
			ItemID string `path:"item_id"`
		}) (*actionModeOutput, error) {
			snap, err := svc.ClickMenuItem(ctx, input.Tag, input.ItemID)
			if err != nil {
				return nil, mapErr(err)
			}
			return &actionModeOutput{Body: snap}, nil
		})
}
