package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/dgnsrekt/surfacebridge/internal/printjob"
)

func registerPrintHandlers(api huma.API, svc Service) {
	type listPrintsOutput struct {
		Body struct {
			Prints []printjob.Job `json:"prints"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "list-prints", Method: http.MethodGet, Path: "/api/v1/prints", Summary: "List printed documents", Tags: []string{"Prints"}},
		func(ctx context.Context, input *struct{}) (*listPrintsOutput, error) {
			jobs, err := svc.ListPrints(ctx)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &listPrintsOutput{}
			out.Body.Prints = jobs
			if out.Body.Prints == nil {
				out.Body.Prints = []printjob.Job{}
			}
			return out, nil
		})

	type printIDInput struct {
		PrintID string `path:"print_id"`
	}
	type getPrintOutput struct {
		Body printjob.Job
	}
	huma.Register(api, huma.Operation{OperationID: "get-print", Method: http.MethodGet, Path: "/api/v1/prints/{print_id}", Summary: "Get print metadata", Tags: []string{"Prints"}},
		func(ctx context.Context, input *printIDInput) (*getPrintOutput, error) {
			job, err := svc.GetPrint(ctx, input.PrintID)
			if err != nil {
				return nil, mapErr(err)
			}
			return &getPrintOutput{Body: job}, nil
		})

	type printPDFOutput struct {
		ContentType string `header:"Content-Type"`
		Body        []byte
	}
	huma.Register(api, huma.Operation{OperationID: "get-print-pdf", Method: http.MethodGet, Path: "/api/v1/prints/{print_id}/pdf", Summary: "Download a printed document", Tags: []string{"Prints"}},
		func(ctx context.Context, input *printIDInput) (*printPDFOutput, error) {
			data, err := svc.ReadPrintPDF(ctx, input.PrintID)
			if err != nil {
				return nil, mapErr(err)
			}
			return &printPDFOutput{ContentType: "application/pdf", Body: data}, nil
		})

	huma.Register(api, huma.Operation{OperationID: "delete-print", Method: http.MethodDelete, Path: "/api/v1/prints/{print_id}", Summary: "Delete a printed document", Tags: []string{"Prints"}},
		func(ctx context.Context, input *printIDInput) (*statusOutput, error) {
			if err := svc.DeletePrint(ctx, input.PrintID); err != nil {
				return nil, mapErr(err)
			}
			return newStatus("deleted"), nil
		})
}
