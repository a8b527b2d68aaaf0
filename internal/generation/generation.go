// Package generation talks to the downstream image-generation provider.
// The gate only invokes it after a request has been admitted.
package generation

import (
	"context"

	"imagegate-service/internal/model"
)

// Generator produces images for an admitted, validated request. The request
// always carries an output count already clamped by the admission layer.
type Generator interface {
	Generate(ctx context.Context, req *model.GenerationRequest) (*Result, error)
}

// Result is what the gate returns to the client alongside quota metadata.
type Result struct {
	Images []model.GeneratedImage
	Note   string
}

// Disabled is the Generator used when no provider is configured: the gate
// still runs, it just stops at admission.
type Disabled struct{}

func (Disabled) Generate(context.Context, *model.GenerationRequest) (*Result, error) {
	return &Result{Note: "Gate OK. Image generation is not enabled on this deployment."}, nil
}
