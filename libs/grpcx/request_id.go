package grpcx

import (
	"context"

	"github.com/google/uuid"
	"github.com/teampro-ai/teampro/libs/httpx"
)

// RequestIDMetadataKey is the key used for request id propagation over gRPC metadata.
const RequestIDMetadataKey = "x-request-id"

// The gRPC and HTTP layers share one context key so an id survives HTTP -> gRPC -> HTTP hops.
func RequestIDFromContext(ctx context.Context) string {
	return httpx.RequestIDFromContext(ctx)
}

func WithRequestID(ctx context.Context, id string) context.Context {
	return httpx.ContextWithRequestID(ctx, id)
}

func NewRequestID() string {
	return uuid.NewString()
}
