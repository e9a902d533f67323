package main

import (
	"context"
	"errors"
	"log/slog"
	"net"

	"github.com/teampro-ai/teampro/libs/auth"
	"github.com/teampro-ai/teampro/libs/config"
	"github.com/teampro-ai/teampro/libs/directory"
	"github.com/teampro-ai/teampro/libs/facility"
	"github.com/teampro-ai/teampro/libs/grpcx"
	"github.com/teampro-ai/teampro/services/facility-service/internal/facilities"
	"github.com/teampro-ai/teampro/services/facility-service/internal/storage"
)

// directoryBackend serves directory lookups from the facility catalogue.
type directoryBackend struct {
	svc *facilities.Service
}

func (b directoryBackend) GetFacility(ctx context.Context, id string) (facility.Facility, error) {
	f, err := b.svc.GetFacility(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return facility.Facility{}, directory.ErrNotFound
	}
	return f, err
}

func (b directoryBackend) ListFacilities(ctx context.Context, includeInactive bool) ([]facility.Facility, error) {
	// Internal callers see the whole catalogue.
	return b.svc.ListFacilities(ctx, facilities.Actor{Role: auth.RoleSuperAdmin}, includeInactive)
}

func startGrpcServer(ctx context.Context, logger *slog.Logger, svc *facilities.Service) error {
	port, err := config.Port("GRPC_PORT", "9092")
	if err != nil {
		return err
	}
	lis, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return err
	}

	srv := grpcx.NewServer(logger)
	directory.Register(srv, directoryBackend{svc: svc})

	go func() {
		logger.Info("grpc server starting", "addr", lis.Addr().String())
		if err := srv.Serve(lis); err != nil {
			logger.Error("grpc server error", "err", err)
		}
	}()

	go func() {
		<-ctx.Done()
		srv.GracefulStop()
	}()

	return nil
}
