// Package directory is the read-only facility lookup other services use over
// gRPC. Messages are plain structs carried with the JSON codec.
package directory

import (
	"context"
	"errors"

	"github.com/teampro-ai/teampro/libs/facility"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const ServiceName = "teampro.facility.v1.FacilityDirectory"

const (
	methodGetFacility    = "/" + ServiceName + "/GetFacility"
	methodListFacilities = "/" + ServiceName + "/ListFacilities"
)

// ErrNotFound is returned by a Backend for unknown facilities.
var ErrNotFound = errors.New("facility not found")

type GetFacilityRequest struct {
	FacilityID string `json:"facility_id"`
}

type GetFacilityResponse struct {
	Facility facility.Facility `json:"facility"`
}

type ListFacilitiesRequest struct {
	IncludeInactive bool `json:"include_inactive"`
}

type ListFacilitiesResponse struct {
	Facilities []facility.Facility `json:"facilities"`
}

// Backend answers directory lookups.
type Backend interface {
	GetFacility(ctx context.Context, id string) (facility.Facility, error)
	ListFacilities(ctx context.Context, includeInactive bool) ([]facility.Facility, error)
}

type directoryServer interface {
	GetFacility(context.Context, *GetFacilityRequest) (*GetFacilityResponse, error)
	ListFacilities(context.Context, *ListFacilitiesRequest) (*ListFacilitiesResponse, error)
}

type server struct {
	backend Backend
}

// Register installs the directory service on s.
func Register(s *grpc.Server, backend Backend) {
	s.RegisterService(&serviceDesc, &server{backend: backend})
}

func (s *server) GetFacility(ctx context.Context, req *GetFacilityRequest) (*GetFacilityResponse, error) {
	if req.FacilityID == "" {
		return nil, status.Error(codes.InvalidArgument, "facility_id is required")
	}
	f, err := s.backend.GetFacility(ctx, req.FacilityID)
	if err != nil {
		return nil, toStatus(err)
	}
	return &GetFacilityResponse{Facility: f}, nil
}

func (s *server) ListFacilities(ctx context.Context, req *ListFacilitiesRequest) (*ListFacilitiesResponse, error) {
	list, err := s.backend.ListFacilities(ctx, req.IncludeInactive)
	if err != nil {
		return nil, toStatus(err)
	}
	return &ListFacilitiesResponse{Facilities: list}, nil
}

func toStatus(err error) error {
	if _, ok := status.FromError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Internal, "directory lookup failed")
	}
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*directoryServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetFacility", Handler: getFacilityHandler},
		{MethodName: "ListFacilities", Handler: listFacilitiesHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "directory.go",
}

func getFacilityHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(GetFacilityRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(directoryServer).GetFacility(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodGetFacility}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(directoryServer).GetFacility(ctx, req.(*GetFacilityRequest))
	})
}

func listFacilitiesHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ListFacilitiesRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(directoryServer).ListFacilities(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodListFacilities}
	return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
		return srv.(directoryServer).ListFacilities(ctx, req.(*ListFacilitiesRequest))
	})
}
