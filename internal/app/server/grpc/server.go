// Package grpc serves the admin console over gRPC.
package grpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"

	"github.com/grpc-ecosystem/go-grpc-middleware/v2/interceptors/logging"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/atinyakov/go-shortlinks/internal/app/handler"
	"github.com/atinyakov/go-shortlinks/internal/app/service"
	"github.com/atinyakov/go-shortlinks/internal/intercepters"
	"github.com/atinyakov/go-shortlinks/internal/listing"
	"github.com/atinyakov/go-shortlinks/internal/middleware"
	"github.com/atinyakov/go-shortlinks/internal/models"
	"github.com/atinyakov/go-shortlinks/internal/storage"
)

// Server wraps the gRPC server and its dependencies.
type Server struct {
	grpcServer *grpc.Server
	port       int
	logger     *zap.Logger
}

// New builds the admin console gRPC server. Every call is logged, then
// checked against the trusted subnet and the admin token.
func New(baseURL string, subnet middleware.TrustedSubnet, auth service.AdminAuthIface, links service.LinkStoreIface, logger *zap.Logger, port int) *Server {
	s := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			logging.UnaryServerInterceptor(intercepters.InterceptorLogger(logger)),
			intercepters.WithTrustedSubnet(subnet),
			intercepters.WithAdminJWT(auth, logger),
		),
	)

	RegisterAdminServer(s, &AdminService{
		Links:   links,
		BaseURL: baseURL,
		Logger:  logger,
	})

	return &Server{
		grpcServer: s,
		port:       port,
		logger:     logger,
	}
}

// Start listens on the configured port and serves until stopped.
func (s *Server) Start() error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		s.logger.Error("gRPC server failed to listen", zap.Error(err))
		return err
	}

	s.logger.Info("gRPC server listening", zap.Int("port", s.port))
	return s.Serve(lis)
}

// Serve serves on an existing listener.
func (s *Server) Serve(lis net.Listener) error {
	return s.grpcServer.Serve(lis)
}

// GracefulStop waits for in-flight calls and stops the server.
func (s *Server) GracefulStop() {
	s.grpcServer.GracefulStop()
}

// AdminService implements AdminServer on top of a LinkStore.
type AdminService struct {
	Links   service.LinkStoreIface
	BaseURL string
	Logger  *zap.Logger
}

var _ AdminServer = (*AdminService)(nil)

// Create stores a new short link.
func (s *AdminService) Create(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()

	link, err := s.Links.Create(ctx,
		fields["original_url"].GetStringValue(),
		fields["short_code"].GetStringValue(),
	)
	if err != nil {
		return nil, s.toStatus(err)
	}

	return toStruct(models.NewLinkResponse(*link, s.BaseURL))
}

// Find returns one short link by code.
func (s *AdminService) Find(ctx context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	link, err := s.Links.FindByCode(ctx, req.GetValue())
	if err != nil {
		return nil, s.toStatus(err)
	}

	return toStruct(models.NewLinkResponse(*link, s.BaseURL))
}

// List renders one page of the link table.
func (s *AdminService) List(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()

	page := listing.Request{
		Page:    int(fields["paged"].GetNumberValue()),
		PerPage: int(fields["per_page"].GetNumberValue()),
		OrderBy: fields["orderby"].GetStringValue(),
		Order:   fields["order"].GetStringValue(),
	}

	table, err := listing.Build(ctx, handler.LinkColumns, page,
		func(ctx context.Context, q storage.ListQuery) ([]models.LinkResponse, int, error) {
			links, total, err := s.Links.List(ctx, q)
			if err != nil {
				return nil, 0, err
			}

			rows := make([]models.LinkResponse, 0, len(links))
			for _, l := range links {
				rows = append(rows, models.NewLinkResponse(l, s.BaseURL))
			}
			return rows, total, nil
		})
	if err != nil {
		return nil, s.toStatus(err)
	}

	return toStruct(table)
}

// Delete removes links by id and reports how many existed.
func (s *AdminService) Delete(ctx context.Context, req *structpb.Struct) (*wrapperspb.Int64Value, error) {
	values := req.GetFields()["ids"].GetListValue().GetValues()
	if len(values) == 0 {
		return nil, status.Error(codes.InvalidArgument, "no ids to delete")
	}

	ids := make([]int64, 0, len(values))
	for _, v := range values {
		n, ok := v.GetKind().(*structpb.Value_NumberValue)
		if !ok || n.NumberValue != float64(int64(n.NumberValue)) {
			return nil, status.Error(codes.InvalidArgument, "ids must be integers")
		}
		ids = append(ids, int64(n.NumberValue))
	}

	deleted, err := s.Links.Delete(ctx, ids)
	if err != nil {
		return nil, s.toStatus(err)
	}

	return wrapperspb.Int64(deleted), nil
}

// toStatus maps domain errors onto gRPC codes without leaking storage detail.
func (s *AdminService) toStatus(err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidURL), errors.Is(err, service.ErrInvalidCode):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, storage.ErrCodeTaken):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, storage.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, service.ErrCodeGeneration):
		return status.Error(codes.Unavailable, err.Error())
	default:
		s.Logger.Error("Storage failure", zap.Error(err))
		return status.Error(codes.Internal, "internal error")
	}
}

// toStruct converts a JSON encodable value into a protobuf Struct.
func toStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}

	out := &structpb.Struct{}
	if err := protojson.Unmarshal(b, out); err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}
