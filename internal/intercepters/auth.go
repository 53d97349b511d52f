package intercepters

import (
	"context"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/atinyakov/go-shortlinks/internal/app/service"
	"github.com/atinyakov/go-shortlinks/internal/middleware"
)

// WithAdminJWT requires an "authorization: Bearer <token>" entry whose
// token grants manage_options.
func WithAdminJWT(auth service.AdminAuthIface, logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "missing metadata")
		}

		values := md.Get("authorization")
		if len(values) == 0 {
			return nil, status.Error(codes.Unauthenticated, "missing admin token")
		}

		token := middleware.BearerToken(values[0])
		if token == "" {
			return nil, status.Error(codes.Unauthenticated, "authorization must be a bearer token")
		}

		claims, err := auth.ParseRawJWT(token)
		if err != nil {
			logger.Info("Rejected admin token", zap.String("method", info.FullMethod), zap.Error(err))
			return nil, status.Error(codes.Unauthenticated, "invalid admin token")
		}

		if !claims.Can(service.CapManageOptions) {
			return nil, status.Errorf(codes.PermissionDenied, "token lacks %s", service.CapManageOptions)
		}

		return handler(middleware.WithClaims(ctx, claims), req)
	}
}
