package intercepters

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	"github.com/atinyakov/go-shortlinks/internal/middleware"
)

// RealIP returns the client address of a call: the x-real-ip metadata
// entry when present, the transport peer otherwise.
func RealIP(ctx context.Context) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if ips := md.Get("x-real-ip"); len(ips) > 0 && ips[0] != "" {
			return ips[0]
		}
	}

	if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
		return p.Addr.String()
	}

	return ""
}

// WithTrustedSubnet rejects calls from outside subnet with PermissionDenied.
func WithTrustedSubnet(subnet middleware.TrustedSubnet) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if !subnet.Contains(RealIP(ctx)) {
			return nil, status.Error(codes.PermissionDenied, "address is not trusted")
		}
		return handler(ctx, req)
	}
}
