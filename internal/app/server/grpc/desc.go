package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified name of the admin console service.
const ServiceName = "shortlinks.admin.v1.Admin"

const (
	CreateMethod = "/" + ServiceName + "/Create"
	FindMethod   = "/" + ServiceName + "/Find"
	ListMethod   = "/" + ServiceName + "/List"
	DeleteMethod = "/" + ServiceName + "/Delete"
)

// AdminServer is the admin console over gRPC. Messages are protobuf
// well-known types so no generated code is needed:
//
//	Create(Struct{original_url, short_code}) -> Struct(link)
//	Find(StringValue(code))                  -> Struct(link)
//	List(Struct{orderby, order, paged, per_page}) -> Struct(table)
//	Delete(Struct{ids: [...]})               -> Int64Value(deleted)
type AdminServer interface {
	Create(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Find(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	List(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Delete(context.Context, *structpb.Struct) (*wrapperspb.Int64Value, error)
}

// RegisterAdminServer registers srv on s.
func RegisterAdminServer(s grpc.ServiceRegistrar, srv AdminServer) {
	s.RegisterService(&AdminServiceDesc, srv)
}

func unaryHandler[Req any, Resp any](method string, call func(AdminServer, context.Context, *Req) (Resp, error)) grpc.MethodHandler {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(AdminServer), ctx, in)
		}

		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: method,
		}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(AdminServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// AdminServiceDesc describes the admin console service.
var AdminServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AdminServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Create", Handler: unaryHandler(CreateMethod, AdminServer.Create)},
		{MethodName: "Find", Handler: unaryHandler(FindMethod, AdminServer.Find)},
		{MethodName: "List", Handler: unaryHandler(ListMethod, AdminServer.List)},
		{MethodName: "Delete", Handler: unaryHandler(DeleteMethod, AdminServer.Delete)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "shortlinks/admin/v1/admin.proto",
}

// AdminClient calls the admin console service.
type AdminClient struct {
	cc grpc.ClientConnInterface
}

func NewAdminClient(cc grpc.ClientConnInterface) *AdminClient {
	return &AdminClient{cc: cc}
}

func (c *AdminClient) Create(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, CreateMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *AdminClient) Find(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, FindMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *AdminClient) List(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, ListMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *AdminClient) Delete(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*wrapperspb.Int64Value, error) {
	out := new(wrapperspb.Int64Value)
	if err := c.cc.Invoke(ctx, DeleteMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
