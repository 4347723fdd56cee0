package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name
const ServiceName = "luthier.v1.LuthierService"

// LuthierServiceServer is the server API for LuthierService.
// Requests and responses are google.protobuf.Struct messages.
type LuthierServiceServer interface {
	GetDashboard(context.Context, *structpb.Struct) (*structpb.Struct, error)
	NextIdentifier(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ValidateIdentifier(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RecordSale(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryMethod func(LuthierServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

// ServiceDesc describes LuthierService for grpc.Server.RegisterService
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*LuthierServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetDashboard", Handler: unaryHandler("GetDashboard", LuthierServiceServer.GetDashboard)},
		{MethodName: "NextIdentifier", Handler: unaryHandler("NextIdentifier", LuthierServiceServer.NextIdentifier)},
		{MethodName: "ValidateIdentifier", Handler: unaryHandler("ValidateIdentifier", LuthierServiceServer.ValidateIdentifier)},
		{MethodName: "RecordSale", Handler: unaryHandler("RecordSale", LuthierServiceServer.RecordSale)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "luthier/v1/luthier.proto",
}

func unaryHandler(name string, call unaryMethod) func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	fullMethod := "/" + ServiceName + "/" + name
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(LuthierServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(LuthierServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// Client calls LuthierService over a client connection
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps a client connection
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetDashboard(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "GetDashboard", in, opts...)
}

func (c *Client) NextIdentifier(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "NextIdentifier", in, opts...)
}

func (c *Client) ValidateIdentifier(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "ValidateIdentifier", in, opts...)
}

func (c *Client) RecordSale(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, "RecordSale", in, opts...)
}
