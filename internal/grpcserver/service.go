// payment-requests/internal/grpcserver/service.go
package grpcserver

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service. Messages are
// google.protobuf.Struct carrying the same fields as the HTTP bodies.
const ServiceName = "payments.v1.PaymentRequests"

const (
	methodCreateRequest = "/" + ServiceName + "/CreateRequest"
	methodSubmitAttempt = "/" + ServiceName + "/SubmitAttempt"
	methodGetRequest    = "/" + ServiceName + "/GetRequest"
)

type PaymentRequestsServer interface {
	CreateRequest(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	SubmitAttempt(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	GetRequest(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
}

type unaryCall func(srv PaymentRequestsServer, ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)

func unary(fullMethod string, call unaryCall) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(PaymentRequestsServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(PaymentRequestsServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*PaymentRequestsServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "CreateRequest",
			Handler:    unary(methodCreateRequest, PaymentRequestsServer.CreateRequest),
		},
		{
			MethodName: "SubmitAttempt",
			Handler:    unary(methodSubmitAttempt, PaymentRequestsServer.SubmitAttempt),
		},
		{
			MethodName: "GetRequest",
			Handler:    unary(methodGetRequest, PaymentRequestsServer.GetRequest),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "payments/v1/payment_requests.proto",
}

func RegisterPaymentRequestsServer(s grpc.ServiceRegistrar, srv PaymentRequestsServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// Client calls PaymentRequests over any connection.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) CreateRequest(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, methodCreateRequest, in, opts)
}

func (c *Client) SubmitAttempt(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, methodSubmitAttempt, in, opts)
}

func (c *Client) GetRequest(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, methodGetRequest, in, opts)
}

func (c *Client) invoke(ctx context.Context, method string, in *structpb.Struct, opts []grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
