package house

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "smarthome.v1.HouseService"

// Full method names.
const (
	ListHousesMethod = "/" + ServiceName + "/ListHouses"
	GetStateMethod   = "/" + ServiceName + "/GetState"
	SetStateMethod   = "/" + ServiceName + "/SetState"
)

// HouseServiceServer is the server API of the house service.
type HouseServiceServer interface {
	ListHouses(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetState(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	SetState(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// ServiceDesc describes the house service for grpc.Server registration.
//
//nolint:gochecknoglobals // Registration descriptor.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*HouseServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListHouses", Handler: unaryHandler(ListHousesMethod, HouseServiceServer.ListHouses)},
		{MethodName: "GetState", Handler: unaryHandler(GetStateMethod, HouseServiceServer.GetState)},
		{MethodName: "SetState", Handler: unaryHandler(SetStateMethod, HouseServiceServer.SetState)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "smarthome/v1/house.proto",
}

// RegisterHouseServiceServer registers srv on s.
func RegisterHouseServiceServer(s grpc.ServiceRegistrar, srv HouseServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

type unaryMethod func(HouseServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

// unaryHandler adapts a server method to the shape grpc expects, running interceptors if any.
func unaryHandler(fullMethod string, method unaryMethod) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}

		server, _ := srv.(HouseServiceServer)

		if interceptor == nil {
			return method(server, ctx, in)
		}

		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}

		handler := func(ctx context.Context, req any) (any, error) {
			r, _ := req.(*structpb.Struct)
			return method(server, ctx, r)
		}

		return interceptor(ctx, in, info, handler)
	}
}

// HouseServiceClient is the client API of the house service.
type HouseServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewHouseServiceClient creates a client over cc.
func NewHouseServiceClient(cc grpc.ClientConnInterface) *HouseServiceClient {
	return &HouseServiceClient{cc: cc}
}

// ListHouses calls HouseService.ListHouses.
func (c *HouseServiceClient) ListHouses(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, ListHousesMethod, in, opts)
}

// GetState calls HouseService.GetState.
func (c *HouseServiceClient) GetState(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, GetStateMethod, in, opts)
}

// SetState calls HouseService.SetState.
func (c *HouseServiceClient) SetState(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, SetStateMethod, in, opts)
}

func (c *HouseServiceClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts []grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}

	return out, nil
}
