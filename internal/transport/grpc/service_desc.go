package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const serviceName = "vetclinic.v1.SchedulingService"

// SchedulingServiceServer is the server API of vetclinic.v1.SchedulingService.
// Requests and responses are google.protobuf.Struct messages.
type SchedulingServiceServer interface {
	GetAvailability(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	CreateAppointment(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	UpdateAppointment(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetAppointment(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ListAppointments(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

func RegisterSchedulingServiceServer(s grpc.ServiceRegistrar, srv SchedulingServiceServer) {
	s.RegisterService(&SchedulingServiceDesc, srv)
}

type unaryMethod func(srv SchedulingServiceServer, ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(method string, call unaryMethod) grpc.MethodDesc {
	fullMethod := "/" + serviceName + "/" + method
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(SchedulingServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(SchedulingServiceServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var SchedulingServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*SchedulingServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryHandler("GetAvailability", SchedulingServiceServer.GetAvailability),
		unaryHandler("CreateAppointment", SchedulingServiceServer.CreateAppointment),
		unaryHandler("UpdateAppointment", SchedulingServiceServer.UpdateAppointment),
		unaryHandler("GetAppointment", SchedulingServiceServer.GetAppointment),
		unaryHandler("ListAppointments", SchedulingServiceServer.ListAppointments),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "vetclinic/v1/scheduling.proto",
}

// SchedulingServiceClient calls vetclinic.v1.SchedulingService.
type SchedulingServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewSchedulingServiceClient(cc grpc.ClientConnInterface) *SchedulingServiceClient {
	return &SchedulingServiceClient{cc: cc}
}

func (c *SchedulingServiceClient) Invoke(ctx context.Context, method string, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+serviceName+"/"+method, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
