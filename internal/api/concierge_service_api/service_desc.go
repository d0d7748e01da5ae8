package concierge_service_api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	ServiceName           = "tablebot.v1.Concierge"
	HandleUtteranceMethod = "/tablebot.v1.Concierge/HandleUtterance"
)

// ConciergeServer answers guest utterances. Requests carry "conversation_id"
// and "text"; replies mirror the REST message response.
type ConciergeServer interface {
	HandleUtterance(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ConciergeServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "HandleUtterance",
			Handler:    handleUtterance,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "tablebot/v1/concierge.proto",
}

func RegisterConciergeServer(s grpc.ServiceRegistrar, srv ConciergeServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func handleUtterance(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ConciergeServer).HandleUtterance(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: HandleUtteranceMethod,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ConciergeServer).HandleUtterance(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// HandleUtterance calls the concierge over conn.
func HandleUtterance(ctx context.Context, conn grpc.ClientConnInterface, conversationID, text string) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(map[string]interface{}{
		"conversation_id": conversationID,
		"text":            text,
	})
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := conn.Invoke(ctx, HandleUtteranceMethod, in, out); err != nil {
		return nil, err
	}
	return out, nil
}
