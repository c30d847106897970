package adminapi

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ClusterStatusServer is implemented by anything that can answer the
// ClusterStatus RPC. The request/response shapes are the well-known
// emptypb/wrapperspb messages that ship with google.golang.org/protobuf,
// so this RPC needs no generated .pb.go: the response's StringValue
// carries the JSON encoding of a Snapshot.
type ClusterStatusServer interface {
	ClusterStatus(context.Context, *emptypb.Empty) (*wrapperspb.StringValue, error)
}

// clusterStatusServiceDesc is the hand-declared equivalent of what
// protoc-gen-go-grpc would emit for a service with a single unary
// ClusterStatus method over (Empty) -> (StringValue).
var clusterStatusServiceDesc = grpc.ServiceDesc{
	ServiceName: "ringknn.adminapi.ClusterStatus",
	HandlerType: (*ClusterStatusServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "ClusterStatus",
			Handler:    clusterStatusHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "ringknn/adminapi/clusterstatus.proto",
}

func clusterStatusHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ClusterStatusServer).ClusterStatus(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/ringknn.adminapi.ClusterStatus/ClusterStatus",
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ClusterStatusServer).ClusterStatus(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

// RegisterClusterStatusServer registers srv against s the way a
// generated RegisterXServer function would.
func RegisterClusterStatusServer(s grpc.ServiceRegistrar, srv ClusterStatusServer) {
	s.RegisterService(&clusterStatusServiceDesc, srv)
}

// statusRPC adapts a *Status to ClusterStatusServer.
type statusRPC struct {
	status *Status
}

func (r *statusRPC) ClusterStatus(ctx context.Context, _ *emptypb.Empty) (*wrapperspb.StringValue, error) {
	snap := r.status.Snapshot()
	body, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("adminapi.ClusterStatus: %w", err)
	}
	return wrapperspb.String(string(body)), nil
}
