// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package api

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "remoteldr.RemoteLoader"

// Endpoint is the RemoteLoader service interface. The server implements it
// in the service facade and Client implements it over a connection.
type Endpoint interface {
	// SystemInfo reports the agent host's identity.
	SystemInfo(ctx context.Context) (*SystemInfoResponse, error)

	// SendData stores a file in the sandbox, replacing any existing one.
	SendData(ctx context.Context, req *SendDataRequest) error

	// GetData returns the contents of a file in the sandbox.
	GetData(ctx context.Context, req *GetDataRequest) (*GetDataResponse, error)

	// DeleteData removes a file or directory from the sandbox.
	DeleteData(ctx context.Context, req *GetDataRequest) error

	// ResetData empties the sandbox.
	ResetData(ctx context.Context) error

	// SpawnProcess launches a process and returns its id.
	SpawnProcess(ctx context.Context, req *SpawnProcessRequest) (*SpawnProcessResponse, error)

	// KillProcess forcibly terminates a spawned process.
	KillProcess(ctx context.Context, req *ProcessRequest) error

	// PollProcess reports, without blocking, whether a process has exited.
	PollProcess(ctx context.Context, req *ProcessRequest) (*PollProcessResponse, error)

	// WaitProcess blocks until a process exits.
	WaitProcess(ctx context.Context, req *ProcessRequest) (*ExitStatusResponse, error)
}

// MethodDesc names a single RPC method.
type MethodDesc struct {
	short string
	full  string
}

func newMethod(name string) *MethodDesc {
	return &MethodDesc{
		short: name,
		full:  fmt.Sprintf("/%s/%s", ServiceName, name),
	}
}

// ShortName returns the short method name.
func (m *MethodDesc) ShortName() string {
	return m.short
}

// FullName returns the full method name.
func (m *MethodDesc) FullName() string {
	return m.full
}

var (
	methodSystemInfo   = newMethod("SystemInfo")
	methodSendData     = newMethod("SendData")
	methodGetData      = newMethod("GetData")
	methodDeleteData   = newMethod("DeleteData")
	methodResetData    = newMethod("ResetData")
	methodSpawnProcess = newMethod("SpawnProcess")
	methodKillProcess  = newMethod("KillProcess")
	methodPollProcess  = newMethod("PollProcess")
	methodWaitProcess  = newMethod("WaitProcess")

	// Methods lists every RPC of the service, in declaration order.
	Methods = []*MethodDesc{
		methodSystemInfo,
		methodSendData,
		methodGetData,
		methodDeleteData,
		methodResetData,
		methodSpawnProcess,
		methodKillProcess,
		methodPollProcess,
		methodWaitProcess,
	}

	serviceDesc = grpc.ServiceDesc{
		ServiceName: ServiceName,
		HandlerType: (*Endpoint)(nil),
		Methods: []grpc.MethodDesc{
			{
				MethodName: methodSystemInfo.ShortName(),
				Handler: unaryHandler(methodSystemInfo, func(ctx context.Context, ep Endpoint, _ *Empty) (any, error) {
					return ep.SystemInfo(ctx)
				}),
			},
			{
				MethodName: methodSendData.ShortName(),
				Handler: unaryHandler(methodSendData, func(ctx context.Context, ep Endpoint, req *SendDataRequest) (any, error) {
					return emptyResult(ep.SendData(ctx, req))
				}),
			},
			{
				MethodName: methodGetData.ShortName(),
				Handler: unaryHandler(methodGetData, func(ctx context.Context, ep Endpoint, req *GetDataRequest) (any, error) {
					return ep.GetData(ctx, req)
				}),
			},
			{
				MethodName: methodDeleteData.ShortName(),
				Handler: unaryHandler(methodDeleteData, func(ctx context.Context, ep Endpoint, req *GetDataRequest) (any, error) {
					return emptyResult(ep.DeleteData(ctx, req))
				}),
			},
			{
				MethodName: methodResetData.ShortName(),
				Handler: unaryHandler(methodResetData, func(ctx context.Context, ep Endpoint, _ *Empty) (any, error) {
					return emptyResult(ep.ResetData(ctx))
				}),
			},
			{
				MethodName: methodSpawnProcess.ShortName(),
				Handler: unaryHandler(methodSpawnProcess, func(ctx context.Context, ep Endpoint, req *SpawnProcessRequest) (any, error) {
					return ep.SpawnProcess(ctx, req)
				}),
			},
			{
				MethodName: methodKillProcess.ShortName(),
				Handler: unaryHandler(methodKillProcess, func(ctx context.Context, ep Endpoint, req *ProcessRequest) (any, error) {
					return emptyResult(ep.KillProcess(ctx, req))
				}),
			},
			{
				MethodName: methodPollProcess.ShortName(),
				Handler: unaryHandler(methodPollProcess, func(ctx context.Context, ep Endpoint, req *ProcessRequest) (any, error) {
					return ep.PollProcess(ctx, req)
				}),
			},
			{
				MethodName: methodWaitProcess.ShortName(),
				Handler: unaryHandler(methodWaitProcess, func(ctx context.Context, ep Endpoint, req *ProcessRequest) (any, error) {
					return ep.WaitProcess(ctx, req)
				}),
			},
		},
		Streams:  []grpc.StreamDesc{},
		Metadata: "remoteldr/api",
	}
)

// unaryHandler adapts call into a grpc.MethodHandler that decodes a Req and
// runs it through the server's interceptor chain.
func unaryHandler[Req any](method *MethodDesc, call func(context.Context, Endpoint, *Req) (any, error)) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		req := new(Req)
		if err := dec(req); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(ctx, srv.(Endpoint), req)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: method.FullName(),
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(ctx, srv.(Endpoint), req.(*Req))
		}
		return interceptor(ctx, req, info, handler)
	}
}

func emptyResult(err error) (any, error) {
	if err != nil {
		return nil, err
	}
	return &Empty{}, nil
}

// RegisterService registers the RemoteLoader service with the given gRPC server.
func RegisterService(server *grpc.Server, service Endpoint) {
	server.RegisterService(&serviceDesc, service)
}
