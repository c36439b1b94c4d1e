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
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Client is a typed RemoteLoader client. It implements Endpoint.
type Client struct {
	conn   *grpc.ClientConn
	closer bool
}

var _ Endpoint = (*Client)(nil)

// Dial creates a client for the agent at target. The connection is plaintext
// unless opts supply transport credentials.
func Dial(target string, opts ...grpc.DialOption) (*Client, error) {
	dialOpts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(
			grpc.MaxCallRecvMsgSize(MaxMessageSize),
			grpc.MaxCallSendMsgSize(MaxMessageSize),
		),
	}
	dialOpts = append(dialOpts, opts...)

	conn, err := grpc.NewClient(target, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create client for %s: %w", target, err)
	}
	return &Client{conn: conn, closer: true}, nil
}

// NewClient wraps an existing connection. Close does not close conn.
func NewClient(conn *grpc.ClientConn) *Client {
	return &Client{conn: conn}
}

// Close releases the connection if the client created it.
func (c *Client) Close() error {
	if !c.closer {
		return nil
	}
	return c.conn.Close()
}

func (c *Client) invoke(ctx context.Context, method *MethodDesc, req, rsp any) error {
	return c.conn.Invoke(ctx, method.FullName(), req, rsp, grpc.CallContentSubtype(CodecName))
}

// Health checks the standard gRPC health service for the RemoteLoader service.
func (c *Client) Health(ctx context.Context) (healthpb.HealthCheckResponse_ServingStatus, error) {
	rsp, err := healthpb.NewHealthClient(c.conn).Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, err
	}
	return rsp.GetStatus(), nil
}

func (c *Client) SystemInfo(ctx context.Context) (*SystemInfoResponse, error) {
	var rsp SystemInfoResponse
	if err := c.invoke(ctx, methodSystemInfo, &Empty{}, &rsp); err != nil {
		return nil, err
	}
	return &rsp, nil
}

func (c *Client) SendData(ctx context.Context, req *SendDataRequest) error {
	return c.invoke(ctx, methodSendData, req, &Empty{})
}

func (c *Client) GetData(ctx context.Context, req *GetDataRequest) (*GetDataResponse, error) {
	var rsp GetDataResponse
	if err := c.invoke(ctx, methodGetData, req, &rsp); err != nil {
		return nil, err
	}
	return &rsp, nil
}

func (c *Client) DeleteData(ctx context.Context, req *GetDataRequest) error {
	return c.invoke(ctx, methodDeleteData, req, &Empty{})
}

func (c *Client) ResetData(ctx context.Context) error {
	return c.invoke(ctx, methodResetData, &Empty{}, &Empty{})
}

func (c *Client) SpawnProcess(ctx context.Context, req *SpawnProcessRequest) (*SpawnProcessResponse, error) {
	var rsp SpawnProcessResponse
	if err := c.invoke(ctx, methodSpawnProcess, req, &rsp); err != nil {
		return nil, err
	}
	return &rsp, nil
}

func (c *Client) KillProcess(ctx context.Context, req *ProcessRequest) error {
	return c.invoke(ctx, methodKillProcess, req, &Empty{})
}

func (c *Client) PollProcess(ctx context.Context, req *ProcessRequest) (*PollProcessResponse, error) {
	var rsp PollProcessResponse
	if err := c.invoke(ctx, methodPollProcess, req, &rsp); err != nil {
		return nil, err
	}
	return &rsp, nil
}

func (c *Client) WaitProcess(ctx context.Context, req *ProcessRequest) (*ExitStatusResponse, error) {
	var rsp ExitStatusResponse
	if err := c.invoke(ctx, methodWaitProcess, req, &rsp); err != nil {
		return nil, err
	}
	return &rsp, nil
}
