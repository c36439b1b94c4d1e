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

package log

import (
	"context"
	"log/slog"
)

// RPCRequest represents an RPC request for logging purposes.
type RPCRequest struct {
	// Method is the full gRPC method name.
	Method string

	// CorrelationID is the correlation ID for tracing the request.
	CorrelationID string

	// RequestID is the unique ID for this specific request.
	RequestID string

	// RemoteAddr is the remote address of the client.
	RemoteAddr string
}

// RPCResponse represents an RPC response for logging purposes.
type RPCResponse struct {
	// Code is the gRPC status code name.
	Code string

	// Error is the error message if the request failed.
	Error string

	// DurationMs is the duration of the request in milliseconds.
	DurationMs int64
}

func (r *RPCRequest) attrs(event string) []any {
	attrs := []any{
		EventKey, event,
		MethodKey, r.Method,
		"remote", r.RemoteAddr,
	}
	if r.CorrelationID != "" {
		attrs = append(attrs, CorrelationIDKey, r.CorrelationID)
	}
	if r.RequestID != "" {
		attrs = append(attrs, RequestIDKey, r.RequestID)
	}
	return attrs
}

// LogRPCRequest logs an incoming RPC request.
func LogRPCRequest(logger *slog.Logger, req *RPCRequest) {
	logger.Debug("rpc request received", req.attrs("rpc_request")...)
}

// LogRPCResponse logs the outcome of an RPC request. Failures are logged at
// warn level; the handler has already logged anything more specific.
func LogRPCResponse(logger *slog.Logger, req *RPCRequest, resp *RPCResponse) {
	attrs := append(req.attrs("rpc_response"),
		"code", resp.Code,
		DurationKey, resp.DurationMs,
	)
	if resp.Error != "" {
		attrs = append(attrs, "error", resp.Error)
	}

	level := slog.LevelInfo
	message := "rpc request completed"
	if resp.Error != "" {
		level = slog.LevelWarn
		message = "rpc request failed"
	}

	logger.Log(context.Background(), level, message, attrs...)
}
