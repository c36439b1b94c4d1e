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

package rpc

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"

	"github.com/tombee/remoteldr/internal/log"
	"github.com/tombee/remoteldr/internal/tracing"
)

// correlationInterceptor attaches a correlation ID to every request, reusing
// the caller's when it sent a valid one, and echoes it in the response header.
func correlationInterceptor(ctx context.Context, req any, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	id, ok := tracing.ExtractFromIncoming(ctx)
	if !ok {
		id = tracing.NewCorrelationID()
	}
	ctx = tracing.ToContext(ctx, id)
	_ = grpc.SetHeader(ctx, metadata.Pairs(tracing.MetadataCorrelationID, id.String()))

	return handler(ctx, req)
}

func tracingInterceptor(tracer trace.Tracer) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		ctx, span := tracer.Start(ctx, info.FullMethod,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("rpc.system", "grpc"),
				attribute.String("rpc.method", info.FullMethod),
				attribute.String("correlation_id", tracing.FromContextOrEmpty(ctx).String()),
			),
		)
		defer span.End()

		resp, err := handler(ctx, req)

		code := status.Code(err)
		span.SetAttributes(attribute.String("rpc.grpc.status_code", code.String()))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(otelcodes.Error, code.String())
		}
		return resp, err
	}
}

func loggingInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		rpcReq := &log.RPCRequest{
			Method:        info.FullMethod,
			CorrelationID: tracing.FromContextOrEmpty(ctx).String(),
			RequestID:     uuid.NewString(),
		}
		if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
			rpcReq.RemoteAddr = p.Addr.String()
		}
		log.LogRPCRequest(logger, rpcReq)

		start := time.Now()
		resp, err := handler(ctx, req)

		rpcResp := &log.RPCResponse{
			Code:       status.Code(err).String(),
			DurationMs: time.Since(start).Milliseconds(),
		}
		if err != nil {
			rpcResp.Error = status.Convert(err).Message()
		}
		log.LogRPCResponse(logger, rpcReq, rpcResp)

		return resp, err
	}
}

func metricsInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	requestsInFlight.Inc()
	defer requestsInFlight.Dec()

	start := time.Now()
	resp, err := handler(ctx, req)

	requestDuration.WithLabelValues(info.FullMethod).Observe(time.Since(start).Seconds())
	requestsTotal.WithLabelValues(info.FullMethod, status.Code(err).String()).Inc()
	return resp, err
}

func rateLimitInterceptor(limiter *rate.Limiter) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if !limiter.Allow() {
			rateLimited.Inc()
			return nil, status.Error(codes.ResourceExhausted, "rate limit exceeded")
		}
		return handler(ctx, req)
	}
}
