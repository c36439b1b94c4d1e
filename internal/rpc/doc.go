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

/*
Package rpc hosts the RemoteLoader gRPC service.

Every call passes through a fixed interceptor chain:

  - correlation: reads or assigns x-correlation-id and echoes it in the
    response header
  - tracing: one server span per call
  - logging: request and response records with request id and peer
  - metrics: remoteldr_rpc_* counters and histograms
  - rate limiting: optional, rejects with ResourceExhausted

The standard grpc.health.v1 service is registered alongside and reports
NOT_SERVING once Stop begins.

	srv := rpc.NewServer(rpc.Config{Address: "127.0.0.1:8080"}, svc, logger)
	if err := srv.Start(); err != nil {
	    return err
	}
	defer srv.Stop(ctx)
*/
package rpc
