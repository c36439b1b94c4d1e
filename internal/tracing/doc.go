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
Package tracing provides OpenTelemetry tracing and correlation ID support.

A Provider is built once at startup from Config and installed as the global
OpenTelemetry tracer provider. Spans are exported through the configured
exporters: "console" pretty-prints to stdout, "otlp" and "otlp-http" ship to a
collector.

# Correlation IDs

Every RPC carries a correlation ID. Callers may supply one in the
x-correlation-id metadata key; otherwise the server generates one. The ID is
stored in the request context:

	ctx = tracing.ToContext(ctx, tracing.NewCorrelationID())
	id := tracing.FromContextOrEmpty(ctx)

Clients forward the ID of their own context with InjectIntoOutgoing.
*/
package tracing
