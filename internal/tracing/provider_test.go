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

package tracing

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProvider_Disabled(t *testing.T) {
	p, err := NewProvider(context.Background(), DefaultConfig(), nil)
	require.NoError(t, err)

	_, span := p.Tracer("test").Start(context.Background(), "noop")
	assert.False(t, span.SpanContext().IsValid())
	span.End()

	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestNewProvider_Console(t *testing.T) {
	var buf bytes.Buffer
	old := consoleWriter
	consoleWriter = &buf
	defer func() { consoleWriter = old }()

	cfg := DefaultConfig()
	cfg.Enabled = true
	cfg.Exporters = []ExporterConfig{{Type: "console"}}

	p, err := NewProvider(context.Background(), cfg, nil)
	require.NoError(t, err)

	_, span := p.Tracer("test").Start(context.Background(), "remoteldr-test-span")
	assert.True(t, span.SpanContext().IsValid())
	span.End()

	require.NoError(t, p.Shutdown(context.Background()))
	assert.Contains(t, buf.String(), "remoteldr-test-span")
}

func TestCreateExporter(t *testing.T) {
	ctx := context.Background()

	exp, err := CreateExporter(ctx, ExporterConfig{Type: "none"})
	require.NoError(t, err)
	assert.Nil(t, exp)

	exp, err = CreateExporter(ctx, ExporterConfig{Type: "otlp", Endpoint: "localhost:4317", Insecure: true})
	require.NoError(t, err)
	require.NotNil(t, exp)
	_ = exp.Shutdown(ctx)

	exp, err = CreateExporter(ctx, ExporterConfig{Type: "otlp-http", Endpoint: "localhost:4318", Insecure: true})
	require.NoError(t, err)
	require.NotNil(t, exp)
	_ = exp.Shutdown(ctx)

	_, err = CreateExporter(ctx, ExporterConfig{Type: "zipkin"})
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.SampleRate = 1.5
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Exporters = []ExporterConfig{{Type: "otlp"}}
	assert.Error(t, cfg.Validate())

	cfg.Exporters = []ExporterConfig{{Type: "jaeger", Endpoint: "x"}}
	assert.Error(t, cfg.Validate())
}
