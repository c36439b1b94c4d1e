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
	"context"
	"testing"

	"google.golang.org/grpc/metadata"
)

func TestNewCorrelationID(t *testing.T) {
	id := NewCorrelationID()

	if !id.IsValid() {
		t.Errorf("expected valid UUID format, got %q", id)
	}
	if len(id) != 36 {
		t.Errorf("expected length 36, got %d", len(id))
	}
}

func TestCorrelationID_IsValid(t *testing.T) {
	tests := []struct {
		name  string
		id    CorrelationID
		valid bool
	}{
		{"valid UUID", CorrelationID("550e8400-e29b-41d4-a716-446655440000"), true},
		{"valid UUID uppercase", CorrelationID("550E8400-E29B-41D4-A716-446655440000"), true},
		{"empty", CorrelationID(""), false},
		{"too short", CorrelationID("550e8400-e29b-41d4"), false},
		{"missing hyphens", CorrelationID("550e8400e29b41d4a716446655440000"), false},
		{"invalid characters", CorrelationID("550e8400-e29b-41d4-a716-44665544000g"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.id.IsValid(); got != tt.valid {
				t.Errorf("IsValid() = %v, want %v", got, tt.valid)
			}
		})
	}
}

func TestToContext_FromContext(t *testing.T) {
	id := CorrelationID("550e8400-e29b-41d4-a716-446655440000")
	ctx := ToContext(context.Background(), id)

	if got := FromContext(ctx); got != id {
		t.Errorf("FromContext() = %q, want %q", got, id)
	}
	if got := FromContextOrEmpty(ctx); got != id {
		t.Errorf("FromContextOrEmpty() = %q, want %q", got, id)
	}
}

func TestFromContext_GeneratesNew(t *testing.T) {
	got := FromContext(context.Background())
	if !got.IsValid() {
		t.Errorf("FromContext() returned invalid UUID: %q", got)
	}
	if empty := FromContextOrEmpty(context.Background()); empty != "" {
		t.Errorf("FromContextOrEmpty() = %q, want empty string", empty)
	}
}

func TestExtractFromIncoming(t *testing.T) {
	t.Run("valid id", func(t *testing.T) {
		md := metadata.Pairs(MetadataCorrelationID, "550e8400-e29b-41d4-a716-446655440000")
		ctx := metadata.NewIncomingContext(context.Background(), md)

		id, ok := ExtractFromIncoming(ctx)
		if !ok || id != "550e8400-e29b-41d4-a716-446655440000" {
			t.Errorf("ExtractFromIncoming() = %q, %v", id, ok)
		}
	})

	t.Run("invalid id ignored", func(t *testing.T) {
		md := metadata.Pairs(MetadataCorrelationID, "not-a-uuid")
		ctx := metadata.NewIncomingContext(context.Background(), md)

		if _, ok := ExtractFromIncoming(ctx); ok {
			t.Error("expected invalid id to be ignored")
		}
	})

	t.Run("no metadata", func(t *testing.T) {
		if _, ok := ExtractFromIncoming(context.Background()); ok {
			t.Error("expected no id without metadata")
		}
	})
}

func TestInjectIntoOutgoing(t *testing.T) {
	id := NewCorrelationID()
	ctx := InjectIntoOutgoing(ToContext(context.Background(), id))

	md, ok := metadata.FromOutgoingContext(ctx)
	if !ok {
		t.Fatal("expected outgoing metadata")
	}
	if got := md.Get(MetadataCorrelationID); len(got) != 1 || got[0] != id.String() {
		t.Errorf("outgoing metadata = %v, want [%s]", got, id)
	}

	plain := context.Background()
	if InjectIntoOutgoing(plain) != plain {
		t.Error("expected context without id to be returned unchanged")
	}
}
