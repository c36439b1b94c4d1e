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
	"regexp"

	"github.com/google/uuid"
	"google.golang.org/grpc/metadata"
)

// CorrelationID represents a unique identifier for tracing requests across systems.
// It uses RFC 4122 UUID format (36 characters).
type CorrelationID string

type correlationKeyType struct{}

var correlationKey = correlationKeyType{}

// MetadataCorrelationID is the gRPC metadata key carrying the correlation ID.
// gRPC metadata keys are lowercase.
const MetadataCorrelationID = "x-correlation-id"

var uuidRegex = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// NewCorrelationID generates a new unique correlation ID.
func NewCorrelationID() CorrelationID {
	return CorrelationID(uuid.New().String())
}

// String returns the string representation of the correlation ID.
func (c CorrelationID) String() string {
	return string(c)
}

// IsValid checks if the correlation ID is a valid UUID format.
func (c CorrelationID) IsValid() bool {
	return uuidRegex.MatchString(string(c))
}

// ToContext adds the correlation ID to the context.
func ToContext(ctx context.Context, id CorrelationID) context.Context {
	return context.WithValue(ctx, correlationKey, id)
}

// FromContext retrieves the correlation ID from the context.
// If no correlation ID is found, it generates a new one.
func FromContext(ctx context.Context) CorrelationID {
	if id, ok := ctx.Value(correlationKey).(CorrelationID); ok {
		return id
	}
	return NewCorrelationID()
}

// FromContextOrEmpty retrieves the correlation ID from the context.
// Returns empty string if no correlation ID is found.
func FromContextOrEmpty(ctx context.Context) CorrelationID {
	if id, ok := ctx.Value(correlationKey).(CorrelationID); ok {
		return id
	}
	return ""
}

// ValidateUUID checks if a string is a valid UUID format.
func ValidateUUID(s string) (CorrelationID, bool) {
	if uuidRegex.MatchString(s) {
		return CorrelationID(s), true
	}
	return "", false
}

// ExtractFromIncoming returns the correlation ID sent by the caller, if any.
// Values that are not UUIDs are ignored.
func ExtractFromIncoming(ctx context.Context) (CorrelationID, bool) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", false
	}
	for _, v := range md.Get(MetadataCorrelationID) {
		if id, ok := ValidateUUID(v); ok {
			return id, true
		}
	}
	return "", false
}

// InjectIntoOutgoing attaches the context's correlation ID, if any, to
// outgoing gRPC metadata.
func InjectIntoOutgoing(ctx context.Context) context.Context {
	id := FromContextOrEmpty(ctx)
	if id == "" {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, MetadataCorrelationID, id.String())
}
