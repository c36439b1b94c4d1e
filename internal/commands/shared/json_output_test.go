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

package shared

import (
	"bytes"
	"encoding/json"
	"testing"
)

func captureJSON(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := jsonOut
	jsonOut = &buf
	t.Cleanup(func() { jsonOut = prev })
	return &buf
}

func TestEmitJSON(t *testing.T) {
	buf := captureJSON(t)

	type response struct {
		JSONResponse
		ProcessID uint32 `json:"process_id"`
	}
	err := EmitJSON(response{
		JSONResponse: JSONResponse{Version: "1.0", Command: "spawn", Success: true},
		ProcessID:    42,
	})
	if err != nil {
		t.Fatalf("EmitJSON() error = %v", err)
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &raw); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}
	if raw["@version"] != "1.0" {
		t.Errorf("@version = %v", raw["@version"])
	}
	if raw["command"] != "spawn" {
		t.Errorf("command = %v", raw["command"])
	}
	if raw["process_id"] != float64(42) {
		t.Errorf("process_id = %v", raw["process_id"])
	}
}

func TestEmitJSONError(t *testing.T) {
	buf := captureJSON(t)

	err := EmitJSONError("get", []JSONError{{Code: "Unavailable", Message: "connection refused", Suggestion: "start the agent"}})
	if err != nil {
		t.Fatalf("EmitJSONError() error = %v", err)
	}

	var decoded struct {
		JSONResponse
		Errors []JSONError `json:"errors"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if decoded.Success {
		t.Error("expected success=false")
	}
	if len(decoded.Errors) != 1 || decoded.Errors[0].Code != "Unavailable" {
		t.Errorf("unexpected errors %+v", decoded.Errors)
	}
}
