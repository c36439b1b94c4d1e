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
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/encoding"
)

func TestCodecRegistered(t *testing.T) {
	codec := encoding.GetCodec(CodecName)
	require.NotNil(t, codec)
	assert.Equal(t, CodecName, codec.Name())
}

func TestCodec_SignalStatusOmitsCode(t *testing.T) {
	data, err := Codec{}.Marshal(&ExitStatusResponse{Signal: "SIGKILL"})
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, cbor.Unmarshal(data, &raw))
	assert.NotContains(t, raw, "code")
	assert.Equal(t, "SIGKILL", raw["signal"])

	var decoded ExitStatusResponse
	require.NoError(t, Codec{}.Unmarshal(data, &decoded))
	assert.Nil(t, decoded.Code)
}

func TestCodec_Deterministic(t *testing.T) {
	req := &SpawnProcessRequest{
		Process: "bin/tool",
		Env:     map[string]string{"B": "2", "A": "1", "C": "3"},
	}

	first, err := Codec{}.Marshal(req)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := Codec{}.Marshal(req)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestCodec_UnmarshalGarbage(t *testing.T) {
	var req SendDataRequest
	err := Codec{}.Unmarshal([]byte{0xff, 0x00}, &req)
	assert.Error(t, err)
}

func TestMethods(t *testing.T) {
	assert.Len(t, Methods, len(serviceDesc.Methods))
	for i, m := range Methods {
		assert.Equal(t, m.ShortName(), serviceDesc.Methods[i].MethodName)
		assert.Equal(t, "/remoteldr.RemoteLoader/"+m.ShortName(), m.FullName())
	}
}
