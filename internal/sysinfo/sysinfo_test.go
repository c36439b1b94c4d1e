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

package sysinfo

import (
	"os"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookupOS(t *testing.T) {
	tests := []struct {
		goos string
		want OS
	}{
		{"linux", OSLinux},
		{"darwin", OSMacOS},
		{"windows", OSWindows},
		{"plan9", OSUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.goos, func(t *testing.T) {
			assert.Equal(t, tt.want, LookupOS(tt.goos))
		})
	}
}

func TestLookupArch(t *testing.T) {
	tests := []struct {
		goarch string
		want   Arch
	}{
		{"386", ArchX86},
		{"amd64", ArchX86_64},
		{"arm", ArchARM},
		{"arm64", ArchARM64},
		{"mips", ArchUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.goarch, func(t *testing.T) {
			assert.Equal(t, tt.want, LookupArch(tt.goarch))
		})
	}
}

func TestTargetTriple(t *testing.T) {
	assert.Equal(t, "x86_64-unknown-linux-gnu", TargetTriple("linux", "amd64"))
	assert.Equal(t, "aarch64-apple-darwin", TargetTriple("darwin", "arm64"))
	assert.Equal(t, "x86_64-pc-windows-msvc", TargetTriple("windows", "amd64"))
	assert.Equal(t, "armv7-unknown-linux-gnueabihf", TargetTriple("linux", "arm"))
	assert.Equal(t, "plan9/386", TargetTriple("plan9", "386"))
}

func TestTargetTriple_Injected(t *testing.T) {
	old := targetTriple
	targetTriple = "x86_64-unknown-linux-musl"
	defer func() { targetTriple = old }()

	assert.Equal(t, "x86_64-unknown-linux-musl", TargetTriple("linux", "amd64"))
}

func TestCurrent(t *testing.T) {
	info := Current()

	hostname, err := os.Hostname()
	if err == nil {
		assert.Equal(t, hostname, info.Hostname)
	}
	assert.Equal(t, LookupOS(runtime.GOOS), info.OS)
	assert.Equal(t, LookupArch(runtime.GOARCH), info.Arch)
	assert.NotEmpty(t, info.TargetTriple)
}

func TestStrings(t *testing.T) {
	assert.Equal(t, "macos", OSMacOS.String())
	assert.Equal(t, "unknown", OS(99).String())
	assert.Equal(t, "x86_64", ArchX86_64.String())
	assert.Equal(t, "unknown", ArchUnknown.String())
}
