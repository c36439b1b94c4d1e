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

// Package sysinfo describes the host the agent runs on.
package sysinfo

import (
	"os"
	"runtime"
)

// OS identifies the host operating system family.
type OS uint8

const (
	OSUnknown OS = iota
	OSLinux
	OSMacOS
	OSWindows
)

func (o OS) String() string {
	switch o {
	case OSLinux:
		return "linux"
	case OSMacOS:
		return "macos"
	case OSWindows:
		return "windows"
	default:
		return "unknown"
	}
}

// Arch identifies the host CPU architecture.
type Arch uint8

const (
	ArchUnknown Arch = iota
	ArchX86
	ArchX86_64
	ArchARM
	ArchARM64
)

func (a Arch) String() string {
	switch a {
	case ArchX86:
		return "x86"
	case ArchX86_64:
		return "x86_64"
	case ArchARM:
		return "arm"
	case ArchARM64:
		return "arm64"
	default:
		return "unknown"
	}
}

var osByGOOS = map[string]OS{
	"linux":   OSLinux,
	"android": OSLinux,
	"darwin":  OSMacOS,
	"windows": OSWindows,
}

var archByGOARCH = map[string]Arch{
	"386":   ArchX86,
	"amd64": ArchX86_64,
	"arm":   ArchARM,
	"arm64": ArchARM64,
}

// Target triple components keyed by GOARCH and GOOS.
var (
	tripleArch = map[string]string{
		"386":     "i686",
		"amd64":   "x86_64",
		"arm":     "armv7",
		"arm64":   "aarch64",
		"riscv64": "riscv64gc",
		"ppc64le": "powerpc64le",
		"s390x":   "s390x",
	}
	tripleVendorOS = map[string]string{
		"linux":   "unknown-linux-gnu",
		"android": "linux-android",
		"darwin":  "apple-darwin",
		"windows": "pc-windows-msvc",
		"freebsd": "unknown-freebsd",
		"netbsd":  "unknown-netbsd",
		"openbsd": "unknown-openbsd",
	}
)

// targetTriple can be set at build time:
//
//	go build -ldflags "-X github.com/tombee/remoteldr/internal/sysinfo.targetTriple=x86_64-unknown-linux-musl"
var targetTriple string

// Info is the identity reported to remote callers.
type Info struct {
	Hostname     string
	OS           OS
	Arch         Arch
	TargetTriple string
}

// Current returns information about the running host. A hostname that cannot
// be read is reported as empty.
func Current() Info {
	hostname, _ := os.Hostname()
	return Info{
		Hostname:     hostname,
		OS:           LookupOS(runtime.GOOS),
		Arch:         LookupArch(runtime.GOARCH),
		TargetTriple: TargetTriple(runtime.GOOS, runtime.GOARCH),
	}
}

// LookupOS maps a GOOS value to an OS.
func LookupOS(goos string) OS {
	return osByGOOS[goos]
}

// LookupArch maps a GOARCH value to an Arch.
func LookupArch(goarch string) Arch {
	return archByGOARCH[goarch]
}

// TargetTriple returns the target triple for goos/goarch, or the value
// injected at build time if there is one. Unknown combinations fall back to
// "goos/goarch".
func TargetTriple(goos, goarch string) string {
	if targetTriple != "" {
		return targetTriple
	}
	arch, okArch := tripleArch[goarch]
	vendorOS, okOS := tripleVendorOS[goos]
	if !okArch || !okOS {
		return goos + "/" + goarch
	}
	if goos == "linux" && goarch == "arm" {
		return "armv7-unknown-linux-gnueabihf"
	}
	return arch + "-" + vendorOS
}
