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

// Package version implements the version command. Besides build metadata it
// reports the platform the binary reports to remote callers and the wire
// protocol it speaks, so mismatched client and agent builds are easy to spot.
package version

import (
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/tombee/remoteldr/internal/api"
	"github.com/tombee/remoteldr/internal/commands/shared"
	"github.com/tombee/remoteldr/internal/sysinfo"
)

// Platform is the host identity as the SystemInfo RPC reports it.
type Platform struct {
	OS           string `json:"os"`
	Arch         string `json:"arch"`
	TargetTriple string `json:"target_triple"`
}

// Protocol names the gRPC service and message encoding.
type Protocol struct {
	Service string   `json:"service"`
	Codec   string   `json:"codec"`
	Methods []string `json:"methods"`
}

// VersionInfo is the output of the version command.
type VersionInfo struct {
	shared.JSONResponse
	Version   string   `json:"version"`
	Commit    string   `json:"commit"`
	BuildDate string   `json:"build_date"`
	GoVersion string   `json:"go_version"`
	Platform  Platform `json:"platform"`
	Protocol  Protocol `json:"protocol"`
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long: `Display build metadata, the platform reported to remote callers and
the RPC protocol this binary speaks.`,
		Args: cobra.NoArgs,
		RunE: runVersion,
	}
}

func collect() VersionInfo {
	v, c, b := shared.GetVersion()
	host := sysinfo.Current()

	methods := make([]string, 0, len(api.Methods))
	for _, m := range api.Methods {
		methods = append(methods, m.ShortName())
	}

	return VersionInfo{
		JSONResponse: shared.JSONResponse{Version: "1.0", Command: "version", Success: true},
		Version:      v,
		Commit:       c,
		BuildDate:    b,
		GoVersion:    runtime.Version(),
		Platform: Platform{
			OS:           host.OS.String(),
			Arch:         host.Arch.String(),
			TargetTriple: host.TargetTriple,
		},
		Protocol: Protocol{
			Service: api.ServiceName,
			Codec:   api.CodecName,
			Methods: methods,
		},
	}
}

func runVersion(cmd *cobra.Command, args []string) error {
	info := collect()

	if shared.GetJSON() {
		data, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal version info: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Printf("remoteldr version %s\n", info.Version)
	cmd.Printf("  commit:     %s\n", info.Commit)
	cmd.Printf("  build date: %s\n", info.BuildDate)
	cmd.Printf("  go:         %s\n", info.GoVersion)
	cmd.Printf("  platform:   %s/%s (%s)\n", info.Platform.OS, info.Platform.Arch, info.Platform.TargetTriple)
	cmd.Printf("  protocol:   %s over %s, %d methods\n", info.Protocol.Service, info.Protocol.Codec, len(info.Protocol.Methods))

	return nil
}
