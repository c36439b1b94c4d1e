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
Package cli provides the root command and global flags for remoteldr.

Individual commands live in the internal/commands subpackages:

	remoteldr
	├── server     Run the agent
	├── client     Call a running agent
	│   ├── sysinfo
	│   ├── put / get / rm / reset
	│   └── spawn / kill / poll / wait
	└── version    Show version
*/
package cli
