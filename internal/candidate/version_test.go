// Copyright 2026, the bump authors.
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

package candidate

import "testing"

func TestClassifyVersionUpdate(t *testing.T) {
	tests := []struct {
		previous, next string
		want           VersionUpdateType
	}{
		{"9.4.17.v20190418", "10.0.10", VersionOther},
		{"2.6.0", "2.9.4", VersionMinor},
		{"4.11.0", "5.3.1", VersionMajor},
		{"5.1.49", "8.0.28", VersionMajor},
		{"0.5.36", "0.6.0", VersionMinor},
		{"1.4.17", "1.4.18", VersionPatch},
		{"1.0", "2.0", VersionMajor},
		{"1.0", "1.1", VersionMinor},
	}
	for _, tt := range tests {
		t.Run(tt.previous+"->"+tt.next, func(t *testing.T) {
			got := ClassifyVersionUpdate(tt.previous, tt.next)
			if got != tt.want {
				t.Errorf("ClassifyVersionUpdate(%q, %q) = %q, want %q", tt.previous, tt.next, got, tt.want)
			}
		})
	}
}

func TestClassifyVersionUpdateSameVersionIsOther(t *testing.T) {
	if got := ClassifyVersionUpdate("1.2.3", "1.2.3"); got != VersionOther {
		t.Errorf("same version = %q, want other", got)
	}
}
