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

import (
	"strconv"
	"strings"
)

// ClassifyVersionUpdate implements the semver rule of spec §3: major iff the
// first component grew; minor iff the second grew with the first equal;
// patch iff only the third grew; other otherwise. Two-component versions are
// accepted as "X.Y". A version that does not parse as clean two- or
// three-component numeric dotted form (e.g. "9.4.17.v20190418", which carries
// a fourth qualifier component) is inconclusive and classified as "other",
// per the worked example in spec §8.
func ClassifyVersionUpdate(previous, next string) VersionUpdateType {
	if previous == next {
		return VersionOther
	}

	p, pok := parseSemver(previous)
	n, nok := parseSemver(next)
	if !pok || !nok {
		return VersionOther
	}

	switch {
	case n[0] > p[0]:
		return VersionMajor
	case n[0] < p[0]:
		return VersionOther
	case n[1] > p[1]:
		return VersionMinor
	case n[1] < p[1]:
		return VersionOther
	case n[2] > p[2]:
		return VersionPatch
	default:
		return VersionOther
	}
}

// parseSemver accepts exactly a two- or three-component dotted numeric
// version ("X.Y" or "X.Y.Z") and returns [major, minor, patch], defaulting
// patch to 0 for the two-component form. Anything else (extra qualifier
// components, non-numeric components, a single component) is rejected.
func parseSemver(v string) ([3]int, bool) {
	var out [3]int
	parts := strings.Split(v, ".")
	if len(parts) != 2 && len(parts) != 3 {
		return out, false
	}
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return out, false
		}
		out[i] = n
	}
	return out, true
}
