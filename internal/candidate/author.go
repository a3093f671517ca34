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

import "strings"

// dependencyBotLogins are the known dependency-bot login substrings, per
// spec §3.
var dependencyBotLogins = []string{"dependabot", "renovate"}

// ClassifyAuthor implements spec §3's bot-detection rule: a forge-flagged
// bot account, or a login containing a known dependency-bot substring
// (case-insensitive), is a bot; otherwise human. A missing login (empty
// string with isBot=false and no forge signal) is reported as unknown,
// stored verbatim per §4.4.
func ClassifyAuthor(login string, forgeMarksBot bool) AuthorKind {
	if login == "" && !forgeMarksBot {
		return AuthorUnknown
	}
	if forgeMarksBot {
		return AuthorBot
	}
	lower := strings.ToLower(login)
	for _, substr := range dependencyBotLogins {
		if strings.Contains(lower, substr) {
			return AuthorBot
		}
	}
	return AuthorHuman
}
