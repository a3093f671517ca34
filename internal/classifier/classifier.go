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

// Package classifier maps Maven build-log text to a failure category, per
// spec §4.8, extended with pattern rules for the reserved categories named
// in spec §3 (see SPEC_FULL.md's [C6] expansion).
package classifier

import (
	"strings"

	"github.com/chains-project/bump/internal/candidate"
)

// rule is one ordered, case-insensitive substring match.
type rule struct {
	substrings []string // any one matching is enough
	category   candidate.FailureCategory
}

// rules are evaluated in order; the first match wins. Rules 1-4 are exactly
// spec §4.8's four rules, in the priority order it specifies. The remaining
// rules are SPEC_FULL.md's supplement for the reserved categories, inserted
// after rule 4 and before the UNKNOWN_FAILURE fallback so they never change
// rule 1-4's precedence.
var rules = []rule{
	{[]string{"compilation error :"}, candidate.CompilationFailure},
	{[]string{"failed to execute goal org.apache.maven.plugins:maven-enforcer-plugin"}, candidate.MavenEnforcerFailure},
	{[]string{"could not resolve dependencies"}, candidate.DependencyResolutionFailure},
	{[]string{"[error] tests run:", "there are test failures"}, candidate.TestFailure},

	{[]string{"could not transfer artifact"}, candidate.DependencyLockFailure},
	{[]string{"failed to execute goal org.jvnet.jaxb"}, candidate.JaxbFailure},
	{[]string{"failed to execute goal org.apache.maven.plugins:maven-checkstyle-plugin"}, candidate.CheckstyleFailure},
	{[]string{"warnings found and -werror specified", "-werror"}, candidate.WerrorFailure},
	{[]string{"hpi-plugin", "jenkins-plugin"}, candidate.JenkinsPluginFailure},
	{[]string{"could not checkout", "scm checkout has failed"}, candidate.ScmCheckoutFailure},
}

// Classify returns the failure category for log, per the ordered rules
// above. UNKNOWN_FAILURE is returned when nothing matches.
func Classify(log string) candidate.FailureCategory {
	lower := strings.ToLower(log)
	for _, r := range rules {
		for _, s := range r.substrings {
			if strings.Contains(lower, s) {
				return r.category
			}
		}
	}
	return candidate.UnknownFailure
}
