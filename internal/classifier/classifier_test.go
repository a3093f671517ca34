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

package classifier

import (
	"testing"

	"github.com/chains-project/bump/internal/candidate"
	"github.com/stretchr/testify/assert"
)

func TestClassifyPriorityOrder(t *testing.T) {
	tests := []struct {
		name string
		log  string
		want candidate.FailureCategory
	}{
		{"compilation", "[ERROR] COMPILATION ERROR : \n[ERROR] foo.java: cannot find symbol", candidate.CompilationFailure},
		{"enforcer", "Failed to execute goal org.apache.maven.plugins:maven-enforcer-plugin:1.0:enforce", candidate.MavenEnforcerFailure},
		{"dependency resolution", "Could not resolve dependencies for project com.example:demo:jar:1.0", candidate.DependencyResolutionFailure},
		{"test failure marker 1", "[ERROR] Tests run: 10, Failures: 1", candidate.TestFailure},
		{"test failure marker 2", "There are test failures.\n\nPlease refer to...", candidate.TestFailure},
		{"unknown", "Build interrupted for some unrelated reason", candidate.UnknownFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.log))
		})
	}
}

func TestClassifyCompilationBeatsOtherMatches(t *testing.T) {
	log := "COMPILATION ERROR : \nCould not resolve dependencies anyway"
	assert.Equal(t, candidate.CompilationFailure, Classify(log))
}

func TestClassifyIsCaseInsensitive(t *testing.T) {
	assert.Equal(t, candidate.CompilationFailure, Classify("compilation error : something broke"))
}

func TestClassifySupplementedCategories(t *testing.T) {
	assert.Equal(t, candidate.DependencyLockFailure, Classify("Could not transfer artifact com.example:demo:jar:1.0"))
	assert.Equal(t, candidate.JaxbFailure, Classify("Failed to execute goal org.jvnet.jaxb:maven-jaxb2-plugin"))
	assert.Equal(t, candidate.CheckstyleFailure, Classify("Failed to execute goal org.apache.maven.plugins:maven-checkstyle-plugin:check"))
	assert.Equal(t, candidate.ScmCheckoutFailure, Classify("Scm checkout has failed for module demo"))
}
