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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vifraa/gopom"
)

func deps(pairs ...[2]string) *[]gopom.Dependency {
	out := make([]gopom.Dependency, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, gopom.Dependency{GroupID: p[0], ArtifactID: p[1]})
	}
	return &out
}

func TestResolveDependencySectionTopLevel(t *testing.T) {
	pom := &gopom.Project{
		Dependencies: deps([2]string{"org.eclipse.jetty", "jetty-server"}),
	}
	got := ResolveDependencySection(pom, "org.eclipse.jetty", "jetty-server")
	assert.Equal(t, SectionDependencies, got)
}

func TestResolveDependencySectionDependencyManagement(t *testing.T) {
	pom := &gopom.Project{
		DependencyManagement: &gopom.DependencyManagement{
			Dependencies: deps([2]string{"com.fasterxml.jackson.core", "jackson-databind"}),
		},
	}
	got := ResolveDependencySection(pom, "com.fasterxml.jackson.core", "jackson-databind")
	assert.Equal(t, SectionDependencyManagement, got)
}

func TestResolveDependencySectionBuildPlugins(t *testing.T) {
	plugins := []gopom.Plugin{
		{GroupID: "org.apache.maven.plugins", ArtifactID: "maven-compiler-plugin", Dependencies: deps([2]string{"org.ow2.asm", "asm"})},
	}
	pom := &gopom.Project{
		Build: &gopom.Build{Plugins: &plugins},
	}
	got := ResolveDependencySection(pom, "org.ow2.asm", "asm")
	assert.Equal(t, SectionBuildPlugins, got)
}

func TestResolveDependencySectionProfileDependencies(t *testing.T) {
	profiles := []gopom.Profile{
		{Dependencies: deps([2]string{"junit", "junit"})},
	}
	pom := &gopom.Project{Profiles: &profiles}
	got := ResolveDependencySection(pom, "junit", "junit")
	assert.Equal(t, SectionProfileDependencies, got)
}

func TestResolveDependencySectionUnknownWhenNotFound(t *testing.T) {
	pom := &gopom.Project{Dependencies: deps([2]string{"com.other", "lib"})}
	got := ResolveDependencySection(pom, "org.eclipse.jetty", "jetty-server")
	assert.Equal(t, SectionUnknown, got)
}

func TestResolveDependencySectionNilPom(t *testing.T) {
	got := ResolveDependencySection(nil, "a", "b")
	assert.Equal(t, SectionUnknown, got)
}

const minimalPom = `<?xml version="1.0" encoding="UTF-8"?>
<project xmlns="http://maven.apache.org/POM/4.0.0">
  <modelVersion>4.0.0</modelVersion>
  <groupId>org.example</groupId>
  <artifactId>demo</artifactId>
  <version>1.0.0</version>
  <dependencies>
    <dependency>
      <groupId>org.eclipse.jetty</groupId>
      <artifactId>jetty-server</artifactId>
      <version>9.4.17.v20190418</version>
    </dependency>
  </dependencies>
</project>
`

func TestParsePOMRoundTrip(t *testing.T) {
	project, err := ParsePOM(minimalPom)
	require.NoError(t, err)
	require.NotNil(t, project.Dependencies)
	require.Len(t, *project.Dependencies, 1)
	assert.Equal(t, "org.eclipse.jetty", (*project.Dependencies)[0].GroupID)
}
