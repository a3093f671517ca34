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
	"fmt"
	"os"
	"strings"

	"github.com/vifraa/gopom"
)

// ResolveDependencySection locates (groupID, artifactID) in a parsed Maven
// POM, in the search order of spec §4.4: top-level dependencies, build
// plugin dependencies, build plugin-management dependencies, dependency
// management, then the profile-scoped equivalents. Returns SectionUnknown
// if not found anywhere.
func ResolveDependencySection(pom *gopom.Project, groupID, artifactID string) DependencySection {
	if pom == nil {
		return SectionUnknown
	}

	if containsCoordinate(pom.Dependencies, groupID, artifactID) {
		return SectionDependencies
	}
	if buildPluginsContain(pom.Build, groupID, artifactID) {
		return SectionBuildPlugins
	}
	if buildPluginManagementContains(pom.Build, groupID, artifactID) {
		return SectionBuildPluginManagement
	}
	if pom.DependencyManagement != nil && containsCoordinate(pom.DependencyManagement.Dependencies, groupID, artifactID) {
		return SectionDependencyManagement
	}

	if pom.Profiles != nil {
		for _, profile := range *pom.Profiles {
			if containsCoordinate(profile.Dependencies, groupID, artifactID) {
				return SectionProfileDependencies
			}
			if buildPluginsContain(profile.Build, groupID, artifactID) {
				return SectionProfileBuildPlugins
			}
		}
	}

	return SectionUnknown
}

func containsCoordinate(deps *[]gopom.Dependency, groupID, artifactID string) bool {
	if deps == nil {
		return false
	}
	for _, d := range *deps {
		if coordinateMatches(d.GroupID, d.ArtifactID, groupID, artifactID) {
			return true
		}
	}
	return false
}

func buildPluginsContain(build *gopom.Build, groupID, artifactID string) bool {
	if build == nil || build.Plugins == nil {
		return false
	}
	for _, p := range *build.Plugins {
		if containsCoordinate(p.Dependencies, groupID, artifactID) {
			return true
		}
	}
	return false
}

func buildPluginManagementContains(build *gopom.Build, groupID, artifactID string) bool {
	if build == nil || build.PluginManagement == nil || build.PluginManagement.Plugins == nil {
		return false
	}
	for _, p := range *build.PluginManagement.Plugins {
		if containsCoordinate(p.Dependencies, groupID, artifactID) {
			return true
		}
	}
	return false
}

func coordinateMatches(depGroupID, depArtifactID, groupID, artifactID string) bool {
	return strings.TrimSpace(depGroupID) == groupID && strings.TrimSpace(depArtifactID) == artifactID
}

// ParsePOM decodes the Maven model from raw POM XML content, as fetched via
// the Forge's content API for the breaking commit (spec §4.4). gopom.Parse
// reads from a file path rather than an io.Reader, so the content is first
// spooled to a scratch file.
func ParsePOM(content string) (*gopom.Project, error) {
	f, err := os.CreateTemp("", "bump-pom-*.xml")
	if err != nil {
		return nil, fmt.Errorf("parsing pom.xml: %w", err)
	}
	defer os.Remove(f.Name())
	defer f.Close()

	if _, err := f.WriteString(content); err != nil {
		return nil, fmt.Errorf("parsing pom.xml: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("parsing pom.xml: %w", err)
	}

	project, err := gopom.Parse(f.Name())
	if err != nil {
		return nil, fmt.Errorf("parsing pom.xml: %w", err)
	}
	return project, nil
}
