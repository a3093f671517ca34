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

// Package candidate models a BreakingUpdate record: the pair of commits, the
// authorship and licensing metadata, the updated dependency coordinate, and
// (once reproduced) the failure classification and reproduction commands.
//
// spec.md §9 models BreakingUpdate as a single record with optional fields
// keyed on FailureCategory == "" rather than as a class hierarchy; which
// on-disk partition holds the record is the source of truth for which
// variant applies.
package candidate

// AuthorKind is the human/bot classification of an authorship field.
type AuthorKind string

const (
	AuthorHuman   AuthorKind = "human"
	AuthorBot     AuthorKind = "bot"
	AuthorUnknown AuthorKind = "unknown"
)

// DependencyScope is a Maven dependency scope.
type DependencyScope string

const (
	ScopeCompile  DependencyScope = "compile"
	ScopeProvided DependencyScope = "provided"
	ScopeRuntime  DependencyScope = "runtime"
	ScopeSystem   DependencyScope = "system"
	ScopeImport   DependencyScope = "import"
)

// VersionUpdateType classifies a version bump by semver component.
type VersionUpdateType string

const (
	VersionMajor VersionUpdateType = "major"
	VersionMinor VersionUpdateType = "minor"
	VersionPatch VersionUpdateType = "patch"
	VersionOther VersionUpdateType = "other"
)

// DependencySection is where in the POM model the dependency was found.
type DependencySection string

const (
	SectionDependencies            DependencySection = "dependencies"
	SectionBuildPlugins            DependencySection = "buildPlugins"
	SectionBuildPluginManagement   DependencySection = "buildPluginManagement"
	SectionDependencyManagement    DependencySection = "dependencyManagement"
	SectionProfileDependencies     DependencySection = "profileDependencies"
	SectionProfileBuildPlugins     DependencySection = "profileBuildPlugins"
	SectionUnknown                 DependencySection = "unknown"
)

// FailureCategory classifies a reproduced build failure, per spec §3 and
// §4.8 (extended with the reserved-but-emittable categories named in
// SPEC_FULL.md).
type FailureCategory string

const (
	CompilationFailure           FailureCategory = "COMPILATION_FAILURE"
	TestFailure                  FailureCategory = "TEST_FAILURE"
	DependencyResolutionFailure  FailureCategory = "DEPENDENCY_RESOLUTION_FAILURE"
	MavenEnforcerFailure         FailureCategory = "MAVEN_ENFORCER_FAILURE"
	DependencyLockFailure        FailureCategory = "DEPENDENCY_LOCK_FAILURE"
	JenkinsPluginFailure         FailureCategory = "JENKINS_PLUGIN_FAILURE"
	JaxbFailure                  FailureCategory = "JAXB_FAILURE"
	ScmCheckoutFailure           FailureCategory = "SCM_CHECKOUT_FAILURE"
	CheckstyleFailure            FailureCategory = "CHECKSTYLE_FAILURE"
	WerrorFailure                FailureCategory = "WERROR_FAILURE"
	UnknownFailure                FailureCategory = "UNKNOWN_FAILURE"
)

// UpdatedFileType is what kind of Maven local-repository artifact was
// extracted for the updated dependency.
type UpdatedFileType string

const (
	UpdatedFileJAR UpdatedFileType = "JAR"
	UpdatedFilePOM UpdatedFileType = "POM"
)

// UpdatedDependency is the Maven coordinate whose version changed between
// the pre-commit and the breaking commit.
type UpdatedDependency struct {
	GroupID           string             `json:"dependencyGroupID"`
	ArtifactID        string             `json:"dependencyArtifactID"`
	PreviousVersion   string             `json:"previousVersion"`
	NewVersion        string             `json:"newVersion"`
	Scope             DependencyScope    `json:"dependencyScope"`
	VersionUpdateType VersionUpdateType  `json:"versionUpdateType"`
	Section           DependencySection  `json:"dependencySection"`
}

// BreakingUpdate is the full per-commit record, persisted as one JSON
// document keyed by BreakingCommit in whichever partition currently holds
// it (candidates/, benchmark/, or unsuccessful/).
type BreakingUpdate struct {
	// Identity
	BreakingCommit      string `json:"breakingCommit"`
	URL                 string `json:"url"`
	Project             string `json:"project"`
	ProjectOrganisation string `json:"projectOrganisation"`

	// Authorship
	PRAuthor             AuthorKind `json:"prAuthor"`
	PreCommitAuthor      AuthorKind `json:"preCommitAuthor"`
	BreakingCommitAuthor AuthorKind `json:"breakingCommitAuthor"`

	// Licensing
	LicenseInfo string `json:"licenseInfo"`

	UpdatedDependency UpdatedDependency `json:"updatedDependency"`

	// Populated only after a successful or attempted reproduction.
	FailureCategory                    FailureCategory `json:"failureCategory,omitempty"`
	JavaVersionUsedForReproduction     string          `json:"javaVersionUsedForReproduction,omitempty"`
	PreCommitReproductionCommand       string          `json:"preCommitReproductionCommand,omitempty"`
	BreakingUpdateReproductionCommand  string          `json:"breakingUpdateReproductionCommand,omitempty"`

	// Best-effort enrichment, success path only.
	GithubCompareLink      string          `json:"githubCompareLink,omitempty"`
	MavenSourceLinkPre     string          `json:"mavenSourceLinkPre,omitempty"`
	MavenSourceLinkBreaking string         `json:"mavenSourceLinkBreaking,omitempty"`
	UpdatedFileType        UpdatedFileType `json:"updatedFileType,omitempty"`
}

// DefaultJavaVersion is the default reproduction Java version, per spec §3.
const DefaultJavaVersion = "11"

// NewCandidate builds the bare record a Miner emits, before reproduction.
func NewCandidate(breakingCommit, url, project, org string) *BreakingUpdate {
	return &BreakingUpdate{
		BreakingCommit:      breakingCommit,
		URL:                 url,
		Project:             project,
		ProjectOrganisation: org,
		LicenseInfo:         "unknown",
		UpdatedDependency: UpdatedDependency{
			Scope:   ScopeCompile,
			Section: SectionUnknown,
		},
	}
}

// IsReproduced reports whether the record carries a reproduction outcome
// (placing it, per spec §3, logically outside candidates/).
func (b *BreakingUpdate) IsReproduced() bool {
	return b.FailureCategory != ""
}

// CloneURL is the HTTPS clone URL for the record's project, used by the
// Reproducer's base-image preparation step (spec §4.7).
func (b *BreakingUpdate) CloneURL() string {
	return "https://github.com/" + b.ProjectOrganisation + "/" + b.Project + ".git"
}

// IsBenchmarkReady reports whether the record satisfies the benchmark/
// partition invariant from spec §3: a non-empty failure category and both
// reproduction commands present. Image existence is checked separately by
// the Result Manager against the registry.
func (b *BreakingUpdate) IsBenchmarkReady() bool {
	return b.FailureCategory != "" &&
		b.PreCommitReproductionCommand != "" &&
		b.BreakingUpdateReproductionCommand != ""
}
