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

// Package result enforces the on-disk partition invariants of spec §3: a
// record lives in exactly one of candidates/, benchmark/, unsuccessful/, and
// movement between them is atomic w.r.t. the file system.
package result

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang/glog"

	"github.com/chains-project/bump/internal/candidate"
	"github.com/chains-project/bump/internal/container"
	"github.com/chains-project/bump/internal/store"
)

// Layout is the full on-disk layout of spec §6.
type Layout struct {
	Candidates   *store.Dir
	Benchmark    *store.Dir
	Unsuccessful *store.Dir

	SuccessfulLogs   *store.Dir // logs/successfulReproductionLogs
	UnsuccessfulLogs *store.Dir // logs/unsuccessfulReproductionLogs

	JarDir string // jars/<groupPath>/<version>/<artifactId>-<version>.{jar,pom}

	ImageMetadata *store.Doc // image_metadata.json
}

// NewLayout builds a Layout rooted at the given directories, creating them
// as needed.
func NewLayout(benchmarkDir, unsuccessfulDir, candidatesDir, logDir, jarDir string) (*Layout, error) {
	candidates, err := store.NewDir(candidatesDir)
	if err != nil {
		return nil, err
	}
	benchmark, err := store.NewDir(benchmarkDir)
	if err != nil {
		return nil, err
	}
	unsuccessful, err := store.NewDir(unsuccessfulDir)
	if err != nil {
		return nil, err
	}
	successLogs, err := store.NewDir(filepath.Join(logDir, "successfulReproductionLogs"))
	if err != nil {
		return nil, err
	}
	failLogs, err := store.NewDir(filepath.Join(logDir, "unsuccessfulReproductionLogs"))
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(jarDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating jar directory %s: %w", jarDir, err)
	}

	return &Layout{
		Candidates:       candidates,
		Benchmark:        benchmark,
		Unsuccessful:     unsuccessful,
		SuccessfulLogs:   successLogs,
		UnsuccessfulLogs: failLogs,
		JarDir:           jarDir,
		ImageMetadata:    store.NewDoc(filepath.Join(filepath.Dir(candidatesDir), "image_metadata.json")),
	}, nil
}

// ImageMetadataEntry is one commit's du-measured image sizes, per spec §6.
type ImageMetadataEntry struct {
	PreImageM2FolderSize       string `json:"preImageM2FolderSize"`
	PostImageM2FolderSize      string `json:"postImageM2FolderSize"`
	PreImageProjectFolderSize  string `json:"preImageProjectFolderSize"`
	PostImageProjectFolderSize string `json:"postImageProjectFolderSize"`
}

// Manager implements the Result Manager's operations over a Layout.
type Manager struct {
	Layout *Layout
	Runner container.Driver
}

// NewManager builds a Manager.
func NewManager(layout *Layout, runner container.Driver) *Manager {
	return &Manager{Layout: layout, Runner: runner}
}

// StoreLog copies the build log out of a stopped container's
// /<project>/<commit>.log into the log directory matching success.
func (m *Manager) StoreLog(ctx context.Context, b *candidate.BreakingUpdate, containerID, projectDir string, success bool) error {
	logPath := fmt.Sprintf("%s/%s.log", projectDir, b.BreakingCommit)
	content, err := m.Runner.CopyOut(ctx, containerID, logPath)
	if err != nil {
		return fmt.Errorf("result: copying log for %s: %w", b.BreakingCommit, err)
	}

	dir := m.Layout.UnsuccessfulLogs
	if success {
		dir = m.Layout.SuccessfulLogs
	}
	if err := os.WriteFile(filepath.Join(dir.Path, b.BreakingCommit+".log"), content, 0o644); err != nil {
		return fmt.Errorf("result: writing log for %s: %w", b.BreakingCommit, err)
	}
	return nil
}

// RemoveLog deletes a previously-written log, used by the flakiness policy
// (spec §4.7) to undo a log written after what later turns out to be a
// non-representative attempt.
func (m *Manager) RemoveLog(b *candidate.BreakingUpdate, success bool) error {
	dir := m.Layout.UnsuccessfulLogs
	if success {
		dir = m.Layout.SuccessfulLogs
	}
	path := filepath.Join(dir.Path, b.BreakingCommit+".log")
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("result: removing log %s: %w", path, err)
	}
	return nil
}

// RemoveCandidateFile idempotently deletes the candidate's entry from
// candidates/.
func (m *Manager) RemoveCandidateFile(b *candidate.BreakingUpdate) error {
	return m.Layout.Candidates.Remove(b.BreakingCommit)
}

// StoreResult moves a successfully-reproduced candidate into benchmark/,
// per spec §4.7's success path and §4.9. The caller is responsible for
// having already populated FailureCategory, the reproduction commands, and
// any enrichment fields, and for having pushed/committed the images.
func (m *Manager) StoreResult(b *candidate.BreakingUpdate) error {
	if !b.IsBenchmarkReady() {
		return fmt.Errorf("result: refusing to store %s in benchmark/: missing required fields", b.BreakingCommit)
	}
	if err := store.Move(m.Layout.Candidates, m.Layout.Benchmark, b.BreakingCommit, b); err != nil {
		return fmt.Errorf("result: storing benchmark result for %s: %w", b.BreakingCommit, err)
	}
	glog.Infof("result: %s reproduced (%s)", b.BreakingCommit, b.FailureCategory)
	return nil
}

// SaveUnsuccessful moves a candidate that could not be reproduced into
// unsuccessful/, trimmed of reproduction commands and enrichment fields per
// spec §4.7's unsuccessful path.
func (m *Manager) SaveUnsuccessful(b *candidate.BreakingUpdate) error {
	trimmed := *b
	trimmed.PreCommitReproductionCommand = ""
	trimmed.BreakingUpdateReproductionCommand = ""
	trimmed.GithubCompareLink = ""
	trimmed.MavenSourceLinkPre = ""
	trimmed.MavenSourceLinkBreaking = ""
	trimmed.UpdatedFileType = ""

	if err := store.Move(m.Layout.Candidates, m.Layout.Unsuccessful, trimmed.BreakingCommit, &trimmed); err != nil {
		return fmt.Errorf("result: storing unsuccessful result for %s: %w", trimmed.BreakingCommit, err)
	}
	glog.Infof("result: %s not reproduced", trimmed.BreakingCommit)
	return nil
}

// MergeImageMetadata reads, merges, and rewrites the image_metadata.json
// document for one commit, per spec §4.7 step 5.
func (m *Manager) MergeImageMetadata(commit string, entry ImageMetadataEntry) error {
	all, err := store.Load[map[string]ImageMetadataEntry](m.Layout.ImageMetadata)
	if err != nil {
		return fmt.Errorf("result: loading image metadata: %w", err)
	}
	if all == nil {
		all = make(map[string]ImageMetadataEntry)
	}
	all[commit] = entry
	if err := store.Save(m.Layout.ImageMetadata, all); err != nil {
		return fmt.Errorf("result: saving image metadata: %w", err)
	}
	return nil
}

// JarPath returns the local Maven repository path for a dependency
// coordinate, per spec §4.7 step 2.
func JarPath(groupID, artifactID, version, ext string) string {
	groupPath := groupIDToPath(groupID)
	return fmt.Sprintf("/root/.m2/repository/%s/%s/%s/%s-%s.%s", groupPath, artifactID, version, artifactID, version, ext)
}

func groupIDToPath(groupID string) string {
	out := make([]byte, 0, len(groupID))
	for i := 0; i < len(groupID); i++ {
		if groupID[i] == '.' {
			out = append(out, '/')
		} else {
			out = append(out, groupID[i])
		}
	}
	return string(out)
}

// StoreJarArtifact writes an extracted jar/pom artifact to jars/<groupPath>/
// <version>/<artifactId>-<version>.{jar,pom}, per spec §6.
func (m *Manager) StoreJarArtifact(groupID, artifactID, version, ext string, content []byte) error {
	dir := filepath.Join(m.Layout.JarDir, groupIDToPath(groupID), version)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("result: creating jar directory %s: %w", dir, err)
	}
	path := filepath.Join(dir, fmt.Sprintf("%s-%s.%s", artifactID, version, ext))
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("result: writing artifact %s: %w", path, err)
	}
	return nil
}
