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

// Package reproducer implements the protocol core of spec §4.7: the
// per-candidate pre/post build state machine, its flakiness policy, and the
// success/unsuccessful result paths.
package reproducer

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang/glog"
	"github.com/hashicorp/go-multierror"

	"github.com/chains-project/bump/internal/candidate"
	"github.com/chains-project/bump/internal/classifier"
	"github.com/chains-project/bump/internal/container"
	"github.com/chains-project/bump/internal/result"
)

// DefaultMaxAttempts is the "three tries" constant of spec §4.7 / §9's
// "retry budget is policy, not law" note — overridable per Reproducer.
const DefaultMaxAttempts = 3

// DefaultBaseImage is the well-known Maven-capable image preparation starts
// from.
const DefaultBaseImage = "maven:3.8-eclipse-temurin-11"

// DefaultCommand is the final images' default command, per spec §4.7 step 1.
var DefaultCommand = []string{"mvn", "clean", "test", "-B"}

// ErrCandidateIrrecoverable signals spec §7's "candidate irrecoverable"
// outcome: the base image could not be prepared (e.g. git clone failed).
// The candidate must be discarded without writing to benchmark/ or
// unsuccessful/; the caller logs and continues.
var ErrCandidateIrrecoverable = errors.New("reproducer: candidate irrecoverable")

// Enricher resolves the best-effort links of spec §4.7 step 3: the Forge's
// compare-link between two tags and each version's Maven Central source-jar
// URL. Satisfied by *forge.Client; kept as an interface so a fake can stand
// in for the real network calls in tests.
type Enricher interface {
	CompareLink(ctx context.Context, owner, repo, previousVersion, newVersion string) (string, error)
	MavenCentralSourceJarURL(ctx context.Context, groupID, artifactID, version string) (string, error)
}

// Reproducer drives one candidate's state machine end to end.
type Reproducer struct {
	Runner       container.Driver
	Result       *result.Manager
	Enricher     Enricher
	Credentials  container.Credentials
	RegistryRepo string
	BaseImage    string
	MaxAttempts  int

	// CacheRepo is optional. When set, finishSuccess pushes the breaking
	// build's log to it per spec §4.9's pushFile operation.
	CacheRepo *result.CacheRepo
}

// New builds a Reproducer with the documented defaults for BaseImage and
// MaxAttempts.
func New(runner container.Driver, resultMgr *result.Manager, enricher Enricher, creds container.Credentials, registryRepo string) *Reproducer {
	return &Reproducer{
		Runner:       runner,
		Result:       resultMgr,
		Enricher:     enricher,
		Credentials:  creds,
		RegistryRepo: registryRepo,
		BaseImage:    DefaultBaseImage,
		MaxAttempts:  DefaultMaxAttempts,
	}
}

func (r *Reproducer) maxAttempts() int {
	if r.MaxAttempts <= 0 {
		return DefaultMaxAttempts
	}
	return r.MaxAttempts
}

// wrapIrrecoverable wraps err as spec §7's "candidate irrecoverable" outcome.
func wrapIrrecoverable(commit string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrCandidateIrrecoverable, commit, err)
}

// attempt is the outcome of one PRE or POST run.
type attempt struct {
	containerID string
	exitCode    int64
	log         []byte
	category    candidate.FailureCategory
}

// Reproduce runs the full state machine of spec §4.7 for one candidate.
// A nil return means the candidate was fully handled (stored to benchmark/
// or unsuccessful/); an error wrapping ErrCandidateIrrecoverable means it was
// discarded without being stored.
func (r *Reproducer) Reproduce(ctx context.Context, b *candidate.BreakingUpdate) error {
	projectDir := "/" + b.Project
	baseRepo := b.BreakingCommit
	baseTag := "base"
	baseRef := fmt.Sprintf("%s:%s", baseRepo, baseTag)

	if err := r.prepareBase(ctx, b, baseRepo, baseTag); err != nil {
		glog.Warningf("reproducer: %s irrecoverable: %v", b.BreakingCommit, err)
		return wrapIrrecoverable(b.BreakingCommit, err)
	}
	defer func() {
		if err := r.Runner.RemoveImage(ctx, baseRepo, baseTag); err != nil {
			glog.Warningf("reproducer: removing base image %s: %v", baseRef, err)
		}
	}()

	preCmd := fmt.Sprintf("set -o pipefail && git checkout %s && git checkout HEAD~1 && rm -rf .git && mvn clean test -B | tee %s.log",
		b.BreakingCommit, b.BreakingCommit)
	postCmd := fmt.Sprintf("set -o pipefail && git checkout %s && rm -rf .git && mvn clean test -B | tee %s.log",
		b.BreakingCommit, b.BreakingCommit)

	preAttempts, prePassed, err := r.runPrePhase(ctx, b, baseRef, projectDir, preCmd)
	if err != nil {
		r.removeContainers(ctx, preAttempts)
		return fmt.Errorf("reproducer: pre phase for %s: %w", b.BreakingCommit, err)
	}
	if !prePassed {
		r.removeContainers(ctx, preAttempts)
		glog.Infof("reproducer: %s preceding build never went green", b.BreakingCommit)
		return r.finishUnsuccessful(b)
	}

	// The last PRE attempt passed and its container must survive until
	// finishSuccess commits it as "<breakingCommit>:pre"; only the
	// earlier, failed attempts are discarded here.
	lastPre := preAttempts[len(preAttempts)-1]
	r.removeContainers(ctx, preAttempts[:len(preAttempts)-1])

	postAttempts, outcome, err := r.runPostPhase(ctx, b, baseRef, projectDir, postCmd)
	if err != nil {
		r.removeContainers(ctx, append(postAttempts, lastPre))
		return fmt.Errorf("reproducer: post phase for %s: %w", b.BreakingCommit, err)
	}

	switch outcome {
	case postNoBreakage:
		r.removeContainers(ctx, append(postAttempts, lastPre))
		glog.Infof("reproducer: %s post build did not break", b.BreakingCommit)
		return r.finishUnsuccessful(b)
	case postFlaky:
		r.removeContainers(ctx, append(postAttempts, lastPre))
		if err := r.Result.RemoveLog(b, true); err != nil {
			glog.Warningf("reproducer: removing tentative log for %s: %v", b.BreakingCommit, err)
		}
		glog.Infof("reproducer: %s flaky across post attempts", b.BreakingCommit)
		return r.finishUnsuccessful(b)
	}

	lastPost := postAttempts[len(postAttempts)-1]
	b.FailureCategory = lastPost.category
	b.JavaVersionUsedForReproduction = candidate.DefaultJavaVersion

	err = r.finishSuccess(ctx, b, lastPre, lastPost)
	r.removeContainers(ctx, append(postAttempts, lastPre))
	if err != nil {
		return fmt.Errorf("reproducer: finishing success for %s: %w", b.BreakingCommit, err)
	}
	return nil
}

func (r *Reproducer) removeContainers(ctx context.Context, attempts []attempt) {
	for _, a := range attempts {
		if a.containerID == "" {
			continue
		}
		if err := r.Runner.Remove(ctx, a.containerID); err != nil {
			glog.Warningf("reproducer: removing container %s: %v", a.containerID, err)
		}
	}
}

// prepareBase clones the project and fetches the breaking commit into an
// ephemeral container, committing it as <breakingCommit>:base, per spec
// §4.7's "per-candidate preparation".
func (r *Reproducer) prepareBase(ctx context.Context, b *candidate.BreakingUpdate, repo, tag string) error {
	cmd := []string{"sh", "-c", fmt.Sprintf(
		"git clone %s %s && cd %s && git fetch --depth 2 origin %s",
		b.CloneURL(), b.Project, b.Project, b.BreakingCommit,
	)}

	id, err := r.Runner.Create(ctx, r.BaseImage, "/", cmd)
	if err != nil {
		return fmt.Errorf("creating preparation container: %w", err)
	}
	defer func() {
		if err := r.Runner.Remove(ctx, id); err != nil {
			glog.Warningf("reproducer: removing preparation container %s: %v", id, err)
		}
	}()

	if err := r.Runner.Start(ctx, id); err != nil {
		return fmt.Errorf("starting preparation container: %w", err)
	}
	code, err := r.Runner.Wait(ctx, id)
	if err != nil {
		return fmt.Errorf("waiting for preparation container: %w", err)
	}
	if code != 0 {
		return fmt.Errorf("preparation exited %d", code)
	}
	if _, err := r.Runner.Commit(ctx, id, repo, tag, nil); err != nil {
		return fmt.Errorf("committing base image: %w", err)
	}
	return nil
}

// runPrePhase runs up to MaxAttempts PRE commands per spec §4.7's flakiness
// policy, returning every attempt made (for log cleanup / final snapshot)
// and whether the preceding build ever went green.
func (r *Reproducer) runPrePhase(ctx context.Context, b *candidate.BreakingUpdate, baseRef, projectDir, cmd string) ([]attempt, bool, error) {
	var attempts []attempt
	var errs *multierror.Error

	for i := 0; i < r.maxAttempts(); i++ {
		a, err := r.runOnce(ctx, baseRef, projectDir, cmd, b.BreakingCommit)
		if err != nil {
			errs = multierror.Append(errs, err)
			break
		}
		attempts = append(attempts, a)

		if a.exitCode == 0 {
			if i > 0 {
				if err := r.Result.RemoveLog(b, false); err != nil {
					glog.Warningf("reproducer: removing stale pre-failure log for %s: %v", b.BreakingCommit, err)
				}
			}
			return attempts, true, errs.ErrorOrNil()
		}

		if err := r.Result.StoreLog(ctx, b, a.containerID, projectDir, false); err != nil {
			glog.Warningf("reproducer: storing pre-failure log for %s: %v", b.BreakingCommit, err)
		}
		if a.category != candidate.TestFailure {
			break // non-TEST_FAILURE: treat as non-green immediately, per spec §4.7
		}
	}
	return attempts, false, errs.ErrorOrNil()
}

type postOutcome int

const (
	postBroken postOutcome = iota
	postNoBreakage
	postFlaky
)

// runPostPhase runs up to MaxAttempts POST commands per spec §4.7's
// stability policy: the first run's classification must be reproduced
// identically by every subsequent run within the budget.
func (r *Reproducer) runPostPhase(ctx context.Context, b *candidate.BreakingUpdate, baseRef, projectDir, cmd string) ([]attempt, postOutcome, error) {
	var attempts []attempt
	var firstCategory candidate.FailureCategory

	for i := 0; i < r.maxAttempts(); i++ {
		a, err := r.runOnce(ctx, baseRef, projectDir, cmd, b.BreakingCommit)
		if err != nil {
			return attempts, postBroken, err
		}
		attempts = append(attempts, a)

		if a.exitCode == 0 {
			if i > 0 {
				return attempts, postFlaky, nil // a pass after a failing run diverges from the first run
			}
			return attempts, postNoBreakage, nil
		}

		if i == 0 {
			firstCategory = a.category
			if err := r.Result.StoreLog(ctx, b, a.containerID, projectDir, true); err != nil {
				glog.Warningf("reproducer: storing tentative post log for %s: %v", b.BreakingCommit, err)
			}
			continue
		}

		if a.category != firstCategory {
			return attempts, postFlaky, nil
		}
	}

	if len(attempts) == r.maxAttempts() {
		return attempts, postBroken, nil
	}
	return attempts, postFlaky, nil
}

func (r *Reproducer) runOnce(ctx context.Context, image, projectDir, cmd, breakingCommit string) (attempt, error) {
	id, err := r.Runner.Create(ctx, image, projectDir, []string{"sh", "-c", cmd})
	if err != nil {
		return attempt{}, fmt.Errorf("creating build container: %w", err)
	}
	if err := r.Runner.Start(ctx, id); err != nil {
		return attempt{}, fmt.Errorf("starting build container: %w", err)
	}
	code, err := r.Runner.Wait(ctx, id)
	if err != nil {
		return attempt{}, fmt.Errorf("waiting for build container: %w", err)
	}

	logPath := fmt.Sprintf("%s/%s.log", projectDir, breakingCommit)
	logBytes, err := r.Runner.CopyOut(ctx, id, logPath)
	if err != nil && !errors.Is(err, container.ErrNotFoundInContainer) {
		return attempt{}, fmt.Errorf("copying build log: %w", err)
	}

	var category candidate.FailureCategory
	if code != 0 {
		category = classifier.Classify(string(logBytes))
	}
	return attempt{containerID: id, exitCode: code, log: logBytes, category: category}, nil
}

func (r *Reproducer) finishUnsuccessful(b *candidate.BreakingUpdate) error {
	if err := r.Result.SaveUnsuccessful(b); err != nil {
		return err
	}
	return r.Result.RemoveCandidateFile(b)
}

// finishSuccess implements spec §4.7's success path: snapshot images,
// extract jar/pom artifacts, best-effort enrichment, final image build and
// push, image-metadata measurement, and the benchmark record.
func (r *Reproducer) finishSuccess(ctx context.Context, b *candidate.BreakingUpdate, pre, post attempt) error {
	projectDir := "/" + b.Project

	if _, err := r.Runner.CommitRunnable(ctx, pre.containerID, b.BreakingCommit, "pre", projectDir, DefaultCommand, nil); err != nil {
		return fmt.Errorf("snapshotting pre image: %w", err)
	}
	if _, err := r.Runner.CommitRunnable(ctx, post.containerID, b.BreakingCommit, "post", projectDir, DefaultCommand, nil); err != nil {
		return fmt.Errorf("snapshotting post image: %w", err)
	}

	r.extractArtifact(ctx, b, pre.containerID, b.UpdatedDependency.PreviousVersion)
	r.extractArtifact(ctx, b, post.containerID, b.UpdatedDependency.NewVersion)

	r.enrich(ctx, b)

	labels := imageLabels(b)

	preTag := b.BreakingCommit + "-pre"
	postTag := b.BreakingCommit + "-breaking"

	finalPre, err := r.Runner.CommitRunnable(ctx, pre.containerID, r.RegistryRepo, preTag, projectDir, DefaultCommand, labels)
	if err != nil {
		return fmt.Errorf("building final pre image: %w", err)
	}
	finalPost, err := r.Runner.CommitRunnable(ctx, post.containerID, r.RegistryRepo, postTag, projectDir, DefaultCommand, labels)
	if err != nil {
		return fmt.Errorf("building final post image: %w", err)
	}

	if err := r.Runner.Push(ctx, r.RegistryRepo, preTag, r.Credentials); err != nil {
		glog.Errorf("reproducer: pushing %s:%s: %v", r.RegistryRepo, preTag, err) // registry push failure is logged, not fatal, per spec §7
	}
	if err := r.Runner.Push(ctx, r.RegistryRepo, postTag, r.Credentials); err != nil {
		glog.Errorf("reproducer: pushing %s:%s: %v", r.RegistryRepo, postTag, err)
	}

	r.measureImageMetadata(ctx, b, finalPre, finalPost)

	if r.CacheRepo != nil {
		name := fmt.Sprintf("%s/%s.log", b.BreakingCommit, b.BreakingCommit)
		if err := r.CacheRepo.PushFile(b.BreakingCommit, name, post.log); err != nil {
			glog.Warningf("reproducer: pushing %s to cache repository: %v", name, err)
		}
	}

	if err := r.Runner.RemoveImage(ctx, b.BreakingCommit, "pre"); err != nil {
		glog.Warningf("reproducer: removing intermediate pre image: %v", err)
	}
	if err := r.Runner.RemoveImage(ctx, b.BreakingCommit, "post"); err != nil {
		glog.Warningf("reproducer: removing intermediate post image: %v", err)
	}

	b.PreCommitReproductionCommand = fmt.Sprintf("docker run %s:%s", r.RegistryRepo, preTag)
	b.BreakingUpdateReproductionCommand = fmt.Sprintf("docker run %s:%s", r.RegistryRepo, postTag)

	if err := r.Result.StoreResult(b); err != nil {
		return err
	}
	return r.Result.RemoveCandidateFile(b)
}

// imageLabels builds the six required OCI labels of spec §4.7 step 4.
func imageLabels(b *candidate.BreakingUpdate) map[string]string {
	return map[string]string{
		"github_repository": b.ProjectOrganisation + "/" + b.Project,
		"pr_url":             b.URL,
		"updated_dependency": b.UpdatedDependency.GroupID + ":" + b.UpdatedDependency.ArtifactID,
		"new_version":        b.UpdatedDependency.NewVersion,
		"previous_version":   b.UpdatedDependency.PreviousVersion,
		"failure_category":   string(b.FailureCategory),
	}
}

func (r *Reproducer) extractArtifact(ctx context.Context, b *candidate.BreakingUpdate, containerID, version string) {
	jarPath := result.JarPath(b.UpdatedDependency.GroupID, b.UpdatedDependency.ArtifactID, version, "jar")
	if content, err := r.Runner.CopyOut(ctx, containerID, jarPath); err == nil {
		if saveErr := r.Result.StoreJarArtifact(b.UpdatedDependency.GroupID, b.UpdatedDependency.ArtifactID, version, "jar", content); saveErr != nil {
			glog.Warningf("reproducer: storing jar artifact for %s: %v", b.BreakingCommit, saveErr)
		}
		b.UpdatedFileType = candidate.UpdatedFileJAR
		return
	} else if !errors.Is(err, container.ErrNotFoundInContainer) {
		glog.Warningf("reproducer: copying jar for %s: %v", b.BreakingCommit, err)
	}

	pomPath := result.JarPath(b.UpdatedDependency.GroupID, b.UpdatedDependency.ArtifactID, version, "pom")
	if content, err := r.Runner.CopyOut(ctx, containerID, pomPath); err == nil {
		if saveErr := r.Result.StoreJarArtifact(b.UpdatedDependency.GroupID, b.UpdatedDependency.ArtifactID, version, "pom", content); saveErr != nil {
			glog.Warningf("reproducer: storing pom artifact for %s: %v", b.BreakingCommit, saveErr)
		}
		if b.UpdatedFileType == "" {
			b.UpdatedFileType = candidate.UpdatedFilePOM
		}
	} else if !errors.Is(err, container.ErrNotFoundInContainer) {
		glog.Warningf("reproducer: copying pom for %s: %v", b.BreakingCommit, err)
	}
}

// enrich resolves the best-effort, non-fatal enrichment links of spec §4.7
// step 3. Failures are logged and leave the fields empty.
func (r *Reproducer) enrich(ctx context.Context, b *candidate.BreakingUpdate) {
	var errs *multierror.Error

	if link, err := r.Enricher.CompareLink(ctx, b.ProjectOrganisation, b.Project, b.UpdatedDependency.PreviousVersion, b.UpdatedDependency.NewVersion); err != nil {
		errs = multierror.Append(errs, err)
	} else {
		b.GithubCompareLink = link
	}

	if url, err := r.Enricher.MavenCentralSourceJarURL(ctx, b.UpdatedDependency.GroupID, b.UpdatedDependency.ArtifactID, b.UpdatedDependency.PreviousVersion); err != nil {
		errs = multierror.Append(errs, err)
	} else {
		b.MavenSourceLinkPre = url
	}

	if url, err := r.Enricher.MavenCentralSourceJarURL(ctx, b.UpdatedDependency.GroupID, b.UpdatedDependency.ArtifactID, b.UpdatedDependency.NewVersion); err != nil {
		errs = multierror.Append(errs, err)
	} else {
		b.MavenSourceLinkBreaking = url
	}

	if errs.ErrorOrNil() != nil {
		glog.Warningf("reproducer: enrichment for %s incomplete: %v", b.BreakingCommit, errs.ErrorOrNil())
	}
}

func (r *Reproducer) measureImageMetadata(ctx context.Context, b *candidate.BreakingUpdate, preImage, postImage string) {
	entry := result.ImageMetadataEntry{}

	if size, err := r.Runner.FolderSize(ctx, preImage, "/root/.m2"); err == nil {
		entry.PreImageM2FolderSize = size
	} else {
		glog.Warningf("reproducer: measuring pre .m2 size for %s: %v", b.BreakingCommit, err)
	}
	if size, err := r.Runner.FolderSize(ctx, postImage, "/root/.m2"); err == nil {
		entry.PostImageM2FolderSize = size
	} else {
		glog.Warningf("reproducer: measuring post .m2 size for %s: %v", b.BreakingCommit, err)
	}
	if size, err := r.Runner.FolderSize(ctx, preImage, "/"+b.Project); err == nil {
		entry.PreImageProjectFolderSize = size
	} else {
		glog.Warningf("reproducer: measuring pre project size for %s: %v", b.BreakingCommit, err)
	}
	if size, err := r.Runner.FolderSize(ctx, postImage, "/"+b.Project); err == nil {
		entry.PostImageProjectFolderSize = size
	} else {
		glog.Warningf("reproducer: measuring post project size for %s: %v", b.BreakingCommit, err)
	}

	if err := r.Result.MergeImageMetadata(b.BreakingCommit, entry); err != nil {
		glog.Warningf("reproducer: merging image metadata for %s: %v", b.BreakingCommit, err)
	}
}
