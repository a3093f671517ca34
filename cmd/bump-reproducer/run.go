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

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang/glog"

	"github.com/chains-project/bump/internal/candidate"
	"github.com/chains-project/bump/internal/container"
	"github.com/chains-project/bump/internal/forge"
	"github.com/chains-project/bump/internal/reproducer"
	"github.com/chains-project/bump/internal/result"
	"github.com/chains-project/bump/internal/store"
	"github.com/chains-project/bump/internal/tokenpool"
)

// defaultRegistryRepo is the fixed repository final images are pushed
// under (spec §6's <REGISTRY_REPO>), overridable via the BUMP_REGISTRY_REPO
// environment variable since the CLI surface in spec §6 does not name a
// flag for it.
const defaultRegistryRepo = "ghcr.io/chains-project/bump-benchmark"

type reproduceOptions struct {
	apiTokens           string
	benchmarkDir        string
	unsuccessfulDir     string
	inProgressDir       string
	logDir              string
	jarDir              string
	registryCredentials string
	file                string

	cacheRepoURL       string
	cacheRepoBranch    string
	cacheRepoToken     string
	cacheRepoLocalPath string
}

type registryCredentials struct {
	UserName      string `json:"userName"`
	IdentityToken string `json:"identityToken"`
}

func readRegistryCredentials(path string) (container.Credentials, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return container.Credentials{}, fmt.Errorf("reading registry credentials %s: %w", path, err)
	}
	var rc registryCredentials
	if err := json.Unmarshal(b, &rc); err != nil {
		return container.Credentials{}, fmt.Errorf("decoding registry credentials %s: %w", path, err)
	}
	return container.Credentials{Username: rc.UserName, IdentityToken: rc.IdentityToken}, nil
}

func readTokens(path string) ([]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading api tokens file %s: %w", path, err)
	}
	var tokens []string
	if err := json.Unmarshal(b, &tokens); err != nil {
		return nil, fmt.Errorf("decoding api tokens file %s: %w", path, err)
	}
	return tokens, nil
}

func registryRepo() string {
	if v := os.Getenv("BUMP_REGISTRY_REPO"); v != "" {
		return v
	}
	return defaultRegistryRepo
}

func runReproduce(ctx context.Context, opts reproduceOptions) error {
	tokens, err := readTokens(opts.apiTokens)
	if err != nil {
		return err
	}
	pool, err := tokenpool.New(ctx, tokens, forge.Probe{})
	if err != nil {
		return fmt.Errorf("building token pool: %w", err)
	}

	creds, err := readRegistryCredentials(opts.registryCredentials)
	if err != nil {
		return err
	}

	layout, err := result.NewLayout(opts.benchmarkDir, opts.unsuccessfulDir, opts.inProgressDir, opts.logDir, opts.jarDir)
	if err != nil {
		return fmt.Errorf("building result layout: %w", err)
	}

	runner, err := container.NewRunner()
	if err != nil {
		return fmt.Errorf("connecting to container daemon: %w", err)
	}
	resultMgr := result.NewManager(layout, runner)

	cred := pool.Acquire()
	defer pool.Release(cred)
	enricher := forge.NewClient(ctx, cred.Token)

	repro := reproducer.New(runner, resultMgr, enricher, creds, registryRepo())

	if opts.cacheRepoURL != "" {
		localPath := opts.cacheRepoLocalPath
		if localPath == "" {
			localPath = filepath.Join(os.TempDir(), "bump-cache-repo")
		}
		cacheRepo, err := result.OpenCacheRepo(localPath, opts.cacheRepoURL, opts.cacheRepoBranch, opts.cacheRepoToken)
		if err != nil {
			glog.Warningf("bump-reproducer: opening cache repository %s: %v", opts.cacheRepoURL, err)
		} else {
			repro.CacheRepo = cacheRepo
		}
	}

	if opts.file != "" {
		b, err := loadCandidateFile(opts.file)
		if err != nil {
			return err
		}
		return reproduceOne(ctx, repro, b)
	}

	keys, err := layout.Candidates.Keys()
	if err != nil {
		return fmt.Errorf("listing pending candidates: %w", err)
	}
	for _, key := range keys {
		b, err := store.Read[candidate.BreakingUpdate](layout.Candidates, key)
		if err != nil {
			glog.Errorf("bump-reproducer: reading candidate %s: %v", key, err)
			continue
		}
		if err := reproduceOne(ctx, repro, &b); err != nil {
			glog.Errorf("bump-reproducer: reproducing %s: %v", key, err)
		}
	}
	return nil
}

func loadCandidateFile(path string) (*candidate.BreakingUpdate, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading candidate file %s: %w", path, err)
	}
	var bu candidate.BreakingUpdate
	if err := json.Unmarshal(b, &bu); err != nil {
		return nil, fmt.Errorf("decoding candidate file %s: %w", path, err)
	}
	return &bu, nil
}

// reproduceOne runs the reproduction protocol for a single candidate,
// treating spec §7's "candidate irrecoverable" outcome as logged-and-skipped
// rather than an error the caller should propagate.
func reproduceOne(ctx context.Context, repro *reproducer.Reproducer, b *candidate.BreakingUpdate) error {
	err := repro.Reproduce(ctx, b)
	if errors.Is(err, reproducer.ErrCandidateIrrecoverable) {
		glog.Warningf("bump-reproducer: discarding irrecoverable candidate: %v", err)
		return nil
	}
	return err
}
