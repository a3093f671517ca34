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
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang/glog"

	"github.com/chains-project/bump/internal/forge"
	"github.com/chains-project/bump/internal/miner"
	"github.com/chains-project/bump/internal/patchcache"
	"github.com/chains-project/bump/internal/repoindex"
	"github.com/chains-project/bump/internal/store"
	"github.com/chains-project/bump/internal/tokenpool"
)

type findOptions struct {
	apiTokens       string
	outputDirectory string
	searchConfig    string
	repos           string
	last            string
}

type mineOptions struct {
	apiTokens       string
	outputDirectory string
	repos           string
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

func buildPool(ctx context.Context, apiTokensPath string) (*tokenpool.Pool, error) {
	tokens, err := readTokens(apiTokensPath)
	if err != nil {
		return nil, err
	}
	pool, err := tokenpool.New(ctx, tokens, forge.Probe{})
	if err != nil {
		return nil, fmt.Errorf("building token pool: %w", err)
	}
	return pool, nil
}

type forgeFetcher struct {
	pool *tokenpool.Pool
}

func (f forgeFetcher) FetchDiff(ctx context.Context, key patchcache.PRKey) (string, error) {
	return tokenpool.WithCredential(f.pool, func(c *tokenpool.Credential) (string, error) {
		return forge.NewClient(ctx, c.Token).PullRequestDiff(ctx, key.Org, key.Project, key.Number)
	})
}

func (f forgeFetcher) FetchContent(ctx context.Context, key patchcache.ContentKey) (string, error) {
	return tokenpool.WithCredential(f.pool, func(c *tokenpool.Credential) (string, error) {
		return forge.NewClient(ctx, c.Token).FileContentAt(ctx, key.Org, key.Project, key.Commit, key.Path)
	})
}

func runFind(ctx context.Context, opts findOptions) error {
	pool, err := buildPool(ctx, opts.apiTokens)
	if err != nil {
		return err
	}

	cfgBytes, err := os.ReadFile(opts.searchConfig)
	if err != nil {
		return fmt.Errorf("reading search config %s: %w", opts.searchConfig, err)
	}
	var cfg miner.SearchConfig
	if err := json.Unmarshal(cfgBytes, &cfg); err != nil {
		return fmt.Errorf("decoding search config %s: %w", opts.searchConfig, err)
	}
	if opts.last != "" {
		cfg.EarliestCreationDate = opts.last
	}

	indexPath := opts.repos
	if indexPath == "" {
		indexPath = filepath.Join(opts.outputDirectory, "repositoryIndex.json")
	}
	index, err := repoindex.Load(indexPath)
	if err != nil {
		return fmt.Errorf("loading repository index: %w", err)
	}

	cache := patchcache.New(forgeFetcher{pool: pool}, forgeFetcher{pool: pool})
	candidatesDir, err := store.NewDir(filepath.Join(opts.outputDirectory, "candidates"))
	if err != nil {
		return err
	}

	m := miner.New(pool, candidatesDir, cache)
	if err := m.Find(ctx, index, cfg); err != nil {
		glog.Errorf("bump-miner: find completed with errors: %v", err)
	}
	return nil
}

func runMine(ctx context.Context, opts mineOptions) error {
	pool, err := buildPool(ctx, opts.apiTokens)
	if err != nil {
		return err
	}

	index, err := repoindex.Load(opts.repos)
	if err != nil {
		return fmt.Errorf("loading repository index %s: %w", opts.repos, err)
	}

	cache := patchcache.New(forgeFetcher{pool: pool}, forgeFetcher{pool: pool})
	candidatesDir, err := store.NewDir(filepath.Join(opts.outputDirectory, "candidates"))
	if err != nil {
		return err
	}

	m := miner.New(pool, candidatesDir, cache)
	if err := m.Mine(ctx, index); err != nil {
		glog.Errorf("bump-miner: mine completed with errors: %v", err)
	}
	return nil
}
