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

// Command bump-miner discovers candidate repositories and mines breaking
// dependency updates out of their pull requests, per spec.md §6.
package main

import (
	"fmt"
	"os"

	"github.com/golang/glog"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "bump-miner",
		Short:         "Discover and mine Java repositories for breaking dependency updates",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newFindCmd())
	root.AddCommand(newMineCmd())
	return root
}

func newFindCmd() *cobra.Command {
	var apiTokens, outputDirectory, searchConfig, repos, last string

	cmd := &cobra.Command{
		Use:   "find",
		Short: "Populate the repository index with candidate Java repositories",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFind(cmd.Context(), findOptions{
				apiTokens:       apiTokens,
				outputDirectory: outputDirectory,
				searchConfig:    searchConfig,
				repos:           repos,
				last:            last,
			})
		},
	}
	cmd.Flags().StringVar(&apiTokens, "api-tokens", "", "path to the JSON file of forge credentials")
	cmd.Flags().StringVar(&outputDirectory, "output-directory", "", "directory the repository index is written under")
	cmd.Flags().StringVar(&searchConfig, "search-config", "", "path to the search config JSON document")
	cmd.Flags().StringVar(&repos, "repos", "", "optional path to an existing repository index to extend")
	cmd.Flags().StringVar(&last, "last", "", "optional override for the watermark used by a resumed search")
	for _, name := range []string{"api-tokens", "output-directory", "search-config"} {
		if err := cmd.MarkFlagRequired(name); err != nil {
			glog.Fatalf("bump-miner: binding required flag %s: %v", name, err)
		}
	}
	return cmd
}

func newMineCmd() *cobra.Command {
	var apiTokens, outputDirectory, repos string

	cmd := &cobra.Command{
		Use:   "mine",
		Short: "Walk indexed repositories' pull requests for breaking dependency updates",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMine(cmd.Context(), mineOptions{
				apiTokens:       apiTokens,
				outputDirectory: outputDirectory,
				repos:           repos,
			})
		},
	}
	cmd.Flags().StringVar(&apiTokens, "api-tokens", "", "path to the JSON file of forge credentials")
	cmd.Flags().StringVar(&outputDirectory, "output-directory", "", "directory candidates/ is written under")
	cmd.Flags().StringVar(&repos, "repos", "", "path to the repository index to mine")
	for _, name := range []string{"api-tokens", "output-directory", "repos"} {
		if err := cmd.MarkFlagRequired(name); err != nil {
			glog.Fatalf("bump-miner: binding required flag %s: %v", name, err)
		}
	}
	return cmd
}
