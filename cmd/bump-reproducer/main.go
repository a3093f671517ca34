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

// Command bump-reproducer runs the container-orchestrated reproduction
// protocol against candidates emitted by bump-miner, per spec.md §6.
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
		Use:           "bump-reproducer",
		Short:         "Reproduce candidate breaking dependency updates in containers",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newReproduceCmd())
	return root
}

func newReproduceCmd() *cobra.Command {
	var opts reproduceOptions

	cmd := &cobra.Command{
		Use:   "reproduce",
		Short: "Reproduce one or all pending candidates",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReproduce(cmd.Context(), opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.apiTokens, "api-tokens", "", "path to the JSON file of forge credentials")
	f.StringVar(&opts.benchmarkDir, "benchmark-dir", "", "directory reproduced records are written under")
	f.StringVar(&opts.unsuccessfulDir, "unsuccessful-reproductions-dir", "", "directory unreproduced records are written under")
	f.StringVar(&opts.inProgressDir, "in-progress-reproductions-dir", "", "directory pending candidates are read from")
	f.StringVar(&opts.logDir, "log-dir", "", "directory build logs are written under")
	f.StringVar(&opts.jarDir, "jar-dir", "", "directory extracted jar/pom artifacts are written under")
	f.StringVar(&opts.registryCredentials, "github-packages-credentials", "", "path to the registry credentials JSON document")
	f.StringVar(&opts.file, "file", "", "optional path to a single candidate JSON file to reproduce")
	f.StringVar(&opts.cacheRepoURL, "cache-repo-url", "", "optional clone URL of a cache repository to push build logs to")
	f.StringVar(&opts.cacheRepoBranch, "cache-repo-branch", "main", "branch of the cache repository to push to")
	f.StringVar(&opts.cacheRepoToken, "cache-repo-token", "", "token authenticating pushes to the cache repository")
	f.StringVar(&opts.cacheRepoLocalPath, "cache-repo-local-path", "", "local checkout path for the cache repository")

	for _, name := range []string{
		"api-tokens", "benchmark-dir", "unsuccessful-reproductions-dir",
		"in-progress-reproductions-dir", "log-dir", "jar-dir", "github-packages-credentials",
	} {
		if err := cmd.MarkFlagRequired(name); err != nil {
			glog.Fatalf("bump-reproducer: binding required flag %s: %v", name, err)
		}
	}
	return cmd
}
