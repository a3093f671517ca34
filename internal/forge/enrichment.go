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

package forge

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// CompareLink resolves the Forge's compare-URL between two tags, returning
// ("", nil) if either tag does not exist — the enrichment is best-effort and
// non-fatal per spec §4.7 step 3.
func (c *Client) CompareLink(ctx context.Context, owner, repo, previousVersion, newVersion string) (string, error) {
	prevExists, err := c.TagExists(ctx, owner, repo, previousVersion)
	if err != nil {
		return "", err
	}
	newExists, err := c.TagExists(ctx, owner, repo, newVersion)
	if err != nil {
		return "", err
	}
	if !prevExists || !newExists {
		return "", nil
	}
	return fmt.Sprintf("https://github.com/%s/%s/compare/%s...%s", owner, repo, previousVersion, newVersion), nil
}

// mavenCentralHTTPClient is used only for the best-effort HEAD checks below;
// it carries its own short timeout independent of the authenticated Forge
// client's.
var mavenCentralHTTPClient = &http.Client{Timeout: 20 * time.Second}

// MavenCentralSourceJarURL is the *Client method form of the package-level
// function below, so callers can depend on the Enricher interface instead
// of the free function directly.
func (c *Client) MavenCentralSourceJarURL(ctx context.Context, groupID, artifactID, version string) (string, error) {
	return MavenCentralSourceJarURL(ctx, groupID, artifactID, version)
}

// MavenCentralSourceJarURL returns the Maven Central source-jar URL for a
// coordinate if a HEAD request for it does not 404, per spec §4.7 step 3.
func MavenCentralSourceJarURL(ctx context.Context, groupID, artifactID, version string) (string, error) {
	groupPath := strings.ReplaceAll(groupID, ".", "/")
	url := fmt.Sprintf("https://repo1.maven.org/maven2/%s/%s/%s/%s-%s-sources.jar",
		groupPath, artifactID, version, artifactID, version)

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return "", fmt.Errorf("building HEAD request for %s: %w", url, err)
	}
	resp, err := mavenCentralHTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("checking maven central source jar %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return "", nil
	}
	return url, nil
}
