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

package container

import (
	"bufio"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/golang/glog"
)

// ParseDuSize parses the first integer field of `du -s <path>` output
// (the size, in the unit `du` reports, per spec §4.7 step 5 / §6's
// image_metadata.json contract).
func ParseDuSize(output []byte) (string, error) {
	sc := bufio.NewScanner(strings.NewReader(string(output)))
	if !sc.Scan() {
		return "", fmt.Errorf("container: empty du output")
	}
	fields := strings.Fields(sc.Text())
	if len(fields) == 0 {
		return "", fmt.Errorf("container: unparseable du output %q", sc.Text())
	}
	if _, err := strconv.ParseInt(fields[0], 10, 64); err != nil {
		return "", fmt.Errorf("container: non-numeric du size %q: %w", fields[0], err)
	}
	return fields[0], nil
}

// FolderSize runs `du -s <path>` in a detached container started from
// image, per spec §4.7 step 5, returning the size string image_metadata.json
// stores.
func (r *Runner) FolderSize(ctx context.Context, image, path string) (string, error) {
	id, err := r.Create(ctx, image, "/", []string{"sleep", "300"})
	if err != nil {
		return "", fmt.Errorf("container: starting metadata container for %s: %w", image, err)
	}
	defer func() {
		if err := r.Remove(ctx, id); err != nil {
			glog.Warningf("container: removing metadata container %s: %v", id, err)
		}
	}()

	if err := r.Start(ctx, id); err != nil {
		return "", fmt.Errorf("container: starting metadata container for %s: %w", image, err)
	}

	out, err := r.Exec(ctx, id, []string{"du", "-s", path})
	if err != nil {
		return "", fmt.Errorf("container: measuring %s in %s: %w", path, image, err)
	}
	size, err := ParseDuSize(out)
	if err != nil {
		return "", err
	}
	if n, convErr := strconv.ParseUint(size, 10, 64); convErr == nil {
		glog.V(1).Infof("container: %s in %s = %s", path, image, humanize.Bytes(n*1024))
	}
	return size, nil
}
