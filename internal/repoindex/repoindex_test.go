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

package repoindex

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/chains-project/bump/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNeverCheckedIsEpochZero(t *testing.T) {
	e := Entry{URL: "https://forge.example/o/p"}
	assert.True(t, e.LastChecked().Equal(time.Unix(0, 0).UTC()))
}

func TestPutPersistsAndSurvivesReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "repositoryIndex.json")
	idx, err := Load(path)
	require.NoError(t, err)

	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	require.NoError(t, idx.Put("org/project", Entry{URL: "https://forge.example/org/project", LastCheckedAt: store.FormatTime(now)}))

	reloaded, err := Load(path)
	require.NoError(t, err)
	entry, ok := reloaded.Get("org/project")
	require.True(t, ok)
	assert.Equal(t, "https://forge.example/org/project", entry.URL)
	assert.True(t, entry.LastChecked().Equal(now))
}

func TestTouchUpdatesWatermarkMonotonically(t *testing.T) {
	idx, err := Load(filepath.Join(t.TempDir(), "repositoryIndex.json"))
	require.NoError(t, err)

	t1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	t2 := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, idx.Touch("org/project", "https://forge.example/org/project", t1))
	e1, _ := idx.Get("org/project")

	require.NoError(t, idx.Touch("org/project", "https://forge.example/org/project", t2))
	e2, _ := idx.Get("org/project")

	assert.True(t, e2.LastChecked().After(e1.LastChecked()) || e2.LastChecked().Equal(e1.LastChecked()))
}

func TestKeysReturnsAllIndexedRepos(t *testing.T) {
	idx, err := Load(filepath.Join(t.TempDir(), "repositoryIndex.json"))
	require.NoError(t, err)
	require.NoError(t, idx.Put("a/b", Entry{URL: "u1"}))
	require.NoError(t, idx.Put("c/d", Entry{URL: "u2"}))

	assert.ElementsMatch(t, []string{"a/b", "c/d"}, idx.Keys())
}
