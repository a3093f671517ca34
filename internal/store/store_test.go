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

package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestWriteReadRoundTrip(t *testing.T) {
	dir, err := NewDir(filepath.Join(t.TempDir(), "candidates"))
	require.NoError(t, err)

	want := sample{Name: "abc123", Count: 7}
	require.NoError(t, Write(dir, "abc123", want))

	assert.True(t, dir.Has("abc123"))
	got, err := Read[sample](dir, "abc123")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestMoveDeletesSourceAndWritesDestination(t *testing.T) {
	root := t.TempDir()
	src, err := NewDir(filepath.Join(root, "candidates"))
	require.NoError(t, err)
	dst, err := NewDir(filepath.Join(root, "benchmark"))
	require.NoError(t, err)

	rec := sample{Name: "deadbeef", Count: 1}
	require.NoError(t, Write(src, "deadbeef", rec))

	require.NoError(t, Move(src, dst, "deadbeef", rec))

	assert.False(t, src.Has("deadbeef"))
	assert.True(t, dst.Has("deadbeef"))
}

func TestRemoveIsIdempotent(t *testing.T) {
	dir, err := NewDir(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, dir.Remove("missing"))
	require.NoError(t, dir.Remove("missing"))
}

func TestKeysListsOnlyJSONFiles(t *testing.T) {
	dir, err := NewDir(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, Write(dir, "one", sample{Name: "one"}))
	require.NoError(t, Write(dir, "two", sample{Name: "two"}))

	keys, err := dir.Keys()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"one", "two"}, keys)
}

func TestDateLayoutRoundTrips(t *testing.T) {
	ts := time.Date(2023, 7, 4, 9, 30, 15, 0, time.UTC)
	formatted := FormatTime(ts)
	assert.Equal(t, "2023-07-04 09:30:15", formatted)

	parsed, err := ParseTime(formatted)
	require.NoError(t, err)
	assert.True(t, ts.Equal(parsed))
}

func TestLoadMissingDocumentReturnsZeroValue(t *testing.T) {
	doc := NewDoc(filepath.Join(t.TempDir(), "repositoryIndex.json"))
	got, err := Load[map[string]sample](doc)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSaveLoadDocumentRoundTrip(t *testing.T) {
	doc := NewDoc(filepath.Join(t.TempDir(), "nested", "image_metadata.json"))
	want := map[string]sample{"abc": {Name: "abc", Count: 3}}
	require.NoError(t, Save(doc, want))

	got, err := Load[map[string]sample](doc)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
