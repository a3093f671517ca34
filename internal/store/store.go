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

// Package store reads and writes the one-JSON-document-per-key-file layout
// shared by every on-disk partition (candidates/, benchmark/, unsuccessful/),
// the repository index, and the image-metadata document.
package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/natefinch/atomic"
)

// DateLayout is the on-disk date format used throughout the benchmark
// ("yyyy-MM-dd HH:mm:ss", UTC), per spec §6.
const DateLayout = "2006-01-02 15:04:05"

// FormatTime renders t in the on-disk layout, in UTC.
func FormatTime(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// ParseTime parses a timestamp in the on-disk layout as UTC.
func ParseTime(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}

// Dir is a directory holding one JSON document per key, keyed by a string
// (typically a 40-hex commit hash) mapped to "<dir>/<key>.json".
type Dir struct {
	Path string
}

// NewDir returns a Dir rooted at path, creating the directory if absent.
func NewDir(path string) (*Dir, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("creating store directory %s: %w", path, err)
	}
	return &Dir{Path: path}, nil
}

func (d *Dir) keyPath(key string) string {
	return filepath.Join(d.Path, key+".json")
}

// Has reports whether a document exists for key.
func (d *Dir) Has(key string) bool {
	_, err := os.Stat(d.keyPath(key))
	return err == nil
}

// Read decodes the document keyed by key into v.
func Read[T any](d *Dir, key string) (T, error) {
	var v T
	b, err := os.ReadFile(d.keyPath(key))
	if err != nil {
		return v, fmt.Errorf("reading %s: %w", key, err)
	}
	if err := json.Unmarshal(b, &v); err != nil {
		return v, fmt.Errorf("decoding %s: %w", key, err)
	}
	return v, nil
}

// Write atomically rewrites the document keyed by key with v, pretty-printed.
func Write[T any](d *Dir, key string, v T) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	if err := atomic.WriteFile(d.keyPath(key), &buf); err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

// Remove deletes the document keyed by key. Idempotent: a missing file is not
// an error.
func (d *Dir) Remove(key string) error {
	err := os.Remove(d.keyPath(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing %s: %w", key, err)
	}
	return nil
}

// Keys lists the keys (file basenames without the .json suffix) present in
// the directory.
func (d *Dir) Keys() ([]string, error) {
	entries, err := os.ReadDir(d.Path)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", d.Path, err)
	}
	var keys []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		keys = append(keys, e.Name()[:len(e.Name())-len(".json")])
	}
	return keys, nil
}

// Move atomically relocates the document keyed by key from src to dst,
// writing dst then removing src — never leaving neither copy present, per
// spec §3's "write-then-rename; delete source" invariant.
func Move[T any](src, dst *Dir, key string, v T) error {
	if err := Write(dst, key, v); err != nil {
		return fmt.Errorf("moving %s: %w", key, err)
	}
	if err := src.Remove(key); err != nil {
		return fmt.Errorf("moving %s: %w", key, err)
	}
	return nil
}

// Doc is a single-file JSON document (used for repositoryIndex.json and
// image_metadata.json, which are whole-document keyed maps rather than
// per-key partitions).
type Doc struct {
	Path string
}

// NewDoc returns a Doc at path.
func NewDoc(path string) *Doc {
	return &Doc{Path: path}
}

// Load decodes the document into v. A missing file yields the zero value of
// T, not an error — the document is created lazily on first write.
func Load[T any](d *Doc) (T, error) {
	var v T
	b, err := os.ReadFile(d.Path)
	if os.IsNotExist(err) {
		return v, nil
	}
	if err != nil {
		return v, fmt.Errorf("reading %s: %w", d.Path, err)
	}
	if err := json.Unmarshal(b, &v); err != nil {
		return v, fmt.Errorf("decoding %s: %w", d.Path, err)
	}
	return v, nil
}

// Save atomically rewrites the whole document with v.
func Save[T any](d *Doc, v T) error {
	if err := os.MkdirAll(filepath.Dir(d.Path), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", d.Path, err)
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding %s: %w", d.Path, err)
	}
	if err := atomic.WriteFile(d.Path, &buf); err != nil {
		return fmt.Errorf("writing %s: %w", d.Path, err)
	}
	return nil
}
