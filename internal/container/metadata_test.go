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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDuSize(t *testing.T) {
	size, err := ParseDuSize([]byte("48276\t/root/.m2\n"))
	require.NoError(t, err)
	assert.Equal(t, "48276", size)
}

func TestParseDuSizeRejectsEmptyOutput(t *testing.T) {
	_, err := ParseDuSize([]byte(""))
	assert.Error(t, err)
}

func TestParseDuSizeRejectsNonNumeric(t *testing.T) {
	_, err := ParseDuSize([]byte("not-a-number /some/path\n"))
	assert.Error(t, err)
}
