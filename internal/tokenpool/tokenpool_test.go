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

package tokenpool

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type allowAllProber struct{}

func (allowAllProber) Probe(ctx context.Context, token string) bool { return true }

type rejectAllProber struct{}

func (rejectAllProber) Probe(ctx context.Context, token string) bool { return false }

type rejectSomeProber struct{ valid map[string]bool }

func (p rejectSomeProber) Probe(ctx context.Context, token string) bool { return p.valid[token] }

func TestNewRejectsInvalidCredentials(t *testing.T) {
	pool, err := New(context.Background(), []string{"a", "b", "c"}, rejectSomeProber{valid: map[string]bool{"b": true}})
	require.NoError(t, err)
	assert.Equal(t, 1, pool.Size())
}

func TestNewFailsWithZeroValidCredentials(t *testing.T) {
	_, err := New(context.Background(), []string{"a", "b"}, rejectAllProber{})
	assert.ErrorIs(t, err, ErrNoValidCredentials)
}

func TestAcquireWithOneCredentialAlwaysReturnsIt(t *testing.T) {
	pool, err := New(context.Background(), []string{"only"}, allowAllProber{})
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		c := pool.Acquire()
		assert.Equal(t, "only", c.Token)
		pool.Release(c)
	}
}

func TestAcquireRotatesRoundRobin(t *testing.T) {
	pool, err := New(context.Background(), []string{"a", "b"}, allowAllProber{})
	require.NoError(t, err)

	first := pool.Acquire()
	pool.Release(first)
	second := pool.Acquire()
	pool.Release(second)
	third := pool.Acquire()
	pool.Release(third)

	assert.Equal(t, first.Token, third.Token)
	assert.NotEqual(t, first.Token, second.Token)
}

type fakeClock struct{ slept []time.Duration }

func (f *fakeClock) Sleep(d time.Duration) { f.slept = append(f.slept, d) }

func TestHandleRateLimitSleepsOnlyBelowCutoff(t *testing.T) {
	clock := &fakeClock{}
	reset := time.Now().Add(2 * time.Second)

	assert.False(t, HandleRateLimit(clock, RateLimitCutoff, reset))
	assert.Empty(t, clock.slept)

	assert.True(t, HandleRateLimit(clock, RateLimitCutoff-1, reset))
	assert.Len(t, clock.slept, 1)
}

func TestHandleAbuseLimitSleepsFixedBackoff(t *testing.T) {
	clock := &fakeClock{}
	HandleAbuseLimit(clock, "secondary rate limit")
	require.Len(t, clock.slept, 1)
	assert.Equal(t, AbuseLimitBackoff, clock.slept[0])
}

func TestWithCredentialAlwaysReleases(t *testing.T) {
	pool, err := New(context.Background(), []string{"only"}, allowAllProber{})
	require.NoError(t, err)

	_, err = WithCredential(pool, func(c *Credential) (int, error) {
		return 0, assert.AnError
	})
	assert.Error(t, err)
	assert.Equal(t, 1, pool.Size())
}
