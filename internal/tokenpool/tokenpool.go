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

// Package tokenpool hands out Forge credentials in round-robin order, with a
// synchronous validity pre-check at construction time, per spec §4.1.
package tokenpool

import (
	"context"
	"errors"
	"time"

	"github.com/golang/glog"
)

// ErrNoValidCredentials is returned by New when every supplied token was
// rejected by the Forge's validity check.
var ErrNoValidCredentials = errors.New("tokenpool: no valid credentials")

// Credential is a single Forge credential handed out by the pool.
type Credential struct {
	Token string
}

// Prober validates a credential against the Forge, synchronously, once, at
// construction time.
type Prober interface {
	Probe(ctx context.Context, token string) bool
}

// Pool is a single-reader FIFO of credentials: acquire dequeues the
// least-recently-used credential and enqueues it at the tail.
//
// Pool never blocks on Acquire — the queue always contains every accepted
// credential, and a credential in active use outside the pool is still
// "in rotation": Acquire puts it back at the tail before returning it.
type Pool struct {
	ch chan *Credential
}

// New probes each token and builds a pool of the ones the Forge accepts.
// Fails with ErrNoValidCredentials if none remain.
func New(ctx context.Context, tokens []string, prober Prober) (*Pool, error) {
	ch := make(chan *Credential, len(tokens))
	for _, tok := range tokens {
		if !prober.Probe(ctx, tok) {
			glog.Warningf("tokenpool: rejecting invalid credential (len=%d)", len(tok))
			continue
		}
		ch <- &Credential{Token: tok}
	}
	if len(ch) == 0 {
		return nil, ErrNoValidCredentials
	}
	return &Pool{ch: ch}, nil
}

// Acquire returns the least-recently-used credential. It never blocks: the
// pool is always fully populated, because the credential handed out is
// re-enqueued at the tail in the same call.
func (p *Pool) Acquire() *Credential {
	c := <-p.ch
	p.ch <- c
	return c
}

// Release is a no-op: Acquire has already returned the credential to the
// tail of the rotation. It lets call sites pair every Acquire with a
// deferred Release.
func (p *Pool) Release(c *Credential) {}

// Size returns the number of credentials in rotation.
func (p *Pool) Size() int {
	return len(p.ch)
}

// RateLimitCutoff is the remaining-call-budget threshold below which the
// rate-limit hook sleeps until reset, per spec §4.1.
const RateLimitCutoff = 5

// AbuseLimitBackoff is the fixed sleep applied on an abuse-limit response,
// per spec §4.1.
const AbuseLimitBackoff = 10 * time.Second

// Clock abstracts time.Sleep for deterministic tests.
type Clock interface {
	Sleep(d time.Duration)
}

type realClock struct{}

func (realClock) Sleep(d time.Duration) { time.Sleep(d) }

// RealClock is the production Clock.
var RealClock Clock = realClock{}

// HandleRateLimit implements the rate-limit hook: when remaining falls below
// RateLimitCutoff, sleep until reset, then report that a retry is warranted.
func HandleRateLimit(clock Clock, remaining int, reset time.Time) (retry bool) {
	if remaining >= RateLimitCutoff {
		return false
	}
	d := time.Until(reset)
	if d < 0 {
		d = 0
	}
	glog.Infof("tokenpool: rate limit low (remaining=%d), sleeping %s until reset", remaining, d)
	clock.Sleep(d)
	return true
}

// HandleAbuseLimit implements the abuse-limit hook: sleep a fixed backoff and
// log.
func HandleAbuseLimit(clock Clock, reason string) {
	glog.Warningf("tokenpool: abuse limit hit (%s), sleeping %s", reason, AbuseLimitBackoff)
	clock.Sleep(AbuseLimitBackoff)
}

// WithCredential acquires a credential, runs fn with it, and always releases
// it afterward — the call shape used by cmd/bump-miner's patch-cache
// fetchers so every acquire is paired with a release even on error or
// panic-free early return.
func WithCredential[T any](p *Pool, fn func(*Credential) (T, error)) (T, error) {
	c := p.Acquire()
	defer p.Release(c)
	return fn(c)
}
