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

// Package forge wraps the code-forge's REST API (repo search, pull requests,
// workflow runs, contents, tags, commits, users) behind the narrow surface
// the Miner and Reproducer need, with the rate-limit/abuse-limit hooks of
// spec §4.1 wired into every call.
package forge

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang/glog"
	"github.com/google/go-github/v55/github"
	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/oauth2"

	"github.com/chains-project/bump/internal/tokenpool"
)

// httpTimeout is the connect/read/write timeout applied to every Forge
// call, per spec §5 ("order of 1-2 minutes").
const httpTimeout = 90 * time.Second

// Client is a single credential's view of the Forge.
type Client struct {
	gh    *github.Client
	clock tokenpool.Clock
}

// NewClient builds a Forge client authenticated with a single credential's
// token. The underlying HTTP transport retries transient network/5xx errors
// (via go-retryablehttp) beneath the rate/abuse-limit handling applied at
// the call-wrapper level in this package.
func NewClient(ctx context.Context, token string) *Client {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	oauthClient := oauth2.NewClient(ctx, ts)
	oauthClient.Timeout = httpTimeout

	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient = oauthClient
	retryClient.Logger = nil
	retryClient.RetryMax = 3

	return &Client{
		gh:    github.NewClient(retryClient.StandardClient()),
		clock: tokenpool.RealClock,
	}
}

// Probe implements tokenpool.Prober: a token is valid iff the Forge accepts
// an authenticated rate-limit lookup with it.
type Probe struct{}

func (Probe) Probe(ctx context.Context, token string) bool {
	c := NewClient(ctx, token)
	_, _, err := c.gh.RateLimit.Get(ctx)
	if err != nil {
		glog.Warningf("forge: credential probe failed: %v", err)
		return false
	}
	return true
}

// call wraps a single go-github invocation with the rate-limit and
// abuse-limit hooks of spec §4.1: a rate-limit error sleeps until reset and
// retries once; an abuse-limit error sleeps the fixed backoff and retries
// once. Any other error is returned to the caller unchanged.
func call[T any](c *Client, ctx context.Context, fn func() (T, *github.Response, error)) (T, error) {
	v, resp, err := fn()
	if err == nil {
		if resp != nil {
			maybeHandleLowRateLimit(c.clock, resp)
		}
		return v, nil
	}

	switch e := err.(type) {
	case *github.RateLimitError:
		tokenpool.HandleRateLimit(c.clock, 0, e.Rate.Reset.Time)
		v, _, err = fn()
		return v, wrapErr(err)
	case *github.AbuseRateLimitError:
		tokenpool.HandleAbuseLimit(c.clock, e.Message)
		v, _, err = fn()
		return v, wrapErr(err)
	default:
		return v, wrapErr(err)
	}
}

// maybeHandleLowRateLimit applies spec §4.1's proactive rate-limit hook: if
// the budget remaining after a successful call is already below the cutoff,
// sleep until reset before the next call is attempted.
func maybeHandleLowRateLimit(clock tokenpool.Clock, resp *github.Response) {
	if resp.Rate.Limit == 0 {
		return // endpoint does not report a rate (e.g. unauthenticated-exempt)
	}
	tokenpool.HandleRateLimit(clock, resp.Rate.Remaining, resp.Rate.Reset.Time)
}

func wrapErr(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("forge: %w", err)
}

// IsNotFound reports whether err represents a 404 from the Forge.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	var ghErr *github.ErrorResponse
	if !errors.As(err, &ghErr) {
		return false
	}
	return ghErr.Response != nil && ghErr.Response.StatusCode == http.StatusNotFound
}
