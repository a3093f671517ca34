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

// Package container is a thin adapter over the local container daemon
// exposing exactly the operations the Reproducer needs, per spec §4.6: pull,
// create, start, wait, copyOut, commit, push, exec, remove, removeImage.
package container

import (
	"archive/tar"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/golang/glog"
)

// ErrNotFoundInContainer is the distinguishable "not found" signal CopyOut
// returns when path does not exist in the container's file system, per spec
// §4.6.
var ErrNotFoundInContainer = errors.New("container: path not found")

// Driver is the subset of container-daemon operations the Reproducer's
// state machine needs, per spec §4.6 and §9's guidance to keep the daemon
// behind an interface so a fake can drive the state machine in tests.
// *Runner satisfies it against a real Docker daemon.
type Driver interface {
	Create(ctx context.Context, image, workdir string, cmd []string) (string, error)
	Start(ctx context.Context, id string) error
	Wait(ctx context.Context, id string) (int64, error)
	CopyOut(ctx context.Context, id, path string) ([]byte, error)
	Commit(ctx context.Context, id, repo, tag string, labels map[string]string) (string, error)
	CommitRunnable(ctx context.Context, id, repo, tag, workdir string, defaultCmd []string, labels map[string]string) (string, error)
	Push(ctx context.Context, repo, tag string, creds Credentials) error
	Exec(ctx context.Context, id string, cmd []string) ([]byte, error)
	Remove(ctx context.Context, id string) error
	RemoveImage(ctx context.Context, repo, tag string) error
	FolderSize(ctx context.Context, image, path string) (string, error)
}

// Runner wraps the local Docker daemon.
type Runner struct {
	cli *client.Client
}

var _ Driver = (*Runner)(nil)

// NewRunner connects to the local daemon using the standard
// DOCKER_HOST/DOCKER_* environment, matching spec §1's "local single-host
// Docker daemon is assumed" scope.
func NewRunner() (*Runner, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("container: connecting to daemon: %w", err)
	}
	return &Runner{cli: cli}, nil
}

// Credentials authenticates pushes to the registry, per spec §6's registry
// credentials document.
type Credentials struct {
	Username      string
	IdentityToken string
}

// Pull idempotently pulls image, blocking until complete.
func (r *Runner) Pull(ctx context.Context, image string) error {
	rc, err := r.cli.ImagePull(ctx, image, types.ImagePullOptions{})
	if err != nil {
		return fmt.Errorf("container: pulling %s: %w", image, err)
	}
	defer rc.Close()
	if _, err := io.Copy(io.Discard, rc); err != nil {
		return fmt.Errorf("container: pulling %s: %w", image, err)
	}
	return nil
}

// Create creates (but does not start) a container from image, running cmd
// with the given working directory.
func (r *Runner) Create(ctx context.Context, image, workdir string, cmd []string) (string, error) {
	resp, err := r.cli.ContainerCreate(ctx, &container.Config{
		Image:      image,
		Cmd:        cmd,
		WorkingDir: workdir,
		Tty:        false,
	}, nil, nil, nil, "")
	if err != nil {
		return "", fmt.Errorf("container: creating from %s: %w", image, err)
	}
	return resp.ID, nil
}

// Start starts a previously-created container.
func (r *Runner) Start(ctx context.Context, id string) error {
	if err := r.cli.ContainerStart(ctx, id, types.ContainerStartOptions{}); err != nil {
		return fmt.Errorf("container: starting %s: %w", id, err)
	}
	return nil
}

// Wait blocks until the container exits and returns its exit code.
func (r *Runner) Wait(ctx context.Context, id string) (int64, error) {
	statusCh, errCh := r.cli.ContainerWait(ctx, id, container.WaitConditionNotRunning)
	select {
	case err := <-errCh:
		if err != nil {
			return -1, fmt.Errorf("container: waiting for %s: %w", id, err)
		}
	case status := <-statusCh:
		return status.StatusCode, nil
	case <-ctx.Done():
		return -1, ctx.Err()
	}
	return -1, fmt.Errorf("container: waiting for %s: no status reported", id)
}

// CopyOut retrieves path from the container's file system as a tar stream,
// unwrapped to the single file's raw bytes. Returns ErrNotFoundInContainer
// if path does not exist.
func (r *Runner) CopyOut(ctx context.Context, id, path string) ([]byte, error) {
	rc, _, err := r.cli.CopyFromContainer(ctx, id, path)
	if err != nil {
		if client.IsErrNotFound(err) {
			return nil, ErrNotFoundInContainer
		}
		return nil, fmt.Errorf("container: copying %s out of %s: %w", path, id, err)
	}
	defer rc.Close()

	tr := tar.NewReader(rc)
	hdr, err := tr.Next()
	if err == io.EOF {
		return nil, ErrNotFoundInContainer
	}
	if err != nil {
		return nil, fmt.Errorf("container: reading tar stream for %s: %w", path, err)
	}
	var buf bytes.Buffer
	if _, err := io.CopyN(&buf, tr, hdr.Size); err != nil {
		return nil, fmt.Errorf("container: reading %s: %w", path, err)
	}
	return buf.Bytes(), nil
}

// Commit snapshots a stopped container as an image tagged repo:tag, with
// the given OCI labels.
func (r *Runner) Commit(ctx context.Context, id, repo, tag string, labels map[string]string) (string, error) {
	resp, err := r.cli.ContainerCommit(ctx, id, types.ContainerCommitOptions{
		Reference: fmt.Sprintf("%s:%s", repo, tag),
		Config: &container.Config{
			Labels: labels,
		},
	})
	if err != nil {
		return "", fmt.Errorf("container: committing %s as %s:%s: %w", id, repo, tag, err)
	}
	return resp.ID, nil
}

// CommitRunnable is Commit plus setting the image's default command, used
// for the two final benchmark images (spec §4.7 step 1: "default command is
// mvn clean test -B").
func (r *Runner) CommitRunnable(ctx context.Context, id, repo, tag, workdir string, defaultCmd []string, labels map[string]string) (string, error) {
	resp, err := r.cli.ContainerCommit(ctx, id, types.ContainerCommitOptions{
		Reference: fmt.Sprintf("%s:%s", repo, tag),
		Config: &container.Config{
			Cmd:        defaultCmd,
			WorkingDir: workdir,
			Labels:     labels,
		},
	})
	if err != nil {
		return "", fmt.Errorf("container: committing runnable image %s:%s: %w", repo, tag, err)
	}
	return resp.ID, nil
}

// Push pushes repo:tag to the registry.
func (r *Runner) Push(ctx context.Context, repo, tag string, creds Credentials) error {
	authCfg := types.AuthConfig{Username: creds.Username, IdentityToken: creds.IdentityToken}
	encoded, err := encodeAuth(authCfg)
	if err != nil {
		return fmt.Errorf("container: encoding push credentials: %w", err)
	}
	ref := fmt.Sprintf("%s:%s", repo, tag)
	rc, err := r.cli.ImagePush(ctx, ref, types.ImagePushOptions{RegistryAuth: encoded})
	if err != nil {
		return fmt.Errorf("container: pushing %s: %w", ref, err)
	}
	defer rc.Close()
	if _, err := io.Copy(io.Discard, rc); err != nil {
		return fmt.Errorf("container: pushing %s: %w", ref, err)
	}
	glog.Infof("container: pushed %s", ref)
	return nil
}

// Exec runs cmd in a running container and returns its stdout, used only by
// the image-metadata `du -s` computation (spec §4.6, §4.7 step 5).
func (r *Runner) Exec(ctx context.Context, id string, cmd []string) ([]byte, error) {
	execResp, err := r.cli.ContainerExecCreate(ctx, id, types.ExecConfig{
		Cmd:          cmd,
		AttachStdout: true,
		AttachStderr: true,
	})
	if err != nil {
		return nil, fmt.Errorf("container: creating exec in %s: %w", id, err)
	}

	attachResp, err := r.cli.ContainerExecAttach(ctx, execResp.ID, types.ExecStartCheck{})
	if err != nil {
		return nil, fmt.Errorf("container: attaching exec in %s: %w", id, err)
	}
	defer attachResp.Close()

	var buf bytes.Buffer
	if _, err := stdcopy.StdCopy(&buf, io.Discard, attachResp.Reader); err != nil {
		return nil, fmt.Errorf("container: reading exec output in %s: %w", id, err)
	}
	return buf.Bytes(), nil
}

// Remove deletes a container.
func (r *Runner) Remove(ctx context.Context, id string) error {
	if err := r.cli.ContainerRemove(ctx, id, types.ContainerRemoveOptions{Force: true}); err != nil {
		return fmt.Errorf("container: removing %s: %w", id, err)
	}
	return nil
}

// RemoveImage deletes repo:tag from the local daemon.
func (r *Runner) RemoveImage(ctx context.Context, repo, tag string) error {
	ref := fmt.Sprintf("%s:%s", repo, tag)
	if _, err := r.cli.ImageRemove(ctx, ref, types.ImageRemoveOptions{Force: true}); err != nil {
		return fmt.Errorf("container: removing image %s: %w", ref, err)
	}
	return nil
}
