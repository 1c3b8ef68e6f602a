// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package container runs a local GROBID server through Docker or Podman.
package container

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

const (
	binDocker = "docker"
	binPodman = "podman"

	// DefaultImage is the GROBID image started by `paperparse grobid start`.
	DefaultImage = "grobid/grobid:0.8.1"

	// DefaultName is the container name used for start and stop.
	DefaultName = "paperparse-grobid"

	// grobidPort is the port GROBID listens on inside the container.
	grobidPort = 8070
)

// Runtime provides the container operations needed to manage a GROBID
// server: availability checks, image presence, and detached start/stop.
type Runtime interface {
	// Name returns the runtime name ("docker" or "podman").
	Name() string

	// Available reports whether the runtime binary exists on PATH and
	// responds to an info command.
	Available() bool

	// ImageExists checks whether the named image exists locally.
	// Returns nil when the image is found, or an error describing the failure.
	ImageExists(image string) error

	// Pull fetches the image from its registry.
	Pull(image string) error

	// Start runs image detached as container name, publishing the GROBID
	// port on hostPort. The container is removed when it stops.
	Start(image, name string, hostPort int) (string, error)

	// Stop stops the named container.
	Stop(name string) error
}

// executor abstracts command execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	RunSilent(name string, args ...string) error
	RunOutput(name string, args ...string) ([]byte, error)
}

// osExecutor is the production executor backed by os/exec.
type osExecutor struct{}

func (o *osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (o *osExecutor) RunSilent(name string, args ...string) error {
	return exec.Command(name, args...).Run()
}

func (o *osExecutor) RunOutput(name string, args ...string) ([]byte, error) {
	return exec.Command(name, args...).CombinedOutput()
}

// runtime implements Runtime for a specific container binary. Docker and
// Podman differ only in binary name and the image existence subcommand.
type runtime struct {
	bin           string
	imageCheckCmd []string // e.g. ["image", "inspect"] for docker
	exec          executor
}

func (r *runtime) Name() string { return r.bin }

func (r *runtime) Available() bool {
	if _, err := r.exec.LookPath(r.bin); err != nil {
		return false
	}
	return r.exec.RunSilent(r.bin, "info") == nil
}

func (r *runtime) ImageExists(image string) error {
	args := make([]string, 0, len(r.imageCheckCmd)+1)
	args = append(args, r.imageCheckCmd...)
	args = append(args, image)

	if err := r.exec.RunSilent(r.bin, args...); err != nil {
		return fmt.Errorf("image %s not found in %s: %w", image, r.bin, err)
	}
	return nil
}

func (r *runtime) Pull(image string) error {
	if out, err := r.exec.RunOutput(r.bin, "pull", image); err != nil {
		return fmt.Errorf("pulling %s with %s: %w: %s", image, r.bin, err, strings.TrimSpace(string(out)))
	}
	return nil
}

func (r *runtime) Start(image, name string, hostPort int) (string, error) {
	if hostPort <= 0 {
		hostPort = grobidPort
	}
	args := []string{
		"run", "-d", "--rm",
		"--name", name,
		"-p", strconv.Itoa(hostPort) + ":" + strconv.Itoa(grobidPort),
		image,
	}
	out, err := r.exec.RunOutput(r.bin, args...)
	if err != nil {
		return "", fmt.Errorf("starting %s container %s: %w: %s", r.bin, name, err, strings.TrimSpace(string(out)))
	}
	return strings.TrimSpace(string(out)), nil
}

func (r *runtime) Stop(name string) error {
	if out, err := r.exec.RunOutput(r.bin, "stop", name); err != nil {
		return fmt.Errorf("stopping %s container %s: %w: %s", r.bin, name, err, strings.TrimSpace(string(out)))
	}
	return nil
}

func newDockerRuntime(exec executor) *runtime {
	return &runtime{
		bin:           binDocker,
		imageCheckCmd: []string{"image", "inspect"},
		exec:          exec,
	}
}

func newPodmanRuntime(exec executor) *runtime {
	return &runtime{
		bin:           binPodman,
		imageCheckCmd: []string{"image", "exists"},
		exec:          exec,
	}
}

var defaultExec = &osExecutor{}

// DetectRuntime tries docker first, falls back to podman. Returns an error
// if neither runtime is available.
func DetectRuntime() (Runtime, error) {
	return detectRuntime(defaultExec)
}

func detectRuntime(exec executor) (Runtime, error) {
	docker := newDockerRuntime(exec)
	if docker.Available() {
		return docker, nil
	}

	podman := newPodmanRuntime(exec)
	if podman.Available() {
		return podman, nil
	}

	return nil, fmt.Errorf(
		"no container runtime available: neither %s nor %s found or operational",
		binDocker, binPodman,
	)
}

// EnsureImage pulls image unless it is already present locally.
func EnsureImage(rt Runtime, image string) (pulled bool, err error) {
	if rt.ImageExists(image) == nil {
		return false, nil
	}
	if err := rt.Pull(image); err != nil {
		return false, err
	}
	return true, nil
}
