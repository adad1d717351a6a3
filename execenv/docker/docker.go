//
// Copyright (C) 2026 The agentloop-go Authors. All rights reserved.
//
// agentloop-go is licensed under the Apache License Version 2.0.
//
//

// Package docker provides an execution environment backed by a Docker
// container. Commands run through the exec API; file transfer crosses the
// boundary as tar streams, so no host filesystem is shared with the agent.
package docker

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/google/uuid"
	archive "github.com/moby/go-archive"

	"github.com/agentloop/agentloop-go/execenv"
	"github.com/agentloop/agentloop-go/log"
	"github.com/agentloop/agentloop-go/tool"
)

const (
	defaultImage      = "python:3.12-slim"
	defaultWorkDir    = "/workspace"
	defaultNamePrefix = "agentloop-exec-"

	containerReadyTimeout = 60 * time.Second
)

// Environment is a container-backed execution environment.
type Environment struct {
	host          string
	client        *client.Client
	containerID   string
	containerName string
	workDir       string

	containerConfig container.Config
	hostConfig      container.HostConfig
}

// Option configures the docker environment.
type Option func(*Environment)

// WithHost sets the base URL for the Docker client.
func WithHost(host string) Option {
	return func(e *Environment) {
		e.host = host
	}
}

// WithImage sets the container image.
func WithImage(img string) Option {
	return func(e *Environment) {
		e.containerConfig.Image = img
	}
}

// WithContainerName sets the container name. If empty, a name is generated.
func WithContainerName(name string) Option {
	return func(e *Environment) {
		e.containerName = name
	}
}

// WithHostConfig sets the host configuration for the container.
func WithHostConfig(hc container.HostConfig) Option {
	return func(e *Environment) {
		e.hostConfig = hc
	}
}

// NewEnvironment creates the environment, pulls the image if needed and
// starts the container.
func NewEnvironment(ctx context.Context, opts ...Option) (*Environment, error) {
	e := &Environment{
		workDir: defaultWorkDir,
		hostConfig: container.HostConfig{
			AutoRemove:  true,
			Privileged:  false,
			NetworkMode: "none",
		},
		containerConfig: container.Config{
			Image:      defaultImage,
			WorkingDir: defaultWorkDir,
			Cmd:        []string{"tail", "-f", "/dev/null"},
			Tty:        true,
			OpenStdin:  true,
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.containerName == "" {
		e.containerName = defaultNamePrefix + uuid.New().String()
	}

	var err error
	if e.host != "" {
		e.client, err = client.NewClientWithOpts(client.WithHost(e.host), client.WithAPIVersionNegotiation())
	} else {
		e.client, err = client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	}
	if err != nil {
		return nil, fmt.Errorf("create docker client: %w", err)
	}

	if err := e.start(ctx); err != nil {
		e.client.Close()
		return nil, err
	}
	return e, nil
}

func (e *Environment) start(ctx context.Context) error {
	if err := e.ensureImage(ctx); err != nil {
		return err
	}

	resp, err := e.client.ContainerCreate(ctx, &e.containerConfig, &e.hostConfig, nil, nil, e.containerName)
	if err != nil {
		return fmt.Errorf("create container: %w", err)
	}
	e.containerID = resp.ID

	if err := e.client.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		return fmt.Errorf("start container: %w", err)
	}
	if err := e.waitReady(ctx); err != nil {
		return err
	}
	// The working directory exists once the container runs with WorkingDir
	// set, but mkdir keeps custom images honest.
	_, err = e.exec(ctx, []string{"mkdir", "-p", e.workDir})
	return err
}

func (e *Environment) ensureImage(ctx context.Context) error {
	images, err := e.client.ImageList(ctx, image.ListOptions{})
	if err != nil {
		return fmt.Errorf("list images: %w", err)
	}
	for _, img := range images {
		for _, t := range img.RepoTags {
			if t == e.containerConfig.Image {
				return nil
			}
		}
	}

	log.Infof("pulling image %s", e.containerConfig.Image)
	reader, err := e.client.ImagePull(ctx, e.containerConfig.Image, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("pull image %s: %w", e.containerConfig.Image, err)
	}
	defer reader.Close()
	if _, err := io.Copy(io.Discard, reader); err != nil {
		return fmt.Errorf("read image pull output: %w", err)
	}
	return nil
}

func (e *Environment) waitReady(ctx context.Context) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	deadline := time.After(containerReadyTimeout)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline:
			return fmt.Errorf("container %s did not become ready within %s", e.containerID, containerReadyTimeout)
		case <-ticker.C:
			info, err := e.client.ContainerInspect(ctx, e.containerID)
			if err != nil {
				return fmt.Errorf("inspect container: %w", err)
			}
			if info.State.Running {
				return nil
			}
			if info.State.Status == "exited" {
				return fmt.Errorf("container exited unexpectedly with code %d", info.State.ExitCode)
			}
		}
	}
}

type execResult struct {
	stdout   string
	stderr   string
	exitCode int
}

func (e *Environment) exec(ctx context.Context, cmd []string) (execResult, error) {
	execResp, err := e.client.ContainerExecCreate(ctx, e.containerID, container.ExecOptions{
		Cmd:          cmd,
		WorkingDir:   e.workDir,
		AttachStdout: true,
		AttachStderr: true,
	})
	if err != nil {
		return execResult{}, fmt.Errorf("create exec: %w", err)
	}

	hijacked, err := e.client.ContainerExecAttach(ctx, execResp.ID, container.ExecStartOptions{})
	if err != nil {
		return execResult{}, fmt.Errorf("attach to exec: %w", err)
	}
	defer hijacked.Close()

	var stdout, stderr strings.Builder
	if _, err := stdcopy.StdCopy(&stdout, &stderr, hijacked.Reader); err != nil {
		return execResult{}, fmt.Errorf("read exec output: %w", err)
	}

	inspect, err := e.client.ContainerExecInspect(ctx, execResp.ID)
	if err != nil {
		return execResult{}, fmt.Errorf("inspect exec: %w", err)
	}

	return execResult{
		stdout:   stdout.String(),
		stderr:   stderr.String(),
		exitCode: inspect.ExitCode,
	}, nil
}

// RunCommand implements execenv.Environment.
func (e *Environment) RunCommand(ctx context.Context, command string) (execenv.CommandOutput, error) {
	res, err := e.exec(ctx, []string{"/bin/sh", "-c", command})
	if err != nil {
		return execenv.CommandOutput{}, err
	}
	return execenv.CommandOutput{
		Stdout:   res.stdout,
		Stderr:   res.stderr,
		ExitCode: res.exitCode,
	}, nil
}

// SaveFile implements execenv.Environment. The data travels as an in-memory
// tar stream through the copy API.
func (e *Environment) SaveFile(ctx context.Context, filePath string, data []byte) error {
	dst := e.resolve(filePath)
	dir, name := path.Split(dst)
	if dir != "/" {
		if _, err := e.exec(ctx, []string{"mkdir", "-p", strings.TrimSuffix(dir, "/")}); err != nil {
			return err
		}
	}

	content, err := archive.Generate(name, string(data))
	if err != nil {
		return fmt.Errorf("build tar for %s: %w", filePath, err)
	}
	if err := e.client.CopyToContainer(ctx, e.containerID, dir, content, container.CopyToContainerOptions{}); err != nil {
		return fmt.Errorf("copy %s into container: %w", filePath, err)
	}
	return nil
}

// ReadFile implements execenv.Environment.
func (e *Environment) ReadFile(ctx context.Context, filePath string) ([]byte, error) {
	src := e.resolve(filePath)
	reader, _, err := e.client.CopyFromContainer(ctx, e.containerID, src)
	if err != nil {
		return nil, fmt.Errorf("copy %s from container: %w", filePath, err)
	}
	defer reader.Close()

	tr := tar.NewReader(reader)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read tar from container: %w", err)
		}
		if hdr.Typeflag == tar.TypeReg {
			return io.ReadAll(tr)
		}
	}
	return nil, fmt.Errorf("file %s not found in container archive", filePath)
}

// WorkDir implements execenv.Environment.
func (e *Environment) WorkDir() string { return e.workDir }

// Close stops the container and closes the client. AutoRemove takes care of
// removal once the container stops.
func (e *Environment) Close() error {
	ctx := context.Background()
	var errs []error
	if e.containerID != "" {
		if err := e.client.ContainerStop(ctx, e.containerID, container.StopOptions{}); err != nil {
			errs = append(errs, fmt.Errorf("stop container: %w", err))
		}
	}
	if err := e.client.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close docker client: %w", err))
	}
	return errors.Join(errs...)
}

func (e *Environment) resolve(p string) string {
	if path.IsAbs(p) {
		return p
	}
	return path.Join(e.workDir, p)
}

// Provider exposes a docker Environment together with the standard
// environment tools.
type Provider struct {
	opts []Option
	env  *Environment
}

var _ execenv.Provider = (*Provider)(nil)

// NewProvider creates a provider; the container starts at Initialize.
func NewProvider(opts ...Option) *Provider {
	return &Provider{opts: opts}
}

// Name implements tool.Set.
func (p *Provider) Name() string { return "docker_exec_env" }

// Initialize implements tool.Set.
func (p *Provider) Initialize(ctx context.Context) error {
	env, err := NewEnvironment(ctx, p.opts...)
	if err != nil {
		return err
	}
	p.env = env
	return nil
}

// Environment implements execenv.Provider.
func (p *Provider) Environment() execenv.Environment { return p.env }

// Tools implements tool.Set.
func (p *Provider) Tools(ctx context.Context) []tool.CallableTool {
	return execenv.EnvironmentTools(p.env)
}

// Close implements tool.Set.
func (p *Provider) Close() error {
	if p.env == nil {
		return nil
	}
	return p.env.Close()
}
