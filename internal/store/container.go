package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	"go.uber.org/zap"
)

// ExecAPI is the part of the Docker client used to run crontab in a container
type ExecAPI interface {
	ContainerExecCreate(ctx context.Context, container string, options container.ExecOptions) (types.IDResponse, error)
	ContainerExecAttach(ctx context.Context, execID string, options container.ExecAttachOptions) (types.HijackedResponse, error)
	ContainerExecInspect(ctx context.Context, execID string) (container.ExecInspect, error)
}

// NewDockerClient creates a Docker client from the environment with API
// version negotiation
func NewDockerClient() (*client.Client, error) {
	docker, err := client.NewClientWithOpts(
		client.FromEnv,
		client.WithAPIVersionNegotiation(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Docker client: %w", err)
	}
	return docker, nil
}

// ContainerConfig configures the container backed store
type ContainerConfig struct {
	Container string
	Binary    string
	User      string
	Timeout   time.Duration
}

// ContainerStore edits the crontab of a running container through docker exec
type ContainerStore struct {
	logger *zap.Logger
	api    ExecAPI
	config ContainerConfig
}

// NewContainerStore creates a new container store
func NewContainerStore(api ExecAPI, config ContainerConfig, logger *zap.Logger) *ContainerStore {
	if config.Binary == "" {
		config.Binary = "crontab"
	}
	return &ContainerStore{
		logger: logger.Named("container-store"),
		api:    api,
		config: config,
	}
}

func (s *ContainerStore) String() string {
	name := "docker:" + s.config.Container
	if s.config.User != "" {
		name += ":" + s.config.User
	}
	return name
}

type execResult struct {
	stdout   string
	stderr   string
	exitCode int
}

func (s *ContainerStore) cmd(extra ...string) []string {
	cmd := []string{s.config.Binary}
	if s.config.User != "" {
		cmd = append(cmd, "-u", s.config.User)
	}
	return append(cmd, extra...)
}

// Read runs crontab -l in the container
func (s *ContainerStore) Read(ctx context.Context) (string, error) {
	ctx, cancel := withTimeout(ctx, s.config.Timeout)
	defer cancel()

	res, err := s.exec(ctx, s.cmd("-l"), nil)
	if err != nil {
		return "", err
	}
	if res.exitCode != 0 {
		msg := strings.TrimSpace(res.stderr)
		if isNoTable(msg) {
			s.logger.Debug("No crontab installed in container",
				zap.String("container", s.config.Container))
			return "", nil
		}
		return "", fmt.Errorf("%w: exit code %d: %s", ErrCommandFailed, res.exitCode, msg)
	}
	return res.stdout, nil
}

// Write pipes raw into crontab - in the container
func (s *ContainerStore) Write(ctx context.Context, raw string) (*WriteResult, error) {
	ctx, cancel := withTimeout(ctx, s.config.Timeout)
	defer cancel()

	start := time.Now()
	s.logger.Info("Installing crontab in container",
		zap.String("container", s.config.Container),
		zap.String("user", s.config.User))

	res, err := s.exec(ctx, s.cmd("-"), strings.NewReader(raw))
	if err != nil {
		return nil, err
	}

	result := &WriteResult{
		Output:   strings.TrimSpace(res.stdout + res.stderr),
		Duration: time.Since(start),
	}
	if res.exitCode != 0 {
		return result, fmt.Errorf("%w: exit code %d: %s", ErrRejected, res.exitCode, result.Output)
	}
	return result, nil
}

func (s *ContainerStore) exec(ctx context.Context, cmd []string, stdin io.Reader) (*execResult, error) {
	created, err := s.api.ContainerExecCreate(ctx, s.config.Container, container.ExecOptions{
		Cmd:          cmd,
		AttachStdin:  stdin != nil,
		AttachStdout: true,
		AttachStderr: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create exec: %w", err)
	}

	hijacked, err := s.api.ContainerExecAttach(ctx, created.ID, container.ExecAttachOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to attach exec: %w", err)
	}
	defer hijacked.Close()

	stop := context.AfterFunc(ctx, hijacked.Close)
	defer stop()

	writeErr := make(chan error, 1)
	if stdin != nil {
		go func() {
			_, err := io.Copy(hijacked.Conn, stdin)
			if cerr := hijacked.CloseWrite(); err == nil {
				err = cerr
			}
			writeErr <- err
		}()
	} else {
		writeErr <- nil
	}

	var stdout, stderr bytes.Buffer
	if _, err := stdcopy.StdCopy(&stdout, &stderr, hijacked.Reader); err != nil {
		if ctxErr := ctx.Err(); errors.Is(ctxErr, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: exec in %s", ErrTimeout, s.config.Container)
		}
		return nil, fmt.Errorf("failed to read exec output: %w", err)
	}
	if err := <-writeErr; err != nil {
		return nil, fmt.Errorf("failed to write exec input: %w", err)
	}

	inspect, err := s.api.ContainerExecInspect(ctx, created.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect exec: %w", err)
	}

	return &execResult{
		stdout:   stdout.String(),
		stderr:   stderr.String(),
		exitCode: inspect.ExitCode,
	}, nil
}
