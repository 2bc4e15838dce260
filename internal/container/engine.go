// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"fmt"
	"io"
	"os/exec"
)

// Engine defines the interface for the container runtime operations devcell needs.
type Engine interface {
	// Name returns the engine name (docker or podman)
	Name() string
	// Available checks if the engine is available on the system
	Available() bool
	// Version returns the engine version
	Version(ctx context.Context) (string, error)

	// Exists checks whether a container with the given name exists (running or not)
	Exists(ctx context.Context, name ContainerName) (bool, error)
	// Create creates a long-lived container from CreateOptions
	Create(ctx context.Context, opts CreateOptions) error
	// Start starts an existing container; starting a running container is a no-op
	Start(ctx context.Context, name ContainerName) error
	// Exec runs a command in a running container and streams its output
	Exec(ctx context.Context, name ContainerName, command []string, opts ExecOptions) (*ExecResult, error)
	// ExecCommand builds the exec.Cmd for an exec invocation without running it.
	// Callers that need PTY attachment use this instead of Exec.
	ExecCommand(ctx context.Context, name ContainerName, command []string, opts ExecOptions) *exec.Cmd
}

// CreateOptions contains options for creating a provisioning container.
type CreateOptions struct {
	// Name is the container name
	Name ContainerName
	// Image is the base image to create the container from
	Image ImageRef
	// Hostname sets the container hostname (defaults to the container name)
	Hostname string
	// Env contains environment variables set on the container
	Env map[string]string
	// Volumes are volume mounts applied at creation time
	Volumes []VolumeMount
	// KeepAlive is the command the container idles on (default: sleep infinity)
	KeepAlive []string
	// Stdout is where to write creation output (image pull progress)
	Stdout io.Writer
	// Stderr is where to write creation errors
	Stderr io.Writer
}

// ExecOptions contains options for executing a command in a container.
type ExecOptions struct {
	// User is the user to run as inside the container ("" = container default)
	User string
	// WorkDir is the working directory inside the container
	WorkDir string
	// Env contains environment variables for the exec session
	Env map[string]string
	// Interactive keeps stdin open
	Interactive bool
	// TTY allocates a pseudo-TTY
	TTY bool
	// Stdin is the standard input
	Stdin io.Reader
	// Stdout is where to write standard output
	Stdout io.Writer
	// Stderr is where to write standard error
	Stderr io.Writer
}

// ExecResult contains the result of an exec invocation.
type ExecResult struct {
	// ExitCode is the exit code of the command inside the container
	ExitCode int
	// Error contains any infrastructure error (binary missing, etc.)
	Error error
}

// EngineType identifies the container engine type.
type EngineType string

const (
	EngineTypePodman EngineType = "podman"
	EngineTypeDocker EngineType = "docker"
)

// ErrEngineNotAvailable is returned when a container engine is not available.
type ErrEngineNotAvailable struct {
	Engine string
	Reason string
}

func (e *ErrEngineNotAvailable) Error() string {
	return fmt.Sprintf("container engine '%s' is not available: %s", e.Engine, e.Reason)
}

// NewEngine creates a new container engine based on preference, falling back
// to the other engine when the preferred one is unavailable.
func NewEngine(preferredType EngineType) (Engine, error) {
	switch preferredType {
	case EngineTypePodman:
		engine := NewPodmanEngine()
		if engine.Available() {
			return engine, nil
		}
		dockerEngine := NewDockerEngine()
		if dockerEngine.Available() {
			return dockerEngine, nil
		}
		return nil, &ErrEngineNotAvailable{
			Engine: "podman",
			Reason: "podman is not installed or not accessible, and docker fallback is also not available",
		}

	case EngineTypeDocker:
		engine := NewDockerEngine()
		if engine.Available() {
			return engine, nil
		}
		podmanEngine := NewPodmanEngine()
		if podmanEngine.Available() {
			return podmanEngine, nil
		}
		return nil, &ErrEngineNotAvailable{
			Engine: "docker",
			Reason: "docker is not installed or not accessible, and podman fallback is also not available",
		}

	default:
		return nil, fmt.Errorf("unknown container engine type: %s", preferredType)
	}
}

// AutoDetectEngine tries to find an available container engine.
func AutoDetectEngine() (Engine, error) {
	// Podman first: it is the runtime present on Fedora Atomic hosts
	podman := NewPodmanEngine()
	if podman.Available() {
		return podman, nil
	}

	docker := NewDockerEngine()
	if docker.Available() {
		return docker, nil
	}

	return nil, &ErrEngineNotAvailable{
		Engine: "any",
		Reason: "no container engine (podman or docker) is available on this system",
	}
}
