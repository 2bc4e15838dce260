// SPDX-License-Identifier: MPL-2.0

package container

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"devcell/internal/issue"
)

const (
	// SELinuxLabelNone means no SELinux label is applied to volume mounts.
	SELinuxLabelNone SELinuxLabel = ""
	// SELinuxLabelShared allows sharing the volume between containers.
	SELinuxLabelShared SELinuxLabel = "z"
	// SELinuxLabelPrivate restricts the volume to a single container.
	SELinuxLabelPrivate SELinuxLabel = "Z"
)

var (
	// ErrInvalidContainerName is the sentinel error wrapped by InvalidContainerNameError.
	ErrInvalidContainerName = errors.New("invalid container name")

	// ErrInvalidImageRef is the sentinel error wrapped by InvalidImageRefError.
	ErrInvalidImageRef = errors.New("invalid image reference")

	// ErrInvalidSELinuxLabel is the sentinel error wrapped by InvalidSELinuxLabelError.
	ErrInvalidSELinuxLabel = errors.New("invalid SELinux label")

	// ErrInvalidVolumeMount is the sentinel error wrapped by InvalidVolumeMountError.
	ErrInvalidVolumeMount = errors.New("invalid volume mount")
)

type (
	// ExecCommandFunc is the function signature for creating exec.Cmd.
	// This allows injection of mock implementations for testing.
	ExecCommandFunc func(ctx context.Context, name string, arg ...string) *exec.Cmd

	// CreateArgsTransformer modifies create arguments after they're built.
	// Used by Podman to inject --userns=keep-id so files written in the
	// container's home directory stay owned by the invoking user.
	CreateArgsTransformer func(args []string) []string

	// VolumeFormatFunc formats a volume mount spec as a string.
	// Podman uses this to add SELinux labels (:z/:Z) which are required in
	// SELinux-enforcing environments for proper volume isolation.
	VolumeFormatFunc func(volume VolumeMount) string

	// BaseCLIEngineOption configures a BaseCLIEngine.
	BaseCLIEngineOption func(*BaseCLIEngine)

	// BaseCLIEngine provides common implementation for CLI-based container engines.
	// Docker and Podman engines embed this struct. Methods that are identical across
	// all CLI engines (Create, Start, Exec, ExecCommand, the arg builders) are
	// implemented here; engine-specific methods (Available, Version, Exists) remain
	// on the concrete types.
	BaseCLIEngine struct {
		name                  string // Engine name for error messages (e.g., "docker", "podman")
		binaryPath            string // Resolved at construction via exec.LookPath
		execCommand           ExecCommandFunc
		volumeFormatter       VolumeFormatFunc
		createArgsTransformer CreateArgsTransformer
	}

	// ContainerName represents the name of a provisioning container.
	// A valid name is non-empty, starts with an alphanumeric character, and
	// contains only alphanumerics, '_', '.' and '-'.
	ContainerName string

	// InvalidContainerNameError is returned when a ContainerName is not acceptable
	// to docker/podman.
	InvalidContainerNameError struct {
		Value ContainerName
	}

	// ImageRef represents a container image reference (registry/name:tag).
	// A valid reference must be non-empty and not whitespace-only.
	ImageRef string

	// InvalidImageRefError is returned when an ImageRef is empty or whitespace-only.
	InvalidImageRefError struct {
		Value ImageRef
	}

	// SELinuxLabel represents an SELinux volume labeling option.
	// The zero value ("") means no SELinux label is applied.
	SELinuxLabel string

	// InvalidSELinuxLabelError is returned when an SELinuxLabel is not a recognized label.
	InvalidSELinuxLabelError struct {
		Value SELinuxLabel
	}

	// VolumeMount represents a volume mount specification.
	VolumeMount struct {
		HostPath      string
		ContainerPath string
		ReadOnly      bool
		SELinux       SELinuxLabel
	}

	// InvalidVolumeMountError is returned when a VolumeMount has one or more invalid fields.
	// It wraps the individual field validation errors for inspection.
	InvalidVolumeMountError struct {
		Value     VolumeMount
		FieldErrs []error
	}
)

// String returns the string representation of the ContainerName.
func (n ContainerName) String() string { return string(n) }

// Validate returns an error if the ContainerName is invalid.
func (n ContainerName) Validate() error {
	s := string(n)
	if strings.TrimSpace(s) == "" {
		return &InvalidContainerNameError{Value: n}
	}
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case i > 0 && (r == '_' || r == '.' || r == '-'):
		default:
			return &InvalidContainerNameError{Value: n}
		}
	}
	return nil
}

// Error implements the error interface.
func (e *InvalidContainerNameError) Error() string {
	return fmt.Sprintf("invalid container name %q: must match [a-zA-Z0-9][a-zA-Z0-9_.-]*", e.Value)
}

// Unwrap returns ErrInvalidContainerName so callers can use errors.Is for programmatic detection.
func (e *InvalidContainerNameError) Unwrap() error { return ErrInvalidContainerName }

// String returns the string representation of the ImageRef.
func (r ImageRef) String() string { return string(r) }

// Validate returns an error if the ImageRef is invalid.
func (r ImageRef) Validate() error {
	if strings.TrimSpace(string(r)) == "" {
		return &InvalidImageRefError{Value: r}
	}
	return nil
}

// Error implements the error interface.
func (e *InvalidImageRefError) Error() string {
	return fmt.Sprintf("invalid image reference %q: must be non-empty", e.Value)
}

// Unwrap returns ErrInvalidImageRef so callers can use errors.Is for programmatic detection.
func (e *InvalidImageRefError) Unwrap() error { return ErrInvalidImageRef }

// String returns the string representation of the SELinuxLabel.
func (s SELinuxLabel) String() string { return string(s) }

// Validate returns an error if the SELinuxLabel is not one of the defined labels.
// The zero value ("") is valid, it means no SELinux label.
func (s SELinuxLabel) Validate() error {
	switch s {
	case SELinuxLabelNone, SELinuxLabelShared, SELinuxLabelPrivate:
		return nil
	default:
		return &InvalidSELinuxLabelError{Value: s}
	}
}

// Error implements the error interface.
func (e *InvalidSELinuxLabelError) Error() string {
	return fmt.Sprintf("invalid SELinux label %q (valid: empty, z, Z)", e.Value)
}

// Unwrap returns ErrInvalidSELinuxLabel so callers can use errors.Is for programmatic detection.
func (e *InvalidSELinuxLabelError) Unwrap() error { return ErrInvalidSELinuxLabel }

// Validate returns an error if any field of the VolumeMount is invalid.
func (v VolumeMount) Validate() error {
	var errs []error
	if strings.TrimSpace(v.HostPath) == "" {
		errs = append(errs, fmt.Errorf("host path must be non-empty"))
	}
	if strings.TrimSpace(v.ContainerPath) == "" {
		errs = append(errs, fmt.Errorf("container path must be non-empty"))
	}
	if err := v.SELinux.Validate(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return &InvalidVolumeMountError{Value: v, FieldErrs: errs}
	}
	return nil
}

// String returns the volume mount in "host:container[:selinux][:ro]" format.
func (v VolumeMount) String() string {
	s := v.HostPath + ":" + v.ContainerPath
	var options []string
	if v.SELinux != "" {
		options = append(options, string(v.SELinux))
	}
	if v.ReadOnly {
		options = append(options, "ro")
	}
	if len(options) > 0 {
		s += ":" + strings.Join(options, ",")
	}
	return s
}

// Error implements the error interface.
func (e *InvalidVolumeMountError) Error() string {
	return fmt.Sprintf("invalid volume mount %s:%s: %d field error(s)",
		e.Value.HostPath, e.Value.ContainerPath, len(e.FieldErrs))
}

// Unwrap returns ErrInvalidVolumeMount for errors.Is() compatibility.
func (e *InvalidVolumeMountError) Unwrap() error { return ErrInvalidVolumeMount }

// Validate returns an error if any typed field of the CreateOptions is invalid.
func (o CreateOptions) Validate() error {
	var errs []error
	if err := o.Name.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := o.Image.Validate(); err != nil {
		errs = append(errs, err)
	}
	for _, v := range o.Volumes {
		if err := v.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// --- Option Functions ---

// WithName sets the engine name used in error messages.
func WithName(name string) BaseCLIEngineOption {
	return func(e *BaseCLIEngine) {
		e.name = name
	}
}

// WithExecCommand sets a custom exec command function for testing.
func WithExecCommand(fn ExecCommandFunc) BaseCLIEngineOption {
	return func(e *BaseCLIEngine) {
		e.execCommand = fn
	}
}

// WithVolumeFormatter sets a custom volume formatter function.
// This is used by Podman to add SELinux labels on Linux.
func WithVolumeFormatter(fn VolumeFormatFunc) BaseCLIEngineOption {
	return func(e *BaseCLIEngine) {
		e.volumeFormatter = fn
	}
}

// WithCreateArgsTransformer sets a custom create args transformer.
// This is used by Podman to inject --userns=keep-id for rootless compatibility.
func WithCreateArgsTransformer(fn CreateArgsTransformer) BaseCLIEngineOption {
	return func(e *BaseCLIEngine) {
		e.createArgsTransformer = fn
	}
}

// --- Constructor ---

// NewBaseCLIEngine creates a new base engine with the given binary path.
func NewBaseCLIEngine(binaryPath string, opts ...BaseCLIEngineOption) *BaseCLIEngine {
	e := &BaseCLIEngine{
		binaryPath:  binaryPath,
		execCommand: exec.CommandContext,
		// Identity functions by default
		volumeFormatter:       func(v VolumeMount) string { return v.String() },
		createArgsTransformer: func(args []string) []string { return args },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// --- Accessor Methods ---

// Name returns the engine name used in error messages.
func (e *BaseCLIEngine) Name() string {
	return e.name
}

// BinaryPath returns the path to the container engine binary.
func (e *BaseCLIEngine) BinaryPath() string {
	return e.binaryPath
}

// --- Argument Builders ---

// CreateArgs constructs arguments for a container create command.
//
// Generated command: <binary> create [options] <image> [keep-alive command...]
func (e *BaseCLIEngine) CreateArgs(opts CreateOptions) []string {
	args := []string{"create", "--name", string(opts.Name)}

	hostname := opts.Hostname
	if hostname == "" {
		hostname = string(opts.Name)
	}
	args = append(args, "--hostname", hostname)

	for k, v := range opts.Env {
		args = append(args, "-e", fmt.Sprintf("%s=%s", k, v))
	}

	for _, v := range opts.Volumes {
		args = append(args, "-v", e.volumeFormatter(v))
	}

	args = append(args, string(opts.Image))

	keepAlive := opts.KeepAlive
	if len(keepAlive) == 0 {
		keepAlive = []string{"sleep", "infinity"}
	}
	args = append(args, keepAlive...)

	return e.createArgsTransformer(args)
}

// ExecArgs constructs arguments for a container exec command.
//
// Generated command: <binary> exec [options] <container> <command...>
func (e *BaseCLIEngine) ExecArgs(name ContainerName, command []string, opts ExecOptions) []string {
	args := []string{"exec"}

	if opts.Interactive {
		args = append(args, "-i")
	}

	if opts.TTY {
		args = append(args, "-t")
	}

	if opts.User != "" {
		args = append(args, "-u", opts.User)
	}

	if opts.WorkDir != "" {
		args = append(args, "-w", opts.WorkDir)
	}

	for k, v := range opts.Env {
		args = append(args, "-e", fmt.Sprintf("%s=%s", k, v))
	}

	args = append(args, string(name))
	args = append(args, command...)

	return args
}

// StartArgs constructs arguments for a container start command.
func (e *BaseCLIEngine) StartArgs(name ContainerName) []string {
	return []string{"start", string(name)}
}

// --- Command Execution ---

// RunCommandStatus executes a command and returns only the error status.
func (e *BaseCLIEngine) RunCommandStatus(ctx context.Context, args ...string) error {
	cmd := e.CreateCommand(ctx, args...)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("command %s %v failed: %w", e.binaryPath, args, err)
	}
	return nil
}

// RunCommandWithOutput executes a command with stdout captured to a buffer.
func (e *BaseCLIEngine) RunCommandWithOutput(ctx context.Context, args ...string) (string, error) {
	cmd := e.CreateCommand(ctx, args...)
	var out bytes.Buffer
	cmd.Stdout = &out

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("command %s %v failed: %w", e.binaryPath, args, err)
	}

	return out.String(), nil
}

// CreateCommand creates an exec.Cmd for the given arguments.
// This is useful when the caller needs to customize stdin/stdout/stderr.
func (e *BaseCLIEngine) CreateCommand(ctx context.Context, args ...string) *exec.Cmd {
	return e.execCommand(ctx, e.binaryPath, args...)
}

// --- Promoted Engine Methods (shared by Docker and Podman) ---

// Create creates a long-lived container from CreateOptions.
// It validates CreateOptions before executing to catch invalid fields early.
// The container is created stopped; callers follow up with Start.
func (e *BaseCLIEngine) Create(ctx context.Context, opts CreateOptions) error {
	if err := opts.Validate(); err != nil {
		return err
	}

	args := e.CreateArgs(opts)

	cmd := e.CreateCommand(ctx, args...)
	cmd.Stdout = opts.Stdout
	cmd.Stderr = opts.Stderr

	if err := cmd.Run(); err != nil {
		return createContainerError(e.name, opts, err)
	}

	return nil
}

// Start starts an existing container. Starting an already-running container
// exits zero on both docker and podman, so this is safe to call unconditionally.
func (e *BaseCLIEngine) Start(ctx context.Context, name ContainerName) error {
	return e.RunCommandStatus(ctx, e.StartArgs(name)...)
}

// Exec runs a command in a running container.
// A non-zero exit code is captured in ExecResult.ExitCode (not returned as error).
// Only infrastructure failures (binary not found, etc.) set ExecResult.Error.
func (e *BaseCLIEngine) Exec(ctx context.Context, name ContainerName, command []string, opts ExecOptions) (*ExecResult, error) {
	cmd := e.ExecCommand(ctx, name, command, opts)

	err := cmd.Run()

	result := &ExecResult{}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
		} else {
			result.ExitCode = 1
			result.Error = err
		}
	}

	return result, nil
}

// ExecCommand builds the exec.Cmd for an exec invocation without running it.
// The enter flow attaches the returned command to a PTY.
func (e *BaseCLIEngine) ExecCommand(ctx context.Context, name ContainerName, command []string, opts ExecOptions) *exec.Cmd {
	args := e.ExecArgs(name, command, opts)

	cmd := e.CreateCommand(ctx, args...)
	cmd.Stdin = opts.Stdin
	cmd.Stdout = opts.Stdout
	cmd.Stderr = opts.Stderr

	return cmd
}

// createContainerError creates an actionable error for container creation failures.
func createContainerError(engine string, opts CreateOptions, cause error) error {
	ctx := issue.NewErrorContext().
		WithOperation("create container").
		WithResource(string(opts.Name))

	ctx.WithSuggestion("Verify the base image reference: " + string(opts.Image))
	ctx.WithSuggestion("Check network access to the image registry")
	ctx.WithSuggestion("Ensure the engine is working (try: " + engine + " info)")

	return ctx.Wrap(cause).BuildError()
}
