// SPDX-License-Identifier: MPL-2.0

package container

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// PodmanEngine implements the Engine interface using the Podman CLI.
// It embeds BaseCLIEngine for common CLI operations.
type PodmanEngine struct {
	*BaseCLIEngine
}

// NewPodmanEngine creates a new Podman engine.
// On Linux with SELinux enabled, volume mounts are automatically labeled with :Z,
// and containers are created with --userns=keep-id so files written in the
// mounted home directory stay owned by the invoking user.
func NewPodmanEngine(opts ...BaseCLIEngineOption) *PodmanEngine {
	path, _ := exec.LookPath("podman")

	allOpts := append([]BaseCLIEngineOption{
		WithName(string(EngineTypePodman)),
		WithVolumeFormatter(addSELinuxLabel),
		WithCreateArgsTransformer(addKeepIDUserns),
	}, opts...)

	return &PodmanEngine{
		BaseCLIEngine: NewBaseCLIEngine(path, allOpts...),
	}
}

// Name returns the engine name.
func (e *PodmanEngine) Name() string {
	return string(EngineTypePodman)
}

// Available checks if Podman is available.
func (e *PodmanEngine) Available() bool {
	if e.BinaryPath() == "" {
		return false
	}
	cmd := e.CreateCommand(context.Background(), "version", "--format", "{{.Version}}")
	return cmd.Run() == nil
}

// Version returns the Podman version.
func (e *PodmanEngine) Version(ctx context.Context) (string, error) {
	out, err := e.RunCommandWithOutput(ctx, "version", "--format", "{{.Version}}")
	if err != nil {
		return "", fmt.Errorf("failed to get podman version: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// Exists checks whether a container with the given name exists.
// Podman has a dedicated subcommand for this; a non-zero exit means "not found".
func (e *PodmanEngine) Exists(ctx context.Context, name ContainerName) (bool, error) {
	if err := name.Validate(); err != nil {
		return false, err
	}
	err := e.RunCommandStatus(ctx, "container", "exists", string(name))
	return err == nil, nil
}

// isSELinuxEnabled checks if SELinux is enabled on the system
func isSELinuxEnabled() bool {
	data, err := os.ReadFile("/sys/fs/selinux/enforce")
	if err != nil {
		return false
	}
	return strings.TrimSpace(string(data)) == "1"
}

// addSELinuxLabel adds the :Z label to a volume mount if SELinux is enabled
// and the mount doesn't already carry an SELinux label.
func addSELinuxLabel(volume VolumeMount) string {
	if volume.SELinux == SELinuxLabelNone && isSELinuxEnabled() {
		volume.SELinux = SELinuxLabelPrivate
	}
	return volume.String()
}

// addKeepIDUserns inserts --userns=keep-id after the create verb so the
// container user maps to the invoking host user under rootless Podman.
func addKeepIDUserns(args []string) []string {
	if len(args) == 0 || args[0] != "create" {
		return args
	}
	out := make([]string, 0, len(args)+1)
	out = append(out, args[0], "--userns=keep-id")
	out = append(out, args[1:]...)
	return out
}
