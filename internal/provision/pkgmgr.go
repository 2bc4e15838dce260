// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"devcell/internal/issue"
)

const (
	// vscodeRepoFileName is the repository definition installed under the
	// repo directory for the external editor.
	vscodeRepoFileName = "vscode.repo"

	// vscodeRepoKeyURL is the signing key imported before the repository is
	// registered.
	vscodeRepoKeyURL = "https://packages.microsoft.com/keys/microsoft.asc"

	// vscodeRepoDefinition is the repository definition written (once) to the
	// repo directory.
	vscodeRepoDefinition = `[code]
name=Visual Studio Code
baseurl=https://packages.microsoft.com/yumrepos/vscode
enabled=1
gpgcheck=1
gpgkey=https://packages.microsoft.com/keys/microsoft.asc
`
)

type (
	// PackageManager abstracts the host package manager so the install step can
	// be tested against a fake implementation.
	PackageManager interface {
		// EnsureRepo registers the secondary repository for the external
		// editor. It must tolerate the repository already being registered.
		EnsureRepo(ctx context.Context) error
		// Refresh refreshes package metadata. Callers are expected to tolerate
		// a Refresh failure; Install must still work on stale metadata.
		Refresh(ctx context.Context) error
		// Install installs the given packages. Installing already-installed
		// packages is a no-op by construction.
		Install(ctx context.Context, pkgs []Package) error
	}

	// RunCommandFunc is the function signature for creating exec.Cmd.
	// This allows injection of mock implementations for testing.
	RunCommandFunc func(ctx context.Context, name string, arg ...string) *exec.Cmd

	// DNFManagerOption configures a DNFManager.
	DNFManagerOption func(*DNFManager)

	// DNFManager drives Fedora's dnf through the CLI. Commands are prefixed
	// with sudo when the process is not running as root; Fedora toolbox images
	// grant the container user passwordless sudo.
	DNFManager struct {
		execCommand RunCommandFunc
		stat        StatFunc
		sudo        bool
		repoDir     string
		stdout      io.Writer
		stderr      io.Writer
	}
)

// Compile-time interface check
var _ PackageManager = (*DNFManager)(nil)

// WithDNFExecCommand sets a custom exec command function for testing.
func WithDNFExecCommand(fn RunCommandFunc) DNFManagerOption {
	return func(m *DNFManager) {
		m.execCommand = fn
	}
}

// WithDNFStat sets a custom stat function for testing.
func WithDNFStat(fn StatFunc) DNFManagerOption {
	return func(m *DNFManager) {
		m.stat = fn
	}
}

// WithDNFSudo overrides the sudo auto-detection.
func WithDNFSudo(sudo bool) DNFManagerOption {
	return func(m *DNFManager) {
		m.sudo = sudo
	}
}

// WithDNFRepoDir overrides the repository-definition directory (default
// /etc/yum.repos.d).
func WithDNFRepoDir(dir string) DNFManagerOption {
	return func(m *DNFManager) {
		m.repoDir = dir
	}
}

// WithDNFOutput directs command output to the given writers.
func WithDNFOutput(stdout, stderr io.Writer) DNFManagerOption {
	return func(m *DNFManager) {
		m.stdout = stdout
		m.stderr = stderr
	}
}

// NewDNFManager creates a DNFManager with production defaults.
func NewDNFManager(opts ...DNFManagerOption) *DNFManager {
	m := &DNFManager{
		execCommand: exec.CommandContext,
		stat:        os.Stat,
		sudo:        os.Geteuid() != 0,
		repoDir:     "/etc/yum.repos.d",
		stdout:      os.Stdout,
		stderr:      os.Stderr,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// EnsureRepo registers the Visual Studio Code repository: signing-key import
// followed by a repository-definition write. A pre-existing definition file
// short-circuits the whole step, so re-runs are no-ops.
func (m *DNFManager) EnsureRepo(ctx context.Context) error {
	repoPath := filepath.Join(m.repoDir, vscodeRepoFileName)
	if _, err := m.stat(repoPath); err == nil {
		return nil
	}

	if err := m.run(ctx, nil, "rpm", "--import", vscodeRepoKeyURL); err != nil {
		return issue.NewErrorContext().
			WithOperation("import repository signing key").
			WithResource(vscodeRepoKeyURL).
			WithSuggestion("Check network access to packages.microsoft.com").
			Wrap(err).
			BuildError()
	}

	// tee keeps the write under the same sudo policy as the other commands
	if err := m.run(ctx, strings.NewReader(vscodeRepoDefinition), "tee", repoPath); err != nil {
		return issue.NewErrorContext().
			WithOperation("write repository definition").
			WithResource(repoPath).
			Wrap(err).
			BuildError()
	}

	return nil
}

// Refresh refreshes the dnf metadata cache. The provisioner tolerates a
// failure here; dnf install works (with stale metadata) regardless.
func (m *DNFManager) Refresh(ctx context.Context) error {
	return m.run(ctx, nil, "dnf", "-y", "makecache", "--refresh")
}

// Install installs the package set in a single dnf transaction.
func (m *DNFManager) Install(ctx context.Context, pkgs []Package) error {
	if len(pkgs) == 0 {
		return nil
	}

	args := append([]string{"-y", "install"}, PackageNames(pkgs)...)
	if err := m.run(ctx, nil, "dnf", args...); err != nil {
		return issue.NewErrorContext().
			WithOperation("install packages").
			WithSuggestion("Check the dnf output above for the failing package").
			WithSuggestion("Re-run once connectivity is restored; the step is idempotent").
			Wrap(err).
			BuildError()
	}
	return nil
}

// run executes a single external command, prefixing sudo when needed.
// The command's own diagnostics stream through to the configured writers.
func (m *DNFManager) run(ctx context.Context, stdin io.Reader, name string, args ...string) error {
	if m.sudo {
		args = append([]string{name}, args...)
		name = "sudo"
	}

	cmd := m.execCommand(ctx, name, args...)
	cmd.Stdin = stdin
	cmd.Stdout = m.stdout
	cmd.Stderr = m.stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("command %s %v failed: %w", name, args, err)
	}
	return nil
}
