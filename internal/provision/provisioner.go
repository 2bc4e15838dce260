// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"context"
	"fmt"
	"io"
	"os"

	"devcell/internal/container"
	"devcell/internal/issue"

	"github.com/charmbracelet/log"
)

// selfMountPath is where the host devcell binary is bind-mounted inside the
// cell, so the run outside the container can re-invoke the same binary inside.
const selfMountPath = "/usr/local/bin/devcell"

type (
	// Provisioner is the environment provisioner: it detects the execution
	// context, routes (create/enter the cell or run locally), and executes the
	// three idempotent steps (install, configure profile, summarize).
	//
	// Execution is single-threaded and blocking; each external command runs to
	// completion before the next step. Any fatal failure aborts immediately.
	Provisioner struct {
		detector      *Detector
		engineFactory func() (container.Engine, error)
		packages      PackageManager
		packageSet    []Package
		profilePath   string
		selfPath      func() (string, error)
		homeDir       func() (string, error)
		logger        *log.Logger
		stdout        io.Writer
		stderr        io.Writer
	}

	// ProvisionerOption configures a Provisioner.
	ProvisionerOption func(*Provisioner)

	// Summary is the machine-side result of a run; the CLI layer renders it.
	Summary struct {
		// Context is the execution context captured at the start of the run.
		Context ExecutionContext
		// Route is the routing outcome.
		Route Route
		// EngineName is the container engine used; empty for local runs.
		EngineName string
		// Created is true when the container was created by this run.
		Created bool
		// Categories maps package categories to the installed package names;
		// nil unless the install step ran in this process.
		Categories map[Category][]string
		// ProfileBlocksAdded lists the markers of profile blocks this run
		// appended; empty when the profile was already configured.
		ProfileBlocksAdded []string
		// ProfilePath is the profile file the configure step targeted.
		ProfilePath string
		// RefreshFailed records the tolerated metadata-refresh failure.
		RefreshFailed bool
	}

	// ExitStatusError reports the non-zero exit status of a provisioning run
	// re-invoked inside the container. The CLI layer propagates the code as
	// the process exit status.
	ExitStatusError struct {
		Code int
	}
)

// Error implements the error interface.
func (e *ExitStatusError) Error() string {
	return fmt.Sprintf("provisioning inside container exited with status %d", e.Code)
}

// WithDetector sets the execution-context detector.
func WithDetector(d *Detector) ProvisionerOption {
	return func(p *Provisioner) {
		p.detector = d
	}
}

// WithEngineFactory sets the container engine factory. The factory is only
// invoked when the run is outside the target environment, so a missing engine
// never breaks in-container runs.
func WithEngineFactory(fn func() (container.Engine, error)) ProvisionerOption {
	return func(p *Provisioner) {
		p.engineFactory = fn
	}
}

// WithPackageManager sets the package manager used by the install step.
func WithPackageManager(pm PackageManager) ProvisionerOption {
	return func(p *Provisioner) {
		p.packages = pm
	}
}

// WithPackageSet overrides the default package table.
func WithPackageSet(pkgs []Package) ProvisionerOption {
	return func(p *Provisioner) {
		p.packageSet = pkgs
	}
}

// WithProfilePath overrides the shell profile file (default ~/.bashrc).
func WithProfilePath(path string) ProvisionerOption {
	return func(p *Provisioner) {
		p.profilePath = path
	}
}

// WithSelfPath sets how the provisioner locates its own binary for the
// re-invocation mount.
func WithSelfPath(fn func() (string, error)) ProvisionerOption {
	return func(p *Provisioner) {
		p.selfPath = fn
	}
}

// WithHomeDir sets how the provisioner locates the user home directory.
func WithHomeDir(fn func() (string, error)) ProvisionerOption {
	return func(p *Provisioner) {
		p.homeDir = fn
	}
}

// WithLogger sets the progress logger.
func WithLogger(logger *log.Logger) ProvisionerOption {
	return func(p *Provisioner) {
		p.logger = logger
	}
}

// WithOutput directs step output to the given writers.
func WithOutput(stdout, stderr io.Writer) ProvisionerOption {
	return func(p *Provisioner) {
		p.stdout = stdout
		p.stderr = stderr
	}
}

// NewProvisioner creates a Provisioner with production defaults.
func NewProvisioner(opts ...ProvisionerOption) *Provisioner {
	p := &Provisioner{
		detector:      NewDetector(),
		engineFactory: container.AutoDetectEngine,
		packages:      NewDNFManager(),
		packageSet:    DefaultPackageSet(),
		selfPath:      os.Executable,
		homeDir:       os.UserHomeDir,
		logger:        log.NewWithOptions(os.Stderr, log.Options{Prefix: "devcell"}),
		stdout:        os.Stdout,
		stderr:        os.Stderr,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Provision is the single operation of the provisioner. It detects the
// execution context once, then either runs the idempotent steps locally or
// looks up / creates the named container and re-invokes itself inside it.
//
// Exit-status policy: the first failing external command aborts the run and
// its status surfaces as the process exit status (fail-fast, no retries, no
// rollback). A failed metadata refresh is the one tolerated exception.
func (p *Provisioner) Provision(ctx context.Context, name container.ContainerName, image container.ImageRef) (*Summary, error) {
	if err := name.Validate(); err != nil {
		return nil, err
	}

	ec := p.detector.Detect()
	p.logger.Debug("detected execution context", "inside", ec.Inside, "cell", ec.CellName)

	if ec.Inside {
		return p.runLocal(ctx, ec)
	}
	return p.dispatch(ctx, ec, name, image)
}

// runLocal executes the three idempotent steps directly: install the package
// set, configure the shell profile, and assemble the summary.
func (p *Provisioner) runLocal(ctx context.Context, ec ExecutionContext) (*Summary, error) {
	summary := &Summary{
		Context: ec,
		Route:   Route{Kind: RunLocally},
	}

	p.logger.Info("registering editor repository")
	if err := p.packages.EnsureRepo(ctx); err != nil {
		return nil, err
	}

	p.logger.Info("refreshing package metadata")
	if err := p.packages.Refresh(ctx); err != nil {
		// Tolerated: dnf install still works on stale metadata.
		p.logger.Warn("metadata refresh failed, continuing with stale metadata", "err", err)
		summary.RefreshFailed = true
	}

	p.logger.Info("installing package set", "packages", len(p.packageSet))
	if err := p.packages.Install(ctx, p.packageSet); err != nil {
		return nil, err
	}
	summary.Categories = PackagesByCategory(p.packageSet)

	profilePath := p.profilePath
	if profilePath == "" {
		var err error
		profilePath, err = DefaultProfilePath()
		if err != nil {
			return nil, err
		}
	}

	p.logger.Info("configuring shell profile", "path", profilePath)
	applied, err := NewProfile(profilePath).EnsureBlocks(PathBlock(), AliasBlock())
	if err != nil {
		return nil, issue.WrapWithOperation(err, "configure shell profile")
	}
	summary.ProfilePath = profilePath
	summary.ProfileBlocksAdded = applied

	return summary, nil
}

// dispatch looks up the container, creates it when missing, and re-invokes
// the provision operation inside it. The same binary runs there; the marker
// file then routes it down the runLocal path.
func (p *Provisioner) dispatch(ctx context.Context, ec ExecutionContext, name container.ContainerName, image container.ImageRef) (*Summary, error) {
	eng, err := p.engineFactory()
	if err != nil {
		return nil, err
	}

	exists, err := eng.Exists(ctx, name)
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("look up container").
			WithResource(string(name)).
			WithSuggestion("Ensure the engine is working (try: " + eng.Name() + " info)").
			Wrap(err).
			BuildError()
	}

	route := DecideRoute(ec, exists, name)
	summary := &Summary{
		Context:    ec,
		Route:      route,
		EngineName: eng.Name(),
	}
	p.logger.Debug("routed provisioning run", "route", route.String(), "engine", eng.Name())

	if route.Kind == CreateAndEnter {
		if err := p.createCell(ctx, eng, name, image); err != nil {
			return nil, err
		}
		summary.Created = true
	}

	if err := eng.Start(ctx, name); err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("start container").
			WithResource(string(name)).
			Wrap(err).
			BuildError()
	}

	p.logger.Info("provisioning inside container", "cell", name)
	result, err := eng.Exec(ctx, name, []string{selfMountPath, "provision", string(name)}, container.ExecOptions{
		Env:    map[string]string{CellNameEnvVar: string(name)},
		Stdout: p.stdout,
		Stderr: p.stderr,
	})
	if err != nil {
		return nil, err
	}
	if result.Error != nil {
		return nil, result.Error
	}
	if result.ExitCode != 0 {
		return nil, &ExitStatusError{Code: result.ExitCode}
	}

	return summary, nil
}

// createCell creates the container from the fixed base image, mounting the
// user home (so the profile edited inside is the real one) and the devcell
// binary (so the run inside is the same executable).
func (p *Provisioner) createCell(ctx context.Context, eng container.Engine, name container.ContainerName, image container.ImageRef) error {
	home, err := p.homeDir()
	if err != nil {
		return fmt.Errorf("failed to get home directory: %w", err)
	}
	self, err := p.selfPath()
	if err != nil {
		return fmt.Errorf("failed to locate devcell binary: %w", err)
	}

	p.logger.Info("creating container", "cell", name, "image", image)
	return eng.Create(ctx, container.CreateOptions{
		Name:  name,
		Image: image,
		Env:   map[string]string{CellNameEnvVar: string(name)},
		Volumes: []container.VolumeMount{
			{HostPath: home, ContainerPath: home},
			{HostPath: self, ContainerPath: selfMountPath, ReadOnly: true},
		},
		Stdout: p.stderr,
		Stderr: p.stderr,
	})
}
