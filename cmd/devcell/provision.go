// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"

	"devcell/internal/config"
	"devcell/internal/container"
	"devcell/internal/provision"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	provisionEngine string

	// provisionCmd provisions the development container
	provisionCmd = &cobra.Command{
		Use:   "provision [containerName]",
		Short: "Create and set up the development container",
		Long: `Create the development container (when missing) and set it up with
language toolchains, editors, and CLI utilities.

When run on the host, devcell looks up the container by name, creates it
from the base image if needed, and re-invokes itself inside. When already
running inside a container, it installs the package set and patches the
shell profile directly. Every step is idempotent.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runProvision,
	}
)

func init() {
	provisionCmd.Flags().StringVarP(&provisionEngine, "engine", "e", "", "container engine preference (auto, podman, docker)")
}

func runProvision(cmd *cobra.Command, args []string) error {
	cfg := loadConfigOrDefaults()

	name, image := resolveTarget(cfg, args)

	choice, err := resolveEngineChoice(cfg, provisionEngine)
	if err != nil {
		return err
	}

	logger := newLogger(cfg)

	provisioner := provision.NewProvisioner(
		provision.WithEngineFactory(engineFactoryFor(choice)),
		provision.WithLogger(logger),
		provision.WithOutput(cmd.OutOrStdout(), cmd.ErrOrStderr()),
	)

	summary, err := provisioner.Provision(cmd.Context(), name, image)
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, verbose))
		return newExitError(err)
	}

	renderSummary(cmd.OutOrStdout(), summary)
	return nil
}

// resolveTarget applies the precedence for the container name (positional
// argument over config over built-in default) and picks the base image.
func resolveTarget(cfg *config.Config, args []string) (container.ContainerName, container.ImageRef) {
	name := cfg.ContainerName
	if len(args) > 0 {
		name = args[0]
	}
	return container.ContainerName(name), container.ImageRef(cfg.BaseImage)
}

// resolveEngineChoice applies the precedence for the engine preference
// (flag over config) and validates the result.
func resolveEngineChoice(cfg *config.Config, flagValue string) (config.EngineChoice, error) {
	choice := cfg.Engine
	if flagValue != "" {
		choice = config.EngineChoice(flagValue)
	}
	if err := choice.Validate(); err != nil {
		return "", err
	}
	return choice, nil
}

// engineFactoryFor maps an engine choice onto an engine constructor.
func engineFactoryFor(choice config.EngineChoice) func() (container.Engine, error) {
	switch choice {
	case config.EnginePodman:
		return func() (container.Engine, error) { return container.NewEngine(container.EngineTypePodman) }
	case config.EngineDocker:
		return func() (container.Engine, error) { return container.NewEngine(container.EngineTypeDocker) }
	default:
		return container.AutoDetectEngine
	}
}

// newLogger builds the progress logger, honoring --verbose and the config.
func newLogger(cfg *config.Config) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: config.AppName})
	if verbose || cfg.Verbose {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}
