// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// EngineAuto lets devcell pick whichever engine is available (podman first).
	EngineAuto EngineChoice = "auto"
	// EnginePodman prefers Podman, falling back to Docker.
	EnginePodman EngineChoice = "podman"
	// EngineDocker prefers Docker, falling back to Podman.
	EngineDocker EngineChoice = "docker"
)

var (
	// ErrInvalidEngineChoice is the sentinel error wrapped by InvalidEngineChoiceError.
	ErrInvalidEngineChoice = errors.New("invalid engine choice")
	// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
	ErrInvalidConfig = errors.New("invalid config")
)

type (
	// EngineChoice specifies which container runtime to prefer.
	EngineChoice string

	// InvalidEngineChoiceError is returned when an EngineChoice value is not recognized.
	// It wraps ErrInvalidEngineChoice for errors.Is() compatibility.
	InvalidEngineChoiceError struct {
		Value EngineChoice
	}

	// Config is the effective devcell configuration.
	Config struct {
		// ContainerName is the default development container name.
		ContainerName string `toml:"container_name" mapstructure:"container_name"`
		// Engine is the preferred container engine.
		Engine EngineChoice `toml:"engine" mapstructure:"engine"`
		// BaseImage is the image new containers are created from.
		BaseImage string `toml:"base_image" mapstructure:"base_image"`
		// Verbose enables debug logging.
		Verbose bool `toml:"verbose" mapstructure:"verbose"`
	}

	// InvalidConfigError is returned when one or more Config fields are invalid.
	// It wraps the individual field validation errors for inspection.
	InvalidConfigError struct {
		FieldErrs []error
	}
)

// String returns the string representation of the EngineChoice.
func (e EngineChoice) String() string { return string(e) }

// Validate returns an error if the EngineChoice is not one of the defined choices.
func (e EngineChoice) Validate() error {
	switch e {
	case EngineAuto, EnginePodman, EngineDocker:
		return nil
	default:
		return &InvalidEngineChoiceError{Value: e}
	}
}

// Error implements the error interface.
func (e *InvalidEngineChoiceError) Error() string {
	return fmt.Sprintf("invalid engine choice %q (valid: auto, podman, docker)", e.Value)
}

// Unwrap returns ErrInvalidEngineChoice so callers can use errors.Is for programmatic detection.
func (e *InvalidEngineChoiceError) Unwrap() error { return ErrInvalidEngineChoice }

// Validate returns an error if any Config field is invalid.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.ContainerName) == "" {
		errs = append(errs, fmt.Errorf("container_name must be non-empty"))
	}
	if err := c.Engine.Validate(); err != nil {
		errs = append(errs, err)
	}
	if strings.TrimSpace(c.BaseImage) == "" {
		errs = append(errs, fmt.Errorf("base_image must be non-empty"))
	}
	if len(errs) > 0 {
		return &InvalidConfigError{FieldErrs: errs}
	}
	return nil
}

// Error implements the error interface.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, 0, len(e.FieldErrs))
	for _, err := range e.FieldErrs {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("invalid config: %s", strings.Join(msgs, "; "))
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }
