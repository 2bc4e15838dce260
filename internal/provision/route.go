// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"fmt"

	"devcell/internal/container"
)

const (
	// RunLocally means the process is already inside the target environment
	// and executes the provisioning steps directly.
	RunLocally RouteKind = "run-locally"
	// EnterExisting means the target container exists and the remaining steps
	// are re-invoked inside it.
	EnterExisting RouteKind = "enter-existing"
	// CreateAndEnter means the target container must be created from the base
	// image before re-invoking inside it.
	CreateAndEnter RouteKind = "create-and-enter"
)

type (
	// RouteKind identifies one of the three routing outcomes.
	RouteKind string

	// Route is the tagged routing outcome for a provisioning run.
	Route struct {
		Kind RouteKind
		// Name is the target container; meaningful for EnterExisting and
		// CreateAndEnter, empty for RunLocally.
		Name container.ContainerName
	}
)

// String returns the string representation of the RouteKind.
func (k RouteKind) String() string { return string(k) }

// String returns a human-readable description of the route.
func (r Route) String() string {
	if r.Kind == RunLocally {
		return string(RunLocally)
	}
	return fmt.Sprintf("%s(%s)", r.Kind, r.Name)
}

// DecideRoute maps the detected execution context and the container lookup
// result onto a routing outcome. It is a pure function: the caller performs
// the lookup (and only when outside the target environment).
func DecideRoute(ec ExecutionContext, exists bool, name container.ContainerName) Route {
	if ec.Inside {
		return Route{Kind: RunLocally}
	}
	if exists {
		return Route{Kind: EnterExisting, Name: name}
	}
	return Route{Kind: CreateAndEnter, Name: name}
}
