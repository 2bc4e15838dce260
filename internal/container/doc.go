// SPDX-License-Identifier: MPL-2.0

// Package container provides a unified abstraction layer for container runtime CLIs (Docker/Podman).
//
// The Engine interface defines the operations devcell needs from a runtime:
// Exists, Create, Start, Exec, and ExecCommand (for PTY attachment).
// Two implementations are provided: DockerEngine and PodmanEngine, both embedding
// BaseCLIEngine for shared argument construction and command execution.
//
// Engine selection uses NewEngine(EngineType) with automatic fallback if the preferred
// engine is unavailable, or AutoDetectEngine() for preference-less detection (Podman is
// tried first, as it is the runtime shipped on Fedora Atomic hosts).
package container
