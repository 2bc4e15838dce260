// SPDX-License-Identifier: MPL-2.0

// Package provision implements the idempotent development-environment provisioner.
//
// A provisioning run has three phases. First, the execution context is detected
// once: a marker file (/run/.containerenv or /.dockerenv) signals that the
// process is already inside a container. Second, a pure routing decision maps
// the context onto one of three outcomes: run the provisioning steps locally,
// re-invoke the binary inside an existing container, or create the container
// first and then re-invoke. Third, the local steps run in order: install the
// declarative package set, patch the user's shell profile with marker-guarded
// blocks, and produce a Summary for the CLI layer to render.
//
// Every step is idempotent: installing installed packages is a no-op, repo
// registration tolerates a pre-existing repo, and profile blocks are appended
// at most once. Failures are fatal and abort the run immediately, with one
// exception: a failed package-metadata refresh is logged and tolerated.
package provision
