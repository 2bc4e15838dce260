// SPDX-License-Identifier: MPL-2.0

// Package config loads devcell's optional configuration file.
//
// devcell works with zero configuration; the file only changes defaults
// (container name, engine preference, base image). Lookup order is
// built-in defaults, then config.toml in the devcell config directory,
// then CLI flags and positional arguments at the call site.
package config
