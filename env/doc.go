// SPDX-FileCopyrightText: Copyright 2025 The datacat Authors
// SPDX-License-Identifier: Apache-2.0

/*
Package env provides an interface-based abstraction for environment variable
access, enabling dependency injection and testing isolation, plus the
variable names datacat consults when loading collections.

# Basic Usage

Use OSReader to read environment variables via the standard os package:

	reader := &env.OSReader{}
	value := reader.Getenv(env.CollectionVar)

# Testing

The Reader interface allows injecting a MapReader in tests to avoid relying
on real environment variables:

	reader := env.MapReader{env.TransformVar: "/path/to/hooks.yaml"}

	result := myFunc(reader)

# Design

Production code accepts an env.Reader, while tests substitute a MapReader.
*/
package env
