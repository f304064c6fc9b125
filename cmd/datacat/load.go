// SPDX-FileCopyrightText: Copyright 2025 The datacat Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/datacat-dev/datacat/catalog"
	"github.com/datacat-dev/datacat/env"
	"github.com/datacat-dev/datacat/hooks"
	"github.com/datacat-dev/datacat/loading"
)

var (
	filterFlags             []string
	transformFlags          []string
	noEnvironmentTransforms bool
)

// addLoadFlags registers the collection-loading flags shared by every
// subcommand that reads a collection.
func addLoadFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringArrayVar(&filterFlags, "filter", nil,
		"Filter expression applied to the collection (repeatable)")
	cmd.PersistentFlags().StringArrayVar(&transformFlags, "transform", nil,
		"Transform hook script applied to the collection (repeatable)")
	cmd.PersistentFlags().BoolVar(&noEnvironmentTransforms, "no-environment-transforms", false,
		"Skip transforms configured in "+env.TransformVar)
}

// collectionSource returns the collection path: the first positional
// argument when given, otherwise the default location.
func collectionSource(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return loading.DefaultPath(&env.OSReader{})
}

// loadCollection loads the collection named by args, applying the shared
// filter and transform flags.
func loadCollection(args []string) (*catalog.Collection, error) {
	opts := []loading.Option{}
	for _, filter := range filterFlags {
		opts = append(opts, loading.WithFilters(catalog.Q(filter)))
	}
	for _, transform := range transformFlags {
		opts = append(opts, loading.WithTransforms(hooks.External(transform)))
	}
	if noEnvironmentTransforms {
		opts = append(opts, loading.WithEnvironmentTransforms(false))
	}
	return loading.Load(collectionSource(args), opts...)
}

// openOut returns the output destination: a created file when --out is
// given, stdout otherwise. The returned close function is a no-op for
// stdout.
func openOut(path string) (io.Writer, func() error, error) {
	if path == "" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}
