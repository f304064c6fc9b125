// SPDX-FileCopyrightText: Copyright 2025 The datacat Authors
// SPDX-License-Identifier: Apache-2.0

package hooks

import (
	"fmt"
	"os"
	"sync"

	"github.com/datacat-dev/datacat/catalog"
	"github.com/datacat-dev/datacat/env"
	"github.com/datacat-dev/datacat/logger"
)

// TransformFunc is an inline transform hook. It mutates the collection's
// resources in place; errors propagate to the caller unmodified.
type TransformFunc func(col *catalog.Collection, args ...string) error

// Ref references a transform hook: an inline Go function or the path of
// an external hook script.
type Ref struct {
	fn   TransformFunc
	path string
}

// Inline references an in-process transform function.
func Inline(fn TransformFunc) Ref {
	return Ref{fn: fn}
}

// External references a hook script by path.
func External(path string) Ref {
	return Ref{path: path}
}

func (r Ref) describe() string {
	if r.fn != nil {
		return "<inline function>"
	}
	return r.path
}

// workdirMu serializes the process-global working directory switch made
// while an external hook runs.
var workdirMu sync.Mutex

// inDirectory runs fn with the process working directory switched to
// dir, restoring it on all exit paths.
func inDirectory(dir string, fn func() error) error {
	workdirMu.Lock()
	defer workdirMu.Unlock()

	prev, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("reading working directory: %w", err)
	}
	if err := os.Chdir(dir); err != nil {
		return fmt.Errorf("entering hook directory: %w", err)
	}
	defer func() {
		if err := os.Chdir(prev); err != nil {
			logger.Warnf("restoring working directory to %s: %v", prev, err)
		}
	}()
	return fn()
}

// Run dispatches a transform hook against the collection. Inline
// functions are invoked directly with the collection and args. External
// refs are loaded and parsed per call, the named entry point is looked
// up (ResolutionError if absent), and the process working directory is
// the script's directory for the duration of the call. Errors raised by
// the hook body propagate unmodified.
func Run(col *catalog.Collection, ref Ref, entry string, args ...string) error {
	if ref.fn != nil {
		return ref.fn(col, args...)
	}

	s, err := loadScript(ref.path)
	if err != nil {
		return err
	}
	ep, err := s.entry(entry)
	if err != nil {
		return err
	}
	if ep.kind != kindTransform {
		return fmt.Errorf("%w: %s: entry point %q holds checker steps; dispatch it as a checker",
			ErrScript, s.path, entry)
	}

	logger.Debugw("running transform hook", "script", s.path, "entry", entry, "resources", col.Len())
	return inDirectory(s.dir, func() error {
		return ep.runTransform(col, args)
	})
}

// Transform dispatches the hook's "transform" entry point, discarding
// any result.
func Transform(col *catalog.Collection, ref Ref, args ...string) error {
	return Run(col, ref, EntryTransform, args...)
}

// TransformFromEnvironment applies every transform listed in the
// DATACAT_TRANSFORM environment variable, in listed order, sequentially.
// A later transform sees the mutations of all earlier ones.
func TransformFromEnvironment(col *catalog.Collection, reader env.Reader) error {
	for _, path := range env.SplitList(reader.Getenv(env.TransformVar)) {
		if err := Transform(col, External(path)); err != nil {
			return fmt.Errorf("environment transform %s: %w", path, err)
		}
	}
	return nil
}
