// SPDX-FileCopyrightText: Copyright 2025 The datacat Authors
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"fmt"
	"sync"
)

// NameSequence generates names for resources constructed without one.
// Names follow the pattern "resource-N" with N monotonically increasing;
// a sequence never reuses a number, even for unrelated resources.
//
// A sequence is an explicit service passed by reference rather than
// process-global state: callers that construct auto-named resources own
// one and share it as far as they need unique names to reach.
type NameSequence struct {
	mu   sync.Mutex
	next uint64
}

// NewNameSequence creates a sequence starting at "resource-1".
func NewNameSequence() *NameSequence {
	return &NameSequence{next: 1}
}

// Next returns the next generated name.
func (s *NameSequence) Next() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	name := fmt.Sprintf("resource-%d", s.next)
	s.next++
	return name
}
