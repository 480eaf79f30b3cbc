// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package order generates order keys for list entries. New entries take
// the next value of a monotonically increasing counter; moved entries take
// the midpoint between their new neighbours so no other entry needs to be
// renumbered.
package order

import (
	"errors"
	"sync"
)

// Delta is the step between two consecutive keys handed out by Next.
const Delta = 1.0

// Seed is the first key a fresh generator hands out.
const Seed = 1.0

// ErrExhausted is returned when two neighbouring keys are so close that no
// float64 lies strictly between them.
var ErrExhausted = errors.New("order: key precision exhausted between neighbours")

// Generator hands out increasing order keys. It is safe for concurrent use.
type Generator struct {
	mu   sync.Mutex
	next float64
}

// NewGenerator returns a generator seeded at Seed.
func NewGenerator() *Generator {
	return &Generator{next: Seed}
}

// Next returns the current key and advances the counter by Delta.
func (g *Generator) Next() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	v := g.next
	g.next += Delta
	return v
}

// Value returns the key the next call to Next will hand out.
func (g *Generator) Value() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.next
}

// Reset sets the counter, e.g. when restoring a snapshot. Values below the
// seed are clamped to it.
func (g *Generator) Reset(v float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if v < Seed {
		v = Seed
	}
	g.next = v
}

// Between returns a key strictly between before and after. A nil bound
// means the entry is moved to that end of the list, in which case the
// synthetic boundary neighbour ± 2×Delta is used.
func Between(before, after *float64) (float64, error) {
	var key float64
	switch {
	case before == nil && after == nil:
		return Delta, nil
	case before == nil:
		key = *after - 2*Delta
		if !(key < *after) {
			return 0, ErrExhausted
		}
	case after == nil:
		key = *before + 2*Delta
		if !(key > *before) {
			return 0, ErrExhausted
		}
	default:
		key = (*before + *after) / 2
		if !(key > *before && key < *after) {
			return 0, ErrExhausted
		}
	}
	return key, nil
}

// Reposition computes the key for moving the entry at index from to index
// to, given the keys of a list already sorted ascending. Only the moved
// entry gets a new key.
func Reposition(keys []float64, from, to int) (float64, error) {
	if from < 0 || from >= len(keys) {
		return 0, errors.New("order: source index out of range")
	}
	if to < 0 {
		to = 0
	}
	if to >= len(keys) {
		to = len(keys) - 1
	}
	if from == to {
		return keys[from], nil
	}

	rest := make([]float64, 0, len(keys)-1)
	rest = append(rest, keys[:from]...)
	rest = append(rest, keys[from+1:]...)

	var before, after *float64
	if to > 0 {
		before = &rest[to-1]
	}
	if to < len(rest) {
		after = &rest[to]
	}
	return Between(before, after)
}
