// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

// Kind names the map an event refers to.
type Kind string

const (
	KindAll           Kind = "all"
	KindGroup         Kind = "group"
	KindElement       Kind = "element"
	KindBadge         Kind = "badge"
	KindGroupBadge    Kind = "group_badge"
	KindTemplate      Kind = "template"
	KindModifierGroup Kind = "modifier_group"
	KindModifier      Kind = "modifier"
)

// Op is the kind of write that produced an event.
type Op string

const (
	OpSet    Op = "set"
	OpDelete Op = "delete"
	OpReset  Op = "reset"
)

// Event describes one write to the store. Parent carries the owning
// group for elements and modifiers.
type Event struct {
	Kind   Kind   `json:"kind"`
	Op     Op     `json:"op"`
	ID     string `json:"id,omitempty"`
	Parent string `json:"parent,omitempty"`
}

// Observer receives store events. It runs synchronously on the writing
// goroutine after the write is visible, so it may read the store but must
// not block for long.
type Observer func(Event)

// Subscribe registers an observer and returns a function that removes it.
func (s *Store) Subscribe(fn Observer) (cancel func()) {
	s.obsMu.Lock()
	id := s.nextObs
	s.nextObs++
	s.observers[id] = fn
	s.obsMu.Unlock()

	return func() {
		s.obsMu.Lock()
		delete(s.observers, id)
		s.obsMu.Unlock()
	}
}

func (s *Store) notify(ev Event) {
	s.obsMu.Lock()
	fns := make([]Observer, 0, len(s.observers))
	for _, fn := range s.observers {
		fns = append(fns, fn)
	}
	s.obsMu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}
