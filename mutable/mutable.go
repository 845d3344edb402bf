// Package mutable delivers fire-and-forget changes to engine components.
//
// A mutation is a closure bound to the context of the component it
// changes. Mutations are collected outside of the audio callback and
// applied by the engine right before the next block is rendered, so a
// change is observed by the component one block later at most.
package mutable

import (
	"github.com/rs/xid"
)

// zero value for context is immutable.
var immutable = Context{}

type (
	// Context identifies a mutable component. It can be embedded to make
	// the component a target for mutations.
	Context xid.ID

	// Mutation is a mutator function associated with a certain context.
	Mutation struct {
		Context
		mutator MutatorFunc
	}

	// Mutations is a set of mutators mapped to their contexts.
	Mutations map[Context][]MutatorFunc

	// MutatorFunc mutates the component.
	MutatorFunc func() error
)

// Mutable returns new mutable context.
func Mutable() Context {
	return Context(xid.New())
}

// Immutable returns immutable context.
func Immutable() Context {
	return immutable
}

// Mutate associates provided mutator with the context and returns
// mutation. Mutating immutable context causes a panic.
func (c Context) Mutate(m MutatorFunc) Mutation {
	if c == immutable {
		panic("mutate immutable")
	}
	return Mutation{
		Context: c,
		mutator: m,
	}
}

// IsMutable returns true if context can be mutated.
func (c Context) IsMutable() bool {
	return c != immutable
}

// String returns context id.
func (c Context) String() string {
	return xid.ID(c).String()
}

// Apply mutator function.
func (m Mutation) Apply() error {
	return m.mutator()
}

// Put mutation to the set. Mutations of immutable context are ignored.
func (ms Mutations) Put(m Mutation) Mutations {
	if m.Context == immutable || m.mutator == nil {
		return ms
	}
	if ms == nil {
		return map[Context][]MutatorFunc{m.Context: {m.mutator}}
	}
	ms[m.Context] = append(ms[m.Context], m.mutator)
	return ms
}

// ApplyTo consumes mutations defined for provided context. Mutators are
// applied in the order they were put, the first error stops the
// application and the rest of mutators for this context are dropped.
func (ms Mutations) ApplyTo(c Context) error {
	if ms == nil || c == immutable {
		return nil
	}
	fns, ok := ms[c]
	if !ok {
		return nil
	}
	delete(ms, c)
	for _, fn := range fns {
		if err := fn(); err != nil {
			return err
		}
	}
	return nil
}

// Append mutations from source set.
func (ms Mutations) Append(source Mutations) Mutations {
	if ms == nil {
		ms = make(map[Context][]MutatorFunc, len(source))
	}
	for c, fns := range source {
		ms[c] = append(ms[c], fns...)
	}
	return ms
}

// Detach mutations for provided context into a new set.
func (ms Mutations) Detach(c Context) Mutations {
	if ms == nil {
		return nil
	}
	if fns, ok := ms[c]; ok {
		delete(ms, c)
		return map[Context][]MutatorFunc{c: fns}
	}
	return nil
}
