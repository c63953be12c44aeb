package semindex

import (
	"fmt"

	"fortio.org/safecast"
)

// Scopes stores all allocated scopes of a file in a compact slice arena.
type Scopes struct {
	data []Scope
}

// NewScopes creates an arena with an optional capacity hint.
func NewScopes(capacity uint32) *Scopes {
	if capacity == 0 {
		capacity = 16
	}
	return &Scopes{
		data: make([]Scope, 1, capacity+1), // index 0 reserved for NoFileScopeID
	}
}

// New allocates a scope and returns its ID.
func (s *Scopes) New(scope Scope) FileScopeID {
	value, err := safecast.Conv[uint32](len(s.data))
	if err != nil {
		panic(fmt.Errorf("scope arena overflow: %w", err))
	}
	id := FileScopeID(value)
	s.data = append(s.data, scope)
	return id
}

// Get returns the scope pointer or nil for an invalid ID.
func (s *Scopes) Get(id FileScopeID) *Scope {
	if !id.IsValid() || int(id) >= len(s.data) {
		return nil
	}
	return &s.data[id]
}

// Len reports the total number of scopes excluding the sentinel.
func (s *Scopes) Len() int { return len(s.data) - 1 }

// next returns the ID the next allocation would receive.
func (s *Scopes) next() FileScopeID {
	return FileScopeID(uint32(len(s.data)))
}

// Definitions stores one scope's definitions in a compact arena.
type Definitions struct {
	data []Definition
}

// NewDefinitions creates a definition arena.
func NewDefinitions() *Definitions {
	return &Definitions{
		data: make([]Definition, 1, 8), // index 0 reserved for NoDefinitionID
	}
}

// New allocates a definition and returns its ID.
func (d *Definitions) New(def Definition) DefinitionID {
	value, err := safecast.Conv[uint32](len(d.data))
	if err != nil {
		panic(fmt.Errorf("definition arena overflow: %w", err))
	}
	id := DefinitionID(value)
	d.data = append(d.data, def)
	return id
}

// Get returns the definition pointer or nil for an invalid ID.
func (d *Definitions) Get(id DefinitionID) *Definition {
	if !id.IsValid() || int(id) >= len(d.data) {
		return nil
	}
	return &d.data[id]
}

// Len reports the number of stored definitions excluding the sentinel.
func (d *Definitions) Len() int { return len(d.data) - 1 }
