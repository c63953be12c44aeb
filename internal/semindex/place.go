package semindex

import (
	"fmt"
	"iter"
	"strings"

	"fortio.org/safecast"
)

// PlaceFlags encode syntactic facts about a place, set independently of
// reachability: a place is "used" if read anywhere in the scope and "bound"
// if assigned anywhere.
type PlaceFlags uint8

const (
	PlaceBound PlaceFlags = 1 << iota
	PlaceUsed
	PlaceDeclared        // carries an annotation
	PlaceMarkedGlobal    // named in a global statement
	PlaceMarkedNonlocal  // named in a nonlocal statement
)

// PlaceExpr is the shape of a place: a plain name, or a name followed by a
// chain of attribute accesses (`self.x`).
type PlaceExpr struct {
	Root string
	Path []string
}

// NameExpr builds the place expression for a bare name.
func NameExpr(name string) PlaceExpr {
	return PlaceExpr{Root: name}
}

// MemberExpr builds the place expression for an attribute chain.
func MemberExpr(root string, path ...string) PlaceExpr {
	return PlaceExpr{Root: root, Path: path}
}

// IsName reports whether the place is a plain symbol.
func (e PlaceExpr) IsName() bool { return len(e.Path) == 0 }

func (e PlaceExpr) String() string {
	if e.IsName() {
		return e.Root
	}
	return e.Root + "." + strings.Join(e.Path, ".")
}

// Place is one row of a scope's place table.
type Place struct {
	Expr  PlaceExpr
	Flags PlaceFlags
}

func (p *Place) IsBound() bool    { return p.Flags&PlaceBound != 0 }
func (p *Place) IsUsed() bool     { return p.Flags&PlaceUsed != 0 }
func (p *Place) IsDeclared() bool { return p.Flags&PlaceDeclared != 0 }
func (p *Place) IsGlobal() bool   { return p.Flags&PlaceMarkedGlobal != 0 }
func (p *Place) IsNonlocal() bool { return p.Flags&PlaceMarkedNonlocal != 0 }

// PlaceTable is the symbol table of one scope. It is populated while the
// scope's body is walked and frozen when the scope closes; afterwards it is
// a read-only, independently shareable value.
type PlaceTable struct {
	places []Place            // index 0 reserved for NoPlaceID
	byKey  map[string]PlaceID // PlaceExpr.String() -> id
}

// NewPlaceTable creates an empty table.
func NewPlaceTable() *PlaceTable {
	return &PlaceTable{
		places: make([]Place, 1, 8),
		byKey:  make(map[string]PlaceID),
	}
}

// ensure returns the ID for the expression, allocating a row if needed.
func (t *PlaceTable) ensure(expr PlaceExpr) PlaceID {
	key := expr.String()
	if id, ok := t.byKey[key]; ok {
		return id
	}
	value, err := safecast.Conv[uint32](len(t.places))
	if err != nil {
		panic(fmt.Errorf("place table overflow: %w", err))
	}
	id := PlaceID(value)
	t.places = append(t.places, Place{Expr: expr})
	t.byKey[key] = id
	return id
}

// addFlags merges flags into an existing row.
func (t *PlaceTable) addFlags(id PlaceID, flags PlaceFlags) {
	if !id.IsValid() || int(id) >= len(t.places) {
		panic(fmt.Errorf("addFlags: invalid place id %d", id))
	}
	t.places[id].Flags |= flags
}

// PlaceID returns the stable ID for the expression, if the scope mentions it.
func (t *PlaceTable) PlaceID(expr PlaceExpr) (PlaceID, bool) {
	id, ok := t.byKey[expr.String()]
	return id, ok
}

// PlaceIDByName is PlaceID for a bare name.
func (t *PlaceTable) PlaceIDByName(name string) (PlaceID, bool) {
	return t.PlaceID(NameExpr(name))
}

// Get returns the place row or nil for an invalid ID.
func (t *PlaceTable) Get(id PlaceID) *Place {
	if !id.IsValid() || int(id) >= len(t.places) {
		return nil
	}
	return &t.places[id]
}

// Len reports the number of places excluding the sentinel.
func (t *PlaceTable) Len() int { return len(t.places) - 1 }

// All iterates the table rows in allocation order.
func (t *PlaceTable) All() iter.Seq2[PlaceID, *Place] {
	return func(yield func(PlaceID, *Place) bool) {
		for i := 1; i < len(t.places); i++ {
			if !yield(PlaceID(uint32(i)), &t.places[i]) {
				return
			}
		}
	}
}
