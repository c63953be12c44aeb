package semindex

import (
	"slices"
)

// flowState is the builder's mutable picture of one scope mid-walk: which
// bindings are live per place and how reachable the current point is. The
// walk is a single forward pass; forward jumps other than loops do not exist
// in Python, so no fixed-point iteration is needed.
type flowState struct {
	live  [][]LiveBinding // indexed by PlaceID; nil row = place not yet seeded
	reach ReachabilityID
}

func newFlowState() *flowState {
	return &flowState{
		live:  make([][]LiveBinding, 1, 8),
		reach: ReachAlways,
	}
}

func (f *flowState) row(place PlaceID) []LiveBinding {
	if int(place) >= len(f.live) {
		return nil
	}
	return f.live[place]
}

func (f *flowState) grow(place PlaceID) {
	for uint32(len(f.live)) <= uint32(place) {
		f.live = append(f.live, nil)
	}
}

// seed installs the implicit unbound-at-entry binding for a place the first
// time the flow sees it.
func (f *flowState) seed(place PlaceID) {
	f.grow(place)
	if f.live[place] == nil {
		f.live[place] = []LiveBinding{{Def: NoDefinitionID, Narrow: NoNarrowing, Reach: ReachAlways}}
	}
}

// bind replaces the live bindings of a place with a single new definition.
func (f *flowState) bind(place PlaceID, def DefinitionID) {
	f.grow(place)
	f.live[place] = []LiveBinding{{Def: def, Narrow: NoNarrowing, Reach: f.reach}}
}

// unbind models `del`: the place flows on as unbound.
func (f *flowState) unbind(place PlaceID) {
	f.grow(place)
	f.live[place] = []LiveBinding{{Def: NoDefinitionID, Narrow: NoNarrowing, Reach: f.reach}}
}

// narrow ANDs a constraint onto every live binding of a place.
func (f *flowState) narrow(place PlaceID, id NarrowingID, store *NarrowingStore) {
	if !id.IsValid() {
		return
	}
	row := f.row(place)
	if row == nil {
		return
	}
	next := make([]LiveBinding, len(row))
	for i, b := range row {
		b.Narrow = store.And(b.Narrow, id)
		next[i] = b
	}
	f.live[place] = next
}

// snapshot deep-copies the state so a branch can diverge from it.
func (f *flowState) snapshot() *flowState {
	cp := &flowState{
		live:  make([][]LiveBinding, len(f.live)),
		reach: f.reach,
	}
	for i, row := range f.live {
		if row != nil {
			cp.live[i] = slices.Clone(row)
		}
	}
	return cp
}

// merge unions another state into this one at a control-flow join. Bindings
// present in both with identical definition and narrowing merge their
// reachability with Or; everything else is kept side by side so a later
// query can tell apart paths. A nil row means the place was untouched since
// scope entry, i.e. implicitly unbound, so a place bound on only one side
// stays possibly unbound after the join.
func (f *flowState) merge(other *flowState, reach *ReachabilityStore) {
	for len(f.live) < len(other.live) {
		f.live = append(f.live, nil)
	}
	for place := 1; place < len(f.live); place++ {
		arow := f.live[place]
		brow := other.row(PlaceID(uint32(place)))
		switch {
		case arow == nil && brow == nil:
			continue
		case arow == nil:
			f.live[place] = mergeRows(unboundRow(), brow, reach)
		case brow == nil:
			f.live[place] = mergeRows(arow, unboundRow(), reach)
		default:
			f.live[place] = mergeRows(arow, brow, reach)
		}
	}
	f.reach = reach.Or(f.reach, other.reach)
}

func unboundRow() []LiveBinding {
	return []LiveBinding{{Def: NoDefinitionID, Narrow: NoNarrowing, Reach: ReachAlways}}
}

// stripNarrowing drops narrowing from every live binding. Used when loop
// body state flows around the back edge: a first iteration's narrowing is
// not valid for later ones.
func (f *flowState) stripNarrowing() {
	for i, row := range f.live {
		if row == nil {
			continue
		}
		next := make([]LiveBinding, len(row))
		for j, b := range row {
			b.Narrow = NoNarrowing
			next[j] = b
		}
		f.live[i] = next
	}
}

func mergeRows(a, b []LiveBinding, reach *ReachabilityStore) []LiveBinding {
	out := slices.Clone(a)
	for _, ob := range b {
		matched := false
		for i := range out {
			if out[i].Def == ob.Def && out[i].Narrow == ob.Narrow {
				out[i].Reach = reach.Or(out[i].Reach, ob.Reach)
				matched = true
				break
			}
		}
		if !matched {
			out = append(out, ob)
		}
	}
	return out
}

// markUnreachable records that control cannot pass this point (return,
// raise, break, continue).
func (f *flowState) markUnreachable() {
	f.reach = ReachNever
}

func (f *flowState) isUnreachable() bool {
	return f.reach == ReachNever
}
