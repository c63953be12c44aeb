package semindex

import "crypto/sha256"

// ScopeFingerprint hashes the scope's kind together with its source text.
// Two scopes with equal fingerprints and equal byte ranges carry identical
// semantic content, so their ScopeData can be shared between index
// revisions.
func (x *SemanticIndex) ScopeFingerprint(id FileScopeID) ([32]byte, bool) {
	sc := x.scopes.Get(id)
	if sc == nil {
		return [32]byte{}, false
	}
	start, end := int(sc.Span.Start), int(sc.Span.End)
	if start > end || end > len(x.file.Content) {
		return [32]byte{}, false
	}
	h := sha256.New()
	h.Write([]byte{byte(sc.Kind)})
	h.Write(x.file.Content[start:end])
	var out [32]byte
	h.Sum(out[:0])
	return out, true
}

// AdoptScopeData substitutes a scope's data bundle with an equivalent one,
// typically a previous revision's bundle with the same fingerprint and byte
// range. All IDs inside a ScopeData are scope-local, so the substitution is
// observationally identical and lets revisions share memory.
func (x *SemanticIndex) AdoptScopeData(id FileScopeID, d *ScopeData) {
	if d == nil || !id.IsValid() || int(id) >= len(x.data) {
		return
	}
	x.data[id] = d
}
