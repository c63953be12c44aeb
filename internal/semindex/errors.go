package semindex

import (
	"pysema/internal/diag"
	"pysema/internal/source"
)

// SemanticSyntaxError is a malformed-but-parseable construct found during the
// index build: duplicate parameters, misplaced global/nonlocal, break outside
// a loop. They are recorded on the index and mirrored to the reporter; they
// never abort the build.
type SemanticSyntaxError struct {
	Code    diag.Code
	Span    source.Span
	Message string
}

// Diagnostic converts the error into the common diagnostic shape.
func (e SemanticSyntaxError) Diagnostic() diag.Diagnostic {
	return diag.NewError(e.Code, e.Span, e.Message)
}
