package diag

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"pysema/internal/source"
)

func span(start, end uint32) source.Span {
	return source.Span{File: 1, Start: start, End: end}
}

func TestBagCap(t *testing.T) {
	bag := NewBag(2)
	assert.True(t, bag.Add(NewError(SemDuplicateParameter, span(0, 1), "one")))
	assert.True(t, bag.Add(NewError(SemDuplicateParameter, span(1, 2), "two")))
	assert.False(t, bag.Add(NewError(SemDuplicateParameter, span(2, 3), "three")))
	assert.Equal(t, 2, bag.Len())
}

func TestBagSortOrder(t *testing.T) {
	bag := NewBag(8)
	bag.Add(New(SevWarning, SemInfo, span(20, 21), "late warning"))
	bag.Add(NewError(SemGlobalAfterUse, span(5, 6), "early error"))
	bag.Add(NewError(SemGlobalAfterUse, span(20, 21), "late error"))
	bag.Sort()

	items := bag.Items()
	assert.Equal(t, "early error", items[0].Message)
	// same span: errors sort before warnings
	assert.Equal(t, "late error", items[1].Message)
	assert.Equal(t, "late warning", items[2].Message)
}

func TestBagDedup(t *testing.T) {
	bag := NewBag(8)
	bag.Add(NewError(SemGlobalAfterUse, span(5, 6), "first"))
	bag.Add(NewError(SemGlobalAfterUse, span(5, 6), "duplicate"))
	bag.Add(NewError(SemGlobalAfterBinding, span(5, 6), "different code"))
	bag.Dedup()
	assert.Equal(t, 2, bag.Len())
}

func TestBagMergeGrowsCap(t *testing.T) {
	a := NewBag(1)
	a.Add(NewError(SemInfo, span(0, 1), "a"))
	b := NewBag(1)
	b.Add(New(SevWarning, SemInfo, span(1, 2), "b"))

	a.Merge(b)
	assert.Equal(t, 2, a.Len())
	assert.True(t, a.HasErrors())
	assert.True(t, a.HasWarnings())
}

func TestReportBuilderEmitsOnce(t *testing.T) {
	bag := NewBag(4)
	r := &BagReporter{Bag: bag}

	builder := ReportError(r, SemNonlocalNoBinding, span(3, 7), "no binding").
		WithNote(span(0, 1), "enclosing function starts here")
	builder.Emit()
	builder.Emit()

	assert.Equal(t, 1, bag.Len())
	d := bag.Items()[0]
	assert.Equal(t, SemNonlocalNoBinding, d.Code)
	assert.Equal(t, SevError, d.Severity)
	assert.Len(t, d.Notes, 1)
}

func TestSeverityOrderAndString(t *testing.T) {
	assert.True(t, SevError > SevWarning)
	assert.True(t, SevWarning > SevInfo)
	assert.Equal(t, "error", SevError.String())
	assert.Equal(t, "warning", SevWarning.String())
	assert.Equal(t, "info", SevInfo.String())
}

func TestCodeString(t *testing.T) {
	assert.Equal(t, "UNKNOWN", UnknownCode.String())
	assert.Equal(t, "IO0100", IOLoadFileError.String())
	assert.Equal(t, "PARSE1001", ParseError.String())
	assert.Equal(t, "SEM3001", SemDuplicateParameter.String())
}
