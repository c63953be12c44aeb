package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// I/O
	IOLoadFileError Code = 100

	// Parse-level (tree-sitter reported syntax trouble)
	ParseError       Code = 1001
	ParseMissingNode Code = 1002

	// Semantic syntax errors: malformed but parseable constructs. These are
	// the user-facing, non-fatal tier; they never abort the index build.
	SemInfo                  Code = 3000
	SemDuplicateParameter    Code = 3001
	SemGlobalAfterUse        Code = 3002
	SemGlobalAfterBinding    Code = 3003
	SemNonlocalAfterUse      Code = 3004
	SemNonlocalAfterBinding  Code = 3005
	SemNonlocalNoBinding     Code = 3006
	SemNonlocalAtModule      Code = 3007
	SemGlobalAndNonlocal     Code = 3008
	SemAnnotatedGlobal       Code = 3009
	SemAnnotatedNonlocal     Code = 3010
	SemStarImportNotModule   Code = 3011
	SemReturnOutsideFunction Code = 3012
	SemBreakOutsideLoop      Code = 3013
	SemContinueOutsideLoop   Code = 3014
	SemDuplicateTypeParam    Code = 3015
	SemWalrusInTopComprehension Code = 3016
)

func (c Code) String() string {
	switch {
	case c == UnknownCode:
		return "UNKNOWN"
	case c < 1000:
		return fmt.Sprintf("IO%04d", uint16(c))
	case c < 3000:
		return fmt.Sprintf("PARSE%04d", uint16(c))
	default:
		return fmt.Sprintf("SEM%04d", uint16(c))
	}
}
