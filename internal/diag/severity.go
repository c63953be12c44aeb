package diag

// Severity ranks how serious a diagnostic is. The numeric order is load
// bearing: bags sort higher severities first and the CLI compares against
// SevError to pick its exit code.
type Severity uint8

const (
	// SevInfo marks advisory output that needs no action.
	SevInfo Severity = iota
	// SevWarning marks suspicious but analyzable code.
	SevWarning
	// SevError marks code the analyzer rejects.
	SevError
)

func (s Severity) String() string {
	switch s {
	case SevError:
		return "error"
	case SevWarning:
		return "warning"
	case SevInfo:
		return "info"
	}
	return "unknown"
}
