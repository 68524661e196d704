// Package fault carries the malformation records the pipeline accumulates.
// Faults never stop feeding; they are surfaced through the parser's
// observer method and, for fatal kinds, at validation.
package fault

import "fmt"

// Kind enumerates the malformations and failures the pipeline can record.
type Kind int

const (
	// Recoverable lexical.
	MissingComma Kind = iota
	TrailingComma
	MismatchedCloser
	UnterminatedComment
	UnknownEscape

	// Recoverable syntactic.
	UnquotedKey
	UnquotedValue
	SingletonList
	BarewordLiteral
	StraySeparator
	UnknownField

	// Parse: unterminated strings and unbalanced structures are fatal;
	// PartialInput only flags a soft-closed tree.
	UnterminatedString
	Unbalanced
	PartialInput

	// Binding.
	MissingField
	Incompatible
	ArityMismatch
	NoUnionVariant

	// Tag layer.
	UnmatchedClose
)

func (k Kind) String() string {
	switch k {
	case MissingComma:
		return "missing-comma"
	case TrailingComma:
		return "trailing-comma"
	case MismatchedCloser:
		return "mismatched-closer"
	case UnterminatedComment:
		return "unterminated-comment"
	case UnknownEscape:
		return "unknown-escape"
	case UnquotedKey:
		return "unquoted-key"
	case UnquotedValue:
		return "unquoted-value"
	case SingletonList:
		return "singleton-list"
	case BarewordLiteral:
		return "bareword-literal"
	case StraySeparator:
		return "stray-separator"
	case UnknownField:
		return "unknown-field"
	case UnterminatedString:
		return "unterminated-string"
	case Unbalanced:
		return "unbalanced"
	case PartialInput:
		return "partial-input"
	case MissingField:
		return "missing-field"
	case Incompatible:
		return "incompatible"
	case ArityMismatch:
		return "arity-mismatch"
	case NoUnionVariant:
		return "no-union-variant"
	case UnmatchedClose:
		return "unmatched-close"
	}
	return "unknown"
}

// Fatal reports whether a fault of this kind must fail validation.
func (k Kind) Fatal() bool {
	switch k {
	case UnterminatedString, Unbalanced, MissingField, Incompatible,
		ArityMismatch, NoUnionVariant:
		return true
	}
	return false
}

// Fault is one recorded malformation: what happened, where in the byte
// stream, and a human-readable message.
type Fault struct {
	Kind    Kind
	Offset  int
	Message string
}

func (f Fault) Error() string {
	return fmt.Sprintf("%s at byte %d: %s", f.Kind, f.Offset, f.Message)
}

// Recorder collects faults in arrival order. The zero value is ready.
type Recorder struct {
	faults []Fault
}

func (r *Recorder) Record(kind Kind, offset int, format string, args ...any) {
	r.faults = append(r.faults, Fault{
		Kind:    kind,
		Offset:  offset,
		Message: fmt.Sprintf(format, args...),
	})
}

// Faults returns the records accumulated so far.
func (r *Recorder) Faults() []Fault {
	return r.faults
}

// FirstFatal returns the first fatal fault, if any.
func (r *Recorder) FirstFatal() (Fault, bool) {
	for _, f := range r.faults {
		if f.Kind.Fatal() {
			return f, true
		}
	}
	return Fault{}, false
}
