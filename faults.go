package typestream

import "typestream/internal/fault"

// Fault is one recorded malformation: kind, byte offset, message.
type Fault = fault.Fault

// FaultKind enumerates the malformations the pipeline records.
type FaultKind = fault.Kind

const (
	FaultMissingComma        = fault.MissingComma
	FaultTrailingComma       = fault.TrailingComma
	FaultMismatchedCloser    = fault.MismatchedCloser
	FaultUnterminatedComment = fault.UnterminatedComment
	FaultUnknownEscape       = fault.UnknownEscape
	FaultUnquotedKey         = fault.UnquotedKey
	FaultUnquotedValue       = fault.UnquotedValue
	FaultSingletonList       = fault.SingletonList
	FaultStraySeparator      = fault.StraySeparator
	FaultUnknownField        = fault.UnknownField
	FaultUnterminatedString  = fault.UnterminatedString
	FaultPartialInput        = fault.PartialInput
	FaultMissingField        = fault.MissingField
	FaultIncompatible        = fault.Incompatible
	FaultArityMismatch       = fault.ArityMismatch
	FaultNoUnionVariant      = fault.NoUnionVariant
	FaultUnmatchedClose      = fault.UnmatchedClose
)
