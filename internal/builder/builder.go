// Package builder turns the lexer's token stream into a value tree. It is
// non-recursive: an explicit frame stack makes resumability a property of
// the data structure, so a token can arrive at any time without suspended
// calls. Known LLM malformations are repaired deterministically and
// recorded as faults; the builder never discards consumed input.
package builder

import (
	"strconv"
	"strings"

	"typestream/internal/fault"
	"typestream/internal/lexer"
	"typestream/internal/value"
)

type frameKind int

const (
	frameArray frameKind = iota
	frameObject
	frameScalar // a string value streaming in chunks
)

type phase int

const (
	phaseKey phase = iota
	phaseColon
	phaseValue
	phaseAfter
)

type frame struct {
	kind frameKind

	arr []*value.Value
	obj []value.Member

	pendingKey *string
	phase      phase
	afterComma bool // last separator seen, for trailing-comma detection

	str strings.Builder // frameScalar accumulation
}

// Builder owns the frame stack and the completed root values. A version
// counter bumps on every observable mutation so the facade can suppress
// no-op notifications.
type Builder struct {
	stack []*frame
	roots []*value.Value

	version uint64
	rec     *fault.Recorder
}

func New(rec *fault.Recorder) *Builder {
	return &Builder{rec: rec}
}

// Version reports the mutation counter.
func (b *Builder) Version() uint64 { return b.version }

func (b *Builder) bump() { b.version++ }

func (b *Builder) top() *frame {
	if len(b.stack) == 0 {
		return nil
	}
	return b.stack[len(b.stack)-1]
}

func (b *Builder) push(f *frame) {
	b.stack = append(b.stack, f)
	b.bump()
}

func (b *Builder) pop() *frame {
	f := b.stack[len(b.stack)-1]
	b.stack = b.stack[:len(b.stack)-1]
	return f
}

// Feed applies one token to the frame stack.
func (b *Builder) Feed(tok lexer.Token) {
	if tok.Kind == lexer.True || tok.Kind == lexer.False || tok.Kind == lexer.Null {
		if f := b.top(); f != nil && f.kind == frameObject && (f.phase == phaseKey || f.phase == phaseAfter) {
			// A keyword in key position is taken as its textual key.
			b.acceptKey(f, tok.Kind.String(), true, tok)
			return
		}
	}
	switch tok.Kind {
	case lexer.StrChunk:
		b.feedChunk(tok)
	case lexer.Str:
		b.feedString(tok)
	case lexer.Number:
		b.feedNumber(tok)
	case lexer.Bareword:
		b.feedBareword(tok)
	case lexer.True:
		b.completeValue(value.Boolean(true))
	case lexer.False:
		b.completeValue(value.Boolean(false))
	case lexer.Null:
		b.completeValue(value.NullValue())
	case lexer.LBrace:
		b.openContainer(&frame{kind: frameObject, phase: phaseKey})
	case lexer.LBrack:
		b.openContainer(&frame{kind: frameArray, phase: phaseValue})
	case lexer.RBrace:
		b.closeContainer(frameObject, tok)
	case lexer.RBrack:
		b.closeContainer(frameArray, tok)
	case lexer.Comma:
		b.feedComma(tok)
	case lexer.Colon:
		b.feedColon(tok)
	}
}

func (b *Builder) feedChunk(tok lexer.Token) {
	if f := b.top(); f == nil || f.kind != frameScalar {
		b.push(&frame{kind: frameScalar})
	}
	b.top().str.WriteString(tok.Text)
	b.bump()
}

func (b *Builder) feedString(tok lexer.Token) {
	text := tok.Text
	if f := b.top(); f != nil && f.kind == frameScalar {
		f.str.WriteString(text)
		text = f.str.String()
		b.pop()
	}
	// A completed string is a key when its parent still wants one.
	if f := b.top(); f != nil && f.kind == frameObject {
		switch f.phase {
		case phaseKey, phaseAfter:
			b.acceptKey(f, text, false, tok)
			return
		case phaseColon:
			b.rec.Record(fault.StraySeparator, tok.Offset, "missing ':' before value")
			f.phase = phaseValue
		}
	}
	b.completeValue(value.Str(text))
}

func (b *Builder) feedNumber(tok lexer.Token) {
	v, ok := parseNumber(tok.Text)
	if !ok {
		b.rec.Record(fault.UnquotedValue, tok.Offset, "unparseable number %q kept as string", tok.Text)
		b.completeValue(value.Str(tok.Text))
		return
	}
	b.completeValue(v)
}

func (b *Builder) feedBareword(tok lexer.Token) {
	if f := b.top(); f != nil && f.kind == frameObject {
		switch f.phase {
		case phaseKey, phaseAfter:
			b.acceptKey(f, tok.Text, true, tok)
			return
		case phaseColon:
			b.rec.Record(fault.StraySeparator, tok.Offset, "missing ':' before value")
			f.phase = phaseValue
		}
	}
	// An unquoted value is accepted as a string; the binder may still
	// coerce it to a number or bool downstream.
	b.rec.Record(fault.UnquotedValue, tok.Offset, "unquoted value %q taken as string", tok.Text)
	b.completeValue(value.Str(tok.Text))
}

func (b *Builder) acceptKey(f *frame, text string, bare bool, tok lexer.Token) {
	if f.phase == phaseAfter {
		// A key right after a value means the comma went missing.
		b.rec.Record(fault.MissingComma, tok.Offset, "missing comma before key %q", text)
	}
	if bare {
		b.rec.Record(fault.UnquotedKey, tok.Offset, "unquoted key %q", text)
	}
	k := text
	f.pendingKey = &k
	f.phase = phaseColon
	f.afterComma = false
	b.bump()
}

func (b *Builder) feedComma(tok lexer.Token) {
	f := b.top()
	if f == nil || f.kind == frameScalar {
		// Root-level or mid-scalar comma carries no meaning.
		return
	}
	switch f.phase {
	case phaseAfter:
		f.afterComma = true
		if f.kind == frameObject {
			f.phase = phaseKey
		} else {
			f.phase = phaseValue
		}
	case phaseValue, phaseKey:
		b.rec.Record(fault.StraySeparator, tok.Offset, "stray comma")
		f.afterComma = true
	case phaseColon:
		// The value for the pending key never came.
		b.rec.Record(fault.StraySeparator, tok.Offset, "comma where a value was expected")
		b.completeValue(value.NullValue())
		f.afterComma = true
	}
}

func (b *Builder) feedColon(tok lexer.Token) {
	f := b.top()
	if f != nil && f.kind == frameObject && f.phase == phaseColon {
		f.phase = phaseValue
		return
	}
	b.rec.Record(fault.StraySeparator, tok.Offset, "stray colon")
}

func (b *Builder) openContainer(nf *frame) {
	if f := b.top(); f != nil {
		switch f.kind {
		case frameObject:
			switch f.phase {
			case phaseKey:
				// A container cannot be a key. Skip it.
				b.rec.Record(fault.StraySeparator, 0, "container opened in key position")
				return
			case phaseColon:
				b.rec.Record(fault.StraySeparator, 0, "missing ':' before value")
				f.phase = phaseValue
			case phaseAfter:
				b.rec.Record(fault.MissingComma, 0, "missing comma before value")
				f.phase = phaseValue
			}
		case frameArray:
			if f.phase == phaseAfter {
				b.rec.Record(fault.MissingComma, 0, "missing comma before value")
				f.phase = phaseValue
			}
		case frameScalar:
			// A container token while a string streams: the string is
			// done as far as recovery is concerned.
			b.finishScalarAsValue()
		}
	}
	b.push(nf)
}

func (b *Builder) closeContainer(want frameKind, tok lexer.Token) {
	f := b.top()
	if f != nil && f.kind == frameScalar {
		b.finishScalarAsValue()
		f = b.top()
	}
	if f == nil {
		b.rec.Record(fault.MismatchedCloser, tok.Offset, "closer %s with nothing open", tok.Kind)
		return
	}
	if f.kind != want {
		// ']' where '}' was expected or vice versa: pop as if closed
		// correctly.
		b.rec.Record(fault.MismatchedCloser, tok.Offset, "closer %s for open %s", tok.Kind, kindName(f.kind))
	}
	if f.afterComma {
		b.rec.Record(fault.TrailingComma, tok.Offset, "trailing comma before closer")
	}
	if f.kind == frameObject && f.phase == phaseValue && f.pendingKey != nil {
		// Key with no value at close: drop the key.
		b.rec.Record(fault.StraySeparator, tok.Offset, "key %q closed without a value", *f.pendingKey)
		f.pendingKey = nil
	}
	b.pop()
	b.completeValue(frameValue(f))
}

func (b *Builder) finishScalarAsValue() {
	f := b.pop()
	text := f.str.String()
	if p := b.top(); p != nil && p.kind == frameObject {
		switch p.phase {
		case phaseKey, phaseAfter:
			b.acceptKey(p, text, false, lexer.Token{})
			return
		case phaseColon:
			p.phase = phaseValue
		}
	}
	b.completeValue(value.Str(text))
}

// completeValue routes a finished value into its parent frame, or to the
// root list when nothing is open.
func (b *Builder) completeValue(v *value.Value) {
	f := b.top()
	if f == nil {
		b.roots = append(b.roots, v)
		b.bump()
		return
	}
	switch f.kind {
	case frameArray:
		if f.phase == phaseAfter {
			b.rec.Record(fault.MissingComma, 0, "missing comma between array elements")
		}
		f.arr = append(f.arr, v)
		f.phase = phaseAfter
		f.afterComma = false
	case frameObject:
		if f.pendingKey == nil {
			// A value with no key; the nearest recoverable state is to
			// ignore it.
			b.rec.Record(fault.StraySeparator, 0, "value %s with no key", v.Describe())
			return
		}
		setMember(f, *f.pendingKey, v)
		f.pendingKey = nil
		f.phase = phaseAfter
		f.afterComma = false
	case frameScalar:
		// Cannot happen: scalars never parent other values.
	}
	b.bump()
}

func setMember(f *frame, key string, v *value.Value) {
	for i, m := range f.obj {
		if m.Key == key {
			f.obj[i].Val = v
			return
		}
	}
	f.obj = append(f.obj, value.Member{Key: key, Val: v})
}

func frameValue(f *frame) *value.Value {
	if f.kind == frameObject {
		return value.Obj(f.obj...)
	}
	return value.Arr(f.arr...)
}

// Snapshot reconstructs the best-effort root value, open frames included.
// Scalar frames surface their partial text; an object whose key is pending
// shows the key with an empty string value, matching how callers watch
// fields appear before their values settle.
func (b *Builder) Snapshot() *value.Value {
	if len(b.stack) == 0 {
		return b.rootValue()
	}
	return b.snapshotFrom(0)
}

func (b *Builder) snapshotFrom(i int) *value.Value {
	f := b.stack[i]
	last := i == len(b.stack)-1

	switch f.kind {
	case frameScalar:
		return value.Str(f.str.String())
	case frameArray:
		arr := append([]*value.Value(nil), f.arr...)
		if !last {
			arr = append(arr, b.snapshotFrom(i+1))
		}
		return value.Arr(arr...)
	case frameObject:
		obj := append([]value.Member(nil), f.obj...)
		v := value.Obj(obj...)
		if f.pendingKey != nil {
			if !last {
				v.Set(*f.pendingKey, b.snapshotFrom(i+1))
			} else {
				v.Set(*f.pendingKey, value.Str(""))
			}
		} else if !last {
			// The next frame is a key still streaming in; show it with
			// an empty value once it has content.
			if ks := b.stack[i+1]; ks.kind == frameScalar && ks.str.Len() > 0 {
				v.Set(ks.str.String(), value.Str(""))
			}
		}
		return v
	}
	return nil
}

func (b *Builder) rootValue() *value.Value {
	switch len(b.roots) {
	case 0:
		return nil
	case 1:
		return b.roots[0]
	}
	return value.Arr(b.roots...)
}

// Finish force-closes every open frame with its partial contents and
// returns the best-effort tree. Open frames are the soft-close case and
// are flagged as partial input.
func (b *Builder) Finish() *value.Value {
	if len(b.stack) > 0 {
		b.rec.Record(fault.PartialInput, 0, "%d structure(s) still open at end of input", len(b.stack))
	}
	for len(b.stack) > 0 {
		f := b.top()
		if f.kind == frameScalar {
			b.finishScalarAsValue()
			continue
		}
		if f.kind == frameObject && f.pendingKey != nil && f.phase == phaseValue {
			f.pendingKey = nil
		}
		b.pop()
		b.completeValue(frameValue(f))
	}
	return b.rootValue()
}

func kindName(k frameKind) string {
	switch k {
	case frameArray:
		return "array"
	case frameObject:
		return "object"
	}
	return "string"
}

func parseNumber(raw string) (*value.Value, bool) {
	cooked := raw
	if strings.HasPrefix(cooked, ".") {
		cooked = "0" + cooked
	} else if strings.HasPrefix(cooked, "-.") || strings.HasPrefix(cooked, "+.") {
		cooked = cooked[:1] + "0" + cooked[1:]
	}
	cooked = strings.TrimRight(cooked, "+-.eE")
	if cooked == "" {
		return nil, false
	}
	if strings.ContainsAny(cooked, ".eE") {
		f, err := strconv.ParseFloat(cooked, 64)
		if err != nil {
			return nil, false
		}
		return value.Float(f), true
	}
	n, err := strconv.ParseInt(cooked, 10, 64)
	if err != nil {
		return nil, false
	}
	return value.Num(n), true
}
