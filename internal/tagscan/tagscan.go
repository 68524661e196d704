// Package tagscan locates payload tag regions in a byte stream. It is a
// push-driven state machine: callers feed arbitrarily split chunks and
// receive open / payload / close events for the tags they asked for, while
// prose and incidental angle-bracketed text outside a payload region is
// discarded.
package tagscan

import (
	"bytes"
	"strings"

	"typestream/internal/fault"
)

type EventKind int

const (
	// Open reports an opening payload tag; Name carries the tag name in
	// its original case.
	Open EventKind = iota
	// Payload carries raw bytes from a tag interior.
	Payload
	// Close reports the matching close of the current open tag.
	Close
	// SoftClose is emitted by Finish when input ends inside a tag.
	SoftClose
)

type Event struct {
	Kind  EventKind
	Name  string
	Bytes []byte
}

type state int

const (
	stateOutside state = iota
	stateTag     // between '<' and '>'
	stateInside
)

// Scanner is the tag-region state machine. Tag filtering is
// case-insensitive; emitted names keep their original case.
type Scanner struct {
	wanted  map[string]bool
	ignored map[string]bool

	state  state
	tagBuf []byte // in-flight '<...' not yet terminated by '>'

	inside       bool
	openName     string // original case of the current open tag
	sameDepth    int    // nested same-name opens inside the region
	ignoredDepth int

	offset int // absolute bytes consumed, for fault records

	rec *fault.Recorder
}

// New builds a scanner. wanted names select the payload tags to surface;
// ignored names select subtrees to drop entirely (LLM reasoning tags and
// the like).
func New(wanted, ignored []string, rec *fault.Recorder) *Scanner {
	s := &Scanner{
		wanted:  make(map[string]bool, len(wanted)),
		ignored: make(map[string]bool, len(ignored)),
		rec:     rec,
	}
	for _, w := range wanted {
		s.wanted[strings.ToLower(w)] = true
	}
	for _, ig := range ignored {
		s.ignored[strings.ToLower(ig)] = true
	}
	return s
}

// Feed consumes one chunk, emitting events as regions resolve. Incomplete
// tags stay buffered for the next call; Feed never blocks waiting for more
// input.
func (s *Scanner) Feed(chunk []byte, emit func(Event) error) error {
	for _, b := range chunk {
		s.offset++
		if err := s.step(b, emit); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scanner) step(b byte, emit func(Event) error) error {
	switch s.state {
	case stateOutside, stateInside:
		if b == '<' {
			s.tagBuf = append(s.tagBuf[:0], '<')
			s.state = stateTag
			return nil
		}
		if s.state == stateInside && !s.dropping() {
			return emit(Event{Kind: Payload, Bytes: []byte{b}})
		}
		return nil

	case stateTag:
		if len(s.tagBuf) == 1 && !nameStart(b) && b != '/' {
			// '<' not followed by an identifier start: not a tag.
			return s.abortTag(b, emit)
		}
		if b == '<' {
			// A fresh '<' supersedes the half tag; what came before was
			// ordinary text.
			if err := s.flushTagAsPayload(emit); err != nil {
				return err
			}
			s.tagBuf = append(s.tagBuf[:0], '<')
			return nil
		}
		s.tagBuf = append(s.tagBuf, b)
		if b == '>' {
			return s.resolveTag(emit)
		}
		return nil
	}
	return nil
}

func (s *Scanner) dropping() bool {
	return s.ignoredDepth > 0
}

// abortTag handles a '<' that turned out not to open a tag.
func (s *Scanner) abortTag(b byte, emit func(Event) error) error {
	s.state = s.prevState()
	if s.state == stateInside && !s.dropping() {
		if err := emit(Event{Kind: Payload, Bytes: []byte{'<'}}); err != nil {
			return err
		}
	}
	s.tagBuf = s.tagBuf[:0]
	return s.step(b, emit)
}

func (s *Scanner) flushTagAsPayload(emit func(Event) error) error {
	if s.prevState() == stateInside && !s.dropping() && len(s.tagBuf) > 0 {
		if err := emit(Event{Kind: Payload, Bytes: append([]byte(nil), s.tagBuf...)}); err != nil {
			return err
		}
	}
	s.tagBuf = s.tagBuf[:0]
	return nil
}

func (s *Scanner) prevState() state {
	if s.inside {
		return stateInside
	}
	return stateOutside
}

func (s *Scanner) resolveTag(emit func(Event) error) error {
	raw := append([]byte(nil), s.tagBuf...)
	s.tagBuf = s.tagBuf[:0]
	s.state = s.prevState()

	body := raw[1 : len(raw)-1]
	isClose := len(body) > 0 && body[0] == '/'
	if isClose {
		body = body[1:]
	}
	name := firstWord(body)
	if name == "" {
		return s.passThrough(raw, emit)
	}
	lower := strings.ToLower(name)

	// Ignored subtrees swallow everything, wanted tags included.
	if s.dropping() {
		if s.ignored[lower] {
			if isClose {
				s.ignoredDepth--
			} else {
				s.ignoredDepth++
			}
		}
		return nil
	}
	if s.ignored[lower] && !isClose {
		s.ignoredDepth = 1
		return nil
	}
	if s.ignored[lower] && isClose {
		// Stray close of an ignored tag outside its subtree: drop it.
		return nil
	}

	if s.inside {
		openLower := strings.ToLower(s.openName)
		if lower == openLower {
			if isClose {
				if s.sameDepth > 0 {
					s.sameDepth--
					return s.passThrough(raw, emit)
				}
				s.inside = false
				s.state = stateOutside
				return emit(Event{Kind: Close, Name: name})
			}
			s.sameDepth++
			return s.passThrough(raw, emit)
		}
		// Nested non-matching tag: the recovery parser decides whether
		// it means anything.
		return s.passThrough(raw, emit)
	}

	// Outside a region.
	if isClose {
		if s.wanted[lower] {
			s.rec.Record(fault.UnmatchedClose, s.offset, "close tag </%s> with no open", name)
		}
		return nil
	}
	if s.wanted[lower] {
		s.inside = true
		s.state = stateInside
		s.openName = name
		s.sameDepth = 0
		return emit(Event{Kind: Open, Name: name})
	}
	// Prose tag: discarded.
	return nil
}

func (s *Scanner) passThrough(raw []byte, emit func(Event) error) error {
	if s.inside && !s.dropping() {
		return emit(Event{Kind: Payload, Bytes: raw})
	}
	return nil
}

// Inside reports whether the scanner is currently within an open payload
// region.
func (s *Scanner) Inside() bool { return s.inside }

// Offset reports the absolute number of bytes consumed.
func (s *Scanner) Offset() int { return s.offset }

// Finish signals end of input. While inside a region, any pending half tag
// is surfaced as payload and a soft close is emitted so the consumer can
// force-close open structures. Outside a region it is a no-op.
func (s *Scanner) Finish(emit func(Event) error) error {
	if s.state == stateTag {
		if err := s.flushTagAsPayload(emit); err != nil {
			return err
		}
		s.state = s.prevState()
	}
	if s.inside {
		s.inside = false
		s.state = stateOutside
		return emit(Event{Kind: SoftClose, Name: s.openName})
	}
	return nil
}

func firstWord(body []byte) string {
	body = bytes.TrimSpace(body)
	for i, b := range body {
		if b == ' ' || b == '\t' || b == '\n' || b == '\r' {
			return string(body[:i])
		}
	}
	return string(body)
}

func nameStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
