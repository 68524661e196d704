package typestream

import (
	"errors"
	"fmt"

	"typestream/internal/bind"
	"typestream/internal/builder"
	"typestream/internal/fault"
	"typestream/internal/lexer"
	"typestream/internal/tagscan"
	"typestream/internal/value"
	"typestream/schema"
)

// DefaultIgnoredTags are the reasoning tags models commonly wrap around
// text that is not payload. Their whole subtree is dropped.
var DefaultIgnoredTags = []string{"think", "thinking", "system"}

var (
	ErrValidated = errors.New("typestream: parser already validated")
	ErrNoPayload = errors.New("typestream: no payload tag observed")
)

// Option configures a Parser at construction.
type Option func(*config)

type config struct {
	reg     schema.Registry
	ignored []string
}

// WithRegistry supplies the registry used to resolve nominal names and
// instantiate host objects. Default is a MapRegistry over the root
// descriptor.
func WithRegistry(reg schema.Registry) Option {
	return func(c *config) { c.reg = reg }
}

// WithIgnoredTags replaces the default ignored tag set.
func WithIgnoredTags(tags ...string) Option {
	return func(c *config) { c.ignored = tags }
}

// Parser is the streaming facade. It owns the incremental state for one
// extraction: tag scanner, lexer checkpoint, recovery-parser stack, and
// the materialized partial object. A Parser is not safe for concurrent
// Feed calls; the caller serializes them. Cancellation is dropping the
// parser.
type Parser struct {
	desc *schema.Descriptor
	reg  schema.Registry

	rec  *fault.Recorder
	scan *tagscan.Scanner
	lex  *lexer.Lexer
	bld  *builder.Builder
	bnd  *bind.Binder

	opened     bool
	complete   bool
	validated  bool
	activeDesc *schema.Descriptor
	finalTree  *value.Value

	lastVersion uint64
	snapshot    any
	updTarget   schema.Updatable
}

// New builds a parser for one root descriptor. Schema problems (unknown
// shapes, cycles not broken by Optional or a container, a root without a
// tag surface) are programming errors and surface here, not at feed time.
func New(desc *schema.Descriptor, opts ...Option) (*Parser, error) {
	if err := schema.Validate(desc); err != nil {
		return nil, err
	}
	cfg := config{ignored: DefaultIgnoredTags}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.reg == nil {
		cfg.reg = schema.NewMapRegistry(desc)
	}
	wanted := schema.RootTags(desc)
	if len(wanted) == 0 {
		return nil, fmt.Errorf("typestream: root descriptor %s has no tag surface", schema.Format(desc))
	}

	rec := &fault.Recorder{}
	p := &Parser{
		desc: desc,
		reg:  cfg.reg,
		rec:  rec,
		scan: tagscan.New(wanted, cfg.ignored, rec),
		bnd:  bind.New(cfg.reg, rec),
	}
	return p, nil
}

// Feed appends bytes to the stream and drives the pipeline until it needs
// more input. It returns the current best-effort typed snapshot: a
// partially populated object, a partially filled container, or nil when no
// payload tag has opened yet. Feed never fails on malformed payloads;
// malformations are recorded and, where recoverable, absorbed.
func (p *Parser) Feed(chunk []byte) (any, error) {
	if p.validated {
		return p.snapshot, ErrValidated
	}
	_ = p.scan.Feed(chunk, p.handle)
	p.refreshSnapshot()
	return p.snapshot, nil
}

func (p *Parser) handle(ev tagscan.Event) error {
	switch ev.Kind {
	case tagscan.Open:
		if p.complete || p.opened {
			return nil
		}
		p.opened = true
		p.activeDesc = p.resolveRoot(ev.Name)
		p.lex = lexer.New(p.rec)
		p.bld = builder.New(p.rec)
	case tagscan.Payload:
		if !p.opened || p.complete {
			return nil
		}
		p.lex.Feed(ev.Bytes)
		p.drain()
	case tagscan.Close:
		if !p.opened || p.complete {
			return nil
		}
		p.drain()
		for _, tok := range p.lex.Finish() {
			p.bld.Feed(tok)
		}
		p.finalTree = p.bld.Finish()
		p.complete = true
	case tagscan.SoftClose:
		if !p.opened || p.complete {
			return nil
		}
		p.drain()
		for _, tok := range p.lex.Finish() {
			p.bld.Feed(tok)
		}
		p.finalTree = p.bld.Finish()
	}
	return nil
}

func (p *Parser) drain() {
	for {
		tok, ok := p.lex.Next()
		if !ok {
			return
		}
		p.bld.Feed(tok)
	}
}

// resolveRoot picks the descriptor the opened tag stands for: the union
// variant selected by tag name, or the root descriptor itself.
func (p *Parser) resolveRoot(tag string) *schema.Descriptor {
	d := p.desc
	for d.Kind == schema.KindOptional {
		d = d.Elem
	}
	if d.Kind == schema.KindUnion {
		if v := schema.VariantByTag(d, tag); v != nil {
			return v
		}
	}
	return p.desc
}

// refreshSnapshot re-binds the partial tree when the builder moved. The
// version counter suppresses no-op work; binding errors on still-growing
// structures are held and retried on the next call.
func (p *Parser) refreshSnapshot() {
	if p.bld == nil {
		return
	}
	v := p.bld.Version()
	if v == p.lastVersion {
		return
	}
	p.lastVersion = v

	tree := p.finalTree
	if tree == nil {
		tree = p.bld.Snapshot()
	}
	if tree == nil {
		return
	}

	active := p.activeDesc
	if p.updTarget != nil && classOf(active) != nil {
		if fields, err := p.bnd.BindFields(tree, classOf(active), true); err == nil {
			if err := p.updTarget.Update(fields); err == nil {
				return
			}
		}
	}
	snap, err := p.bnd.BindPartial(tree, active)
	if err != nil {
		return
	}
	p.snapshot = snap
	if upd, ok := snap.(schema.Updatable); ok {
		p.updTarget = upd
	}
}

func classOf(d *schema.Descriptor) *schema.Descriptor {
	for d != nil && d.Kind == schema.KindOptional {
		d = d.Elem
	}
	if d != nil && d.Kind == schema.KindClass {
		return d
	}
	return nil
}

// Validate signals end of input: open structures are soft-closed, the
// binder runs once more in strict mode, and the final typed value is
// returned. Unresolved fatal faults and binding errors surface here and
// only here.
func (p *Parser) Validate() (any, error) {
	if p.validated {
		return p.snapshot, ErrValidated
	}
	p.validated = true

	_ = p.scan.Finish(p.handle)
	if !p.opened {
		return nil, ErrNoPayload
	}
	tree := p.finalTree
	if tree == nil {
		tree = p.bld.Finish()
		p.finalTree = tree
	}

	if f, ok := p.rec.FirstFatal(); ok {
		return nil, f
	}
	out, err := p.bnd.Bind(tree, p.activeDesc)
	if err != nil {
		var flt fault.Fault
		if errors.As(err, &flt) {
			p.rec.Record(flt.Kind, flt.Offset, "%s", flt.Message)
		} else {
			p.rec.Record(fault.Incompatible, 0, "%s", err.Error())
		}
		return nil, err
	}
	p.snapshot = out
	return out, nil
}

// IsComplete reports whether the matching close tag for the root has been
// observed.
func (p *Parser) IsComplete() bool { return p.complete }

// Version reports the parse-state mutation counter. It increases whenever
// the value tree grows, so callers relaying snapshots can suppress no-op
// notifications.
func (p *Parser) Version() uint64 {
	if p.bld == nil {
		return 0
	}
	return p.bld.Version()
}

// Snapshot returns the most recent best-effort typed value without feeding.
func (p *Parser) Snapshot() any { return p.snapshot }

// Faults returns the malformation records accumulated so far, in arrival
// order.
func (p *Parser) Faults() []Fault { return p.rec.Faults() }
