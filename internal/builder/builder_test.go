package builder

import (
	"testing"

	"typestream/internal/fault"
	"typestream/internal/lexer"
	"typestream/internal/value"
)

func run(t *testing.T, rec *fault.Recorder, payload string) *value.Value {
	t.Helper()
	l := lexer.New(rec)
	b := New(rec)
	l.Feed([]byte(payload))
	for {
		tok, ok := l.Next()
		if !ok {
			break
		}
		b.Feed(tok)
	}
	for _, tok := range l.Finish() {
		b.Feed(tok)
	}
	return b.Finish()
}

func faultKinds(rec *fault.Recorder) map[fault.Kind]int {
	out := map[fault.Kind]int{}
	for _, f := range rec.Faults() {
		out[f.Kind]++
	}
	return out
}

func TestWellFormedObjectNoWarnings(t *testing.T) {
	rec := &fault.Recorder{}
	got := run(t, rec, `{"name": "Alice", "age": 30, "tags": ["a", "b"]}`)

	want := value.Obj(
		value.Member{Key: "name", Val: value.Str("Alice")},
		value.Member{Key: "age", Val: value.Num(30)},
		value.Member{Key: "tags", Val: value.Arr(value.Str("a"), value.Str("b"))},
	)
	if !value.Equal(got, want) {
		t.Fatalf("got %s", got.Describe())
	}
	// Recovery idempotence: a clean payload records nothing.
	if n := len(rec.Faults()); n != 0 {
		t.Fatalf("expected no faults, got %v", rec.Faults())
	}
}

func TestTrailingComma(t *testing.T) {
	rec := &fault.Recorder{}
	got := run(t, rec, `{"a": [1, 2,], "b": 3,}`)

	want := value.Obj(
		value.Member{Key: "a", Val: value.Arr(value.Num(1), value.Num(2))},
		value.Member{Key: "b", Val: value.Num(3)},
	)
	if !value.Equal(got, want) {
		t.Fatalf("got %s", got.Describe())
	}
	if faultKinds(rec)[fault.TrailingComma] != 2 {
		t.Fatalf("faults = %v", rec.Faults())
	}
}

func TestMissingComma(t *testing.T) {
	rec := &fault.Recorder{}
	got := run(t, rec, `{"a": 1 "b": 2}`)

	want := value.Obj(
		value.Member{Key: "a", Val: value.Num(1)},
		value.Member{Key: "b", Val: value.Num(2)},
	)
	if !value.Equal(got, want) {
		t.Fatalf("got %s", got.Describe())
	}
	if faultKinds(rec)[fault.MissingComma] == 0 {
		t.Fatalf("faults = %v", rec.Faults())
	}
}

func TestMissingCommaInArray(t *testing.T) {
	rec := &fault.Recorder{}
	got := run(t, rec, `[1 2 3]`)
	want := value.Arr(value.Num(1), value.Num(2), value.Num(3))
	if !value.Equal(got, want) {
		t.Fatalf("got %s", got.Describe())
	}
	if faultKinds(rec)[fault.MissingComma] != 2 {
		t.Fatalf("faults = %v", rec.Faults())
	}
}

func TestUnquotedKeyAndValue(t *testing.T) {
	rec := &fault.Recorder{}
	got := run(t, rec, `{name: Alice, ok: yes}`)

	want := value.Obj(
		value.Member{Key: "name", Val: value.Str("Alice")},
		value.Member{Key: "ok", Val: value.Str("yes")},
	)
	if !value.Equal(got, want) {
		t.Fatalf("got %s", got.Describe())
	}
	ks := faultKinds(rec)
	if ks[fault.UnquotedKey] != 2 || ks[fault.UnquotedValue] != 2 {
		t.Fatalf("faults = %v", rec.Faults())
	}
}

func TestMismatchedCloser(t *testing.T) {
	rec := &fault.Recorder{}
	got := run(t, rec, `{"name": "A", "age": 1]`)

	want := value.Obj(
		value.Member{Key: "name", Val: value.Str("A")},
		value.Member{Key: "age", Val: value.Num(1)},
	)
	if !value.Equal(got, want) {
		t.Fatalf("got %s", got.Describe())
	}
	if faultKinds(rec)[fault.MismatchedCloser] != 1 {
		t.Fatalf("faults = %v", rec.Faults())
	}
}

func TestStraySeparatorAtStart(t *testing.T) {
	rec := &fault.Recorder{}
	got := run(t, rec, `[, 1, 2]`)
	want := value.Arr(value.Num(1), value.Num(2))
	if !value.Equal(got, want) {
		t.Fatalf("got %s", got.Describe())
	}
	if faultKinds(rec)[fault.StraySeparator] == 0 {
		t.Fatalf("faults = %v", rec.Faults())
	}
}

func TestKeywordValues(t *testing.T) {
	rec := &fault.Recorder{}
	got := run(t, rec, `{"a": true, "b": false, "c": null}`)
	want := value.Obj(
		value.Member{Key: "a", Val: value.Boolean(true)},
		value.Member{Key: "b", Val: value.Boolean(false)},
		value.Member{Key: "c", Val: value.NullValue()},
	)
	if !value.Equal(got, want) {
		t.Fatalf("got %s", got.Describe())
	}
}

func TestBareScalarRoot(t *testing.T) {
	rec := &fault.Recorder{}
	got := run(t, rec, ` 42 `)
	if !value.Equal(got, value.Num(42)) {
		t.Fatalf("got %s", got.Describe())
	}
}

func TestSoftCloseOpenStructures(t *testing.T) {
	rec := &fault.Recorder{}
	got := run(t, rec, `{"name": "Alice", "pets": ["cat"`)

	want := value.Obj(
		value.Member{Key: "name", Val: value.Str("Alice")},
		value.Member{Key: "pets", Val: value.Arr(value.Str("cat"))},
	)
	if !value.Equal(got, want) {
		t.Fatalf("got %s", got.Describe())
	}
	if faultKinds(rec)[fault.PartialInput] != 1 {
		t.Fatalf("faults = %v", rec.Faults())
	}
}

func TestSnapshotGrowth(t *testing.T) {
	rec := &fault.Recorder{}
	l := lexer.New(rec)
	b := New(rec)

	feed := func(s string) {
		l.Feed([]byte(s))
		for {
			tok, ok := l.Next()
			if !ok {
				break
			}
			b.Feed(tok)
		}
	}

	feed(`{"name": "Ali`)
	snap := b.Snapshot()
	if v, ok := snap.Get("name"); !ok || v.Str != "Ali" {
		t.Fatalf("snapshot = %s", snap.Describe())
	}
	v1 := b.Version()

	feed(`ce", "age": 3`)
	snap = b.Snapshot()
	if v, ok := snap.Get("name"); !ok || v.Str != "Alice" {
		t.Fatalf("snapshot = %s", snap.Describe())
	}
	if b.Version() == v1 {
		t.Fatal("version did not advance")
	}

	feed(`0}`)
	snap = b.Snapshot()
	if v, ok := snap.Get("age"); !ok || v.Int != 30 {
		t.Fatalf("snapshot = %s", snap.Describe())
	}
}

func TestVersionStableWithoutInput(t *testing.T) {
	rec := &fault.Recorder{}
	b := New(rec)
	v := b.Version()
	if b.Version() != v {
		t.Fatal("version moved with no input")
	}
}
