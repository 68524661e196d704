package value

import "testing"

func TestGetLastDuplicateWins(t *testing.T) {
	v := Obj(
		Member{Key: "a", Val: Num(1)},
		Member{Key: "a", Val: Num(2)},
	)
	got, ok := v.Get("a")
	if !ok || got.Int != 2 {
		t.Fatalf("got %v ok=%v", got, ok)
	}
}

func TestSetPreservesOrder(t *testing.T) {
	v := Obj()
	v.Set("x", Num(1))
	v.Set("y", Num(2))
	v.Set("x", Num(3))
	if len(v.Obj) != 2 || v.Obj[0].Key != "x" || v.Obj[0].Val.Int != 3 {
		t.Fatalf("obj = %s", v.Describe())
	}
}

func TestNative(t *testing.T) {
	v := Obj(
		Member{Key: "s", Val: Str("x")},
		Member{Key: "n", Val: Arr(Num(1), Float(2.5), Boolean(true), NullValue())},
	)
	got := v.Native().(map[string]any)
	if got["s"] != "x" {
		t.Fatalf("native = %#v", got)
	}
	arr := got["n"].([]any)
	if arr[0] != int64(1) || arr[1] != 2.5 || arr[2] != true || arr[3] != nil {
		t.Fatalf("native arr = %#v", arr)
	}
}

func TestEqualIgnoresMemberOrder(t *testing.T) {
	a := Obj(
		Member{Key: "x", Val: Num(1)},
		Member{Key: "y", Val: Num(2)},
	)
	b := Obj(
		Member{Key: "y", Val: Num(2)},
		Member{Key: "x", Val: Num(1)},
	)
	if !Equal(a, b) {
		t.Fatal("expected equal")
	}
	if Equal(a, Obj(Member{Key: "x", Val: Num(1)})) {
		t.Fatal("expected unequal")
	}
}

func TestDescribe(t *testing.T) {
	v := Obj(Member{Key: "a", Val: Arr(Str("x"), Num(1))})
	if got := v.Describe(); got != `{"a": ["x", 1]}` {
		t.Fatalf("describe = %q", got)
	}
}
