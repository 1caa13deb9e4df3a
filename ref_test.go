// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package weakref_test

import (
	"reflect"
	"testing"

	"code.hybscloud.com/weakref"
	"code.hybscloud.com/weakref/epoch"
)

func TestLiveRefGet(t *testing.T) {
	skipRace(t)
	o := weakref.New(42)
	r := o.Ref()

	g := weakref.Pin()
	defer g.Unpin()
	v, ok := r.Get(&g)
	if !ok {
		t.Fatal("live ref reported dead")
	}
	if *v != 42 {
		t.Fatalf("got %d, want 42", *v)
	}
}

func TestDeadRefGet(t *testing.T) {
	skipRace(t)
	o := weakref.New(42)
	r := o.Ref()
	o.Drop()

	g := weakref.Pin()
	defer g.Unpin()
	if _, ok := r.Get(&g); ok {
		t.Fatal("dead ref reported alive")
	}
}

func TestViewOutlivesDropUnderPin(t *testing.T) {
	skipRace(t)
	cleaned := false
	o := weakref.New("alive")
	o.OnDrop(func(*string) { cleaned = true })
	r := o.Ref()

	g := weakref.Pin()
	v, ok := r.Get(&g)
	if !ok {
		t.Fatal("live ref reported dead")
	}

	o.Drop()

	// The guard validated before the drop, so the cleanup stays deferred
	// and the view stays valid.
	if cleaned {
		t.Fatal("cleanup ran while a validating guard was pinned")
	}
	if *v != "alive" {
		t.Fatalf("got %q, want %q", *v, "alive")
	}

	g.Unpin()
	epoch.Advance()
	if !cleaned {
		t.Fatal("cleanup did not run after the last guard unpinned")
	}
}

func TestSliceScenario(t *testing.T) {
	skipRace(t)
	o := weakref.New([]int{1, 2, 3})
	r := o.Ref()

	g := weakref.Pin()
	v, ok := r.Get(&g)
	if !ok || !reflect.DeepEqual(*v, []int{1, 2, 3}) {
		t.Fatalf("got %v, %v; want [1 2 3], true", v, ok)
	}
	g.Unpin()

	o.Drop()

	g = weakref.Pin()
	defer g.Unpin()
	if _, ok := r.Get(&g); ok {
		t.Fatal("ref alive after drop")
	}
}

func TestProjectField(t *testing.T) {
	skipRace(t)
	type point struct{ X, Y int }
	o := weakref.New(point{X: 1, Y: 2})
	src := o.Ref()
	proj := weakref.Map(src, func(p *point) *int { return &p.Y })

	g := weakref.Pin()
	y, ok := proj.Get(&g)
	if !ok || *y != 2 {
		t.Fatalf("projected got %v, %v; want 2, true", y, ok)
	}
	if src.Alive(&g) != proj.Alive(&g) {
		t.Fatal("projection and source disagree on liveness")
	}
	g.Unpin()

	o.Drop()

	g = weakref.Pin()
	defer g.Unpin()
	if proj.Alive(&g) {
		t.Fatal("projection alive after drop")
	}
	if src.Alive(&g) != proj.Alive(&g) {
		t.Fatal("projection and source disagree after drop")
	}
}

func TestProjectElement(t *testing.T) {
	skipRace(t)
	o := weakref.New([]int{1, 2, 3})
	elem := weakref.Map(o.Ref(), func(s *[]int) *int { return &(*s)[2] })

	g := weakref.Pin()
	v, ok := elem.Get(&g)
	if !ok || *v != 3 {
		t.Fatalf("projected got %v, %v; want 3, true", v, ok)
	}
	g.Unpin()

	o.Drop()

	g = weakref.Pin()
	defer g.Unpin()
	if elem.Alive(&g) {
		t.Fatal("projected element alive after drop")
	}
}

func TestFilterMapDeclined(t *testing.T) {
	skipRace(t)
	o := weakref.New([]int{1, 2, 3})
	defer o.Drop()
	elem := weakref.FilterMap(o.Ref(), func(s *[]int) (*int, bool) {
		if len(*s) > 100 {
			return &(*s)[100], true
		}
		return nil, false
	})

	g := weakref.Pin()
	defer g.Unpin()
	if elem.Alive(&g) {
		t.Fatal("declined projection reported alive")
	}
}

func TestNullRef(t *testing.T) {
	g := weakref.Pin()
	defer g.Unpin()
	if weakref.Null[int]().Alive(&g) {
		t.Fatal("null ref reported alive")
	}
	var zero weakref.Ref[int]
	if zero.Alive(&g) {
		t.Fatal("zero ref reported alive")
	}
}

func TestCopiesAgree(t *testing.T) {
	skipRace(t)
	o := weakref.New("shared")
	var refs [8]weakref.Ref[string]
	for i := range refs {
		refs[i] = o.Ref()
	}

	g := weakref.Pin()
	for i := range refs {
		if !refs[i].Alive(&g) {
			t.Fatal("copy dead while owner alive")
		}
	}
	g.Unpin()

	o.Drop()

	g = weakref.Pin()
	defer g.Unpin()
	for i := range refs {
		if refs[i].Alive(&g) {
			t.Fatal("copy alive after drop")
		}
	}
}

func TestInspect(t *testing.T) {
	skipRace(t)
	o := weakref.New(7)
	r := o.Ref()

	got := 0
	if !r.Inspect(func(v *int) { got = *v }) {
		t.Fatal("inspect on a live ref did not run")
	}
	if got != 7 {
		t.Fatalf("inspected %d, want 7", got)
	}

	o.Drop()
	if r.Inspect(func(*int) { t.Error("inspect ran on a dead ref") }) {
		t.Fatal("inspect reported alive after drop")
	}
}

func TestReuseInvalidates(t *testing.T) {
	skipRace(t)
	o := weakref.New(42)
	r := o.Ref()
	o2 := weakref.Replace(o, 43)
	defer o2.Drop()

	g := weakref.Pin()
	defer g.Unpin()
	if r.Alive(&g) {
		t.Fatal("stale ref alive after slot reuse")
	}
	v, ok := o2.Ref().Get(&g)
	if !ok || *v != 43 {
		t.Fatalf("replacement got %v, %v; want 43, true", v, ok)
	}
}

func TestUnpinnedAccessPanics(t *testing.T) {
	o := weakref.New(1)
	defer o.Drop()
	r := o.Ref()

	g := weakref.Pin()
	g.Unpin()
	defer func() {
		if recover() == nil {
			t.Fatal("access with an unpinned guard did not panic")
		}
	}()
	r.Get(&g)
}
