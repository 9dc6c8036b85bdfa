package engine

import (
	"testing"

	"murkdown/internal/block"
)

func TestStatePushPopTopDrainSwap(t *testing.T) {
	s := NewState(nil)
	if _, ok := s.top("indent"); ok {
		t.Fatalf("top of empty stack should report ok=false")
	}
	s.push("indent", "  ")
	s.push("indent", "    ")
	v, ok := s.top("indent")
	if !ok || v != "    " {
		t.Fatalf("want top %q, got %q ok=%v", "    ", v, ok)
	}
	s.pop("indent")
	v, _ = s.top("indent")
	if v != "  " {
		t.Fatalf("want %q after pop, got %q", "  ", v)
	}
	s.pop("indent")
	s.pop("indent") // no-op on empty, per spec §9 open question 2
	if _, ok := s.top("indent"); ok {
		t.Fatalf("want empty stack after popping past empty")
	}

	s.push("class", "a")
	s.push("class", "b")
	s.push("class", "c")
	s.swap("class")
	got := s.Stacks["class"]
	want := []string{"a", "c", "b"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("swap: want %v, got %v", want, got)
		}
	}

	s.drain("class")
	if len(s.Stacks["class"]) != 0 {
		t.Fatalf("want drained stack empty, got %v", s.Stacks["class"])
	}

	s.swap("empty") // no-op below size 2
}

func TestNewScratchSeedsFromProps(t *testing.T) {
	props := block.NewProps()
	props.Set("language", "python")
	props.Set("id", "f")
	scratch := NewScratch(props)
	if scratch["language"] != "python" || scratch["id"] != "f" {
		t.Fatalf("want scratch seeded from props, got %v", scratch)
	}

	empty := NewScratch(nil)
	if len(empty) != 0 {
		t.Fatalf("want empty scratch for nil props, got %v", empty)
	}
}
