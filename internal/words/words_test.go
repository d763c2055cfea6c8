package words

import (
	"sync"
	"testing"
)

func TestPickNeverRepeatsExcluded(t *testing.T) {
	p := NewRandomPicker(1)

	prev := p.Pick("")
	for i := 0; i < 200; i++ {
		w := p.Pick(prev.ID)
		if w.ID == prev.ID {
			t.Fatalf("Pick(%q) returned the excluded word", prev.ID)
		}
		if w.Korean == "" || w.English == "" {
			t.Fatalf("Pick returned incomplete word %+v", w)
		}
		prev = w
	}
}

func TestPickConcurrent(t *testing.T) {
	// Rooms share one picker; concurrent start/next-round handlers must not
	// race on the generator.
	p := NewRandomPicker(1)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if w := p.Pick(""); w.ID == "" {
					t.Error("Pick returned empty word")
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestDefine(t *testing.T) {
	if gloss, ok := Define("Apple"); !ok || gloss == "" {
		t.Errorf("Define(%q) = %q, %v; want a gloss", "Apple", gloss, ok)
	}
	if _, ok := Define("zzzz"); ok {
		t.Errorf("Define(%q) unexpectedly found a gloss", "zzzz")
	}
}
