package engine

import "testing"

func TestNextDrawer(t *testing.T) {
	order := []string{"alice", "bob", "carol"}

	tests := []struct {
		name    string
		order   []string
		current string
		want    string
	}{
		{"empty order", nil, "alice", ""},
		{"unset current starts at head", order, "", "alice"},
		{"middle advances", order, "alice", "bob"},
		{"last wraps to head", order, "carol", "alice"},
		{"unknown current restarts", order, "ghost", "alice"},
		{"single drawer rotates onto itself", []string{"solo"}, "solo", "solo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NextDrawer(tt.order, tt.current); got != tt.want {
				t.Errorf("NextDrawer(%v, %q) = %q, want %q", tt.order, tt.current, got, tt.want)
			}
		})
	}
}

func TestNextDrawer_TotalCycle(t *testing.T) {
	order := []string{"a", "b", "c", "d", "e"}

	// Starting from any element (or unset), repeated application must visit
	// every id exactly once before repeating.
	starts := append([]string{""}, order...)
	for _, start := range starts {
		seen := make(map[string]int)
		current := start
		for i := 0; i < len(order); i++ {
			current = NextDrawer(order, current)
			seen[current]++
		}
		for _, id := range order {
			if seen[id] != 1 {
				t.Errorf("start %q: id %q visited %d times in one cycle", start, id, seen[id])
			}
		}
	}
}

func TestNextActivePlayer(t *testing.T) {
	tests := []struct {
		name    string
		active  []string
		current string
		want    string
	}{
		{"empty list", nil, "alice", ""},
		{"sole member is the winner sentinel", []string{"bob"}, "alice", "bob"},
		{"unset current starts at head", []string{"a", "b", "c"}, "", "a"},
		{"advances with wraparound", []string{"a", "b", "c"}, "c", "a"},
		{"middle advances", []string{"a", "b", "c"}, "a", "b"},
		{"eliminated current restarts from head", []string{"a", "b", "c"}, "zed", "a"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NextActivePlayer(tt.active, tt.current); got != tt.want {
				t.Errorf("NextActivePlayer(%v, %q) = %q, want %q", tt.active, tt.current, got, tt.want)
			}
		})
	}
}
