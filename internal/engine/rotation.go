package engine

// Turn rotation is pure: next-actor selection is computed from the ordered
// player lists alone, never from clock or store state.

// NextDrawer returns the drawer following current in the fixed drawer order.
//
// Rules:
//   - empty order → "" (no drawer can exist)
//   - current unset → order[0]
//   - current not found, or current is last → order[0] (wraps)
//   - otherwise → the element after current
//
// Repeated application from any starting point visits every id exactly once
// per full cycle.
func NextDrawer(order []string, current string) string {
	if len(order) == 0 {
		return ""
	}
	if current == "" {
		return order[0]
	}
	for i, id := range order {
		if id == current {
			if i == len(order)-1 {
				return order[0]
			}
			return order[i+1]
		}
	}
	return order[0]
}

// NextActivePlayer returns the active player whose turn follows current.
//
// With one or zero active players the rotation collapses: the sole member
// (the winner sentinel) or "" is returned. An unset or already-eliminated
// current restarts from the head of the list.
func NextActivePlayer(active []string, current string) string {
	if len(active) == 0 {
		return ""
	}
	if len(active) == 1 {
		return active[0]
	}
	if current == "" {
		return active[0]
	}
	for i, id := range active {
		if id == current {
			return active[(i+1)%len(active)]
		}
	}
	return active[0]
}
