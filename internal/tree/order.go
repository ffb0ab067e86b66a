package tree

import "modhub/internal/model"

// orderStep leaves gaps between sibling order indexes so that, in principle,
// an insertion heuristic could slot between neighbors without renumbering.
// Reorders currently renumber the whole affected group anyway: simplicity
// over minimal-diff updates.
const orderStep = 10

// AllocateOrderIndexes assigns fresh order indexes to an already-reordered
// sibling sequence (position i gets (i+1)*10) and returns the (id, orderIndex)
// pairs the persistence call needs.
func AllocateOrderIndexes(ordered []*Node) []model.OrderUpdate {
	updates := make([]model.OrderUpdate, 0, len(ordered))
	for i, n := range ordered {
		n.OrderIndex = (i + 1) * orderStep
		updates = append(updates, model.OrderUpdate{NodeID: n.ID, OrderIndex: n.OrderIndex})
	}
	return updates
}

// NextOrderIndex returns the order index for appending to a sibling group.
func NextOrderIndex(sibs []*Node) int {
	if len(sibs) == 0 {
		return orderStep
	}
	return sibs[len(sibs)-1].OrderIndex + orderStep
}
