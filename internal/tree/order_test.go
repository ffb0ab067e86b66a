package tree

import (
	"reflect"
	"testing"

	"modhub/internal/model"
)

func TestAllocateOrderIndexes_RenumbersWholeGroup(t *testing.T) {
	tr := loadBilling(t)
	_, sibs := tr.FindParentAndSiblings(2)

	// Drag "Reports" to position 0: the whole group is renumbered to 10/20/30.
	reordered := []*Node{sibs[2], sibs[0], sibs[1]}
	updates := AllocateOrderIndexes(reordered)

	want := []model.OrderUpdate{
		{NodeID: 4, OrderIndex: 10},
		{NodeID: 2, OrderIndex: 20},
		{NodeID: 3, OrderIndex: 30},
	}
	if !reflect.DeepEqual(updates, want) {
		t.Fatalf("expected updates %v, got %v", want, updates)
	}
	for i, n := range reordered {
		if n.OrderIndex != (i+1)*10 {
			t.Fatalf("node %q: expected order index %d, got %d", n.Name, (i+1)*10, n.OrderIndex)
		}
	}
}

func TestAllocateOrderIndexes_EmptyGroup(t *testing.T) {
	if got := AllocateOrderIndexes(nil); len(got) != 0 {
		t.Fatalf("expected no updates for empty group, got %v", got)
	}
}

func TestNextOrderIndex_AppendsWithGap(t *testing.T) {
	tr := loadBilling(t)
	_, sibs := tr.FindParentAndSiblings(2)
	if got, want := NextOrderIndex(sibs), 40; got != want {
		t.Fatalf("expected next order index %d, got %d", want, got)
	}
	if got, want := NextOrderIndex(nil), 10; got != want {
		t.Fatalf("expected first order index %d, got %d", want, got)
	}
}
