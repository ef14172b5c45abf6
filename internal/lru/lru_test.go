package lru

import "testing"

func TestList_New(t *testing.T) {
	l := New[int]()
	if l.Len() != 0 {
		t.Errorf("new list should be empty, got len=%d", l.Len())
	}
}

func TestList_PushFront(t *testing.T) {
	l := New[int]()

	node1 := l.PushFront(1)
	if l.Len() != 1 {
		t.Errorf("expected len=1, got %d", l.Len())
	}
	if node1.Key() != 1 {
		t.Errorf("expected key=1, got %d", node1.Key())
	}
	if l.head != node1 || l.tail != node1 {
		t.Error("single node should be both head and tail")
	}

	node2 := l.PushFront(2)
	if l.head != node2 {
		t.Error("node2 should be head")
	}
	if l.tail != node1 {
		t.Error("node1 should be tail")
	}
}

func TestList_MoveToFront(t *testing.T) {
	l := New[int]()
	node1 := l.PushFront(1)
	node2 := l.PushFront(2)
	node3 := l.PushFront(3)

	// Order is now: 3 -> 2 -> 1

	l.MoveToFront(node1)
	if l.head != node1 {
		t.Error("node1 should be head after MoveToFront")
	}
	if l.tail != node2 {
		t.Error("node2 should be tail after MoveToFront")
	}
	if l.Len() != 3 {
		t.Errorf("len should be 3, got %d", l.Len())
	}

	// Moving head is a no-op
	l.MoveToFront(node1)
	if l.head != node1 || l.Len() != 3 {
		t.Error("moving head should not change the list")
	}

	// nil must not panic
	l.MoveToFront(nil)
	_ = node3
}

func TestList_RemoveOldest(t *testing.T) {
	l := New[int]()
	for i := 1; i <= 3; i++ {
		l.PushFront(i)
	}

	// Order: 3 -> 2 -> 1; oldest is 1
	key, ok := l.RemoveOldest()
	if !ok || key != 1 {
		t.Errorf("expected oldest=1, got %d (ok=%v)", key, ok)
	}
	key, ok = l.RemoveOldest()
	if !ok || key != 2 {
		t.Errorf("expected oldest=2, got %d (ok=%v)", key, ok)
	}
	if l.Len() != 1 {
		t.Errorf("expected len=1, got %d", l.Len())
	}
}

func TestList_RemoveOldest_Empty(t *testing.T) {
	l := New[string]()
	key, ok := l.RemoveOldest()
	if ok || key != "" {
		t.Errorf("empty list should return zero value, got %q (ok=%v)", key, ok)
	}
}

func TestList_Remove(t *testing.T) {
	l := New[int]()
	l.PushFront(1)
	node2 := l.PushFront(2)
	l.PushFront(3)

	l.Remove(node2)
	if l.Len() != 2 {
		t.Errorf("expected len=2, got %d", l.Len())
	}
	if key, _ := l.Oldest(); key != 1 {
		t.Errorf("expected oldest=1, got %d", key)
	}
}

func TestList_Clear(t *testing.T) {
	l := New[int]()
	for i := 0; i < 5; i++ {
		l.PushFront(i)
	}
	l.Clear()
	if l.Len() != 0 {
		t.Errorf("expected empty list after Clear, got len=%d", l.Len())
	}
	if _, ok := l.Oldest(); ok {
		t.Error("cleared list should have no oldest")
	}
}
