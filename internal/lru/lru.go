// Package lru provides the recency list shared by the renderer caches.
//
// The font cache, the shaping cache, and the glyph atlas all need O(1)
// least-recently-used eviction; they embed a List keyed by their own
// cache key types.
package lru

// Node is a node in a doubly-linked recency list.
// The node stores a key for O(1) deletion from the owning map.
type Node[K comparable] struct {
	key  K
	prev *Node[K]
	next *Node[K]
}

// Key returns the key stored in the node.
func (n *Node[K]) Key() K { return n.key }

// List is a doubly-linked list ordered by recency of use.
// The list is not thread-safe; callers must handle synchronization.
//
// The head is the most recently used, tail is least recently used.
type List[K comparable] struct {
	head *Node[K]
	tail *Node[K]
	len  int
}

// New creates an empty recency list.
func New[K comparable]() *List[K] {
	return &List[K]{}
}

// Len returns the number of nodes in the list.
func (l *List[K]) Len() int {
	return l.len
}

// PushFront adds a new node at the front (most recently used).
// Returns the created node for later access.
func (l *List[K]) PushFront(key K) *Node[K] {
	node := &Node[K]{key: key}
	if l.head == nil {
		l.head = node
		l.tail = node
	} else {
		node.next = l.head
		l.head.prev = node
		l.head = node
	}
	l.len++
	return node
}

// MoveToFront moves an existing node to the front (most recently used).
func (l *List[K]) MoveToFront(node *Node[K]) {
	if node == nil || node == l.head {
		return
	}

	l.unlink(node)

	node.prev = nil
	node.next = l.head
	if l.head != nil {
		l.head.prev = node
	}
	l.head = node
	if l.tail == nil {
		l.tail = node
	}
	l.len++
}

// Remove removes a node from the list.
func (l *List[K]) Remove(node *Node[K]) {
	if node == nil {
		return
	}
	l.unlink(node)
}

// RemoveOldest removes and returns the key of the least recently used node.
// Returns zero value and false if the list is empty.
func (l *List[K]) RemoveOldest() (K, bool) {
	if l.tail == nil {
		var zero K
		return zero, false
	}

	node := l.tail
	l.unlink(node)
	return node.key, true
}

// Oldest returns the key of the least recently used node without removing it.
// Returns zero value and false if the list is empty.
func (l *List[K]) Oldest() (K, bool) {
	if l.tail == nil {
		var zero K
		return zero, false
	}
	return l.tail.key, true
}

// Clear removes all nodes from the list.
func (l *List[K]) Clear() {
	l.head = nil
	l.tail = nil
	l.len = 0
}

// unlink removes a node from the list without clearing the node's pointers.
func (l *List[K]) unlink(node *Node[K]) {
	if node.prev != nil {
		node.prev.next = node.next
	} else {
		l.head = node.next
	}

	if node.next != nil {
		node.next.prev = node.prev
	} else {
		l.tail = node.prev
	}

	node.prev = nil
	node.next = nil
	l.len--
}
