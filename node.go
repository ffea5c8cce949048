// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package digisim

// Node is a named signal carrying a current logic value plus a
// stuck-at override flag. Node identity inside a Circuit is by pointer;
// names are unique within the owning Circuit.
type Node struct {
	name    string
	value   Value
	stuckAt bool
}

// NewNode creates a Node named name, initialized to Zero and unlocked.
func NewNode(name string) *Node {
	return &Node{name: name, value: Zero}
}

// Name returns the node's name.
func (n *Node) Name() string { return n.name }

// Value returns the node's current logic value.
func (n *Node) Value() Value { return n.value }

// Write sets the node's value. It is a no-op while the node is
// stuck-at locked.
func (n *Node) Write(v Value) {
	if n.stuckAt {
		return
	}
	n.value = v
}

// LockStuckAt pins the node to v until UnlockStuckAt is called. The
// pinned value is applied immediately, overriding any prior value.
func (n *Node) LockStuckAt(v Value) {
	n.value = v
	n.stuckAt = true
}

// UnlockStuckAt releases a stuck-at lock, allowing Write to take effect
// again. It does not change the node's current value.
func (n *Node) UnlockStuckAt() { n.stuckAt = false }

// StuckAt reports whether the node is currently stuck-at locked.
func (n *Node) StuckAt() bool { return n.stuckAt }
