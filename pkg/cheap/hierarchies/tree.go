package hierarchies

import (
	"slices"
	"strings"
	"sync"

	"github.com/diwise/cheap/pkg/cheap/errors"
	"github.com/diwise/cheap/pkg/cheap/types"
)

// Node is an element of an EntityTree. A node is a leaf iff it currently has no
// children, except for nodes created with NewLeaf which can never gain any.
type Node struct {
	mu       sync.RWMutex
	value    types.Identity
	names    []string
	children map[string]*Node
	leafOnly bool
}

func NewNode(value types.Identity) *Node {
	return &Node{value: value, children: map[string]*Node{}}
}

// NewLeaf creates a terminal node that rejects children
func NewLeaf(value types.Identity) *Node {
	return &Node{value: value, leafOnly: true}
}

func (n *Node) Value() types.Identity {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.value
}

func (n *Node) IsLeaf() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.names) == 0
}

func (n *Node) IsLeafOnly() bool {
	return n.leafOnly
}

func (n *Node) Child(name string) (*Node, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	c, ok := n.children[name]
	return c, ok
}

func (n *Node) ChildNames() []string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return slices.Clone(n.names)
}

func (n *Node) Len() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.names)
}

func (n *Node) ForEachChild(callback func(name string, child *Node)) {
	for _, name := range n.ChildNames() {
		if c, ok := n.Child(name); ok {
			callback(name, c)
		}
	}
}

func (n *Node) setValue(v types.Identity) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.value = v
}

func (n *Node) addChild(name string, child *Node) error {
	if n.leafOnly {
		return errors.NewAccessViolationError("leaf node cannot have children, tried to add %q", name)
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if _, exists := n.children[name]; !exists {
		n.names = append(n.names, name)
	}
	n.children[name] = child
	return nil
}

func (n *Node) removeChild(name string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	if _, exists := n.children[name]; !exists {
		return false
	}
	delete(n.children, name)
	n.names = slices.DeleteFunc(n.names, func(other string) bool { return other == name })
	return true
}

// EntityTree is a graph of named nodes hanging off a single root. Nodes are
// addressed by the names along the path from the root.
type EntityTree struct {
	base
	root *Node
}

func NewEntityTree(catalog types.Identity, def *HierarchyDef, root *Node) (*EntityTree, error) {
	if err := checkDef(def, Tree); err != nil {
		return nil, err
	}

	if root == nil {
		root = NewNode(nil)
	}

	return &EntityTree{base: base{def: def, catalog: catalog}, root: root}, nil
}

func (t *EntityTree) Root() *Node {
	return t.root
}

func (t *EntityTree) find(path []string) (*Node, bool) {
	n := t.root
	for _, name := range path {
		child, ok := n.Child(name)
		if !ok {
			return nil, false
		}
		n = child
	}
	return n, true
}

// Get returns the node at path, an empty path is the root
func (t *EntityTree) Get(path ...string) (*Node, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.find(path)
}

// Add attaches node under the node at parent, replacing any child of the same name
func (t *EntityTree) Add(parent []string, name string, node *Node) error {
	if node == nil {
		return errors.NewConfigurationError("tree %q cannot hold a nil node", t.def.Name())
	}

	return t.modify(func() (bool, error) {
		p, ok := t.find(parent)
		if !ok {
			return false, errors.NewNotFoundError("tree %q has no node at %q", t.def.Name(), strings.Join(parent, "/"))
		}
		if err := p.addChild(name, node); err != nil {
			return false, err
		}
		return true, nil
	})
}

// Put stores value at path, creating intermediate nodes as needed
func (t *EntityTree) Put(path []string, value types.Identity) error {
	return t.modify(func() (bool, error) {
		n := t.root
		for _, name := range path {
			child, ok := n.Child(name)
			if !ok {
				child = NewNode(nil)
				if err := n.addChild(name, child); err != nil {
					return false, err
				}
			}
			n = child
		}
		n.setValue(value)
		return true, nil
	})
}

// Remove detaches the subtree at path. The root cannot be removed.
func (t *EntityTree) Remove(path ...string) (bool, error) {
	if len(path) == 0 {
		return false, errors.NewAccessViolationError("the root of tree %q cannot be removed", t.def.Name())
	}

	removed := false

	err := t.modify(func() (bool, error) {
		p, ok := t.find(path[:len(path)-1])
		if !ok {
			return false, nil
		}
		removed = p.removeChild(path[len(path)-1])
		return removed, nil
	})

	return removed, err
}

// Walk visits every node depth first, parents before children
func (t *EntityTree) Walk(callback func(path []string, n *Node)) {
	var walk func(path []string, n *Node)
	walk = func(path []string, n *Node) {
		callback(path, n)
		n.ForEachChild(func(name string, child *Node) {
			walk(append(slices.Clone(path), name), child)
		})
	}
	walk(nil, t.root)
}
