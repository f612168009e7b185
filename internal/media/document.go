package media

import "sync"

// Node is one element in the document tree. It is either a plain container
// or carries a media element.
type Node struct {
	name     string
	media    *Element
	children []*Node
}

// NewNode creates a container node.
func NewNode(name string) *Node {
	return &Node{name: name}
}

// NewMediaNode creates a node carrying el.
func NewMediaNode(el *Element) *Node {
	return &Node{name: el.ID(), media: el}
}

func (n *Node) Name() string {
	return n.name
}

// Media returns the node's media element, or nil for containers.
func (n *Node) Media() *Element {
	return n.media
}

// Document is the host page's element tree plus a subscription surface for
// structural mutations, the discovery mechanism for media elements. No
// separate media registry is kept; membership is recomputed by walking the
// tree.
type Document struct {
	mu        sync.RWMutex
	root      *Node
	observers []func(added *Node)
}

func NewDocument() *Document {
	return &Document{root: NewNode("root")}
}

func (d *Document) Root() *Node {
	return d.root
}

// Observe registers a structural-mutation observer. Observers run
// synchronously after each AppendChild, outside the tree lock.
func (d *Document) Observe(f func(added *Node)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.observers = append(d.observers, f)
}

// AppendChild attaches child under parent and notifies observers.
func (d *Document) AppendChild(parent, child *Node) {
	d.mu.Lock()
	parent.children = append(parent.children, child)
	obs := make([]func(*Node), len(d.observers))
	copy(obs, d.observers)
	d.mu.Unlock()

	for _, f := range obs {
		f(child)
	}
}

// RemoveChild detaches child from parent. Removal triggers no enforcement;
// a detached element keeps whatever rate it last had.
func (d *Document) RemoveChild(parent, child *Node) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, c := range parent.children {
		if c == child {
			parent.children = append(parent.children[:i], parent.children[i+1:]...)
			return
		}
	}
}

// MediaElements walks the tree and returns every media element currently
// attached.
func (d *Document) MediaElements() []*Element {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var els []*Element
	collectMedia(d.root, &els)
	return els
}

// SubtreeContainsMedia reports whether n or any descendant carries a media
// element.
func (d *Document) SubtreeContainsMedia(n *Node) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return containsMedia(n)
}

func collectMedia(n *Node, out *[]*Element) {
	if n.media != nil {
		*out = append(*out, n.media)
	}
	for _, c := range n.children {
		collectMedia(c, out)
	}
}

func containsMedia(n *Node) bool {
	if n.media != nil {
		return true
	}
	for _, c := range n.children {
		if containsMedia(c) {
			return true
		}
	}
	return false
}
