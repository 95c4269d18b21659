package rope

import (
	"reflect"
	"sync"
)

// nodePool recycles the node structs of one unit type. Freed nodes have
// their references cleared before they are pooled, so a pooled node never
// keeps a subtree or buffer reachable.
type nodePool[U Unit] struct {
	leaves sync.Pool
	links  sync.Pool
}

// pools maps a unit type to its *nodePool.
var pools sync.Map

func newNodePool[U Unit]() *nodePool[U] {
	return &nodePool[U]{
		leaves: sync.Pool{New: func() any { return new(leaf[U]) }},
		links:  sync.Pool{New: func() any { return new(link[U]) }},
	}
}

// poolFor returns the pool shared by all ropes of unit type U.
func poolFor[U Unit]() *nodePool[U] {
	key := reflect.TypeFor[U]()
	if p, ok := pools.Load(key); ok {
		return p.(*nodePool[U])
	}
	p, _ := pools.LoadOrStore(key, newNodePool[U]())
	return p.(*nodePool[U])
}

func (p *nodePool[U]) getLeaf() *leaf[U] {
	return p.leaves.Get().(*leaf[U])
}

func (p *nodePool[U]) getLink() *link[U] {
	return p.links.Get().(*link[U])
}

// putLeaf returns a freed leaf for reuse.
// The node must not be used after calling this method.
func (p *nodePool[U]) putLeaf(l *leaf[U]) {
	p.leaves.Put(l)
}

// putLink returns a freed link for reuse.
// The node must not be used after calling this method.
func (p *nodePool[U]) putLink(l *link[U]) {
	p.links.Put(l)
}
