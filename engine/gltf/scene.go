package gltf

import (
	"context"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-gltf/engine/device"
	"github.com/Carmen-Shannon/oxy-gltf/engine/loader"
	"golang.org/x/sync/errgroup"
)

// Scene is a named set of root nodes.
type Scene struct {
	index int
	name  string
	roots []*Node
	doc   *document

	mu     sync.Mutex
	loaded bool
}

func newScene(doc *document, index int, src loader.GLTFScene, nodes []*Node) *Scene {
	s := &Scene{index: index, name: src.Name, doc: doc}
	for _, r := range src.Nodes {
		s.roots = append(s.roots, nodes[r])
	}
	return s
}

// Index returns the position of the scene in its document.
func (s *Scene) Index() int { return s.index }

// Name returns the authored name.
func (s *Scene) Name() string { return s.name }

// Roots returns the root nodes in authored order.
func (s *Scene) Roots() []*Node { return s.roots }

// FindNode searches the scene depth first for a node called name.
func (s *Scene) FindNode(name string) *Node {
	for _, r := range s.roots {
		if r.name == name {
			return r
		}
		if found := r.FindChildByName(name); found != nil {
			return found
		}
	}
	return nil
}

// Walk visits every node of the scene depth first, parents before children. Returning false
// from fn skips the children of that node.
func (s *Scene) Walk(fn func(n *Node) bool) {
	var walk func(n *Node)
	walk = func(n *Node) {
		if !fn(n) {
			return
		}
		for _, c := range n.children {
			walk(c)
		}
	}
	for _, r := range s.roots {
		walk(r)
	}
}

// Load loads the default material and every root subtree concurrently. Loading a loaded scene
// does nothing.
//
// Parameters:
//   - ctx: cancels the fetches
//
// Returns:
//   - error: the first load error
func (s *Scene) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded {
		s.doc.logger.Debug("scene already loaded", "scene", s.index)
		return nil
	}

	var g errgroup.Group
	g.Go(func() error { return DefaultMaterial().Load(ctx) })
	for _, r := range s.roots {
		g.Go(func() error { return r.Load(ctx) })
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("scene %d: %w", s.index, err)
	}
	s.loaded = true
	s.doc.logger.Info("scene loaded", "scene", s.index, "name", s.name, "roots", len(s.roots))
	return nil
}

// Loaded reports whether the default material and every root subtree are loaded. A scene whose
// nodes reference nothing to fetch is loaded as soon as it is parsed.
func (s *Scene) Loaded() bool {
	if !DefaultMaterial().Loaded() {
		return false
	}
	for _, r := range s.roots {
		if !r.Loaded() {
			return false
		}
	}
	return true
}

// SetupGL sets up the default material and every root subtree on dev.
//
// Parameters:
//   - dev: the device
//
// Returns:
//   - error: ErrNotLoaded while a subtree is not loaded, or the first setup error
func (s *Scene) SetupGL(dev device.Device) error {
	if !s.Loaded() {
		return fmt.Errorf("scene %d: %w", s.index, ErrNotLoaded)
	}
	if err := DefaultMaterial().SetupGL(dev); err != nil {
		return err
	}
	for _, r := range s.roots {
		if err := r.SetupGL(dev); err != nil {
			return fmt.Errorf("scene %d: %w", s.index, err)
		}
	}
	return nil
}
