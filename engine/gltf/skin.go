package gltf

import (
	"context"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-gltf/engine/algebra"
	"github.com/Carmen-Shannon/oxy-gltf/engine/loader"
	"github.com/Carmen-Shannon/oxy-gltf/engine/renderer/shader"
	"github.com/google/uuid"
)

// Skin binds a joint list to inverse bind matrices. Joint matrices are expressed relative to the
// owner, the first node that references the skin.
type Skin struct {
	id       uuid.UUID
	index    int
	name     string
	ibm      *Accessor
	joints   []*Node
	skeleton *Node
	owner    *Node
	doc      *document

	mu      sync.Mutex
	loaded  bool
	inverse []*algebra.Matrix4

	// joint matrix cache, one 16 float slot per joint
	matrices   []float32
	invOwner   *algebra.Matrix4
	seenOwner  uint64
	seenJoints []uint64
	slotValid  []bool
	recomputes int
}

func newSkin(doc *document, index int, src loader.GLTFSkin, accessors []*Accessor, nodes []*Node) *Skin {
	s := &Skin{
		id:         uuid.New(),
		index:      index,
		name:       src.Name,
		doc:        doc,
		matrices:   make([]float32, 16*len(src.Joints)),
		invOwner:   algebra.NewMatrix4(),
		seenJoints: make([]uint64, len(src.Joints)),
		slotValid:  make([]bool, len(src.Joints)),
	}
	if src.InverseBindMatrices != nil {
		s.ibm = accessors[*src.InverseBindMatrices]
	}
	if src.Skeleton != nil {
		s.skeleton = nodes[*src.Skeleton]
	}
	for _, j := range src.Joints {
		s.joints = append(s.joints, nodes[j])
	}
	return s
}

// ID returns the random identity assigned at parse.
func (s *Skin) ID() uuid.UUID { return s.id }

// Index returns the position of the skin in its document.
func (s *Skin) Index() int { return s.index }

// Name returns the authored name.
func (s *Skin) Name() string { return s.name }

// Joints returns the joint nodes in authored order.
func (s *Skin) Joints() []*Node { return s.joints }

// Skeleton returns the authored skeleton root, or nil.
func (s *Skin) Skeleton() *Node { return s.skeleton }

// Owner returns the node the skin is attached to, or nil when no node references it.
func (s *Skin) Owner() *Node { return s.owner }

// Load reads one inverse bind matrix per joint. A skin without an accessor uses identities.
//
// Parameters:
//   - ctx: cancels the fetch
//
// Returns:
//   - error: error if the accessor cannot be loaded
func (s *Skin) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded {
		return nil
	}
	if len(s.joints) > shader.MaxJoints {
		s.doc.logger.Warn("skin has more joints than the shader supports",
			"skin", s.id, "joints", len(s.joints), "max", shader.MaxJoints)
	}

	inverse := make([]*algebra.Matrix4, len(s.joints))
	if s.ibm == nil {
		for i := range inverse {
			inverse[i] = algebra.NewMatrix4()
		}
	} else {
		if err := s.ibm.Load(ctx); err != nil {
			return fmt.Errorf("skin %q: %w", s.name, err)
		}
		vals, err := s.ibm.Float32s()
		if err != nil {
			return fmt.Errorf("skin %q: %w", s.name, err)
		}
		for i := range inverse {
			inverse[i], _ = algebra.NewMatrix4From(vals[16*i : 16*i+16])
		}
	}
	s.inverse, s.loaded = inverse, true
	return nil
}

// Loaded reports whether the inverse bind matrices were read.
func (s *Skin) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// InverseBindMatrices returns one matrix per joint.
//
// Returns:
//   - []*algebra.Matrix4: the matrices
//   - error: ErrNotLoaded before Load
func (s *Skin) InverseBindMatrices() ([]*algebra.Matrix4, error) {
	if !s.Loaded() {
		return nil, fmt.Errorf("skin %q: %w", s.name, ErrNotLoaded)
	}
	return s.inverse, nil
}

// JointMatrices returns inverse(owner.Global) × joint.Global × inverseBind for every joint,
// 16 floats per joint in joint order. A slot is only rebuilt when its joint moved or the owner
// moved. A skin without an owner returns the inverse bind matrices unchanged. The returned slice
// is reused between calls.
//
// Returns:
//   - []float32: the joint matrices
//   - error: ErrNotLoaded before Load
func (s *Skin) JointMatrices() ([]float32, error) {
	if !s.Loaded() {
		return nil, fmt.Errorf("skin %q: %w", s.name, ErrNotLoaded)
	}

	if s.owner == nil {
		for j, m := range s.inverse {
			e := m.Elements()
			copy(s.matrices[16*j:], e[:])
		}
		return s.matrices, nil
	}

	// A singular owner global keeps the last invertible owner inverse.
	og := s.owner.Global()
	if og.Generation() != s.seenOwner {
		s.seenOwner = og.Generation()
		if og.InverseInto(s.invOwner) {
			clear(s.slotValid)
		} else {
			s.doc.logger.Warn("skin owner matrix is singular, keeping previous inverse",
				"skin", s.index, "owner", s.owner.Name())
		}
	}

	slot := algebra.NewMatrix4()
	for j, joint := range s.joints {
		jg := joint.Global()
		if s.slotValid[j] && s.seenJoints[j] == jg.Generation() {
			continue
		}
		algebra.MulMatrix4(s.invOwner, jg, slot)
		slot.Mul(s.inverse[j])
		e := slot.Elements()
		copy(s.matrices[16*j:], e[:])
		s.seenJoints[j] = jg.Generation()
		s.slotValid[j] = true
		s.recomputes++
	}
	return s.matrices, nil
}
