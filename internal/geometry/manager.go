package geometry

import (
	"slices"

	"go.uber.org/zap"

	"github.com/Faultbox/scenegl/internal/render"
	"github.com/Faultbox/scenegl/internal/scene"
)

// BufferID identifies a geometry buffer.
type BufferID uint32

type bufferRecord struct {
	id        BufferID
	triangles []scene.ObjectID
	slots     *SamplerSlots
	deps      []scene.Key
	gpu       *TriangleBuffer
}

// Manager builds geometry buffers from ready triangles and tracks which
// buffers consumed which entities. It runs on the assertion side only.
type Manager struct {
	log       *zap.Logger
	store     *scene.Store
	resources Resources
	limit     int

	nextID  BufferID
	buffers map[BufferID]*bufferRecord
	owners  map[scene.Key]map[BufferID]struct{}
}

// NewManager creates a manager reading from store. limit caps the distinct
// textures per buffer.
func NewManager(log *zap.Logger, store *scene.Store, resources Resources, limit int) *Manager {
	return &Manager{
		log:       log,
		store:     store,
		resources: resources,
		limit:     limit,
		buffers:   make(map[BufferID]*bufferRecord),
		owners:    make(map[scene.Key]map[BufferID]struct{}),
	}
}

// Build compiles ready triangles into one new buffer and returns the command
// drawing it. It returns nil when nothing is drawable. A buffer exceeding the
// texture limit is logged and not built.
func (m *Manager) Build(ready []scene.ObjectID) (render.Command, error) {
	if len(ready) == 0 {
		return nil, nil
	}

	slots := NewSamplerSlots()
	syn, err := Synthesize(m.store, ready, slots, m.limit)
	if err != nil {
		m.log.Error("geometry buffer not built", zap.Int("triangles", len(ready)), zap.Error(err))
		return nil, err
	}
	if len(syn.Triangles) == 0 {
		return nil, nil
	}

	m.nextID++
	rec := &bufferRecord{
		id:        m.nextID,
		triangles: syn.Triangles,
		slots:     slots,
	}
	rec.gpu = newTriangleBuffer(rec.id, m.log, m.resources)
	m.buffers[rec.id] = rec
	m.associate(rec, syn.Dependencies)

	m.log.Debug("geometry buffer built",
		zap.Uint32("buffer", uint32(rec.id)),
		zap.Int("triangles", len(syn.Triangles)),
		zap.Int("vertices", syn.VertexCount()),
		zap.Int("textures", len(syn.Textures)),
	)
	return &DrawCommand{buffer: rec.gpu, data: syn}, nil
}

// Reload re-synthesizes every buffer that consumed one of the changed
// entities and returns one reload command per buffer, in buffer order.
func (m *Manager) Reload(changed []scene.Key) []render.Command {
	affected := make(map[BufferID]struct{})
	for _, key := range changed {
		for id := range m.owners[key] {
			affected[id] = struct{}{}
		}
	}
	if len(affected) == 0 {
		return nil
	}

	ids := make([]BufferID, 0, len(affected))
	for id := range affected {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	cmds := make([]render.Command, 0, len(ids))
	for _, id := range ids {
		rec := m.buffers[id]
		// Slots of an abandoned reload must not stay allocated.
		slots := rec.slots.Clone()
		syn, err := Synthesize(m.store, rec.triangles, slots, m.limit)
		if err != nil {
			m.log.Error("geometry buffer not reloaded", zap.Uint32("buffer", uint32(id)), zap.Error(err))
			continue
		}
		rec.slots = slots
		m.release(rec, syn.Triangles)
		m.associate(rec, syn.Dependencies)
		cmds = append(cmds, &ReloadCommand{buffer: rec.gpu, data: syn})
	}
	return cmds
}

// release hands triangles of rec that are no longer drawable back to the
// store's watch list, so they are built again once their vertices exist.
func (m *Manager) release(rec *bufferRecord, kept []scene.ObjectID) {
	for _, tid := range rec.triangles {
		if slices.Contains(kept, tid) {
			continue
		}
		m.store.Watch(tid)
		m.log.Debug("triangle left geometry buffer",
			zap.Uint32("buffer", uint32(rec.id)), zap.Uint32("triangle", uint32(tid)))
	}
	rec.triangles = kept
}

// Owns reports whether any buffer consumed key.
func (m *Manager) Owns(key scene.Key) bool {
	return len(m.owners[key]) > 0
}

// Owners lists the buffers that consumed key, in order.
func (m *Manager) Owners(key scene.Key) []BufferID {
	ids := make([]BufferID, 0, len(m.owners[key]))
	for id := range m.owners[key] {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Len returns the number of buffers built.
func (m *Manager) Len() int {
	return len(m.buffers)
}

// associate replaces the dependency set of rec.
func (m *Manager) associate(rec *bufferRecord, deps []scene.Key) {
	for _, key := range rec.deps {
		if owners := m.owners[key]; owners != nil {
			delete(owners, rec.id)
			if len(owners) == 0 {
				delete(m.owners, key)
			}
		}
	}
	for _, key := range deps {
		owners := m.owners[key]
		if owners == nil {
			owners = make(map[BufferID]struct{})
			m.owners[key] = owners
		}
		owners[rec.id] = struct{}{}
	}
	rec.deps = deps
}
