// Package asset stores texture and map-tile assets by id.
package asset

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no asset exists for an id.
var ErrNotFound = errors.New("asset: not found")

// Type classifies asset content.
type Type int

// Asset types.
const (
	TypeTexture Type = iota
	TypeMapTile
	TypeSculpt
	TypeMesh
)

// String returns the type name.
func (t Type) String() string {
	switch t {
	case TypeTexture:
		return "texture"
	case TypeMapTile:
		return "maptile"
	case TypeSculpt:
		return "sculpt"
	case TypeMesh:
		return "mesh"
	default:
		return "unknown"
	}
}

// Asset is a stored blob with metadata.
type Asset struct {
	ID          uuid.UUID
	Name        string
	Description string
	Type        Type
	ContentType string // MIME type of Data
	Data        []byte
	Temporary   bool
	CreatedAt   time.Time
}

// Service is the asset storage seen by the tile pipeline.
type Service interface {
	// GetData returns the content of an asset, or ErrNotFound.
	GetData(ctx context.Context, id uuid.UUID) ([]byte, error)
	// Store saves a new asset and returns its id. A zero ID is assigned.
	Store(ctx context.Context, a *Asset) (uuid.UUID, error)
	// UpdateContent replaces the data of an existing asset and returns its id.
	UpdateContent(ctx context.Context, id uuid.UUID, data []byte) (uuid.UUID, error)
}

// Memory is an in-process Service.
type Memory struct {
	mu     sync.RWMutex
	assets map[uuid.UUID]*Asset
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{assets: make(map[uuid.UUID]*Asset)}
}

// GetData implements Service.
func (m *Memory) GetData(_ context.Context, id uuid.UUID) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.assets[id]
	if !ok {
		return nil, ErrNotFound
	}
	return a.Data, nil
}

// Get returns a copy of the stored asset metadata and content.
func (m *Memory) Get(id uuid.UUID) (Asset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.assets[id]
	if !ok {
		return Asset{}, ErrNotFound
	}
	return *a, nil
}

// Store implements Service.
func (m *Memory) Store(_ context.Context, a *Asset) (uuid.UUID, error) {
	stored := *a
	if stored.ID == uuid.Nil {
		stored.ID = uuid.New()
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now()
	}
	stored.Data = append([]byte(nil), a.Data...)

	m.mu.Lock()
	m.assets[stored.ID] = &stored
	m.mu.Unlock()
	return stored.ID, nil
}

// UpdateContent implements Service.
func (m *Memory) UpdateContent(_ context.Context, id uuid.UUID, data []byte) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.assets[id]
	if !ok {
		return uuid.Nil, ErrNotFound
	}
	a.Data = append([]byte(nil), data...)
	return id, nil
}

// Len returns the number of stored assets.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.assets)
}
