package sync

import (
	"context"
	stdsync "sync"

	"vossync/internal/infrastructure/repository"
)

// Registry is an in-memory map between instance IDs and their UUIDs,
// refreshed from the config store at startup and whenever the instance
// set changes. Lookups never touch the database.
type Registry struct {
	mu     stdsync.RWMutex
	byID   map[uint]string
	byUUID map[string]uint
	names  map[uint]string
}

func NewRegistry() *Registry {
	return &Registry{
		byID:   make(map[uint]string),
		byUUID: make(map[string]uint),
		names:  make(map[uint]string),
	}
}

// Refresh reloads the registry from the instance table.
func (r *Registry) Refresh(ctx context.Context, instances *repository.InstanceRepository) error {
	list, err := instances.List(ctx)
	if err != nil {
		return err
	}

	byID := make(map[uint]string, len(list))
	byUUID := make(map[string]uint, len(list))
	names := make(map[uint]string, len(list))
	for _, inst := range list {
		byID[inst.ID] = inst.UUID
		byUUID[inst.UUID] = inst.ID
		names[inst.ID] = inst.Name
	}

	r.mu.Lock()
	r.byID = byID
	r.byUUID = byUUID
	r.names = names
	r.mu.Unlock()
	return nil
}

// UUIDFor returns the UUID of an instance ID.
func (r *Registry) UUIDFor(id uint) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	uuid, ok := r.byID[id]
	return uuid, ok
}

// IDFor returns the instance ID behind a UUID.
func (r *Registry) IDFor(uuid string) (uint, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byUUID[uuid]
	return id, ok
}

// NameFor returns the display name of an instance ID.
func (r *Registry) NameFor(id uint) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	name, ok := r.names[id]
	return name, ok
}

// Len reports how many instances are registered.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}
