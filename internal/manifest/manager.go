package manifest

import (
	"context"
	"fmt"
)

// Manager applies read-modify-write operations to a Store.
type Manager struct {
	store Store
}

// NewManager returns a manager backed by store.
func NewManager(store Store) *Manager {
	return &Manager{store: store}
}

// Load returns the whole manifest.
func (m *Manager) Load(ctx context.Context) (Manifest, error) {
	return m.store.Load(ctx)
}

// AppendGroup appends a group to role's entry, creating the entry if needed.
func (m *Manager) AppendGroup(ctx context.Context, role string, group Group) error {
	if len(group) == 0 {
		return fmt.Errorf("refusing to record an empty volume group for role %s", role)
	}
	mf, err := m.store.Load(ctx)
	if err != nil {
		return err
	}
	mf[role] = append(mf[role], append(Group(nil), group...))
	if err := mf.Validate(); err != nil {
		return err
	}
	return m.store.Save(ctx, mf)
}

// RemoveRole drops role's entry. Removing an absent role still rewrites the
// manifest.
func (m *Manager) RemoveRole(ctx context.Context, role string) error {
	mf, err := m.store.Load(ctx)
	if err != nil {
		return err
	}
	delete(mf, role)
	return m.store.Save(ctx, mf)
}

// Groups returns role's groups in creation order. A missing role has none.
func (m *Manager) Groups(ctx context.Context, role string) ([]Group, error) {
	mf, err := m.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	return mf.Clone()[role], nil
}

// Roles returns the roles with an entry, sorted.
func (m *Manager) Roles(ctx context.Context) ([]string, error) {
	mf, err := m.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	return mf.Roles(), nil
}
