package authz

import (
	"context"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PGMembership reads the organization_members table.
type PGMembership struct{ DB *pgxpool.Pool }

func (m *PGMembership) IsOrganizationMember(ctx context.Context, actorID, organizationID string) (bool, error) {
	var ok bool
	err := m.DB.QueryRow(ctx, `SELECT EXISTS(
		SELECT 1 FROM organization_members WHERE user_id=$1 AND organization_id=$2)`,
		actorID, organizationID).Scan(&ok)
	return ok, err
}

// StaticMembership is an in-memory directory for tests and dev mode.
type StaticMembership struct {
	mu      sync.RWMutex
	members map[string]map[string]bool // org -> user
}

func NewStaticMembership() *StaticMembership {
	return &StaticMembership{members: map[string]map[string]bool{}}
}

func (m *StaticMembership) Add(organizationID string, userIDs ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.members[organizationID] == nil {
		m.members[organizationID] = map[string]bool{}
	}
	for _, id := range userIDs {
		m.members[organizationID][id] = true
	}
}

func (m *StaticMembership) IsOrganizationMember(_ context.Context, actorID, organizationID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.members[organizationID][actorID], nil
}
