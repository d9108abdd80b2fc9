package auth

// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	domainauth "github.com/target/lab-portal/internal/domain/auth"
	"github.com/target/lab-portal/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.AuthProvider = (*MockAuthProvider)(nil)
	_ ports.SessionStore = (*MemorySessionStore)(nil)
	_ ports.RoleMapper   = (*StaticRoleMapper)(nil)
	_ ports.RoleStore    = (*MemoryRoleStore)(nil)
)

// ErrNotFound is returned by the doubles when an entity is not present.
var ErrNotFound = ports.ErrSessionNotFound

// MockAuthProvider simulates an IdP with deterministic state and nonce values.
type MockAuthProvider struct {
	BeginFunc    func(ctx context.Context, in ports.BeginInput) (authURL, state, nonce string, err error)
	ExchangeFunc func(ctx context.Context, in ports.ExchangeInput) (domainauth.Identity, error)

	AuthURL     string
	DefaultUser domainauth.Identity

	mu        sync.Mutex
	callCount int
}

// NewMockAuthProvider creates a MockAuthProvider for a single engineer.
func NewMockAuthProvider() *MockAuthProvider {
	return &MockAuthProvider{
		AuthURL: "https://mock-idp/auth",
		DefaultUser: domainauth.Identity{
			UserID:    "mock-subject-1",
			FirstName: "Mock",
			LastName:  "Engineer",
			Email:     "mock.engineer@lab.example.edu",
			Groups:    []string{"lab-engineers"},
		},
	}
}

func (m *MockAuthProvider) Begin(ctx context.Context, in ports.BeginInput) (string, string, string, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx, in)
	}
	m.mu.Lock()
	m.callCount++
	n := m.callCount
	m.mu.Unlock()

	authURL := m.AuthURL
	if authURL == "" {
		authURL = "https://mock-idp/auth"
	}
	return authURL, fmt.Sprintf("state-%d", n), fmt.Sprintf("nonce-%d", n), nil
}

func (m *MockAuthProvider) Exchange(ctx context.Context, in ports.ExchangeInput) (domainauth.Identity, error) {
	if m.ExchangeFunc != nil {
		return m.ExchangeFunc(ctx, in)
	}
	user := m.DefaultUser
	user.Groups = slices.Clone(user.Groups)
	user.ExpiresAt = time.Now().Add(time.Hour)
	return user, nil
}

// MemorySessionStore is an in-memory session store for unit tests.
type MemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]domainauth.Session
}

// NewMemorySessionStore creates a new in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]domainauth.Session)}
}

func (m *MemorySessionStore) Save(_ context.Context, sess domainauth.Session) error {
	if sess.ID == "" {
		return errors.New("session ID cannot be empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sess.ID] = sess
	return nil
}

func (m *MemorySessionStore) Get(_ context.Context, id string) (domainauth.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	if !ok {
		return domainauth.Session{}, ErrNotFound
	}
	return sess, nil
}

func (m *MemorySessionStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// DeleteForUser removes every session belonging to userID.
func (m *MemorySessionStore) DeleteForUser(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.sessions {
		if s.UserID == userID {
			delete(m.sessions, id)
		}
	}
	return nil
}

// Len returns the number of stored sessions.
func (m *MemorySessionStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// StaticRoleMapper grants ADMIN and ENGINEER by exact group membership, admin first.
type StaticRoleMapper struct {
	AdminGroup    string
	EngineerGroup string
}

func (m StaticRoleMapper) Map(groups []string) []domainauth.Role {
	var out []domainauth.Role
	if m.AdminGroup != "" && slices.Contains(groups, m.AdminGroup) {
		out = append(out, domainauth.RoleAdmin)
	}
	if m.EngineerGroup != "" && slices.Contains(groups, m.EngineerGroup) {
		out = append(out, domainauth.RoleEngineer)
	}
	return out
}

// MemoryRoleStore is an in-memory Role Store that counts lookups.
type MemoryRoleStore struct {
	mu    sync.Mutex
	roles map[string][]domainauth.Role
	calls int

	// Err, when set, is returned by every lookup.
	Err error
}

// NewMemoryRoleStore creates an empty role store.
func NewMemoryRoleStore() *MemoryRoleStore {
	return &MemoryRoleStore{roles: make(map[string][]domainauth.Role)}
}

// Set replaces the ordered roles for userID.
func (m *MemoryRoleStore) Set(userID string, roles ...domainauth.Role) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.roles[userID] = slices.Clone(roles)
}

func (m *MemoryRoleStore) RolesForUser(_ context.Context, userID string) ([]domainauth.Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.Err != nil {
		return nil, m.Err
	}
	return slices.Clone(m.roles[userID]), nil
}

// Calls returns how many lookups have been made.
func (m *MemoryRoleStore) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
