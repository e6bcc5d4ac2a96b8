package directory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUnknownIdentifier = errors.New("unknown identifier")
	ErrDuplicateAccount  = errors.New("duplicate account identifier")
	ErrInvalidAccount    = errors.New("invalid account record")
)

// Directory is the account capability the session core depends on.
type Directory interface {
	// Get returns a snapshot of the account with the given identifier.
	// The identifier is normalized before lookup.
	Get(ctx context.Context, id string) (Account, error)

	// VerifyCredential reports whether credential equals the account's
	// current credential (exact, case-sensitive).
	VerifyCredential(ctx context.Context, id, credential string) (bool, error)

	// SetCredential replaces the credential and marks it as changed.
	SetCredential(ctx context.Context, id, credential string) error

	// SetContact records a verified contact for the account.
	SetContact(ctx context.Context, id string, c Contact) error
}

// Lister enumerates accounts, for rosters and analytics.
type Lister interface {
	List(ctx context.Context) ([]Account, error)
}

// NewAccount describes a seed record before it is hashed into the directory.
type NewAccount struct {
	ID                string
	Name              string
	Role              Role
	Credential        string
	CredentialChanged bool
	Contact           *Contact
	Student           *StudentProfile
	Teacher           *TeacherProfile
}

// Memory is a process-lifetime Directory guarded by a RWMutex.
// Credentials are held as bcrypt hashes.
type Memory struct {
	mu       sync.RWMutex
	accounts map[string]*Account
	cost     int
}

// NewMemory creates an empty directory hashing credentials at the given
// bcrypt cost (bcrypt.DefaultCost when cost is 0).
func NewMemory(cost int) *Memory {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Memory{accounts: make(map[string]*Account), cost: cost}
}

// Add inserts a seed record. The identifier prefix must match the role.
func (m *Memory) Add(rec NewAccount) error {
	id := Normalize(rec.ID)
	if id == "" || rec.Name == "" {
		return fmt.Errorf("%w: identifier and name are required", ErrInvalidAccount)
	}
	if rec.Role.Prefix() == "" || !strings.HasPrefix(id, rec.Role.Prefix()) {
		return fmt.Errorf("%w: %s does not carry the %s prefix %q", ErrInvalidAccount, id, rec.Role, rec.Role.Prefix())
	}
	if rec.Role == RoleStudent && rec.Student == nil {
		return fmt.Errorf("%w: student %s has no class", ErrInvalidAccount, id)
	}
	if rec.Role == RoleTeacher && rec.Teacher == nil {
		return fmt.Errorf("%w: teacher %s has no subject", ErrInvalidAccount, id)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(rec.Credential), m.cost)
	if err != nil {
		return fmt.Errorf("hash credential for %s: %w", id, err)
	}

	acct := Account{
		ID:                id,
		Name:              rec.Name,
		Role:              rec.Role,
		CredentialChanged: rec.CredentialChanged,
		Contact:           rec.Contact,
		Student:           rec.Student,
		Teacher:           rec.Teacher,
		credentialHash:    hash,
	}
	acct = acct.clone()

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.accounts[id]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateAccount, id)
	}
	m.accounts[id] = &acct
	return nil
}

func (m *Memory) Get(_ context.Context, id string) (Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	acct, ok := m.accounts[Normalize(id)]
	if !ok {
		return Account{}, ErrUnknownIdentifier
	}
	return acct.clone(), nil
}

func (m *Memory) VerifyCredential(_ context.Context, id, credential string) (bool, error) {
	m.mu.RLock()
	acct, ok := m.accounts[Normalize(id)]
	var hash []byte
	if ok {
		hash = acct.credentialHash
	}
	m.mu.RUnlock()

	if !ok {
		return false, ErrUnknownIdentifier
	}
	err := bcrypt.CompareHashAndPassword(hash, []byte(credential))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("compare credential: %w", err)
	}
	return true, nil
}

func (m *Memory) SetCredential(_ context.Context, id, credential string) error {
	// Hash outside the lock; bcrypt is deliberately slow.
	hash, err := bcrypt.GenerateFromPassword([]byte(credential), m.cost)
	if err != nil {
		return fmt.Errorf("hash credential: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	acct, ok := m.accounts[Normalize(id)]
	if !ok {
		return ErrUnknownIdentifier
	}
	acct.credentialHash = hash
	acct.CredentialChanged = true
	return nil
}

func (m *Memory) SetContact(_ context.Context, id string, c Contact) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	acct, ok := m.accounts[Normalize(id)]
	if !ok {
		return ErrUnknownIdentifier
	}
	acct.Contact = &c
	return nil
}

// List returns all accounts ordered by identifier.
func (m *Memory) List(_ context.Context) ([]Account, error) {
	m.mu.RLock()
	out := make([]Account, 0, len(m.accounts))
	for _, acct := range m.accounts {
		out = append(out, acct.clone())
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
