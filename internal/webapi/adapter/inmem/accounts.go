package inmem

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"webcore/internal/domain"
)

// Accounts is an in-memory credentials store with bcrypt password hashes.
type Accounts struct {
	cost    int
	compare func(hash, password []byte) error
	// missHash is checked against on unknown emails so both login
	// failures spend one bcrypt comparison.
	missHash []byte

	mu      sync.RWMutex
	byID    map[int]domain.Account
	byEmail map[string]int
}

// NewAccounts creates an empty store hashing with the given bcrypt cost.
// A cost outside bcrypt's range uses bcrypt.DefaultCost.
func NewAccounts(cost int) *Accounts {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	// Cannot fail: the cost is in range and the password is short.
	missHash, _ := bcrypt.GenerateFromPassword([]byte("webcore-unknown-account"), cost)
	return &Accounts{
		cost:     cost,
		compare:  bcrypt.CompareHashAndPassword,
		missHash: missHash,
		byID:     make(map[int]domain.Account),
		byEmail:  make(map[string]int),
	}
}

// Add hashes password and stores the account. Emails are matched
// case-insensitively and must be unique.
func (a *Accounts) Add(id int, email, password string) error {
	key := normalizeEmail(email)
	if key == "" {
		return &domain.ArgumentError{Param: "email", Reason: "must not be empty"}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), a.cost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if _, taken := a.byEmail[key]; taken {
		return &domain.ArgumentError{Param: "email", Reason: "already registered"}
	}
	if _, taken := a.byID[id]; taken {
		return &domain.ArgumentError{Param: "id", Reason: "already registered"}
	}
	a.byID[id] = domain.Account{ID: id, Email: email, PasswordHash: hash}
	a.byEmail[key] = id
	return nil
}

// Authenticate returns the account when password matches its hash. An
// unknown email and a wrong password both yield domain.ErrInvalidCredentials.
func (a *Accounts) Authenticate(_ context.Context, email, password string) (domain.Account, error) {
	a.mu.RLock()
	id, ok := a.byEmail[normalizeEmail(email)]
	acct := a.byID[id]
	a.mu.RUnlock()

	if !ok {
		_ = a.compare(a.missHash, []byte(password))
		return domain.Account{}, domain.ErrInvalidCredentials
	}
	if err := a.compare(acct.PasswordHash, []byte(password)); err != nil {
		return domain.Account{}, domain.ErrInvalidCredentials
	}
	return acct, nil
}

// Account looks up an account by id.
func (a *Accounts) Account(_ context.Context, id int) (domain.Account, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	acct, ok := a.byID[id]
	if !ok {
		return domain.Account{}, domain.NotFound(fmt.Sprintf("user %d not found", id), domain.CodeResourceNotFound)
	}
	return acct, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
