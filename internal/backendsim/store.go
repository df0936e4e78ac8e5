package backendsim

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/channy-sao/admin-gateway/internal/core/domain"
)

type account struct {
	user         domain.UserInfo
	passwordHash string
}

type refreshEntry struct {
	userID    int64
	expiresAt time.Time
}

// store keeps accounts and live refresh tokens in memory. Refresh tokens
// are opaque and single use: consuming one invalidates it and a rotated
// replacement is issued.
type store struct {
	mu       sync.Mutex
	accounts map[string]*account
	refresh  map[string]refreshEntry
}

func newStore() *store {
	return &store{
		accounts: make(map[string]*account),
		refresh:  make(map[string]refreshEntry),
	}
}

func (s *store) addAccount(user domain.UserInfo, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[strings.ToLower(user.Email)] = &account{user: user, passwordHash: string(hash)}
	return nil
}

func (s *store) authenticate(email, password string) (*domain.UserInfo, bool) {
	s.mu.Lock()
	acc, ok := s.accounts[strings.ToLower(email)]
	s.mu.Unlock()
	if !ok {
		return nil, false
	}
	if bcrypt.CompareHashAndPassword([]byte(acc.passwordHash), []byte(password)) != nil {
		return nil, false
	}

	user := acc.user
	return &user, true
}

func (s *store) userByID(id int64) (*domain.UserInfo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, acc := range s.accounts {
		if acc.user.ID == id {
			user := acc.user
			return &user, true
		}
	}
	return nil, false
}

func (s *store) users() []domain.UserInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]domain.UserInfo, 0, len(s.accounts))
	for _, acc := range s.accounts {
		out = append(out, acc.user)
	}
	return out
}

func (s *store) issueRefreshToken(userID int64, ttl time.Duration) string {
	token := uuid.NewString()
	s.mu.Lock()
	s.refresh[token] = refreshEntry{userID: userID, expiresAt: time.Now().Add(ttl)}
	s.mu.Unlock()
	return token
}

// consumeRefreshToken validates and burns the token in one step.
func (s *store) consumeRefreshToken(token string) (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.refresh[token]
	if !ok {
		return 0, false
	}
	delete(s.refresh, token)
	if time.Now().After(entry.expiresAt) {
		return 0, false
	}
	return entry.userID, true
}

func (s *store) revokeRefreshToken(token string) {
	s.mu.Lock()
	delete(s.refresh, token)
	s.mu.Unlock()
}
