package memory

import (
	"context"
	"net/http"
	"strings"
	"time"

	"movietracker/watchlist"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	msgInvalidCredentials = "Invalid username or password"
	msgAccountLocked      = "Too many failed login attempts, try again later"
	msgUsernameTaken      = "Username already registered"
	msgCredentialsMissing = "Username and password are required"
)

type Option func(b *Backend)

// WithClock replaces the wall clock.
func WithClock(now func() time.Time) Option {
	return func(b *Backend) {
		b.now = now
	}
}

// WithBcryptCost sets the password hashing cost.
func WithBcryptCost(cost int) Option {
	return func(b *Backend) {
		b.bcryptCost = cost
	}
}

// WithLoginJail locks an account for d after maxRetries consecutive failures.
func WithLoginJail(maxRetries int, d time.Duration) Option {
	return func(b *Backend) {
		b.maxRetries = maxRetries
		b.jailDuration = d
	}
}

func (b *Backend) Register(_ context.Context, creds watchlist.Credentials) (watchlist.Reply, error) {
	username := strings.TrimSpace(creds.Username)
	if username == "" || creds.Password == "" {
		return detail(http.StatusBadRequest, msgCredentialsMissing), nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), b.bcryptCost)
	if err != nil {
		return watchlist.Reply{}, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, taken := b.accounts[strings.ToLower(username)]; taken {
		return detail(http.StatusBadRequest, msgUsernameTaken), nil
	}

	a := &account{
		user: watchlist.User{ID: b.nextUserID, Username: username},
		hash: string(hash),
	}
	b.nextUserID++
	b.accounts[strings.ToLower(username)] = a

	return b.issueToken(a), nil
}

func (b *Backend) Login(_ context.Context, creds watchlist.Credentials) (watchlist.Reply, error) {
	key := strings.ToLower(strings.TrimSpace(creds.Username))

	b.mu.Lock()
	defer b.mu.Unlock()

	a, ok := b.accounts[key]
	if !ok {
		return detail(http.StatusUnauthorized, msgInvalidCredentials), nil
	}

	if !a.jailedUntil.IsZero() {
		if a.jailedUntil.After(b.now()) {
			return detail(http.StatusTooManyRequests, msgAccountLocked), nil
		}
		a.jailedUntil = time.Time{}
		a.failedCount = 0
	}

	if err := bcrypt.CompareHashAndPassword([]byte(a.hash), []byte(creds.Password)); err != nil {
		b.recordFailure(a)
		return detail(http.StatusUnauthorized, msgInvalidCredentials), nil
	}

	a.failedCount = 0
	return b.issueToken(a), nil
}

// issueToken mints an opaque bearer for the account. Callers hold the lock.
func (b *Backend) issueToken(a *account) watchlist.Reply {
	token := b.newToken()
	b.tokens[token] = a.user.ID

	return jsonReply(http.StatusOK, map[string]interface{}{
		"access_token": token,
		"token_type":   "bearer",
		"user":         a.user,
	})
}

func (b *Backend) recordFailure(a *account) {
	a.failedCount++
	if a.failedCount >= b.maxRetries {
		a.failedCount = 0
		a.jailedUntil = b.now().Add(b.jailDuration)
	}
}

func newToken() string {
	return uuid.NewString()
}
