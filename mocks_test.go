package auth_test

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	auth "github.com/goliatone/go-authguard"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

const (
	sqliteCreateUsers = `CREATE TABLE users (
    id TEXT NOT NULL PRIMARY KEY,
    username TEXT NOT NULL UNIQUE,
    email TEXT NOT NULL UNIQUE,
    secondary_email TEXT,
    password_hash TEXT,
    is_verified BOOLEAN NOT NULL DEFAULT 0,
    permissions TEXT,
    login_attempts INTEGER NOT NULL DEFAULT 0,
    login_attempt_at TIMESTAMP NULL,
    loggedin_at TIMESTAMP NULL,
    verified_at TIMESTAMP NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP,
    deleted_at TIMESTAMP NULL
);`
	sqliteCreateRefreshTokens = `CREATE TABLE refresh_tokens (
    id TEXT NOT NULL PRIMARY KEY,
    token TEXT NOT NULL UNIQUE,
    user_id TEXT NOT NULL,
    revoked BOOLEAN NOT NULL DEFAULT 0,
    rotated_from_id TEXT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    expires_at TIMESTAMP NOT NULL,
    FOREIGN KEY (user_id) REFERENCES users (id)
);`
)

func setupTestDB(t *testing.T) *bun.DB {
	t.Helper()

	db, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)

	bunDB := bun.NewDB(db, sqlitedialect.New())

	_, err = bunDB.Exec(sqliteCreateUsers)
	require.NoError(t, err)
	_, err = bunDB.Exec(sqliteCreateRefreshTokens)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = bunDB.Close()
		_ = db.Close()
	})

	return bunDB
}

var (
	testPasswordHashOnce sync.Once
	testPasswordHash     string
)

const testPassword = "securePassword123!"

// testPasswordHashed reuses a single bcrypt hash, hashing is the slowest part
// of the suite otherwise.
func testPasswordHashed(t *testing.T) string {
	t.Helper()
	testPasswordHashOnce.Do(func() {
		hash, err := auth.HashPassword(testPassword)
		if err != nil {
			panic(err)
		}
		testPasswordHash = hash
	})
	return testPasswordHash
}

type seedUserOptions struct {
	username       string
	email          string
	secondaryEmail string
	verified       bool
	permissions    []string
}

func seedUser(t *testing.T, db *bun.DB, opts seedUserOptions) *auth.User {
	t.Helper()

	if opts.username == "" {
		opts.username = "peperone"
	}
	if opts.email == "" {
		opts.email = opts.username + "@example.com"
	}

	user := &auth.User{
		ID:             uuid.New(),
		Username:       opts.username,
		Email:          opts.email,
		SecondaryEmail: opts.secondaryEmail,
		PasswordHash:   testPasswordHashed(t),
		IsVerified:     opts.verified,
		Permissions:    opts.permissions,
	}

	_, err := db.NewInsert().Model(user).Exec(context.Background())
	require.NoError(t, err)

	return user
}

// testIdentity is a plain value implementation of auth.Identity
type testIdentity struct {
	id          string
	username    string
	email       string
	verified    bool
	permissions []string
}

func (i testIdentity) ID() string       { return i.id }
func (i testIdentity) Username() string { return i.username }
func (i testIdentity) Email() string    { return i.email }
func (i testIdentity) Verified() bool   { return i.verified }

func (i testIdentity) HasPermission(permission string) bool {
	for _, p := range i.permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// MockLogger implements auth.Logger for testing
type MockLogger struct {
	mock.Mock
}

func (m *MockLogger) Debug(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Info(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Warn(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Error(format string, args ...any) {
	m.Called(format, args)
}

// recordingSink captures activity events for assertions
type recordingSink struct {
	mu     sync.Mutex
	events []auth.ActivityEvent
}

func (s *recordingSink) Record(ctx context.Context, event auth.ActivityEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *recordingSink) Events() []auth.ActivityEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]auth.ActivityEvent, len(s.events))
	copy(out, s.events)
	return out
}

// stubResolver resolves subjects from a fixed map
type stubResolver struct {
	identities map[string]auth.Identity
}

func (r stubResolver) LoadIdentity(ctx context.Context, subject string) (auth.Identity, error) {
	if identity, ok := r.identities[subject]; ok {
		return identity, nil
	}
	return nil, auth.ErrIdentityNotFound
}

func testConfig() auth.Config {
	cfg := auth.DefaultConfig([]byte("test-signing-key"))
	cfg.Issuer = "test-issuer"
	cfg.Audience = []string{"test-audience"}
	cfg.AccessTokenTTL = time.Minute * 5
	cfg.RefreshTokenTTL = time.Hour
	return cfg
}
