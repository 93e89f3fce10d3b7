package auth_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrymomot/authkit/pkg/jwt"
	"github.com/dmitrymomot/authkit/pkg/queue"
	"github.com/dmitrymomot/authkit/svc/account"
	"github.com/dmitrymomot/authkit/svc/auth"
)

type MockEnqueuer struct {
	mock.Mock
}

func (m *MockEnqueuer) Enqueue(ctx context.Context, payload any, opts ...queue.EnqueueOption) error {
	args := m.Called(ctx, payload)
	return args.Error(0)
}

type MockVerifier struct {
	mock.Mock
}

func (m *MockVerifier) Verify(ctx context.Context, token, action, remoteIP string) error {
	args := m.Called(ctx, token, action, remoteIP)
	return args.Error(0)
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

var fastHasher = auth.BcryptHasher{Cost: bcrypt.MinCost}

func newTokens(t *testing.T, clock *testClock) *auth.TokenService {
	t.Helper()
	signer, err := jwt.NewFromString("test-secret-with-enough-length-0123456789", jwt.WithClock(clock.Now), jwt.WithIssuer("authkit"))
	require.NoError(t, err)
	tokens, err := auth.NewTokenService(signer, 24*time.Hour)
	require.NoError(t, err)
	return tokens
}

type fixture struct {
	svc    *auth.Service
	store  *account.MemoryStore
	mail   *MockEnqueuer
	tokens *auth.TokenService
	clock  *testClock
}

func newFixture(t *testing.T, cfg auth.Config, opts ...auth.Option) *fixture {
	t.Helper()
	clock := newTestClock()
	store := account.NewMemoryStore()
	mail := &MockEnqueuer{}
	tokens := newTokens(t, clock)

	opts = append([]auth.Option{auth.WithHasher(fastHasher), auth.WithClock(clock.Now)}, opts...)
	svc, err := auth.NewService(store, tokens, mail, cfg, opts...)
	require.NoError(t, err)

	return &fixture{svc: svc, store: store, mail: mail, tokens: tokens, clock: clock}
}

func (f *fixture) signUp(t *testing.T, email, password string) *auth.Session {
	t.Helper()
	f.mail.On("Enqueue", mock.Anything, auth.WelcomeEmail{Email: email, Name: "Ada"}).Return(nil).Once()
	sess, err := f.svc.SignUp(t.Context(), auth.SignUpInput{Email: email, Password: password, Name: "Ada"})
	require.NoError(t, err)
	return sess
}
