package impl

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"authbase/config"
	"authbase/internal/domain/entity"
	domainerrors "authbase/internal/domain/errors"
	"authbase/internal/domain/repository"
	"authbase/internal/domain/service"
	"authbase/internal/infra/auth"
	"authbase/internal/infra/persistence/memory"
	"authbase/internal/usecase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestConfig() *config.Config {
	return &config.Config{
		SecretKey: config.SecretKeyConfig{Access: "test-access-secret", Refresh: "test-refresh-secret"},
		Token:     config.TokenConfig{AccessTTL: 15 * time.Minute, RefreshTTL: 7 * 24 * time.Hour},
		Auth: &config.AuthConfig{
			BcryptCost:      bcrypt.MinCost,
			HasherWorkers:   4,
			VerificationTTL: 24 * time.Hour,
		},
	}
}

// --- Collaborator fakes ---

type sentVerification struct {
	UserID uuid.UUID
	Email  string
	Token  string
}

type capturingNotifier struct {
	mu   sync.Mutex
	sent []sentVerification
}

func (n *capturingNotifier) SendVerification(_ context.Context, user *entity.User, token string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentVerification{UserID: user.ID, Email: user.Email, Token: token})
}

func (n *capturingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()

	return len(n.sent)
}

func (n *capturingNotifier) last(t *testing.T) sentVerification {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	require.NotEmpty(t, n.sent, "no verification was sent")

	return n.sent[len(n.sent)-1]
}

type capturingAudit struct {
	mu      sync.Mutex
	entries []entity.LoginHistoryEntry
}

func (a *capturingAudit) Record(_ context.Context, entry *entity.LoginHistoryEntry) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, *entry)
}

func (a *capturingAudit) actions() []entity.AuditAction {
	a.mu.Lock()
	defer a.mu.Unlock()

	actions := make([]entity.AuditAction, 0, len(a.entries))
	for _, e := range a.entries {
		actions = append(actions, e.Action)
	}

	return actions
}

func (a *capturingAudit) lastEntry(t *testing.T) entity.LoginHistoryEntry {
	t.Helper()
	a.mu.Lock()
	defer a.mu.Unlock()
	require.NotEmpty(t, a.entries, "no audit entry was recorded")

	return a.entries[len(a.entries)-1]
}

type countingMetrics struct {
	mu     sync.Mutex
	counts map[string]int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{counts: map[string]int{}}
}

func (m *countingMetrics) inc(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[key]++
}

func (m *countingMetrics) get(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.counts[key]
}

func (m *countingMetrics) LoginAttempt(result string, provider entity.Provider) {
	m.inc(fmt.Sprintf("login:%s:%s", result, provider))
}
func (m *countingMetrics) Registered()                     { m.inc("register") }
func (m *countingMetrics) LoggedOut()                      { m.inc("logout") }
func (m *countingMetrics) EmailVerification(result string) { m.inc("verify:" + result) }
func (m *countingMetrics) TokenRefresh(result string)      { m.inc("refresh:" + result) }

type mockOAuthService struct {
	mock.Mock
}

func (m *mockOAuthService) VerifyIDToken(ctx context.Context, idToken string) (*service.OAuthUser, error) {
	args := m.Called(ctx, idToken)
	user, _ := args.Get(0).(*service.OAuthUser)

	return user, args.Error(1)
}

func (m *mockOAuthService) GetProvider() entity.Provider {
	return entity.ProviderGoogle
}

// conflictingUserRepo never finds a user and rejects every insert as a duplicate, which is what a
// caller sees when another request inserts the same row between its lookup and its insert.
type conflictingUserRepo struct {
	repository.UserRepository

	creates atomic.Int32
}

func (r *conflictingUserRepo) FindByEmail(context.Context, string) (*entity.User, error) {
	return nil, repository.ErrUserNotFound
}

func (r *conflictingUserRepo) FindByGoogleID(context.Context, string) (*entity.User, error) {
	return nil, repository.ErrUserNotFound
}

func (r *conflictingUserRepo) Create(context.Context, *entity.User) error {
	r.creates.Add(1)

	return domainerrors.ErrUserAlreadyExists.WrapMessage("email already exists")
}

// inlineTx runs the function directly against users.
type inlineTx struct {
	users repository.UserRepository
}

func (tx inlineTx) Execute(_ context.Context, fn func(repository.RepositoryFactory) error) error {
	return fn(tx)
}

func (tx inlineTx) UserRepo() repository.UserRepository { return tx.users }

func (tx inlineTx) LoginHistoryRepo() repository.LoginHistoryRepository { return nil }

type mockThrottle struct {
	mock.Mock
}

func (m *mockThrottle) Allow(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)

	return args.Bool(0), args.Error(1)
}

// --- Engine fixture ---

type engineFixture struct {
	engine   usecase.AuthUsecase
	admin    usecase.UserAdminUsecase
	store    usecase.CredentialStore
	refresh  usecase.RefreshTokenManager
	users    repository.UserRepository
	tokens   service.TokenService
	notifier *capturingNotifier
	audit    *capturingAudit
	metrics  *countingMetrics
	oauth    *mockOAuthService
	throttle *mockThrottle
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()

	memStore := memory.NewStore()

	return newEngineFixtureOn(t, memory.NewUserRepository(memStore), memory.NewTransactionManager(memStore))
}

// newEngineFixtureOn wires the engine over the given user storage.
func newEngineFixtureOn(t *testing.T, users repository.UserRepository, txManager repository.TransactionManager) *engineFixture {
	t.Helper()

	cfg := newTestConfig()
	logger := newDiscardLogger()

	hasher, err := auth.NewBcryptHasher(cfg)
	require.NoError(t, err)
	tokens, err := auth.NewJWTService(cfg)
	require.NoError(t, err)

	f := &engineFixture{
		users:    users,
		tokens:   tokens,
		notifier: &capturingNotifier{},
		audit:    &capturingAudit{},
		metrics:  newCountingMetrics(),
		oauth:    &mockOAuthService{},
		throttle: &mockThrottle{},
	}
	t.Cleanup(func() {
		f.oauth.AssertExpectations(t)
		f.throttle.AssertExpectations(t)
	})

	f.store = NewCredentialStore(users, logger)
	verification := NewEmailVerificationManager(EmailVerificationParams{
		Store:    f.store,
		Notifier: f.notifier,
		Throttle: f.throttle,
		Config:   cfg,
		Logger:   logger,
	})
	f.refresh = NewRefreshTokenManager(f.store, tokens, hasher, logger)
	identities := NewIdentityResolver(txManager, f.oauth, logger)

	f.engine = NewAuthService(AuthServiceParams{
		Store:        f.store,
		Verification: verification,
		Refresh:      f.refresh,
		Identities:   identities,
		Hasher:       hasher,
		Notifier:     f.notifier,
		Audit:        f.audit,
		Metrics:      f.metrics,
		Logger:       logger,
	})
	f.admin = NewUserAdminService(f.store, logger)

	return f
}

var testMeta = usecase.RequestMeta{IP: "203.0.113.7", UserAgent: "go-test"}

// register creates a local account and returns its id and the mailed verification token.
func (f *engineFixture) register(t *testing.T, email, password string) (uuid.UUID, string) {
	t.Helper()

	out, err := f.engine.Register(context.Background(), &usecase.RegisterInput{
		Email:     email,
		Password:  password,
		FirstName: "Test",
		LastName:  "User",
	}, testMeta)
	require.NoError(t, err)

	return out.UserID, f.notifier.last(t).Token
}

// registerVerified creates a local account and consumes its verification token.
func (f *engineFixture) registerVerified(t *testing.T, email, password string) uuid.UUID {
	t.Helper()

	id, token := f.register(t, email, password)
	_, err := f.engine.VerifyEmail(context.Background(), token, testMeta)
	require.NoError(t, err)

	return id
}

func (f *engineFixture) login(t *testing.T, email, password string) *usecase.AuthOutput {
	t.Helper()

	out, err := f.engine.Login(context.Background(), &usecase.LoginInput{Email: email, Password: password}, testMeta)
	require.NoError(t, err)

	return out
}
