package provision_test

import (
	"context"
	"sync"
	"time"

	"github.com/goliatone/go-provision"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// memInvitationStore is a mutex-guarded in-memory InvitationStore. Consume is
// an atomic find-and-delete under the lock, matching the repository's
// single-statement semantics so concurrency tests are meaningful.
type memInvitationStore struct {
	mu     sync.Mutex
	tokens map[uuid.UUID]*provision.Invitation
}

func newMemInvitationStore() *memInvitationStore {
	return &memInvitationStore{tokens: map[uuid.UUID]*provision.Invitation{}}
}

func (s *memInvitationStore) CreateForEmail(ctx context.Context, email string) (*provision.Invitation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, inv := range s.tokens {
		if inv.Email == email {
			return nil, provision.ErrDuplicatePendingInvitation
		}
	}

	now := time.Now()
	inv := &provision.Invitation{
		Token:     uuid.New(),
		Email:     email,
		CreatedAt: &now,
	}
	s.tokens[inv.Token] = inv
	return inv, nil
}

func (s *memInvitationStore) Exists(ctx context.Context, token uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.tokens[token]
	return ok, nil
}

func (s *memInvitationStore) Consume(ctx context.Context, token uuid.UUID) (*provision.Invitation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inv, ok := s.tokens[token]
	if !ok {
		return nil, provision.ErrNotFound
	}
	delete(s.tokens, token)
	return inv, nil
}

func (s *memInvitationStore) Revoke(ctx context.Context, token uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tokens[token]; !ok {
		return provision.ErrNotFound
	}
	delete(s.tokens, token)
	return nil
}

func (s *memInvitationStore) ListAll(ctx context.Context) ([]*provision.Invitation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*provision.Invitation, 0, len(s.tokens))
	for _, inv := range s.tokens {
		out = append(out, inv)
	}
	return out, nil
}

// memAccountStore is a mutex-guarded in-memory AccountStore enforcing the same
// case-insensitive login uniqueness as the real schema.
type memAccountStore struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]*provision.Account
}

func newMemAccountStore() *memAccountStore {
	return &memAccountStore{accounts: map[uuid.UUID]*provision.Account{}}
}

func (s *memAccountStore) Register(ctx context.Context, record *provision.Account) (*provision.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	username := provision.NormalizeLogin(record.Username)
	for _, acc := range s.accounts {
		if acc.Username == username {
			return nil, provision.ErrRegistrationConflict
		}
	}

	now := time.Now()
	stored := *record
	stored.Username = username
	if stored.ID == uuid.Nil {
		stored.ID = uuid.New()
	}
	if stored.Role == "" {
		stored.Role = provision.RoleUser
	}
	stored.CreatedAt = &now
	stored.UpdatedAt = &now

	s.accounts[stored.ID] = &stored
	return &stored, nil
}

func (s *memAccountStore) GetByLogin(ctx context.Context, login string) (*provision.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	username := provision.NormalizeLogin(login)
	for _, acc := range s.accounts {
		if acc.Username == username {
			clone := *acc
			return &clone, nil
		}
	}
	return nil, provision.ErrNotFound
}

func (s *memAccountStore) GetByAccountID(ctx context.Context, id uuid.UUID) (*provision.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[id]
	if !ok {
		return nil, provision.ErrNotFound
	}
	clone := *acc
	return &clone, nil
}

func (s *memAccountStore) ListAll(ctx context.Context) ([]*provision.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*provision.Account, 0, len(s.accounts))
	for _, acc := range s.accounts {
		clone := *acc
		out = append(out, &clone)
	}
	return out, nil
}

func (s *memAccountStore) DeleteByID(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[id]; !ok {
		return provision.ErrNotFound
	}
	delete(s.accounts, id)
	return nil
}

func (s *memAccountStore) UpdateRole(ctx context.Context, id uuid.UUID, role provision.Role) (*provision.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[id]
	if !ok {
		return nil, provision.ErrNotFound
	}
	acc.Role = role
	now := time.Now()
	acc.UpdatedAt = &now

	clone := *acc
	return &clone, nil
}

func (s *memAccountStore) UpdateEnabled(ctx context.Context, id uuid.UUID, enabled bool) (*provision.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	acc, ok := s.accounts[id]
	if !ok {
		return nil, provision.ErrNotFound
	}
	acc.Enabled = enabled
	now := time.Now()
	acc.UpdatedAt = &now

	clone := *acc
	return &clone, nil
}

// unavailableAccountStore fails every operation the way a dead backing store
// would.
type unavailableAccountStore struct{}

func (unavailableAccountStore) Register(context.Context, *provision.Account) (*provision.Account, error) {
	return nil, provision.ErrStorageUnavailable
}

func (unavailableAccountStore) GetByLogin(context.Context, string) (*provision.Account, error) {
	return nil, provision.ErrStorageUnavailable
}

func (unavailableAccountStore) GetByAccountID(context.Context, uuid.UUID) (*provision.Account, error) {
	return nil, provision.ErrStorageUnavailable
}

func (unavailableAccountStore) ListAll(context.Context) ([]*provision.Account, error) {
	return nil, provision.ErrStorageUnavailable
}

func (unavailableAccountStore) DeleteByID(context.Context, uuid.UUID) error {
	return provision.ErrStorageUnavailable
}

func (unavailableAccountStore) UpdateRole(context.Context, uuid.UUID, provision.Role) (*provision.Account, error) {
	return nil, provision.ErrStorageUnavailable
}

func (unavailableAccountStore) UpdateEnabled(context.Context, uuid.UUID, bool) (*provision.Account, error) {
	return nil, provision.ErrStorageUnavailable
}

// unavailableInvitationStore fails every operation.
type unavailableInvitationStore struct{}

func (unavailableInvitationStore) CreateForEmail(context.Context, string) (*provision.Invitation, error) {
	return nil, provision.ErrStorageUnavailable
}

func (unavailableInvitationStore) Exists(context.Context, uuid.UUID) (bool, error) {
	return false, provision.ErrStorageUnavailable
}

func (unavailableInvitationStore) Consume(context.Context, uuid.UUID) (*provision.Invitation, error) {
	return nil, provision.ErrStorageUnavailable
}

func (unavailableInvitationStore) Revoke(context.Context, uuid.UUID) error {
	return provision.ErrStorageUnavailable
}

func (unavailableInvitationStore) ListAll(context.Context) ([]*provision.Invitation, error) {
	return nil, provision.ErrStorageUnavailable
}

// captureNotifier records the invitations it was asked to deliver.
type captureNotifier struct {
	mu        sync.Mutex
	delivered []*provision.Invitation
	notified  chan struct{}
	fail      error
}

func newCaptureNotifier() *captureNotifier {
	return &captureNotifier{notified: make(chan struct{}, 16)}
}

func (n *captureNotifier) NotifyInvitation(ctx context.Context, invitation *provision.Invitation) error {
	n.mu.Lock()
	n.delivered = append(n.delivered, invitation)
	n.mu.Unlock()
	n.notified <- struct{}{}
	return n.fail
}

func (n *captureNotifier) waitForDelivery(timeout time.Duration) bool {
	select {
	case <-n.notified:
		return true
	case <-time.After(timeout):
		return false
	}
}

func (n *captureNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.delivered)
}

// testIdentity is a simple Identity implementation for policy and token tests.
type testIdentity struct {
	id       string
	username string
	email    string
	role     provision.Role
}

func (t testIdentity) ID() string           { return t.id }
func (t testIdentity) Username() string     { return t.username }
func (t testIdentity) Email() string        { return t.email }
func (t testIdentity) Role() provision.Role { return t.role }

// testLoginPayload implements provision.LoginPayload
type testLoginPayload struct {
	Identifier string
	Password   string
}

func (p testLoginPayload) GetIdentifier() string { return p.Identifier }
func (p testLoginPayload) GetPassword() string   { return p.Password }

// MockContext mocks router.Context
type MockContext struct {
	mock.Mock
	NextCalled bool
}

func (m *MockContext) Next() error {
	m.NextCalled = true
	return nil
}

func (m *MockContext) Context() context.Context {
	args := m.Called()
	c, ok := args.Get(0).(context.Context)
	if !ok {
		panic("arg needs to be context.Context")
	}
	return c
}

func (m *MockContext) SetContext(ctx context.Context) {
	m.Called(ctx)
}

func (m *MockContext) Path() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) Method() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) Body() []byte {
	args := m.Called()
	return args.Get(0).([]byte)
}

func (m *MockContext) Status(code int) router.Context {
	m.Called(code)
	return m
}

func (m *MockContext) SendString(s string) error {
	args := m.Called(s)
	return args.Error(0)
}

func (m *MockContext) Send(b []byte) error {
	args := m.Called(b)
	return args.Error(0)
}

func (m *MockContext) JSON(code int, val any) error {
	args := m.Called(code, val)
	return args.Error(0)
}

func (m *MockContext) NoContent(code int) error {
	args := m.Called(code)
	return args.Error(0)
}

func (m *MockContext) Render(name string, bind any, layout ...string) error {
	if len(layout) > 0 {
		args := m.Called(name, bind, layout[0])
		return args.Error(0)
	}
	args := m.Called(name, bind)
	return args.Error(0)
}

func (m *MockContext) Redirect(path string, status ...int) error {
	if len(status) > 0 {
		args := m.Called(path, status)
		return args.Error(0)
	}
	args := m.Called(path)
	return args.Error(0)
}

func (m *MockContext) RedirectToRoute(name string, data router.ViewContext, status ...int) error {
	if len(status) > 0 {
		args := m.Called(name, data, status[0])
		return args.Error(0)
	}
	args := m.Called(name, data)
	return args.Error(0)
}

func (m *MockContext) RedirectBack(fallback string, status ...int) error {
	if len(status) > 0 {
		args := m.Called(fallback, status)
		return args.Error(0)
	}
	args := m.Called(fallback)
	return args.Error(0)
}

func (m *MockContext) SetHeader(key, val string) router.Context {
	m.Called(key, val)
	return m
}

func (m *MockContext) Header(key string) string {
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) Get(key string, defaultValue any) any {
	args := m.Called(key, defaultValue)
	return args.Get(0)
}

func (m *MockContext) GetBool(key string, defaultValue bool) bool {
	args := m.Called(key, defaultValue)
	return args.Bool(0)
}

func (m *MockContext) GetInt(key string, def int) int {
	args := m.Called(key, def)
	return args.Int(0)
}

func (m *MockContext) Set(key string, val any) {
	m.Called(key, val)
}

func (m *MockContext) Bind(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) BindJSON(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) BindXML(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) BindQuery(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) CookieParser(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) Cookie(cookie *router.Cookie) {
	m.Called(cookie)
}

func (m *MockContext) Cookies(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		args := m.Called(key, defaultValue[0])
		return args.String(0)
	}
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) Param(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		args := m.Called(key, defaultValue[0])
		return args.String(0)
	}
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) ParamsInt(key string, defaultValue int) int {
	args := m.Called(key, defaultValue)
	return args.Int(0)
}

func (m *MockContext) Query(key string, defaultValue string) string {
	args := m.Called(key, defaultValue)
	return args.String(0)
}

func (m *MockContext) QueryInt(key string, defaultValue int) int {
	args := m.Called(key, defaultValue)
	return args.Int(0)
}

func (m *MockContext) Queries() map[string]string {
	args := m.Called()
	return args.Get(0).(map[string]string)
}

func (m *MockContext) GetString(key string, defaultValue string) string {
	args := m.Called(key, defaultValue)
	return args.String(0)
}

func (m *MockContext) Locals(key any, value ...any) any {
	if len(value) > 0 {
		m.Called(key, value[0])
		return nil
	}
	args := m.Called(key)
	return args.Get(0)
}

func (m *MockContext) OriginalURL() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) OnNext(callback func() error) {
	m.Called(callback)
}

func (m *MockContext) Referer() string {
	args := m.Called()
	return args.String(0)
}
