// Package authsession holds the signed-in user and their bearer token, and
// keeps the persisted token in step with the in-memory state.
package authsession

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"formassist/internal/common/errors"
	"formassist/internal/common/logger"
	"formassist/internal/common/storage"
	"formassist/internal/models"
)

// ErrSuperseded is returned by a profile resolution that was overtaken by a
// newer login or a logout. Its result was discarded.
var ErrSuperseded = stderrors.New("authsession: superseded by a newer login or logout")

type Session struct {
	config  *Config
	client  AccountClient
	store   storage.Store
	handler *errors.ErrorHandler
	nav     Navigator
	logger  logger.Logger
	now     func() time.Time

	// persistMu orders token store writes; mu guards the fields below.
	persistMu sync.Mutex

	mu      sync.Mutex
	token   string
	user    *models.User
	loading bool
	gen     uint64
	cancel  context.CancelFunc
}

func NewSession(deps ServiceDependencies, config *Config) (*Session, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if deps.Client == nil {
		return nil, fmt.Errorf("account client is required")
	}
	if deps.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if deps.Logger == nil {
		deps.Logger = logger.NewNoOpLogger()
	}
	if deps.Navigator == nil {
		deps.Navigator = NavigatorFunc(func(string) {})
	}

	s := &Session{
		config:  config,
		client:  deps.Client,
		store:   deps.Store,
		handler: deps.Handler,
		nav:     deps.Navigator,
		logger:  deps.Logger.WithFields(map[string]interface{}{"component": "auth-session"}),
		now:     time.Now,
		loading: true,
	}
	if s.handler != nil {
		s.handler.OnAuthRejected(s.Logout)
	}
	return s, nil
}

// Init restores a persisted token and resolves its user. A token that is
// missing, already expired or rejected leaves the session signed out.
func (s *Session) Init(ctx context.Context) error {
	token, err := s.store.Get(ctx, storage.KeyAuthToken)
	if err != nil {
		s.setLoading(false)
		if stderrors.Is(err, storage.ErrNotFound) {
			return nil
		}
		return errors.NewStorageError("get", storage.KeyAuthToken, err)
	}
	token = strings.TrimSpace(token)
	if token == "" {
		s.setLoading(false)
		return nil
	}

	if tokenExpired(token, s.now(), s.config.ExpiryLeeway) {
		s.logger.Info("Stored token expired, discarding", nil)
		s.Logout()
		return nil
	}

	return s.resolve(ctx, token)
}

// Login persists token and resolves the user it belongs to.
func (s *Session) Login(ctx context.Context, token string) error {
	if token == "" {
		return errors.NewInvalidInputError("token", "token is required")
	}

	gen, rctx, cancel := s.begin(ctx, token)
	err := s.persist(gen, func(pctx context.Context) error {
		return s.store.Set(pctx, storage.KeyAuthToken, token, 0)
	})
	if err != nil {
		cancel()
		if stderrors.Is(err, ErrSuperseded) {
			return err
		}
		s.mu.Lock()
		if gen == s.gen {
			s.clearLocked()
		}
		s.mu.Unlock()
		return errors.NewStorageError("set", storage.KeyAuthToken, err)
	}
	if s.generation() != gen {
		cancel()
		return ErrSuperseded
	}
	return s.await(rctx, cancel, gen, token)
}

// Authenticate exchanges credentials for a token, signs in and opens the
// dashboard.
func (s *Session) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	s.logger.Info("Authenticating", map[string]interface{}{"email": email})

	tok, err := s.client.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if err := s.Login(ctx, tok.AccessToken); err != nil {
		return nil, err
	}
	s.nav.Navigate(s.config.DashboardRoute)
	return s.User(), nil
}

// Register creates an account and sends the user to the login route. It
// does not sign in.
func (s *Session) Register(ctx context.Context, email, password, fullName string) (*models.User, error) {
	if email == "" || password == "" {
		return nil, errors.NewInvalidInputError("credentials", "email and password are required")
	}
	req := models.RegisterRequest{Email: email, Password: password}
	if fullName != "" {
		req.FullName = &fullName
	}
	user, err := s.client.Register(ctx, req)
	if err != nil {
		return nil, err
	}
	s.logger.Info("Account registered", map[string]interface{}{"userId": user.ID})
	s.nav.Navigate(s.config.LoginRoute)
	return user, nil
}

// Logout clears the persisted and in-memory state and returns to the
// landing route. Any in-flight profile resolution is cancelled.
func (s *Session) Logout() {
	s.mu.Lock()
	gen := s.clearLocked()
	s.mu.Unlock()
	s.finishLogout(gen)
}

// clearLocked drops the in-memory sign-in and returns the new generation.
func (s *Session) clearLocked() uint64 {
	s.gen++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.token = ""
	s.user = nil
	s.loading = false
	return s.gen
}

// finishLogout removes the persisted token unless a newer login has taken
// over since generation gen was cleared.
func (s *Session) finishLogout(gen uint64) {
	err := s.persist(gen, func(ctx context.Context) error {
		return s.store.Delete(ctx, storage.KeyAuthToken)
	})
	switch {
	case stderrors.Is(err, ErrSuperseded):
		s.logger.Debug("Logout overtaken by a newer login", map[string]interface{}{"generation": gen})
		return
	case err != nil:
		s.logger.Warn("Failed to remove stored token", map[string]interface{}{"error": err.Error()})
	}

	if s.generation() != gen {
		return
	}
	s.logger.Info("Logged out", nil)
	s.nav.Navigate(s.config.LandingRoute)
}

// persist runs one write to the token store on behalf of generation gen.
// Writes are serialized, and a write whose generation is no longer current
// is skipped with ErrSuperseded.
func (s *Session) persist(gen uint64, write func(ctx context.Context) error) error {
	s.persistMu.Lock()
	defer s.persistMu.Unlock()
	if s.generation() != gen {
		return ErrSuperseded
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.config.StoreTimeout)
	defer cancel()
	return write(ctx)
}

func (s *Session) generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// begin starts a new generation signed in with token, cancelling any
// resolution still in flight.
func (s *Session) begin(ctx context.Context, token string) (uint64, context.Context, context.CancelFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	if s.cancel != nil {
		s.cancel()
	}
	s.token = token
	s.user = nil
	s.loading = true
	rctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	return s.gen, rctx, cancel
}

func (s *Session) resolve(ctx context.Context, token string) error {
	gen, rctx, cancel := s.begin(ctx, token)
	return s.await(rctx, cancel, gen, token)
}

// await resolves the profile for generation gen. A rejected token signs the
// session out only while gen is still current.
func (s *Session) await(rctx context.Context, cancel context.CancelFunc, gen uint64, token string) error {
	user, err := s.client.Me(rctx, token)
	cancel()

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		s.logger.Debug("Discarding superseded profile resolution", map[string]interface{}{"generation": gen})
		return ErrSuperseded
	}
	s.cancel = nil
	if err != nil {
		cleared := s.clearLocked()
		s.mu.Unlock()
		s.logger.Warn("Token rejected while resolving profile", map[string]interface{}{
			"errorCode": string(errors.CodeOf(err)),
		})
		s.finishLogout(cleared)
		return err
	}
	s.user = user
	s.loading = false
	s.mu.Unlock()

	s.logger.Info("Profile resolved", map[string]interface{}{"userId": user.ID})
	return nil
}

func (s *Session) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
}

// User returns a copy of the signed-in user, or nil.
func (s *Session) User() *models.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Loading is true until the first Init finishes and while a profile
// resolution is in flight.
func (s *Session) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

func (s *Session) Authenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token != "" && s.user != nil
}
