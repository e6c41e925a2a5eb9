// Package session holds the signed-in user and keeps it in step with the
// durable session database.
package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/dmitrijs2005/procura/internal/client/client"
	"github.com/dmitrijs2005/procura/internal/client/models"
	sessionrepo "github.com/dmitrijs2005/procura/internal/client/repositories/session"
	"github.com/dmitrijs2005/procura/internal/client/view"
	"github.com/dmitrijs2005/procura/internal/common"
	"github.com/dmitrijs2005/procura/internal/dbx"
	"github.com/dmitrijs2005/procura/internal/logging"
	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidCredentials = errors.New("invalid credentials or server error")

// Authenticator is the part of the API client the store needs.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (*models.AuthResponse, error)
}

// Navigator is the part of the view router the store drives on session
// expiry.
type Navigator interface {
	Current() view.View
	Navigate(v view.View) view.View
}

// Store is the session state machine: Anonymous or Authenticated.
// The durable copy is always written before the in-memory copy changes.
type Store struct {
	db      *sql.DB
	api     Authenticator
	nav     Navigator
	logger  logging.Logger
	newRepo func(dbx.DBTX) sessionrepo.Repository

	// transMu serializes transitions: login commit, logout, expiry.
	transMu sync.Mutex

	mu       sync.RWMutex
	identity *models.Identity
}

type Option func(*Store)

func WithNavigator(n Navigator) Option {
	return func(s *Store) { s.nav = n }
}

func WithLogger(l logging.Logger) Option {
	return func(s *Store) { s.logger = l }
}

func defaultRepo(db dbx.DBTX) sessionrepo.Repository {
	return sessionrepo.NewSQLiteRepository(db)
}

// NewStore loads the persisted session. A malformed or half-written record
// is discarded and the store starts Anonymous.
func NewStore(ctx context.Context, db *sql.DB, api Authenticator, opts ...Option) (*Store, error) {
	s := &Store{
		db:      db,
		api:     api,
		logger:  logging.Discard(),
		newRepo: defaultRepo,
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.restore(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) repo() sessionrepo.Repository {
	return s.newRepo(s.db)
}

func (s *Store) restore(ctx context.Context) error {
	stored, err := s.repo().List(ctx)
	if err != nil {
		return err
	}
	if len(stored) == 0 {
		return nil
	}

	id, reason := decodeIdentity(stored)
	if reason != "" {
		s.logger.Warn(ctx, "discarding stored session", "reason", reason)
		return s.repo().Clear(ctx)
	}

	s.mu.Lock()
	s.identity = id
	s.mu.Unlock()
	return nil
}

func decodeIdentity(stored map[string][]byte) (*models.Identity, string) {
	rawUser, hasUser := stored[common.KeyUser]
	token, hasToken := stored[common.KeyAccessToken]

	switch {
	case !hasUser && !hasToken:
		return nil, "session record without identity"
	case !hasUser:
		return nil, "access token without identity"
	case !hasToken || len(token) == 0:
		return nil, "identity without access token"
	}

	var id models.Identity
	if err := json.Unmarshal(rawUser, &id); err != nil {
		return nil, "malformed identity"
	}
	if id.ID == "" || !id.Role.Valid() {
		return nil, "incomplete identity"
	}
	return &id, ""
}

// Login authenticates against the API and, on success, persists the tokens
// and identity in one transaction. On any failure the state is unchanged.
func (s *Store) Login(ctx context.Context, username, password string) (models.Identity, error) {
	resp, err := s.api.Login(ctx, username, password)
	if err != nil {
		var apiErr *client.APIError
		if errors.As(err, &apiErr) && (apiErr.StatusCode == http.StatusBadRequest || apiErr.StatusCode == http.StatusUnauthorized) {
			return models.Identity{}, fmt.Errorf("%w: %s", ErrInvalidCredentials, apiErr.Message)
		}
		return models.Identity{}, err
	}
	if resp.Access == "" {
		return models.Identity{}, fmt.Errorf("%w: no access token in response", ErrInvalidCredentials)
	}

	id, err := models.IdentityFromDetail(resp.UserShortDetail)
	if err != nil {
		return models.Identity{}, err
	}

	rawUser, err := json.Marshal(id)
	if err != nil {
		return models.Identity{}, err
	}

	s.transMu.Lock()
	defer s.transMu.Unlock()

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.newRepo(tx)
		if err := repo.Set(ctx, common.KeyAccessToken, []byte(resp.Access)); err != nil {
			return err
		}
		if resp.Refresh != "" {
			if err := repo.Set(ctx, common.KeyRefreshToken, []byte(resp.Refresh)); err != nil {
				return err
			}
		} else if err := repo.Delete(ctx, common.KeyRefreshToken); err != nil {
			return err
		}
		return repo.Set(ctx, common.KeyUser, rawUser)
	})
	if err != nil {
		return models.Identity{}, fmt.Errorf("persist session: %w", err)
	}

	s.mu.Lock()
	s.identity = &id
	s.mu.Unlock()

	s.logger.Info(ctx, "signed in", "user", id.Username, "role", id.Role)
	return id, nil
}

// Logout clears the durable session and the in-memory identity. It is safe
// to call when already signed out.
func (s *Store) Logout(ctx context.Context) error {
	s.transMu.Lock()
	defer s.transMu.Unlock()
	return s.clear(ctx)
}

// clear drops the durable session and then the in-memory identity. When the
// durable clear fails the identity is kept, so memory never claims Anonymous
// while a restorable session is still on disk.
func (s *Store) clear(ctx context.Context) error {
	if err := s.repo().Clear(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}

	s.mu.Lock()
	s.identity = nil
	s.mu.Unlock()
	return nil
}

// HandleUnauthorized reacts to a 401 on a protected call. When no identity
// is persisted and the login view is not already showing, the session is
// cleared and the router is sent to login. Concurrent calls navigate once.
func (s *Store) HandleUnauthorized(ctx context.Context, apiErr *client.APIError) {
	s.transMu.Lock()
	defer s.transMu.Unlock()

	rawUser, err := s.repo().Get(ctx, common.KeyUser)
	if err != nil {
		s.logger.Error(ctx, "read stored identity", "error", err)
		return
	}
	if rawUser != nil {
		return
	}
	if s.nav != nil && s.nav.Current() == view.Login {
		return
	}

	s.logger.Warn(ctx, "session expired, redirecting to login", "method", apiErr.Method, "path", apiErr.Path)
	if err := s.clear(ctx); err != nil {
		s.logger.Error(ctx, "clear expired session", "error", err)
		return
	}
	if s.nav != nil {
		s.nav.Navigate(view.Login)
	}
}

// AccessToken reads the access token from durable storage.
func (s *Store) AccessToken(ctx context.Context) (string, error) {
	raw, err := s.repo().Get(ctx, common.KeyAccessToken)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// Identity returns the current identity, or nil when signed out.
func (s *Store) Identity() *models.Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.identity == nil {
		return nil
	}
	id := *s.identity
	return &id
}

func (s *Store) hasRole(r models.Role) bool {
	id := s.Identity()
	return id != nil && id.Role == r
}

func (s *Store) IsAuthenticated() bool { return s.Identity() != nil }
func (s *Store) IsStaff() bool         { return s.hasRole(models.RoleStaff) }
func (s *Store) IsApprover() bool      { return s.hasRole(models.RoleManagement) }
func (s *Store) IsFinance() bool       { return s.hasRole(models.RoleFinance) }

// Expiry returns the exp claim of the stored access token. The signature is
// not checked; the value is for display only.
func (s *Store) Expiry(ctx context.Context) (time.Time, error) {
	token, err := s.AccessToken(ctx)
	if err != nil {
		return time.Time{}, err
	}
	if token == "" {
		return time.Time{}, common.ErrInvalidToken
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, fmt.Errorf("%w: no exp claim", common.ErrInvalidToken)
	}
	return exp.Time, nil
}

var _ client.TokenSource = (*Store)(nil)
var _ client.UnauthorizedHandler = (*Store)(nil)
