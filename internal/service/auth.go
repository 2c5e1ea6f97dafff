// Package service implements the authentication workflows: registration,
// login, refresh-token rotation and logout.
package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/iliyamo/reading-list/internal/apperr"
	"github.com/iliyamo/reading-list/internal/database"
	"github.com/iliyamo/reading-list/internal/logging"
	"github.com/iliyamo/reading-list/internal/model"
	"github.com/iliyamo/reading-list/internal/queue"
	"github.com/iliyamo/reading-list/internal/repository"
	"github.com/iliyamo/reading-list/internal/utils"
)

// TokenPair is returned by every successful auth operation.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	DeviceID     string `json:"device_id"`
}

type RegisterInput struct {
	Email     string
	Password  string
	DeviceID  string // optional; generated when empty
	UserAgent string // optional
}

type LoginInput struct {
	Email     string
	Password  string
	DeviceID  string
	UserAgent string
}

type RefreshInput struct {
	RefreshToken string
	UserAgent    string
}

// LogoutInput carries what the caller could identify. UserID is meaningful
// only when Authenticated is set by the auth middleware.
type LogoutInput struct {
	DeviceID      string
	AccessToken   string
	RefreshToken  string
	UserID        uint64
	Authenticated bool
}

// AuthService orchestrates the token lifecycle over the user, refresh-token
// and blacklist repositories.
type AuthService struct {
	db      *sql.DB
	users   *repository.UserRepo
	tokens  *repository.TokenRepo
	revoked *repository.RevokedRepo
	codec   *utils.TokenCodec
	cost    int
	events  queue.Publisher
	now     func() time.Time

	// dummyHash is checked against on unknown-email logins so they cost the
	// same bcrypt work as real ones. Built on first use at s.cost.
	dummyOnce sync.Once
	dummyHash string
}

func NewAuthService(db *sql.DB, codec *utils.TokenCodec, bcryptCost int, events queue.Publisher) *AuthService {
	if events == nil {
		events = queue.NopPublisher{}
	}
	return &AuthService{
		db:      db,
		users:   repository.NewUserRepo(db),
		tokens:  repository.NewTokenRepo(db),
		revoked: repository.NewRevokedRepo(db),
		codec:   codec,
		cost:    bcryptCost,
		events:  events,
		now:     time.Now,
	}
}

// Register creates an active user with role "user" and signs them in on the
// supplied or a new device. The user row and its refresh record commit
// together.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (TokenPair, error) {
	hash, err := utils.HashPassword(in.Password, s.cost)
	if err != nil {
		return TokenPair{}, fmt.Errorf("hash password: %w", err)
	}
	device := deviceOrNew(in.DeviceID)

	var (
		pair TokenPair
		uid  uint64
	)
	err = database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		users := s.users.WithTx(tx)
		if _, err := users.GetByEmail(ctx, in.Email); err == nil {
			return apperr.ErrEmailTaken
		} else if !errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("lookup user: %w", err)
		}
		id, err := users.Create(ctx, model.User{
			Email:        in.Email,
			PasswordHash: hash,
			Role:         model.RoleUser,
			IsActive:     true,
		})
		if errors.Is(err, repository.ErrEmailExists) {
			return apperr.ErrEmailTaken
		}
		if err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		uid = id
		pair, err = s.issuePair(ctx, s.tokens.WithTx(tx), id, model.RoleUser, device, in.UserAgent)
		return err
	})
	if err != nil {
		return TokenPair{}, err
	}
	s.publish(ctx, queue.EventUserRegistered, uid, device)
	return pair, nil
}

// Login verifies credentials and issues a new pair. Unknown email, wrong
// password and inactive account are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (TokenPair, error) {
	u, err := s.users.GetByEmail(ctx, in.Email)
	if errors.Is(err, repository.ErrNotFound) {
		s.burnPasswordCheck(in.Password)
		return TokenPair{}, apperr.ErrInvalidCredentials
	}
	if err != nil {
		return TokenPair{}, fmt.Errorf("lookup user: %w", err)
	}
	if !utils.VerifyPassword(u.PasswordHash, in.Password) || !u.IsActive {
		return TokenPair{}, apperr.ErrInvalidCredentials
	}
	s.upgradeHash(ctx, u, in.Password)

	device := deviceOrNew(in.DeviceID)
	var pair TokenPair
	err = database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		var err error
		pair, err = s.issuePair(ctx, s.tokens.WithTx(tx), u.ID, u.Role, device, in.UserAgent)
		return err
	})
	if err != nil {
		return TokenPair{}, err
	}
	s.publish(ctx, queue.EventUserLoggedIn, u.ID, device)
	return pair, nil
}

// Refresh exchanges a refresh token for a new pair on the same device. The
// presented token is revoked before anything else is attempted, so it can
// never be used twice, even when a later step fails.
func (s *AuthService) Refresh(ctx context.Context, in RefreshInput) (TokenPair, error) {
	claims, err := s.codec.Decode(in.RefreshToken)
	if err != nil {
		return TokenPair{}, apperr.ErrInvalidToken
	}
	if claims.Type != model.TokenTypeRefresh {
		return TokenPair{}, apperr.ErrWrongTokenType
	}
	revoked, err := s.tokens.IsRevoked(ctx, claims.ID)
	if err != nil {
		return TokenPair{}, fmt.Errorf("check refresh: %w", err)
	}
	if revoked {
		return TokenPair{}, apperr.ErrRefreshRevoked
	}
	// Committed on its own: the guarded update lets exactly one concurrent
	// caller through.
	won, err := s.tokens.RevokeByJTI(ctx, claims.ID)
	if err != nil {
		return TokenPair{}, fmt.Errorf("revoke refresh: %w", err)
	}
	if !won {
		return TokenPair{}, apperr.ErrRefreshRevoked
	}

	uid, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return TokenPair{}, apperr.ErrInvalidToken
	}
	u, err := s.users.GetByID(ctx, uid)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && !u.IsActive) {
		return TokenPair{}, apperr.ErrUserInactive
	}
	if err != nil {
		return TokenPair{}, fmt.Errorf("load user: %w", err)
	}

	var pair TokenPair
	err = database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		var err error
		pair, err = s.issuePair(ctx, s.tokens.WithTx(tx), u.ID, u.Role, claims.Device, in.UserAgent)
		return err
	})
	if err != nil {
		return TokenPair{}, err
	}
	s.publish(ctx, queue.EventTokenRefreshed, u.ID, claims.Device)
	return pair, nil
}

// Logout revokes what it can identify for the device. Tokens that fail to
// decode or belong to another device or user are skipped; only store failures
// are returned.
func (s *AuthService) Logout(ctx context.Context, in LogoutInput) error {
	err := database.WithTx(ctx, s.db, func(tx *sql.Tx) error {
		revoked := s.revoked.WithTx(tx)

		if c, uid, ok := s.identify(in.AccessToken, model.TokenTypeAccess, in.DeviceID); ok {
			if err := revoked.Add(ctx, model.TokenTypeAccess, c.ID, uid, c.ExpiresAt.Time); err != nil {
				return fmt.Errorf("blacklist access: %w", err)
			}
		}

		if !in.Authenticated {
			return nil
		}

		if _, err := s.tokens.WithTx(tx).RevokeForDevice(ctx, in.UserID, in.DeviceID); err != nil {
			return fmt.Errorf("revoke device: %w", err)
		}

		if c, uid, ok := s.identify(in.RefreshToken, model.TokenTypeRefresh, in.DeviceID); ok && uid == in.UserID {
			if err := revoked.Add(ctx, model.TokenTypeRefresh, c.ID, uid, c.ExpiresAt.Time); err != nil {
				return fmt.Errorf("blacklist refresh: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	if in.Authenticated {
		s.publish(ctx, queue.EventUserLoggedOut, in.UserID, in.DeviceID)
	}
	return nil
}

// Sessions lists the live refresh records of a user.
func (s *AuthService) Sessions(ctx context.Context, userID uint64) ([]model.RefreshRecord, error) {
	return s.tokens.ListActive(ctx, userID, s.now())
}

// identify decodes raw and reports its claims and numeric subject when it is
// a token of the wanted type issued for device.
func (s *AuthService) identify(raw, wantType, device string) (*utils.Claims, uint64, bool) {
	if raw == "" {
		return nil, 0, false
	}
	c, err := s.codec.Decode(raw)
	if err != nil || c.Type != wantType || c.Device != device {
		return nil, 0, false
	}
	uid, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil {
		return nil, 0, false
	}
	return c, uid, true
}

// issuePair signs an access token and persists and signs a refresh token.
func (s *AuthService) issuePair(ctx context.Context, tokens *repository.TokenRepo, userID uint64, role, device, userAgent string) (TokenPair, error) {
	sub := strconv.FormatUint(userID, 10)
	access, err := s.codec.IssueAccess(sub, role, device)
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign access: %w", err)
	}
	rc := s.codec.BuildRefreshClaims(sub, device)
	rec := model.RefreshRecord{
		UserID:    userID,
		JTI:       rc.ID,
		DeviceID:  device,
		ExpiresAt: rc.ExpiresAt.Time,
		CreatedAt: s.now(),
	}
	if userAgent != "" {
		ua := truncate(userAgent, model.MaxUserAgentLen)
		rec.UserAgent = &ua
	}
	if err := tokens.Create(ctx, rec); err != nil {
		return TokenPair{}, fmt.Errorf("store refresh: %w", err)
	}
	refresh, err := s.codec.Encode(rc)
	if err != nil {
		return TokenPair{}, fmt.Errorf("sign refresh: %w", err)
	}
	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
		DeviceID:     device,
	}, nil
}

// upgradeHash rehashes the password when the configured cost changed. It is
// best effort; the login proceeds either way.
func (s *AuthService) upgradeHash(ctx context.Context, u model.User, plain string) {
	if !utils.PasswordNeedsRehash(u.PasswordHash, s.cost) {
		return
	}
	hash, err := utils.HashPassword(plain, s.cost)
	if err == nil {
		err = s.users.UpdatePasswordHash(ctx, u.ID, hash)
	}
	if err != nil {
		logging.FromContext(ctx).WithError(err).WithField("user_id", u.ID).Warn("password rehash failed")
	}
}

func (s *AuthService) publish(ctx context.Context, typ string, userID uint64, device string) {
	ev := queue.NewAuthEvent(typ, userID, device, logging.CorrelationID(ctx))
	if err := s.events.Publish(ctx, ev); err != nil {
		logging.FromContext(ctx).WithError(err).WithField("event", typ).Warn("publish auth event failed")
	}
}

func (s *AuthService) burnPasswordCheck(plain string) {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = utils.HashPassword("reading-list-timing", s.cost)
	})
	_ = utils.VerifyPassword(s.dummyHash, plain)
}

// truncate cuts s to at most n characters.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

func deviceOrNew(device string) string {
	if device != "" {
		return device
	}
	return utils.NewID()
}
