package service

import (
	"context"
	stderrors "errors"
	"log/slog"
	"strings"

	"github.com/pkg/errors"

	"taskmanager/internal/auth"
	"taskmanager/internal/cache"
	apperrors "taskmanager/internal/errors"
	"taskmanager/internal/model"
	"taskmanager/internal/repository"
	"taskmanager/internal/validation"
)

// SignupInput carries the fields of a new account.
type SignupInput struct {
	Username  string
	Firstname string
	Lastname  *string
	Email     string
	Password  string
}

// Session is the outcome of a successful signup or login.
type Session struct {
	Token  string
	Claims *auth.Claims
	User   model.Identity
}

// AuthService handles authentication operations.
type AuthService interface {
	Signup(ctx context.Context, in SignupInput) (*Session, error)
	Login(ctx context.Context, email, password string) (*Session, error)
	Logout(ctx context.Context, token string) error
	DeleteAccount(ctx context.Context, claims *auth.Claims) error
}

type authService struct {
	users       repository.UserRepository
	issuer      *auth.SessionIssuer
	hasher      auth.PasswordHasher
	revocations auth.RevocationStore
	cache       *cache.Client
	logger      *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	users repository.UserRepository,
	issuer *auth.SessionIssuer,
	hasher auth.PasswordHasher,
	revocations auth.RevocationStore,
	cache *cache.Client,
	logger *slog.Logger,
) AuthService {
	return &authService{
		users:       users,
		issuer:      issuer,
		hasher:      hasher,
		revocations: revocations,
		cache:       cache,
		logger:      logger,
	}
}

// Signup creates the user with a hashed password and opens a session for it.
func (s *authService) Signup(ctx context.Context, in SignupInput) (*Session, error) {
	if err := validateSignup(in); err != nil {
		return nil, err
	}

	taken, err := s.users.EmailTaken(ctx, in.Email, 0)
	if err != nil {
		return nil, err
	}
	if taken {
		s.logger.InfoContext(ctx, "signup rejected, email already registered")
		return nil, apperrors.ErrEmailTaken
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username:     in.Username,
		Firstname:    in.Firstname,
		Lastname:     in.Lastname,
		Email:        in.Email,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	session, err := s.open(user)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "user signed up", "user_id", user.ID)
	return session, nil
}

// Login checks the credentials. Unknown email and wrong password fail identically.
func (s *authService) Login(ctx context.Context, email, password string) (*Session, error) {
	switch {
	case email == "":
		return nil, apperrors.ErrEmailRequired
	case password == "":
		return nil, apperrors.ErrPasswordRequired
	case !validation.IsEmail(email):
		return nil, apperrors.ErrInvalidEmail
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if stderrors.Is(err, apperrors.ErrNotFound) {
			s.logger.WarnContext(ctx, "login failed", "reason", "unknown email")
			return nil, apperrors.ErrBadCredentials
		}
		return nil, err
	}

	if !s.hasher.Check(password, user.PasswordHash) {
		s.logger.WarnContext(ctx, "login failed", "reason", "password mismatch", "user_id", user.ID)
		return nil, apperrors.ErrBadCredentials
	}

	return s.open(user)
}

// Logout revokes token if it is still valid. Missing or invalid tokens are ignored.
func (s *authService) Logout(ctx context.Context, token string) error {
	claims, err := s.issuer.Verify(token)
	if err != nil {
		return nil
	}
	if err := s.revocations.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return errors.Wrap(err, "revoke session")
	}
	s.logger.InfoContext(ctx, "user logged out", "user_id", claims.UserID)
	return nil
}

// DeleteAccount removes the session's user with all of its tasks and revokes the session.
func (s *authService) DeleteAccount(ctx context.Context, claims *auth.Claims) error {
	if err := s.users.Delete(ctx, claims.UserID); err != nil {
		return err
	}
	_ = s.cache.Delete(ctx, profileCacheKey(claims.UserID))

	if claims.ExpiresAt != nil {
		if err := s.revocations.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
			return errors.Wrap(err, "revoke session")
		}
	}
	s.logger.InfoContext(ctx, "account deleted", "user_id", claims.UserID)
	return nil
}

func (s *authService) open(user *model.User) (*Session, error) {
	token, claims, err := s.issuer.Issue(user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	return &Session{Token: token, Claims: claims, User: user.Identity()}, nil
}

func validateSignup(in SignupInput) error {
	switch {
	case strings.TrimSpace(in.Email) == "":
		return apperrors.ErrEmailRequired
	case in.Password == "":
		return apperrors.ErrPasswordRequired
	case strings.TrimSpace(in.Username) == "":
		return apperrors.ErrUsernameRequired
	case strings.TrimSpace(in.Firstname) == "":
		return apperrors.ErrFirstnameRequired
	case !validation.IsEmail(in.Email):
		return apperrors.ErrInvalidEmail
	}
	return nil
}
