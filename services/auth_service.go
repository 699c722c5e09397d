package services

import (
	"chat-hub/auth"
	"chat-hub/domain"
	apperrors "chat-hub/errors"
	"chat-hub/observability"
	"chat-hub/repositories"

	"github.com/google/uuid"
)

// AuthResult is the direct reply to a successful handshake: the caller's
// profile plus a freshly issued bearer token.
type AuthResult struct {
	Profile domain.Profile
	Token   string
}

type IAuthService interface {
	Login(username, password string) (AuthResult, error)
	Register(username, password string) (AuthResult, error)
	Authenticate(token string) (AuthResult, error)
}

type AuthService struct {
	users  repositories.IUserRepository
	issuer auth.TokenIssuer
	rules  auth.Rules
	stats  *observability.Stats
}

func NewAuthService(users repositories.IUserRepository, issuer auth.TokenIssuer,
	rules auth.Rules, stats *observability.Stats) IAuthService {
	return &AuthService{users: users, issuer: issuer, rules: rules, stats: stats}
}

// Login checks format rules before touching storage or doing any hashing,
// then verifies the credential and issues a fresh token.
func (s *AuthService) Login(username, password string) (AuthResult, error) {
	if err := s.rules.ValidateUsername(username); err != nil {
		return AuthResult{}, err
	}
	if err := s.rules.ValidatePassword(password); err != nil {
		return AuthResult{}, err
	}

	user, err := s.users.GetUserByUsername(username)
	if apperrors.Is(err, apperrors.ErrNotFound) {
		s.stats.AuthFailed()
		return AuthResult{}, apperrors.ErrNoSuchUser
	}
	if err != nil {
		return AuthResult{}, err
	}

	match, err := auth.ComparePassword(password, user.Secret)
	if err != nil || !match {
		s.stats.AuthFailed()
		return AuthResult{}, apperrors.ErrWrongPassword
	}

	return s.issue(user)
}

// Register creates a user with an empty channel set and logs it in.
func (s *AuthService) Register(username, password string) (AuthResult, error) {
	if err := s.rules.ValidateUsername(username); err != nil {
		return AuthResult{}, err
	}
	if err := s.rules.ValidatePassword(password); err != nil {
		return AuthResult{}, err
	}

	secret, err := auth.HashPassword(password)
	if err != nil {
		return AuthResult{}, apperrors.Storagef(err, "hash credential")
	}

	user := domain.User{
		ID:       uuid.NewString(),
		Username: username,
		Handle:   username,
		Secret:   secret,
		Channels: domain.NewIDSet(),
		Alive:    true,
	}
	if err := s.users.CreateUser(user); err != nil {
		s.stats.AuthFailed()
		return AuthResult{}, err
	}

	return s.issue(user)
}

// Authenticate verifies a bearer token presented at handshake time and, on
// success, returns the current profile with a refreshed token.
func (s *AuthService) Authenticate(token string) (AuthResult, error) {
	claims, err := s.issuer.Verify(token)
	if err != nil {
		s.stats.AuthFailed()
		return AuthResult{}, apperrors.ErrInvalidToken
	}

	user, err := s.users.GetUser(claims.UserID)
	if apperrors.Is(err, apperrors.ErrNotFound) {
		s.stats.AuthFailed()
		return AuthResult{}, apperrors.ErrInvalidToken
	}
	if err != nil {
		return AuthResult{}, err
	}

	return s.issue(user)
}

func (s *AuthService) issue(user domain.User) (AuthResult, error) {
	token, err := s.issuer.Sign(user.ID, user.Username)
	if err != nil {
		return AuthResult{}, apperrors.ErrTokenGeneration
	}
	s.stats.AuthSucceeded()
	return AuthResult{Profile: user.Profile(), Token: token}, nil
}
