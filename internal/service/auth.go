package service

import (
	"context"
	"errors"
	"strings"

	"eventhub-api/internal/apperr"
	"eventhub-api/internal/auth"
	"eventhub-api/internal/models"
	"eventhub-api/internal/storage"
)

// RegisterInput is the body of a sign-up request.
type RegisterInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Name     string `json:"name"`
}

// LoginInput is the body of a login request.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Session is returned by a successful register or login.
type Session struct {
	AccessToken string            `json:"access_token"`
	User        models.PublicUser `json:"user"`
}

// Principal is the caller identity carried by a verified token.
type Principal struct {
	UserID int64
	Email  string
	Role   models.Role
}

// Auth handles sign-up, login and token verification.
type Auth struct {
	users  storage.UserStore
	tokens *auth.Issuer
}

func NewAuth(users storage.UserStore, tokens *auth.Issuer) *Auth {
	return &Auth{users: users, tokens: tokens}
}

// Register creates a STUDENT account and returns a session for it.
func (a *Auth) Register(ctx context.Context, in RegisterInput) (Session, error) {
	in.Email = strings.TrimSpace(in.Email)
	if err := check(in); err != nil {
		return Session{}, err
	}

	if _, err := a.users.GetUserByEmail(ctx, in.Email); err == nil {
		return Session{}, apperr.Conflict("User already exists")
	} else if !errors.Is(err, storage.ErrNotFound) {
		return Session{}, apperr.Internal(err)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return Session{}, apperr.Internal(err)
	}
	u, err := a.users.CreateUser(ctx, models.User{
		Email:        in.Email,
		Name:         strings.TrimSpace(in.Name),
		PasswordHash: hash,
		Role:         models.RoleStudent,
	})
	if err != nil {
		// A concurrent sign-up with the same email lands here.
		if _, ok := storage.IsUnique(err); ok {
			return Session{}, apperr.Conflict("User already exists")
		}
		return Session{}, apperr.Internal(err)
	}
	return a.session(u)
}

// Login verifies credentials. Unknown email and wrong password are
// indistinguishable to the caller.
func (a *Auth) Login(ctx context.Context, in LoginInput) (Session, error) {
	in.Email = strings.TrimSpace(in.Email)
	if err := check(in); err != nil {
		return Session{}, err
	}

	u, err := a.users.GetUserByEmail(ctx, in.Email)
	if errors.Is(err, storage.ErrNotFound) {
		return Session{}, apperr.Unauthorized("Invalid credentials")
	}
	if err != nil {
		return Session{}, apperr.Internal(err)
	}
	if err := auth.ComparePassword(u.PasswordHash, in.Password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return Session{}, apperr.Unauthorized("Invalid credentials")
		}
		return Session{}, apperr.Internal(err)
	}
	return a.session(u)
}

func (a *Auth) session(u models.User) (Session, error) {
	token, err := a.tokens.Issue(u)
	if err != nil {
		return Session{}, apperr.Internal(err)
	}
	return Session{AccessToken: token, User: u.Public()}, nil
}

// Verify checks a bearer token and returns the identity it carries. The
// role is read from the token, so a role change applies after re-login.
func (a *Auth) Verify(token string) (Principal, error) {
	if token == "" {
		return Principal{}, apperr.Unauthorized("Unauthorized")
	}
	claims, err := a.tokens.Parse(token)
	if err != nil {
		return Principal{}, apperr.Wrap(apperr.KindUnauthorized, "Unauthorized", err)
	}
	id, err := claims.UserID()
	if err != nil {
		return Principal{}, apperr.Wrap(apperr.KindUnauthorized, "Unauthorized", err)
	}
	return Principal{UserID: id, Email: claims.Email, Role: claims.Role}, nil
}

// Me loads the current account of p.
func (a *Auth) Me(ctx context.Context, p Principal) (models.PublicUser, error) {
	u, err := a.users.GetUser(ctx, p.UserID)
	if errors.Is(err, storage.ErrNotFound) {
		return models.PublicUser{}, apperr.Unauthorized("Unauthorized")
	}
	if err != nil {
		return models.PublicUser{}, apperr.Internal(err)
	}
	return u.Public(), nil
}

// EnsureAdmin creates an ADMIN account for email unless one with that email
// exists. It reports whether a user was created.
func (a *Auth) EnsureAdmin(ctx context.Context, email, password, name string) (models.User, bool, error) {
	in := RegisterInput{Email: strings.TrimSpace(email), Password: password, Name: name}
	if err := check(in); err != nil {
		return models.User{}, false, err
	}
	existing, err := a.users.GetUserByEmail(ctx, in.Email)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return models.User{}, false, apperr.Internal(err)
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return models.User{}, false, apperr.Internal(err)
	}
	u, err := a.users.CreateUser(ctx, models.User{
		Email:        in.Email,
		Name:         strings.TrimSpace(in.Name),
		PasswordHash: hash,
		Role:         models.RoleAdmin,
	})
	if err != nil {
		return models.User{}, false, storeError(err, "User")
	}
	return u, true, nil
}
