package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"

	"github.com/erazemk/najdeno/internal/auth"
	"github.com/erazemk/najdeno/internal/model"
	"github.com/erazemk/najdeno/internal/store"
)

// AuthService registers and authenticates users and verifies their tokens.
type AuthService struct {
	store  store.Store
	secret string
	logger *slog.Logger
}

// NewAuthService returns an AuthService signing tokens with secret.
func NewAuthService(s store.Store, secret string, logger *slog.Logger) *AuthService {
	return &AuthService{store: s, secret: secret, logger: logger}
}

// Signup creates a user account with the "user" role and issues a token.
func (a *AuthService) Signup(ctx context.Context, name, email, password string) (*model.User, string, error) {
	name = strings.TrimSpace(name)
	email = model.NormalizeEmail(email)
	if name == "" || email == "" || password == "" {
		return nil, "", validationError("Please provide all required fields")
	}
	if err := model.ValidateEmail(email); err != nil {
		return nil, "", validationError(err.Error())
	}
	if err := model.ValidatePassword(password); err != nil {
		return nil, "", validationError(err.Error())
	}

	existing, err := a.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, "", err
	}
	if existing != nil {
		return nil, "", conflictError("Email already registered")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, "", err
	}

	u := &model.User{Name: name, Email: email, PasswordHash: hash, Role: model.RoleUser}
	if err := a.store.CreateUser(ctx, u); err != nil {
		// Lost a race with a concurrent signup for the same address.
		if errors.Is(err, store.ErrDuplicate) {
			return nil, "", conflictError("Email already registered")
		}
		return nil, "", err
	}

	token, err := auth.GenerateToken(a.secret, u.ID, u.Email, u.Role)
	if err != nil {
		return nil, "", err
	}

	a.logger.Info("user signed up", "user_id", u.ID, "email", u.Email)
	return u, token, nil
}

// Login checks credentials and issues a token.
func (a *AuthService) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	email = model.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, "", validationError("Please provide email and password")
	}

	u, err := a.store.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, "", err
	}
	if u == nil || !auth.CheckPassword(u.PasswordHash, password) {
		a.logger.Warn("login failed", "email", email)
		return nil, "", authError("Invalid credentials")
	}

	token, err := auth.GenerateToken(a.secret, u.ID, u.Email, u.Role)
	if err != nil {
		return nil, "", err
	}

	a.logger.Info("user logged in", "user_id", u.ID)
	return u, token, nil
}

// Verify returns the claims of a valid token, or nil.
func (a *AuthService) Verify(token string) *auth.Claims {
	return auth.Verify(a.secret, token)
}

// VerifyAdmin returns the claims of a valid admin token, or nil.
func (a *AuthService) VerifyAdmin(token string) *auth.Claims {
	return auth.VerifyAdmin(a.secret, token)
}

// CurrentUser resolves a token to its stored user. Invalid tokens and
// deleted accounts are reported as ErrAuth.
func (a *AuthService) CurrentUser(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, authError("No token provided")
	}
	claims := a.Verify(token)
	if claims == nil {
		return nil, authError("Invalid token")
	}

	u, err := a.store.GetUser(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, authError("User not found")
	}
	return u, nil
}

// EnsureAdmin creates an admin account for email when no admin exists yet.
// It returns the generated password, or "" when an admin already exists.
func (a *AuthService) EnsureAdmin(ctx context.Context, email string) (string, error) {
	has, err := a.store.HasAdmin(ctx)
	if err != nil {
		return "", err
	}
	if has {
		return "", nil
	}

	password, err := generatePassword(16)
	if err != nil {
		return "", fmt.Errorf("generating password: %w", err)
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return "", err
	}

	u := &model.User{
		Name:         "Admin",
		Email:        model.NormalizeEmail(email),
		PasswordHash: hash,
		Role:         model.RoleAdmin,
	}
	if err := a.store.CreateUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return "", conflictError(fmt.Sprintf("%s is already registered as a regular user", u.Email))
		}
		return "", fmt.Errorf("creating admin user: %w", err)
	}

	a.logger.Info("admin account created", "user_id", u.ID, "email", u.Email)
	return password, nil
}

// generatePassword creates a random password of the given length.
func generatePassword(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%&*"
	result := make([]byte, length)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		result[i] = charset[n.Int64()]
	}
	return string(result), nil
}
