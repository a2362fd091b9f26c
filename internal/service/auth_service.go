package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/MelannyAlzate/VinsBakery/internal/auth"
	"github.com/MelannyAlzate/VinsBakery/internal/entity"
	"github.com/MelannyAlzate/VinsBakery/internal/repository"
)

// bcrypt only accepts passwords up to 72 bytes.
const (
	minPasswordLength = 6
	maxPasswordLength = 72
)

// TokenIssuer signs bearer tokens for users.
type TokenIssuer interface {
	Issue(u *entity.User) (string, time.Time, error)
}

// LoginResult is returned on successful login.
type LoginResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *entity.User `json:"user"`
}

// RegisterInput is a new account request.
type RegisterInput struct {
	Name      string       `json:"name"`
	Email     string       `json:"email"`
	Password  string       `json:"password"`
	Role      string       `json:"role"`
	Phone     string       `json:"phone"`
	BirthDate *entity.Date `json:"birth_date"`
}

// AuthService handles logins and account creation.
type AuthService struct {
	users    repository.UserRepository
	tokens   TokenIssuer
	activity ActivityRecorder
	now      func() time.Time

	// compared against when the email is unknown so both paths cost a bcrypt run
	dummyHash string
}

func NewAuthService(users repository.UserRepository, tokens TokenIssuer, activity ActivityRecorder) *AuthService {
	dummy, err := auth.HashPassword(uuid.New().String())
	if err != nil {
		slog.Warn("Failed to prepare dummy password hash", "err", err)
	}
	return &AuthService{users: users, tokens: tokens, activity: activity, now: time.Now, dummyHash: dummy}
}

// Login checks credentials and issues a token. Unknown email and wrong
// password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = normalizeEmail(email)
	u, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, entity.ErrNotFound) {
		auth.CheckPassword(s.dummyHash, password)
		return nil, fmt.Errorf("%w: invalid credentials", entity.ErrUnauthorized)
	}
	if err != nil {
		return nil, err
	}
	if !auth.CheckPassword(u.PasswordHash, password) {
		return nil, fmt.Errorf("%w: invalid credentials", entity.ErrUnauthorized)
	}

	token, expires, err := s.tokens.Issue(u)
	if err != nil {
		return nil, err
	}
	s.activity.Record(ctx, entity.ActivityEntry{UserID: u.ID, Action: "user.login", Module: "users", EntityID: u.ID})
	return &LoginResult{Token: token, ExpiresAt: expires, User: u}, nil
}

// Register creates an account. Customer accounts get a pending profile;
// staff and admin accounts can only be created by an admin.
func (s *AuthService) Register(ctx context.Context, caller *entity.Caller, in RegisterInput) (*entity.User, error) {
	role := entity.RoleCustomer
	if in.Role != "" {
		parsed, err := entity.ParseRole(in.Role)
		if err != nil {
			return nil, &entity.ValidationError{Fields: []string{"role"}, Msg: err.Error()}
		}
		role = parsed
	}

	email := normalizeEmail(in.Email)
	var fields []string
	if strings.TrimSpace(in.Name) == "" {
		fields = append(fields, "name")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		fields = append(fields, "email")
	}
	if len(in.Password) < minPasswordLength || len(in.Password) > maxPasswordLength {
		fields = append(fields, "password")
	}
	if len(fields) > 0 {
		return nil, &entity.ValidationError{Fields: fields, Msg: "invalid registration"}
	}

	if role != entity.RoleCustomer && (caller == nil || caller.Role != entity.RoleAdmin) {
		return nil, forbidden("only admins can create %s accounts", role)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	u := &entity.User{
		ID:           uuid.New().String(),
		Name:         strings.TrimSpace(in.Name),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    now,
	}

	if role == entity.RoleCustomer {
		c := newCustomer(u.Name, strings.TrimSpace(in.Phone), email, in.BirthDate, now)
		err = s.users.CreateWithCustomer(ctx, u, c)
	} else {
		err = s.users.Create(ctx, u)
	}
	if err != nil {
		return nil, err
	}

	slog.Info("User registered", "user_id", u.ID, "role", u.Role)
	s.activity.Record(ctx, entity.ActivityEntry{UserID: userID(caller), Action: "user.register", Module: "users", EntityID: u.ID, Detail: string(u.Role)})
	return u, nil
}

// EnsureAdmin creates the bootstrap admin account when it does not exist.
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password string) error {
	email = normalizeEmail(email)
	_, err := s.users.FindByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, entity.ErrNotFound) {
		return err
	}

	_, err = s.Register(ctx, &entity.Caller{Role: entity.RoleAdmin}, RegisterInput{
		Name:     "Administrator",
		Email:    email,
		Password: password,
		Role:     string(entity.RoleAdmin),
	})
	if err != nil {
		return fmt.Errorf("failed to create admin account: %w", err)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
