package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"pitchside/internal/domain"
	"pitchside/internal/repos"
	"pitchside/internal/validate"
)

var ErrBadCreds = errors.New("invalid email or password")

type RegisterInput struct {
	Name     string `json:"name" validate:"required,notblank,max=100"`
	Email    string `json:"email" validate:"required,email,max=50"`
	Password string `json:"password" validate:"required,password"`
	Phone    string `json:"phone" validate:"required,notblank,max=20"`
}

type AuthService struct {
	Users *repos.UserRepo
}

func NewAuthService(users *repos.UserRepo) *AuthService { return &AuthService{Users: users} }

// Register creates a shopper account. Emails are unique regardless of case.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := domain.User{
		ID:    uuid.NewString(),
		Email: strings.ToLower(strings.TrimSpace(in.Email)),
		Name:  strings.TrimSpace(in.Name),
		Phone: strings.TrimSpace(in.Phone),
		Hash:  string(hash),
		Role:  domain.RoleUser,
	}
	if err := s.Users.Create(ctx, u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *AuthService) Login(ctx context.Context, sid, email, password string) (*domain.User, error) {
	u, err := s.Users.ByEmail(ctx, email)
	if err != nil {
		return nil, ErrBadCreds
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(password)) != nil {
		return nil, ErrBadCreds
	}
	if err := s.Users.BindSession(ctx, sid, u.ID); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *AuthService) Logout(ctx context.Context, sid string) error {
	return s.Users.UnbindSession(ctx, sid)
}

func (s *AuthService) CurrentUser(ctx context.Context, sid string) (*domain.User, error) {
	return s.Users.SessionUser(ctx, sid)
}
