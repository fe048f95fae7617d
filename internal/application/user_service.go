package application

import (
	"context"

	"github.com/sanosuguru/go-flight-reservation/internal/domain/user"
)

// UserService はユーザーの登録・認証・参照を提供する
type UserService struct {
	userRepo user.Repository
}

func NewUserService(userRepo user.Repository) *UserService {
	return &UserService{userRepo: userRepo}
}

type RegisterUserInput struct {
	Name     string
	Email    string
	Phone    string
	Password string
}

// Register はユーザーを新規登録する
// メールアドレスが既に使われている場合は user.ErrEmailAlreadyRegistered を返す
func (s *UserService) Register(ctx context.Context, input RegisterUserInput) (*user.User, error) {
	if input.Name == "" {
		return nil, user.ErrNameRequired
	}
	if input.Email == "" {
		return nil, user.ErrEmailRequired
	}
	if input.Password == "" {
		return nil, user.ErrPasswordRequired
	}
	u := user.NewUser(input.Name, input.Email, input.Phone)
	if err := s.userRepo.Create(ctx, u, input.Password); err != nil {
		return nil, err
	}
	return u, nil
}

// Login はメールアドレスとパスワードでユーザーを認証する
func (s *UserService) Login(ctx context.Context, email, password string) (*user.User, error) {
	if email == "" || password == "" {
		return nil, user.ErrInvalidCredentials
	}
	return s.userRepo.Authenticate(ctx, email, password)
}

// GetUser はIDからユーザーを取得する
func (s *UserService) GetUser(ctx context.Context, id string) (*user.User, error) {
	return s.userRepo.GetByID(ctx, id)
}
