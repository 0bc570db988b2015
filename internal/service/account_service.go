package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/repository"
	"github.com/d60-Lab/yatube/pkg/logger"
)

// SignupInput 注册表单校验后的数据
type SignupInput struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
	Password  string
}

// AccountService 注册、登录、会话与找回密码
type AccountService interface {
	Signup(ctx context.Context, in SignupInput) (*model.User, error)
	Authenticate(ctx context.Context, username, password string) (*model.User, error)
	GetByID(ctx context.Context, id uint) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)

	IssueSession(user *model.User) (string, time.Time, error)
	// UserFromSession 解析会话令牌并加载用户
	UserFromSession(ctx context.Context, token string) (*model.User, error)

	// RequestPasswordReset 对邮箱匹配的每个账号发送重置链接；无匹配时静默
	RequestPasswordReset(ctx context.Context, email string) error
	CheckResetToken(ctx context.Context, token string) (*model.User, error)
	ResetPassword(ctx context.Context, token, newPassword string) error
}

type accountService struct {
	users   repository.UserRepository
	tokens  *TokenManager
	mailer  Mailer
	baseURL string
	cost    int
}

// NewAccountService bcryptCost 为 0 时使用 bcrypt.DefaultCost
func NewAccountService(users repository.UserRepository, tokens *TokenManager, mailer Mailer, baseURL string, bcryptCost int) AccountService {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	if mailer == nil {
		mailer = LogMailer{}
	}
	return &accountService{
		users:   users,
		tokens:  tokens,
		mailer:  mailer,
		baseURL: strings.TrimRight(baseURL, "/"),
		cost:    bcryptCost,
	}
}

func (s *accountService) hash(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

func (s *accountService) Signup(ctx context.Context, in SignupInput) (*model.User, error) {
	exists, err := s.users.UsernameExists(ctx, in.Username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrUsernameTaken
	}
	hash, err := s.hash(in.Password)
	if err != nil {
		return nil, err
	}
	u := &model.User{
		Username:  in.Username,
		Email:     in.Email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Password:  hash,
		IsActive:  true,
	}
	if err := s.users.Create(ctx, u); err != nil {
		// 并发注册同名用户时由唯一索引兜底
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	logger.Info("user signed up", zap.Uint("user_id", u.ID), zap.String("username", u.Username))
	return u, nil
}

func (s *accountService) Authenticate(ctx context.Context, username, password string) (*model.User, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(notFound(err), ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !u.IsActive {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if err := s.users.TouchLastLogin(ctx, u.ID, time.Now()); err != nil {
		logger.Warn("touch last login failed", zap.Uint("user_id", u.ID), zap.Error(err))
	}
	return u, nil
}

func (s *accountService) GetByID(ctx context.Context, id uint) (*model.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	return u, nil
}

func (s *accountService) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, notFound(err)
	}
	return u, nil
}

func (s *accountService) IssueSession(user *model.User) (string, time.Time, error) {
	return s.tokens.IssueSession(user.ID)
}

func (s *accountService) UserFromSession(ctx context.Context, token string) (*model.User, error) {
	id, err := s.tokens.ParseSession(token)
	if err != nil {
		return nil, err
	}
	u, err := s.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if !u.IsActive {
		return nil, ErrInvalidToken
	}
	return u, nil
}

func (s *accountService) RequestPasswordReset(ctx context.Context, email string) error {
	users, err := s.users.ListByEmail(ctx, email)
	if err != nil {
		return err
	}
	for _, u := range users {
		tok, err := s.tokens.IssueReset(u.ID, u.Password)
		if err != nil {
			return err
		}
		msg := Message{
			To:      u.Email,
			Subject: "Password reset on Yatube",
			Body: fmt.Sprintf("Hello %s,\n\nfollow the link to choose a new password:\n%s/auth/reset/%s/\n",
				u.DisplayName(), s.baseURL, tok),
		}
		if err := s.mailer.Send(ctx, msg); err != nil {
			return fmt.Errorf("send reset mail: %w", err)
		}
	}
	return nil
}

func (s *accountService) CheckResetToken(ctx context.Context, token string) (*model.User, error) {
	id, fp, err := s.tokens.ParseReset(token)
	if err != nil {
		return nil, err
	}
	u, err := s.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	if fingerprint(u.Password) != fp {
		return nil, ErrInvalidToken
	}
	return u, nil
}

func (s *accountService) ResetPassword(ctx context.Context, token, newPassword string) error {
	u, err := s.CheckResetToken(ctx, token)
	if err != nil {
		return err
	}
	hash, err := s.hash(newPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, u.ID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	logger.Info("password reset", zap.Uint("user_id", u.ID))
	return nil
}
