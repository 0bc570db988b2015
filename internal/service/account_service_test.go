package service

import (
	"context"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/d60-Lab/yatube/internal/repository"
	"github.com/d60-Lab/yatube/internal/testutil"
)

type recordingMailer struct {
	mu   sync.Mutex
	sent []Message
}

func (m *recordingMailer) Send(_ context.Context, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

var resetLink = regexp.MustCompile(`/auth/reset/([^/]+)/`)

func TestSignupAndAuthenticate(t *testing.T) {
	db := testutil.NewDB(t)
	tokens := NewTokenManager("secret", time.Hour, time.Hour)
	svc := NewAccountService(repository.NewUserRepository(db), tokens, &recordingMailer{}, "http://testserver", bcrypt.MinCost)
	ctx := context.Background()

	u, err := svc.Signup(ctx, SignupInput{Username: "neo", Email: "neo@example.com", Password: "there-is-no-spoon"})
	require.NoError(t, err)
	assert.NotEqual(t, "there-is-no-spoon", u.Password)

	_, err = svc.Signup(ctx, SignupInput{Username: "neo", Password: "another-one"})
	assert.ErrorIs(t, err, ErrUsernameTaken)

	got, err := svc.Authenticate(ctx, "neo", "there-is-no-spoon")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = svc.Authenticate(ctx, "neo", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Authenticate(ctx, "trinity", "x")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	tok, exp, err := svc.IssueSession(got)
	require.NoError(t, err)
	assert.True(t, exp.After(time.Now()))
	fromSession, err := svc.UserFromSession(ctx, tok)
	require.NoError(t, err)
	assert.Equal(t, "neo", fromSession.Username)

	_, err = svc.UserFromSession(ctx, "garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

// racyUsers 模拟并发注册：检查时用户名尚未被占用
type racyUsers struct {
	repository.UserRepository
}

func (racyUsers) UsernameExists(context.Context, string) (bool, error) { return false, nil }

func TestSignupDuplicateFromUniqueIndex(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.CreateUser(t, db, "neo")
	tokens := NewTokenManager("secret", time.Hour, time.Hour)
	users := racyUsers{repository.NewUserRepository(db)}
	svc := NewAccountService(users, tokens, &recordingMailer{}, "http://testserver", bcrypt.MinCost)

	_, err := svc.Signup(context.Background(), SignupInput{Username: "neo", Password: "there-is-no-spoon"})
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestPasswordResetFlow(t *testing.T) {
	db := testutil.NewDB(t)
	mailer := &recordingMailer{}
	tokens := NewTokenManager("secret", time.Hour, time.Hour)
	svc := NewAccountService(repository.NewUserRepository(db), tokens, mailer, "http://testserver/", bcrypt.MinCost)
	ctx := context.Background()
	testutil.CreateUser(t, db, "morpheus")

	require.NoError(t, svc.RequestPasswordReset(ctx, "nobody@example.com"))
	assert.Empty(t, mailer.sent)

	require.NoError(t, svc.RequestPasswordReset(ctx, "MORPHEUS@example.com"))
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "morpheus@example.com", mailer.sent[0].To)
	assert.Contains(t, mailer.sent[0].Body, "http://testserver/auth/reset/")

	m := resetLink.FindStringSubmatch(mailer.sent[0].Body)
	require.Len(t, m, 2)
	token := m[1]

	u, err := svc.CheckResetToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "morpheus", u.Username)

	require.NoError(t, svc.ResetPassword(ctx, token, "red-pill-123"))
	_, err = svc.Authenticate(ctx, "morpheus", "red-pill-123")
	require.NoError(t, err)

	// 密码已变，旧链接失效
	assert.ErrorIs(t, svc.ResetPassword(ctx, token, "blue-pill-123"), ErrInvalidToken)
}
