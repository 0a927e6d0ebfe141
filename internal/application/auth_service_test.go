package application

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/agrihelp/agrihelp-api/config"
	"github.com/agrihelp/agrihelp-api/internal/infrastructure/memory"
	"github.com/agrihelp/agrihelp-api/pkg/helpers"
	"github.com/agrihelp/agrihelp-api/pkg/mailer"
	mailtpl "github.com/agrihelp/agrihelp-api/pkg/mailer/templates"
)

func TestMain(m *testing.M) {
	helpers.PasswordCost = bcrypt.MinCost
	os.Exit(m.Run())
}

func newAuth(pub Publisher) (*AuthService, *memory.UserRepository) {
	users := memory.NewUserRepository()
	cfg := &config.Config{MailSendEnabled: true, CompanyName: "AgriHelp"}
	return NewAuthService(users, helpers.NewJWTManager("test-secret", time.Hour), nil, pub, cfg, nil), users
}

func TestRegisterIssuesTokenAndQueuesWelcome(t *testing.T) {
	pub := &fakePublisher{}
	svc, users := newAuth(pub)

	res, err := svc.Register(context.Background(), RegisterInput{Name: " Asha ", Email: "Asha@Farm.io", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "Asha", res.User.Name)
	assert.Equal(t, "asha@farm.io", res.User.Email)
	assert.NotEqual(t, "secret1", res.User.Password)

	claims, err := svc.JWT.ParseToken(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, claims.UserID)
	assert.False(t, claims.IsAdmin)

	n, _ := users.Count(context.Background())
	assert.Equal(t, 1, n)

	require.Len(t, pub.sent, 1)
	job := pub.sent[0].(mailer.EmailJob)
	assert.Equal(t, "asha@farm.io", job.To)
	assert.Equal(t, mailtpl.Welcome, job.Template)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newAuth(nil)
	ctx := context.Background()
	_, err := svc.Register(ctx, RegisterInput{Name: "A", Email: "a@b.io", Password: "secret1"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterInput{Name: "B", Email: "A@B.io", Password: "secret2"})
	assert.ErrorIs(t, err, ErrUserExists)
}

func TestRegisterSkipsMailWhenDisabled(t *testing.T) {
	pub := &fakePublisher{}
	svc, _ := newAuth(pub)
	svc.Cfg.MailSendEnabled = false

	_, err := svc.Register(context.Background(), RegisterInput{Name: "A", Email: "a@b.io", Password: "secret1"})
	require.NoError(t, err)
	assert.Empty(t, pub.sent)
}

func TestLogin(t *testing.T) {
	svc, _ := newAuth(nil)
	ctx := context.Background()
	reg, err := svc.Register(ctx, RegisterInput{Name: "A", Email: "a@b.io", Password: "secret1"})
	require.NoError(t, err)

	res, err := svc.Login(ctx, "A@b.io", "secret1")
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, res.User.ID)
	assert.NotEmpty(t, res.Token)

	_, err = svc.Login(ctx, "a@b.io", "wrong-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nobody@b.io", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestProfile(t *testing.T) {
	svc, _ := newAuth(nil)
	ctx := context.Background()
	reg, err := svc.Register(ctx, RegisterInput{Name: "A", Email: "a@b.io", Password: "secret1"})
	require.NoError(t, err)

	u, err := svc.Profile(ctx, reg.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@b.io", u.Email)

	_, err = svc.Profile(ctx, "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestLogoutWithoutRedisIsNoop(t *testing.T) {
	svc, _ := newAuth(nil)
	assert.NoError(t, svc.Logout(context.Background(), "u1", "s1"))
}
