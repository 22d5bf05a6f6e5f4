package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"github.com/filevault/filevault/internal/audit"
)

func TestAuth(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Auth Module Suite")
}

type mockUserRepository struct {
	byEmail map[string]*User
	hashes  map[string]string // email -> password hash
	byID    map[string]*User
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{
		byEmail: map[string]*User{},
		hashes:  map[string]string{},
		byID:    map[string]*User{},
	}
}

func (m *mockUserRepository) Create(_ context.Context, u *User, passwordHash string) error {
	if _, exists := m.byEmail[u.Email]; exists {
		return ErrEmailTaken
	}
	m.byEmail[u.Email] = u
	m.hashes[u.Email] = passwordHash
	m.byID[u.ID] = u
	return nil
}

func (m *mockUserRepository) GetByEmail(_ context.Context, email string) (*User, string, error) {
	u, ok := m.byEmail[email]
	if !ok {
		return nil, "", ErrUserNotFound
	}
	return u, m.hashes[email], nil
}

func (m *mockUserRepository) GetByID(_ context.Context, id string) (*User, error) {
	u, ok := m.byID[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return u, nil
}

type mockRecorder struct {
	actions []audit.Action
}

func (m *mockRecorder) Record(_ context.Context, _ string, action audit.Action, _ *string, _ string) {
	m.actions = append(m.actions, action)
}

var _ = ginkgo.Describe("AuthService", func() {
	var (
		service  *Service
		repo     *mockUserRepository
		recorder *mockRecorder
		ctx      context.Context
	)

	ginkgo.BeforeEach(func() {
		repo = newMockUserRepository()
		recorder = &mockRecorder{}
		tokens := NewJWTTokenGenerator(
			"test-access-secret-0123456789abcdef",
			"test-refresh-secret-0123456789abcdef",
			15*time.Minute, 24*time.Hour)
		lg := slog.New(slog.NewTextHandler(io.Discard, nil))
		service = NewService(repo, tokens, recorder, 10, lg)
		ctx = context.Background()
	})

	register := func(email string) *User {
		u, err := service.Register(ctx, RegisterDTO{
			Name:     "Test User",
			Email:    email,
			Password: "correct_password",
		})
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		return u
	}

	activate := func(u *User) {
		u.Status = StatusActive
	}

	ginkgo.Describe("Register", func() {
		ginkgo.It("forces role USER and status PENDING regardless of input", func() {
			u := register("new@example.com")
			gomega.Expect(u.Role).To(gomega.Equal(RoleUser))
			gomega.Expect(u.Status).To(gomega.Equal(StatusPending))
			gomega.Expect(u.ID).ToNot(gomega.BeEmpty())
		})

		ginkgo.It("rejects a duplicate email", func() {
			register("dup@example.com")

			_, err := service.Register(ctx, RegisterDTO{
				Name:     "Other",
				Email:    "dup@example.com",
				Password: "another_password",
			})
			gomega.Expect(errors.Is(err, ErrEmailTaken)).To(gomega.BeTrue())
		})

		ginkgo.It("rejects a short password", func() {
			_, err := service.Register(ctx, RegisterDTO{
				Name:     "Test",
				Email:    "short@example.com",
				Password: "short",
			})
			gomega.Expect(err).To(gomega.HaveOccurred())
			gomega.Expect(err.Error()).To(gomega.ContainSubstring("at least 8"))
		})
	})

	ginkgo.Describe("Authenticate", func() {
		ginkgo.It("issues a token pair for an active account", func() {
			u := register("user@example.com")
			activate(u)

			tokens, got, err := service.Authenticate(ctx, LoginDTO{
				Email:    "user@example.com",
				Password: "correct_password",
			}, "127.0.0.1")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(tokens.AccessToken).ToNot(gomega.BeEmpty())
			gomega.Expect(tokens.RefreshToken).ToNot(gomega.BeEmpty())
			gomega.Expect(got.ID).To(gomega.Equal(u.ID))

			claims, err := service.ValidateAccessToken(tokens.AccessToken)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(claims.UserID).To(gomega.Equal(u.ID))
		})

		ginkgo.It("records a LOGIN audit entry on success only", func() {
			u := register("user@example.com")
			activate(u)

			_, _, err := service.Authenticate(ctx, LoginDTO{
				Email:    "user@example.com",
				Password: "correct_password",
			}, "127.0.0.1")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(recorder.actions).To(gomega.Equal([]audit.Action{audit.ActionLogin}))

			_, _, err = service.Authenticate(ctx, LoginDTO{
				Email:    "user@example.com",
				Password: "wrong_password",
			}, "127.0.0.1")
			gomega.Expect(err).To(gomega.HaveOccurred())
			gomega.Expect(recorder.actions).To(gomega.HaveLen(1))
		})

		ginkgo.It("collapses unknown email and wrong password into one error", func() {
			u := register("user@example.com")
			activate(u)

			_, _, errUnknown := service.Authenticate(ctx, LoginDTO{
				Email:    "nobody@example.com",
				Password: "whatever_password",
			}, "")
			_, _, errWrongPass := service.Authenticate(ctx, LoginDTO{
				Email:    "user@example.com",
				Password: "wrong_password",
			}, "")

			gomega.Expect(errors.Is(errUnknown, ErrInvalidCredentials)).To(gomega.BeTrue())
			gomega.Expect(errors.Is(errWrongPass, ErrInvalidCredentials)).To(gomega.BeTrue())
			gomega.Expect(errUnknown.Error()).To(gomega.Equal(errWrongPass.Error()))
		})

		ginkgo.It("refuses a PENDING account with the right credentials", func() {
			register("pending@example.com")

			_, _, err := service.Authenticate(ctx, LoginDTO{
				Email:    "pending@example.com",
				Password: "correct_password",
			}, "")
			gomega.Expect(errors.Is(err, ErrAccountPending)).To(gomega.BeTrue())
		})

		ginkgo.It("refuses a SUSPENDED account with the right credentials", func() {
			u := register("suspended@example.com")
			u.Status = StatusSuspended

			_, _, err := service.Authenticate(ctx, LoginDTO{
				Email:    "suspended@example.com",
				Password: "correct_password",
			}, "")
			gomega.Expect(errors.Is(err, ErrAccountSuspended)).To(gomega.BeTrue())
		})
	})

	ginkgo.Describe("RefreshTokens", func() {
		ginkgo.It("exchanges a valid refresh token for a new pair", func() {
			u := register("user@example.com")
			activate(u)

			tokens, _, err := service.Authenticate(ctx, LoginDTO{
				Email:    "user@example.com",
				Password: "correct_password",
			}, "")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			fresh, err := service.RefreshTokens(ctx, tokens.RefreshToken)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(fresh.AccessToken).ToNot(gomega.BeEmpty())
		})

		ginkgo.It("rejects an access token used as a refresh token", func() {
			u := register("user@example.com")
			activate(u)

			tokens, _, err := service.Authenticate(ctx, LoginDTO{
				Email:    "user@example.com",
				Password: "correct_password",
			}, "")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			_, err = service.RefreshTokens(ctx, tokens.AccessToken)
			gomega.Expect(errors.Is(err, ErrInvalidToken)).To(gomega.BeTrue())
		})

		ginkgo.It("refuses a refresh for an account suspended since login", func() {
			u := register("user@example.com")
			activate(u)

			tokens, _, err := service.Authenticate(ctx, LoginDTO{
				Email:    "user@example.com",
				Password: "correct_password",
			}, "")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			u.Status = StatusSuspended
			_, err = service.RefreshTokens(ctx, tokens.RefreshToken)
			gomega.Expect(errors.Is(err, ErrAccountSuspended)).To(gomega.BeTrue())
		})
	})

	ginkgo.Describe("ResolveActor", func() {
		ginkgo.It("returns the current account for an active user", func() {
			u := register("user@example.com")
			activate(u)

			got, err := service.ResolveActor(ctx, u.ID)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(got.Email).To(gomega.Equal(u.Email))
		})

		ginkgo.It("reflects a status change immediately", func() {
			u := register("user@example.com")
			activate(u)
			u.Status = StatusSuspended

			_, err := service.ResolveActor(ctx, u.ID)
			gomega.Expect(errors.Is(err, ErrAccountSuspended)).To(gomega.BeTrue())
		})

		ginkgo.It("fails for a deleted account", func() {
			_, err := service.ResolveActor(ctx, "gone")
			gomega.Expect(errors.Is(err, ErrUserNotFound)).To(gomega.BeTrue())
		})
	})
})
