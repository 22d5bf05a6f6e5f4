package user

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"github.com/filevault/filevault/internal/audit"
	"github.com/filevault/filevault/internal/auth"
	"github.com/filevault/filevault/internal/vault"
)

func TestUser(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "User Module Suite")
}

type mockRepository struct {
	users       map[string]*auth.User
	ownedBlobs  map[string][]string // userID -> storage keys of owned files
	cascadeErr  error
	deletedUser string
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		users:      map[string]*auth.User{},
		ownedBlobs: map[string][]string{},
	}
}

func (m *mockRepository) GetByID(_ context.Context, id string) (*auth.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, auth.ErrUserNotFound
	}
	return u, nil
}

func (m *mockRepository) GetByEmail(_ context.Context, email string) (*auth.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, auth.ErrUserNotFound
}

func (m *mockRepository) List(_ context.Context) ([]*auth.User, error) {
	var out []*auth.User
	for _, u := range m.users {
		out = append(out, u)
	}
	return out, nil
}

func (m *mockRepository) UpdateRole(_ context.Context, id, role string) (*auth.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, auth.ErrUserNotFound
	}
	u.Role = role
	return u, nil
}

func (m *mockRepository) UpdateStatus(_ context.Context, id, status string) (*auth.User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, auth.ErrUserNotFound
	}
	u.Status = status
	return u, nil
}

func (m *mockRepository) DeleteCascade(_ context.Context, id string) ([]string, error) {
	if m.cascadeErr != nil {
		return nil, m.cascadeErr
	}
	if _, ok := m.users[id]; !ok {
		return nil, auth.ErrUserNotFound
	}
	delete(m.users, id)
	m.deletedUser = id
	return m.ownedBlobs[id], nil
}

type mockBlobStore struct {
	deletedKeys []string
}

func (m *mockBlobStore) Put(_ context.Context, _ string, r io.Reader) (int64, error) {
	return io.Copy(io.Discard, r)
}

func (m *mockBlobStore) Open(_ context.Context, _ string) (io.ReadCloser, error) {
	return nil, errors.New("not stored")
}

func (m *mockBlobStore) Delete(_ context.Context, key string) error {
	m.deletedKeys = append(m.deletedKeys, key)
	return nil
}

func (m *mockBlobStore) Exists(_ context.Context, _ string) (bool, error) {
	return false, nil
}

type mockRecorder struct {
	actions []audit.Action
}

func (m *mockRecorder) Record(_ context.Context, _ string, action audit.Action, _ *string, _ string) {
	m.actions = append(m.actions, action)
}

var _ = ginkgo.Describe("UserService", func() {
	var (
		service  *Service
		repo     *mockRepository
		blobs    *mockBlobStore
		recorder *mockRecorder
		admin    *auth.User
		target   *auth.User
		ctx      context.Context
	)

	ginkgo.BeforeEach(func() {
		repo = newMockRepository()
		blobs = &mockBlobStore{}
		recorder = &mockRecorder{}
		admin = &auth.User{ID: "admin-1", Email: "admin@example.com", Role: auth.RoleAdmin, Status: auth.StatusActive}
		target = &auth.User{ID: "target-1", Email: "target@example.com", Role: auth.RoleUser, Status: auth.StatusPending}
		repo.users[admin.ID] = admin
		repo.users[target.ID] = target
		lg := slog.New(slog.NewTextHandler(io.Discard, nil))
		service = NewService(repo, blobs, recorder, lg)
		ctx = context.Background()
	})

	ginkgo.Describe("SetRole", func() {
		ginkgo.It("changes the target role and records the change", func() {
			u, err := service.SetRole(ctx, admin, target.ID, auth.RoleManager, "127.0.0.1")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(u.Role).To(gomega.Equal(auth.RoleManager))
			gomega.Expect(recorder.actions).To(gomega.Equal([]audit.Action{audit.ActionRoleChange}))
		})

		ginkgo.It("rejects an unknown role", func() {
			_, err := service.SetRole(ctx, admin, target.ID, "SUPERUSER", "")
			gomega.Expect(errors.Is(err, ErrInvalidRole)).To(gomega.BeTrue())
		})

		ginkgo.It("refuses the admin's own account", func() {
			_, err := service.SetRole(ctx, admin, admin.ID, auth.RoleUser, "")
			gomega.Expect(errors.Is(err, ErrSelfAction)).To(gomega.BeTrue())
		})

		ginkgo.It("refuses a non-admin actor", func() {
			_, err := service.SetRole(ctx, target, admin.ID, auth.RoleUser, "")
			gomega.Expect(errors.Is(err, vault.ErrAccessDenied)).To(gomega.BeTrue())
		})

		ginkgo.It("reports an unknown target", func() {
			_, err := service.SetRole(ctx, admin, "nobody", auth.RoleUser, "")
			gomega.Expect(errors.Is(err, auth.ErrUserNotFound)).To(gomega.BeTrue())
		})
	})

	ginkgo.Describe("SetStatus", func() {
		ginkgo.It("activates a pending account and records the change", func() {
			u, err := service.SetStatus(ctx, admin, target.ID, auth.StatusActive, "")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(u.Status).To(gomega.Equal(auth.StatusActive))
			gomega.Expect(recorder.actions).To(gomega.Equal([]audit.Action{audit.ActionStatusChange}))
		})

		ginkgo.It("rejects an unknown status", func() {
			_, err := service.SetStatus(ctx, admin, target.ID, "BANNED", "")
			gomega.Expect(errors.Is(err, ErrInvalidStatus)).To(gomega.BeTrue())
		})

		ginkgo.It("refuses the admin's own account even for an admin", func() {
			_, err := service.SetStatus(ctx, admin, admin.ID, auth.StatusSuspended, "")
			gomega.Expect(errors.Is(err, ErrSelfAction)).To(gomega.BeTrue())
		})
	})

	ginkgo.Describe("Delete", func() {
		ginkgo.It("removes the account and the blobs of its files", func() {
			repo.ownedBlobs[target.ID] = []string{"key-1", "key-2"}

			err := service.Delete(ctx, admin, target.ID, "")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(repo.deletedUser).To(gomega.Equal(target.ID))
			gomega.Expect(blobs.deletedKeys).To(gomega.ConsistOf("key-1", "key-2"))
			gomega.Expect(recorder.actions).To(gomega.Equal([]audit.Action{audit.ActionDelete}))
		})

		ginkgo.It("refuses self-deletion", func() {
			err := service.Delete(ctx, admin, admin.ID, "")
			gomega.Expect(errors.Is(err, ErrSelfAction)).To(gomega.BeTrue())
		})

		ginkgo.It("deletes no blobs when the transaction fails", func() {
			repo.ownedBlobs[target.ID] = []string{"key-1"}
			repo.cascadeErr = errors.New("db down")

			err := service.Delete(ctx, admin, target.ID, "")
			gomega.Expect(err).To(gomega.HaveOccurred())
			gomega.Expect(blobs.deletedKeys).To(gomega.BeEmpty())
			gomega.Expect(recorder.actions).To(gomega.BeEmpty())
		})
	})

	ginkgo.Describe("List", func() {
		ginkgo.It("refuses a non-admin", func() {
			_, err := service.List(ctx, target)
			gomega.Expect(errors.Is(err, vault.ErrAccessDenied)).To(gomega.BeTrue())
		})

		ginkgo.It("returns every account for an admin", func() {
			users, err := service.List(ctx, admin)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(users).To(gomega.HaveLen(2))
		})
	})
})
