package vault

import (
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"github.com/filevault/filevault/internal/auth"
)

var _ = ginkgo.Describe("Authorize", func() {
	var (
		owner   *auth.User
		admin   *auth.User
		other   *auth.User
		theFile *File
	)

	ginkgo.BeforeEach(func() {
		owner = &auth.User{ID: "owner-1", Role: auth.RoleUser, Status: auth.StatusActive}
		admin = &auth.User{ID: "admin-1", Role: auth.RoleAdmin, Status: auth.StatusActive}
		other = &auth.User{ID: "other-1", Role: auth.RoleUser, Status: auth.StatusActive}
		theFile = &File{ID: "file-1", OwnerID: "owner-1"}
	})

	grantFor := func(userID, level string) *Grant {
		return &Grant{ID: "grant-1", FileID: "file-1", GranteeID: userID, Level: level}
	}

	ginkgo.Context("ownership", func() {
		ginkgo.It("admits the owner to every action without any grant", func() {
			for _, action := range []Action{ActionRead, ActionDownload, ActionShare, ActionDelete} {
				gomega.Expect(Authorize(owner, theFile, nil, action)).To(gomega.BeTrue())
			}
		})
	})

	ginkgo.Context("admin", func() {
		ginkgo.It("admits an admin to read, download and delete", func() {
			for _, action := range []Action{ActionRead, ActionDownload, ActionDelete} {
				gomega.Expect(Authorize(admin, theFile, nil, action)).To(gomega.BeTrue())
			}
		})

		ginkgo.It("refuses an admin share on a file they do not own", func() {
			gomega.Expect(Authorize(admin, theFile, nil, ActionShare)).To(gomega.BeFalse())
		})
	})

	ginkgo.Context("grants", func() {
		ginkgo.It("refuses every action without a grant", func() {
			for _, action := range []Action{ActionRead, ActionDownload, ActionShare, ActionDelete} {
				gomega.Expect(Authorize(other, theFile, nil, action)).To(gomega.BeFalse())
			}
		})

		ginkgo.It("admits READ with a READ grant but not DOWNLOAD", func() {
			g := grantFor(other.ID, LevelRead)
			gomega.Expect(Authorize(other, theFile, g, ActionRead)).To(gomega.BeTrue())
			gomega.Expect(Authorize(other, theFile, g, ActionDownload)).To(gomega.BeFalse())
		})

		ginkgo.It("admits both READ and DOWNLOAD with a DOWNLOAD grant", func() {
			g := grantFor(other.ID, LevelDownload)
			gomega.Expect(Authorize(other, theFile, g, ActionRead)).To(gomega.BeTrue())
			gomega.Expect(Authorize(other, theFile, g, ActionDownload)).To(gomega.BeTrue())
		})

		ginkgo.It("never admits share or delete through a grant", func() {
			g := grantFor(other.ID, LevelDownload)
			gomega.Expect(Authorize(other, theFile, g, ActionShare)).To(gomega.BeFalse())
			gomega.Expect(Authorize(other, theFile, g, ActionDelete)).To(gomega.BeFalse())
		})

		ginkgo.It("ignores a grant for a different file or a different grantee", func() {
			wrongFile := &Grant{ID: "g", FileID: "file-2", GranteeID: other.ID, Level: LevelDownload}
			gomega.Expect(Authorize(other, theFile, wrongFile, ActionDownload)).To(gomega.BeFalse())

			wrongGrantee := &Grant{ID: "g", FileID: "file-1", GranteeID: "someone-else", Level: LevelDownload}
			gomega.Expect(Authorize(other, theFile, wrongGrantee, ActionDownload)).To(gomega.BeFalse())
		})
	})

	ginkgo.Context("nil inputs", func() {
		ginkgo.It("refuses a nil actor or nil file", func() {
			gomega.Expect(Authorize(nil, theFile, nil, ActionRead)).To(gomega.BeFalse())
			gomega.Expect(Authorize(owner, nil, nil, ActionRead)).To(gomega.BeFalse())
		})
	})
})

var _ = ginkgo.Describe("CanUpload", func() {
	ginkgo.It("admits ADMIN and MANAGER only", func() {
		gomega.Expect(CanUpload(&auth.User{ID: "a", Role: auth.RoleAdmin})).To(gomega.BeTrue())
		gomega.Expect(CanUpload(&auth.User{ID: "m", Role: auth.RoleManager})).To(gomega.BeTrue())
		gomega.Expect(CanUpload(&auth.User{ID: "u", Role: auth.RoleUser})).To(gomega.BeFalse())
		gomega.Expect(CanUpload(nil)).To(gomega.BeFalse())
	})
})

var _ = ginkgo.Describe("ValidateFileName", func() {
	ginkgo.It("rejects empty and blank names", func() {
		gomega.Expect(ValidateFileName("")).To(gomega.Equal(ErrInvalidFileName))
		gomega.Expect(ValidateFileName("   ")).To(gomega.Equal(ErrInvalidFileName))
	})

	ginkgo.It("rejects executable extensions regardless of case", func() {
		for _, name := range []string{"run.exe", "deploy.SH", "script.Bat", "app.js", "index.php", "tool.pl", "job.py"} {
			gomega.Expect(ValidateFileName(name)).To(gomega.Equal(ErrFileTypeBlocked), name)
		}
	})

	ginkgo.It("accepts ordinary document names", func() {
		for _, name := range []string{"report.pdf", "photo.jpg", "notes.txt", "archive.tar.gz", "noextension"} {
			gomega.Expect(ValidateFileName(name)).ToNot(gomega.HaveOccurred(), name)
		}
	})
})
