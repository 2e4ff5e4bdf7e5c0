package itadmin

import (
	"context"
	"errors"
	"time"

	pkgerrors "github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/coachdesk/core"
)

var (
	// errors
	ErrNotFound           = errors.New("IT admin not found")
	ErrUsernameExists     = errors.New("Username already exists")
	ErrInvalidCredentials = errors.New("Invalid credentials")
)

// Admin is a platform operator with cross-tenant privileges.
type Admin struct {
	ID           int       `json:"id"`
	Username     string    `json:"username"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"` // UTC
}

func (a *Admin) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	a.PasswordHash = hash
	return nil
}

func (a *Admin) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(a.PasswordHash, []byte(pwd))
}

type (
	Repository interface {
		CountAdmins(ctx context.Context) (int, error)
		CreateAdmin(ctx context.Context, admin Admin) (Admin, error)
		GetAdminByUsername(ctx context.Context, username string) (Admin, error)
		UpdateAdmin(ctx context.Context, admin Admin) (Admin, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// EnsureDefault seeds the default IT admin when none exists yet.
func (svc *Service) EnsureDefault(ctx context.Context, conf core.ITAdminConfig) (created bool, err error) {
	count, err := svc.repo.CountAdmins(ctx)
	if err != nil {
		return false, pkgerrors.Wrap(err, "counting IT admins")
	}
	if count > 0 {
		return false, nil
	}
	if _, err = svc.Create(ctx, conf.Username, conf.Password); err != nil {
		return false, pkgerrors.Wrap(err, "creating default IT admin")
	}
	return true, nil
}

func (svc *Service) Create(ctx context.Context, uname, pwd string) (Admin, error) {
	uname = core.CleanString(uname, true /* lower */)
	if uname == "" || pwd == "" {
		return Admin{}, core.NewValidationError(errors.New("username and password are required"))
	}
	if _, err := svc.repo.GetAdminByUsername(ctx, uname); err == nil {
		return Admin{}, ErrUsernameExists
	} else if pkgerrors.Cause(err) != ErrNotFound {
		return Admin{}, pkgerrors.Wrap(err, "checking username uniqueness")
	}

	admin := Admin{Username: uname, CreatedAt: time.Now().UTC()}
	if err := admin.SetPassword(pwd); err != nil {
		return Admin{}, pkgerrors.Wrap(err, "hashing password")
	}
	return svc.repo.CreateAdmin(ctx, admin)
}

func (svc *Service) Authenticate(ctx context.Context, uname, pwd string) (Admin, error) {
	admin, err := svc.repo.GetAdminByUsername(ctx, core.CleanString(uname, true /* lower */))
	if err != nil {
		if pkgerrors.Cause(err) == ErrNotFound {
			return Admin{}, ErrInvalidCredentials
		}
		return Admin{}, pkgerrors.Wrap(err, "finding IT admin by username")
	}
	if err = admin.CheckPassword(pwd); err != nil {
		return Admin{}, ErrInvalidCredentials
	}
	return admin, nil
}

func (svc *Service) SetPassword(ctx context.Context, uname, pwd string) error {
	admin, err := svc.repo.GetAdminByUsername(ctx, core.CleanString(uname, true /* lower */))
	if err != nil {
		return err
	}
	if err = admin.SetPassword(pwd); err != nil {
		return pkgerrors.Wrap(err, "hashing password")
	}
	_, err = svc.repo.UpdateAdmin(ctx, admin)
	return err
}
