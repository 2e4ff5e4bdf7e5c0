package institute

import (
	"context"
	"errors"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/trezcool/coachdesk/core"
)

var (
	// errors
	ErrNotFound           = errors.New("Institute not found")
	ErrUsernameExists     = errors.New("Username already exists")
	ErrInvalidCredentials = errors.New("Invalid credentials")
	ErrDisabled           = errors.New("Institute account is disabled. Contact IT admin.")

	// DefaultOrdering lists the newest tenants first.
	DefaultOrdering = []core.DBOrdering{{Field: "created_at"}, {Field: "id"}}
	// OrderingFields may be used to sort tenants.
	OrderingFields = map[string]bool{"id": true, "username": true, "institute_name": true, "amount": true, "is_active": true, "created_at": true}
)

type (
	Repository interface {
		// CreateInstitute stores inst along with its Configuration in a single transaction.
		CreateInstitute(ctx context.Context, inst Institute, conf Configuration) (Institute, error)
		GetInstitute(ctx context.Context, filter GetFilter) (Institute, error)
		QueryInstitutes(ctx context.Context, orderings ...core.DBOrdering) ([]Institute, error)
		UpdateInstitute(ctx context.Context, inst Institute) (Institute, error)
		ToggleInstitute(ctx context.Context, id int) error
	}

	ConfigRepository interface {
		GetConfiguration(ctx context.Context, instituteID int) (Configuration, error)
		UpdateConfiguration(ctx context.Context, conf Configuration) error
	}

	Service struct {
		repo     Repository
		confRepo ConfigRepository
	}
)

func NewService(repo Repository, confRepo ConfigRepository) *Service {
	return &Service{repo: repo, confRepo: confRepo}
}

func (svc *Service) Create(ctx context.Context, ni NewInstitute) (Institute, error) {
	if _, err := svc.repo.GetInstitute(ctx, GetFilter{Username: ni.Username}); err == nil {
		return Institute{}, ErrUsernameExists
	} else if pkgerrors.Cause(err) != ErrNotFound {
		return Institute{}, pkgerrors.Wrap(err, "checking username uniqueness")
	}

	inst := Institute{
		Username:  ni.Username,
		Name:      ni.Name,
		Email:     ni.Email,
		Amount:    DefaultAmount,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}
	if err := inst.SetPassword(ni.Password); err != nil {
		return Institute{}, pkgerrors.Wrap(err, "hashing password")
	}
	return svc.repo.CreateInstitute(ctx, inst, DefaultConfiguration(0))
}

// Authenticate checks the credentials of a tenant admin. Disabled tenants cannot log in.
func (svc *Service) Authenticate(ctx context.Context, uname, pwd string) (Institute, error) {
	inst, err := svc.repo.GetInstitute(ctx, GetFilter{Username: core.CleanString(uname, true /* lower */)})
	if err != nil {
		if pkgerrors.Cause(err) == ErrNotFound {
			return Institute{}, ErrInvalidCredentials
		}
		return Institute{}, pkgerrors.Wrap(err, "finding institute by username")
	}
	if err = inst.CheckPassword(pwd); err != nil {
		return Institute{}, ErrInvalidCredentials
	}
	if !inst.IsActive {
		return Institute{}, ErrDisabled
	}
	return inst, nil
}

func (svc *Service) List(ctx context.Context, orderings ...core.DBOrdering) ([]Institute, error) {
	if len(orderings) == 0 {
		orderings = DefaultOrdering
	}
	return svc.repo.QueryInstitutes(ctx, orderings...)
}

func (svc *Service) GetByID(ctx context.Context, id int) (Institute, error) {
	return svc.repo.GetInstitute(ctx, GetFilter{ID: id})
}

func (svc *Service) GetByUsername(ctx context.Context, uname string) (Institute, error) {
	return svc.repo.GetInstitute(ctx, GetFilter{Username: core.CleanString(uname, true /* lower */)})
}

// GetActiveByUsername hides disabled tenants behind ErrNotFound.
func (svc *Service) GetActiveByUsername(ctx context.Context, uname string) (Institute, error) {
	inst, err := svc.GetByUsername(ctx, uname)
	if err != nil {
		return Institute{}, err
	}
	if !inst.IsActive {
		return Institute{}, ErrNotFound
	}
	return inst, nil
}

// GetPage returns the public landing page of an active tenant.
func (svc *Service) GetPage(ctx context.Context, uname string) (Page, error) {
	inst, err := svc.GetActiveByUsername(ctx, uname)
	if err != nil {
		return Page{}, err
	}
	conf, err := svc.GetConfiguration(ctx, inst.ID)
	if err != nil {
		return Page{}, pkgerrors.Wrap(err, "getting configuration")
	}
	return Page{Institute: inst, Configuration: conf}, nil
}

func (svc *Service) Toggle(ctx context.Context, id int) error {
	return svc.repo.ToggleInstitute(ctx, id)
}

// UpdateProfile applies the tenant's own dashboard settings. up must have been validated.
func (svc *Service) UpdateProfile(ctx context.Context, id int, up UpdateProfile) (Institute, error) {
	amount, _ := core.ParseAmount(up.Amount)

	inst, err := svc.repo.GetInstitute(ctx, GetFilter{ID: id})
	if err != nil {
		return Institute{}, err
	}
	inst.Name = up.Name
	inst.OfferText = up.OfferText
	inst.UPIID = up.UPIID
	inst.Email = up.Email
	inst.Amount = amount
	if inst, err = svc.repo.UpdateInstitute(ctx, inst); err != nil {
		return Institute{}, pkgerrors.Wrap(err, "updating institute")
	}

	conf, err := svc.GetConfiguration(ctx, id)
	if err != nil {
		return Institute{}, pkgerrors.Wrap(err, "getting configuration")
	}
	conf.WhyChooseUs = up.WhyChooseUs
	conf.PDFTitle = up.PDFTitle
	if err = svc.confRepo.UpdateConfiguration(ctx, conf); err != nil {
		return Institute{}, pkgerrors.Wrap(err, "updating configuration")
	}
	return inst, nil
}

// EditByIT applies the IT admin's changes to any tenant. iu must have been validated.
func (svc *Service) EditByIT(ctx context.Context, id int, iu ITUpdate) (Institute, error) {
	amount, _ := core.ParseAmount(iu.Amount)

	inst, err := svc.repo.GetInstitute(ctx, GetFilter{ID: id})
	if err != nil {
		return Institute{}, err
	}
	inst.Name = iu.Name
	inst.Email = iu.Email
	inst.UPIID = iu.UPIID
	inst.Amount = amount
	return svc.repo.UpdateInstitute(ctx, inst)
}

func (svc *Service) SetPassword(ctx context.Context, uname, pwd string) error {
	inst, err := svc.GetByUsername(ctx, uname)
	if err != nil {
		return err
	}
	if err = inst.SetPassword(pwd); err != nil {
		return pkgerrors.Wrap(err, "hashing password")
	}
	_, err = svc.repo.UpdateInstitute(ctx, inst)
	return err
}

// GetConfiguration never fails on a missing row: the defaults are returned instead.
func (svc *Service) GetConfiguration(ctx context.Context, instituteID int) (Configuration, error) {
	conf, err := svc.confRepo.GetConfiguration(ctx, instituteID)
	if pkgerrors.Cause(err) == ErrNotFound {
		return DefaultConfiguration(instituteID), nil
	}
	return conf, err
}

func (svc *Service) SetPDF(ctx context.Context, instituteID int, filename string) error {
	conf, err := svc.GetConfiguration(ctx, instituteID)
	if err != nil {
		return pkgerrors.Wrap(err, "getting configuration")
	}
	conf.PDFFilename = filename
	return svc.confRepo.UpdateConfiguration(ctx, conf)
}

// SetTestimonials replaces the testimonials of a tenant wholesale.
func (svc *Service) SetTestimonials(ctx context.Context, instituteID int, testimonials []Testimonial) error {
	conf, err := svc.GetConfiguration(ctx, instituteID)
	if err != nil {
		return pkgerrors.Wrap(err, "getting configuration")
	}
	if testimonials == nil {
		testimonials = make([]Testimonial, 0)
	}
	conf.Testimonials = testimonials
	return svc.confRepo.UpdateConfiguration(ctx, conf)
}
