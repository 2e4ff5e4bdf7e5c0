package download

import (
	"context"
	"net/mail"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/coachdesk/core"
	"github.com/trezcool/coachdesk/core/institute"
)

// Record is an append-only trace of a material download.
type Record struct {
	ID           int       `json:"id"`
	InstituteID  int       `json:"institute_id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	DownloadedAt time.Time `json:"downloaded_at"` // UTC
}

// Request holds the contact details asked for before serving a file.
type Request struct {
	Name  string `json:"name" form:"name" validate:"required,singleline"`
	Email string `json:"email" form:"email" validate:"required,singleline,email"`
	Phone string `json:"phone" form:"phone" validate:"required,singleline,max=32"`
}

func (r *Request) Validate(validate *validator.Validate) error {
	r.Name = core.CleanString(r.Name)
	r.Email = core.CleanString(r.Email, true /* lower */)
	r.Phone = core.CleanString(r.Phone)
	return validate.Struct(r)
}

type leadData struct {
	Name          string
	Email         string
	Phone         string
	InstituteName string
	Filename      string
}

type (
	Repository interface {
		CreateRecord(ctx context.Context, rec Record) (Record, error)
		// QueryRecords lists the download records of an Institute, newest first.
		QueryRecords(ctx context.Context, instituteID int) ([]Record, error)
	}

	Service struct {
		repo    Repository
		instSvc *institute.Service
		mailSvc core.EmailService
	}
)

func NewService(repo Repository, instSvc *institute.Service, mailSvc core.EmailService) *Service {
	return &Service{repo: repo, instSvc: instSvc, mailSvc: mailSvc}
}

// Record stores a download of `filename` for the tenant `uname` and notifies the tenant.
// Unknown tenants are not an error: nothing is recorded and ok is false.
func (svc *Service) Record(ctx context.Context, uname, filename string, req Request) (rec Record, ok bool, err error) {
	inst, err := svc.instSvc.GetByUsername(ctx, uname)
	if err != nil {
		if errors.Cause(err) == institute.ErrNotFound {
			return Record{}, false, nil
		}
		return Record{}, false, errors.Wrap(err, "finding institute by username")
	}

	rec, err = svc.repo.CreateRecord(ctx, Record{
		InstituteID:  inst.ID,
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		DownloadedAt: time.Now().UTC(),
	})
	if err != nil {
		return Record{}, false, errors.Wrap(err, "creating download record")
	}

	if inst.Email != "" {
		svc.mailSvc.SendMessages(core.NewEmailMessage(
			mail.Address{Name: inst.Name, Address: inst.Email},
			"PDF Download - "+req.Name,
			"download_lead",
			leadData{
				Name:          req.Name,
				Email:         req.Email,
				Phone:         req.Phone,
				InstituteName: inst.Name,
				Filename:      filename,
			},
		))
	}
	return rec, true, nil
}

func (svc *Service) ListByInstitute(ctx context.Context, instituteID int) ([]Record, error) {
	return svc.repo.QueryRecords(ctx, instituteID)
}
