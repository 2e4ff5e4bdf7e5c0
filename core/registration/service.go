package registration

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"

	"github.com/trezcool/coachdesk/core"
	"github.com/trezcool/coachdesk/core/institute"
)

var (
	// errors
	ErrNotFound          = errors.New("Registration not found")
	ErrInstituteNotFound = institute.ErrNotFound
)

type (
	Repository interface {
		CreateRegistration(ctx context.Context, reg Registration) (Registration, error)
		GetPaymentDetails(ctx context.Context, id int) (PaymentDetails, error)
		// CompletePayment marks a Registration as paid. It never writes StatusPending.
		CompletePayment(ctx context.Context, id int, paymentID string) error
		// QueryRegistrations lists the registrations of an Institute, newest first.
		QueryRegistrations(ctx context.Context, instituteID int) ([]Registration, error)
	}

	Service struct {
		repo    Repository
		instSvc *institute.Service
		mailSvc core.EmailService
		baseURL string
	}
)

func NewService(repo Repository, instSvc *institute.Service, mailSvc core.EmailService, conf *core.Config) *Service {
	return &Service{
		repo:    repo,
		instSvc: instSvc,
		mailSvc: mailSvc,
		baseURL: conf.BaseURL,
	}
}

// PaymentPath is the relative URL of the payment page of a Registration.
func PaymentPath(id int) string {
	return fmt.Sprintf("/payment/%d", id)
}

// Register stores a pending Registration for the tenant `uname` and notifies both the aspirant and the tenant.
func (svc *Service) Register(ctx context.Context, uname string, nr NewRegistration) (Registration, error) {
	inst, err := svc.instSvc.GetActiveByUsername(ctx, uname)
	if err != nil {
		return Registration{}, err
	}

	reg, err := svc.repo.CreateRegistration(ctx, Registration{
		InstituteID:   inst.ID,
		Name:          nr.Name,
		Email:         nr.Email,
		Phone:         nr.Phone,
		PaymentStatus: StatusPending,
		CreatedAt:     time.Now().UTC(),
	})
	if err != nil {
		return Registration{}, pkgerrors.Wrap(err, "creating registration")
	}

	svc.sendRegistrationMails(inst, reg)
	return reg, nil
}

func (svc *Service) GetPaymentDetails(ctx context.Context, id int) (PaymentDetails, error) {
	return svc.repo.GetPaymentDetails(ctx, id)
}

// ConfirmPayment completes the payment of a Registration and notifies both parties.
// A missing payment reference is generated. Confirming twice notifies twice.
func (svc *Service) ConfirmPayment(ctx context.Context, cp ConfirmPayment) (PaymentDetails, error) {
	paymentID := cp.PaymentID
	if paymentID == "" {
		paymentID = uuid.NewString()
	}

	if err := svc.repo.CompletePayment(ctx, cp.RegistrationID, paymentID); err != nil {
		return PaymentDetails{}, err
	}
	details, err := svc.repo.GetPaymentDetails(ctx, cp.RegistrationID)
	if err != nil {
		return PaymentDetails{}, pkgerrors.Wrap(err, "getting payment details")
	}

	svc.sendPaymentMails(details)
	return details, nil
}

func (svc *Service) ListByInstitute(ctx context.Context, instituteID int) ([]Registration, error) {
	return svc.repo.QueryRegistrations(ctx, instituteID)
}

func (svc *Service) sendRegistrationMails(inst institute.Institute, reg Registration) {
	messages := []*core.EmailMessage{
		core.NewEmailMessage(
			mail.Address{Name: reg.Name, Address: reg.Email},
			"Registration Confirmation - "+inst.Name,
			"registration_confirmation",
			confirmationData{
				Name:           reg.Name,
				InstituteName:  inst.Name,
				RegistrationID: reg.ID,
				PaymentURL:     svc.baseURL + PaymentPath(reg.ID),
			},
		),
	}
	if inst.Email != "" {
		messages = append(messages, core.NewEmailMessage(
			mail.Address{Name: inst.Name, Address: inst.Email},
			"New Registration - "+reg.Name,
			"registration_lead",
			leadData{Name: reg.Name, Email: reg.Email, Phone: reg.Phone, RegistrationID: reg.ID},
		))
	}
	svc.mailSvc.SendMessages(messages...)
}

func (svc *Service) sendPaymentMails(pd PaymentDetails) {
	data := paymentData{
		Name:          pd.Name,
		Email:         pd.Email,
		Phone:         pd.Phone,
		InstituteName: pd.InstituteName,
		PaymentID:     pd.PaymentID,
	}
	messages := []*core.EmailMessage{
		core.NewEmailMessage(
			mail.Address{Name: pd.Name, Address: pd.Email},
			fmt.Sprintf("Payment Confirmed - Welcome to %s!", pd.InstituteName),
			"payment_confirmed",
			data,
		),
	}
	if pd.InstituteEmail != "" {
		messages = append(messages, core.NewEmailMessage(
			mail.Address{Name: pd.InstituteName, Address: pd.InstituteEmail},
			"Payment Received - "+pd.Name,
			"payment_received",
			data,
		))
	}
	svc.mailSvc.SendMessages(messages...)
}
