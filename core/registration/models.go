package registration

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/coachdesk/core"
	"github.com/trezcool/coachdesk/core/institute"
)

// Payment statuses. A Registration only ever moves from StatusPending to StatusCompleted.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
)

type Registration struct {
	ID            int       `json:"id"`
	InstituteID   int       `json:"institute_id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	PaymentStatus string    `json:"payment_status"`
	PaymentID     string    `json:"payment_id"`
	CreatedAt     time.Time `json:"created_at"` // UTC
}

func (reg Registration) IsPaid() bool {
	return reg.PaymentStatus == StatusCompleted
}

// NewRegistration is what an aspirant submits from a tenant's landing page.
type NewRegistration struct {
	Name  string `json:"name" form:"name" validate:"required,singleline"`
	Email string `json:"email" form:"email" validate:"required,singleline,email"`
	Phone string `json:"phone" form:"phone" validate:"required,singleline,max=32"`
}

func (nr *NewRegistration) Validate(validate *validator.Validate) error {
	nr.Name = core.CleanString(nr.Name)
	nr.Email = core.CleanString(nr.Email, true /* lower */)
	nr.Phone = core.CleanString(nr.Phone)
	return validate.Struct(nr)
}

// PaymentDetails joins a Registration with the payment settings of its Institute.
type PaymentDetails struct {
	RegistrationID  int     `json:"registration_id"`
	Name            string  `json:"name"`
	Email           string  `json:"email"`
	Phone           string  `json:"phone"`
	PaymentStatus   string  `json:"payment_status"`
	PaymentID       string  `json:"payment_id"`
	InstituteID     int     `json:"institute_id"`
	InstituteName   string  `json:"institute_name"`
	InstituteEmail  string  `json:"-"`
	InstituteUPIID  string  `json:"upi_id"`
	InstituteAmount float64 `json:"amount"`
	InstituteActive bool    `json:"-"`
}

// ConfirmPayment is posted by the payment page once the aspirant has paid.
type ConfirmPayment struct {
	RegistrationID int    `json:"registration_id" form:"registration_id" validate:"required,min=1"`
	PaymentID      string `json:"payment_id" form:"payment_id" validate:"singleline,max=255"`
}

func (cp *ConfirmPayment) Validate(validate *validator.Validate) error {
	cp.PaymentID = core.CleanString(cp.PaymentID)
	return validate.Struct(cp)
}

// notification data

type confirmationData struct {
	Name           string
	InstituteName  string
	RegistrationID int
	PaymentURL     string
}

type leadData struct {
	Name           string
	Email          string
	Phone          string
	RegistrationID int
}

type paymentData struct {
	Name          string
	Email         string
	Phone         string
	InstituteName string
	PaymentID     string
}

// PaymentAddress is the UPI id shown on the payment page.
func (pd PaymentDetails) PaymentAddress() string {
	if pd.InstituteUPIID == "" {
		return institute.FallbackUPIID
	}
	return pd.InstituteUPIID
}

// Price is the amount shown on the payment page.
func (pd PaymentDetails) Price() float64 {
	if pd.InstituteAmount == 0 {
		return institute.DefaultAmount
	}
	return pd.InstituteAmount
}
