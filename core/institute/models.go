package institute

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/coachdesk/core"
)

// Defaults
const (
	DefaultAmount       = 1000.0
	DefaultWhyChooseUs  = "Quality education\nExpert faculty\nProven results"
	DefaultPDFTitle     = "Download Sample Papers"
	FallbackWhyChooseUs = "Quality education, Expert faculty, Proven results"
	FallbackUPIID       = "payment@institute.com"
)

var (
	// allowed upload extensions
	PDFExtensions   = []string{"pdf", "png", "jpg", "jpeg"}
	ImageExtensions = []string{"png", "jpg", "jpeg", "gif"}
)

type Institute struct {
	ID           int       `json:"id"`
	Username     string    `json:"username"`
	Name         string    `json:"institute_name"`
	OfferText    string    `json:"offer_text"`
	UPIID        string    `json:"upi_id"`
	Email        string    `json:"email"`
	Amount       float64   `json:"amount"`
	IsActive     bool      `json:"is_active"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"created_at"` // UTC
}

func (inst *Institute) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	inst.PasswordHash = hash
	return nil
}

func (inst *Institute) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(inst.PasswordHash, []byte(pwd))
}

// PaymentAddress is the UPI id shown on the payment page.
func (inst Institute) PaymentAddress() string {
	if inst.UPIID == "" {
		return FallbackUPIID
	}
	return inst.UPIID
}

// Price is the amount shown on the payment page.
func (inst Institute) Price() float64 {
	if inst.Amount == 0 {
		return DefaultAmount
	}
	return inst.Amount
}

type Testimonial struct {
	Name  string `json:"name"`
	Text  string `json:"text"`
	Image string `json:"image,omitempty"`
}

// ParseTestimonials decodes persisted testimonials. Absent or corrupt data yields an empty sequence.
func ParseTestimonials(raw string) []Testimonial {
	testimonials := make([]Testimonial, 0)
	if strings.TrimSpace(raw) == "" {
		return testimonials
	}
	if err := json.Unmarshal([]byte(raw), &testimonials); err != nil || testimonials == nil {
		return make([]Testimonial, 0)
	}
	return testimonials
}

// EncodeTestimonials is the inverse of ParseTestimonials.
func EncodeTestimonials(testimonials []Testimonial) string {
	if len(testimonials) == 0 {
		return "[]"
	}
	data, err := json.Marshal(testimonials)
	if err != nil {
		return "[]"
	}
	return string(data)
}

// DecodeTestimonialsPayload reads a `{"testimonials": [...]}` request body.
// A malformed payload yields an empty sequence.
func DecodeTestimonialsPayload(body []byte) []Testimonial {
	var payload struct {
		Testimonials json.RawMessage `json:"testimonials"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return make([]Testimonial, 0)
	}
	return ParseTestimonials(string(payload.Testimonials))
}

// Configuration holds the landing page settings of an Institute.
type Configuration struct {
	InstituteID  int           `json:"institute_id"`
	WhyChooseUs  string        `json:"why_choose_us"`
	PDFTitle     string        `json:"pdf_title"`
	PDFFilename  string        `json:"pdf_filename"`
	Testimonials []Testimonial `json:"testimonials"`
}

// DefaultConfiguration is stored alongside every new Institute.
func DefaultConfiguration(instituteID int) Configuration {
	return Configuration{
		InstituteID:  instituteID,
		WhyChooseUs:  DefaultWhyChooseUs,
		PDFTitle:     DefaultPDFTitle,
		Testimonials: make([]Testimonial, 0),
	}
}

func (conf Configuration) WhyChooseUsOrDefault() string {
	if strings.TrimSpace(conf.WhyChooseUs) == "" {
		return FallbackWhyChooseUs
	}
	return conf.WhyChooseUs
}

func (conf Configuration) PDFTitleOrDefault() string {
	if strings.TrimSpace(conf.PDFTitle) == "" {
		return DefaultPDFTitle
	}
	return conf.PDFTitle
}

// WhyChooseUsItems splits the why-choose-us text into bullet points.
func (conf Configuration) WhyChooseUsItems() []string {
	fields := strings.FieldsFunc(conf.WhyChooseUsOrDefault(), func(r rune) bool { return r == '\n' || r == ',' })
	items := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			items = append(items, f)
		}
	}
	return items
}

// Page is everything the public landing page of an Institute needs.
type Page struct {
	Institute     Institute
	Configuration Configuration
}

// NewInstitute contains information needed to create a new Institute.
type NewInstitute struct {
	Username string `json:"username" form:"username" validate:"required,max=64,slug"`
	Password string `json:"password" form:"password" validate:"required"`
	Name     string `json:"institute_name" form:"institute_name" validate:"required,singleline"`
	Email    string `json:"email" form:"email" validate:"omitempty,email"`
}

func (ni *NewInstitute) Validate(validate *validator.Validate) error {
	ni.Username = core.CleanString(ni.Username, true /* lower */)
	ni.Name = core.CleanString(ni.Name)
	ni.Email = core.CleanString(ni.Email, true /* lower */)
	return validate.Struct(ni)
}

// UpdateProfile is what a tenant may change about itself from the admin dashboard.
type UpdateProfile struct {
	Name        string `json:"institute_name" form:"institute_name" validate:"required,singleline"`
	OfferText   string `json:"offer_text" form:"offer_text"`
	UPIID       string `json:"upi_id" form:"upi_id" validate:"singleline"`
	Email       string `json:"email" form:"email"`
	Amount      string `json:"amount" form:"amount" validate:"amount"`
	WhyChooseUs string `json:"why_choose_us" form:"why_choose_us"`
	PDFTitle    string `json:"pdf_title" form:"pdf_title"`
}

func (up *UpdateProfile) Validate(validate *validator.Validate) error {
	up.Name = core.CleanString(up.Name)
	up.OfferText = core.CleanString(up.OfferText)
	up.UPIID = core.CleanString(up.UPIID)
	up.Email = core.CleanString(up.Email, true /* lower */)
	up.Amount = core.CleanString(up.Amount)
	up.WhyChooseUs = core.CleanString(up.WhyChooseUs)
	up.PDFTitle = core.CleanString(up.PDFTitle)
	return validate.Struct(up)
}

// ITUpdate is what the IT admin may change about any tenant.
type ITUpdate struct {
	Name   string `json:"institute_name" form:"institute_name" validate:"required,singleline"`
	Email  string `json:"email" form:"email"`
	UPIID  string `json:"upi_id" form:"upi_id" validate:"singleline"`
	Amount string `json:"amount" form:"amount" validate:"amount"`
}

// NewITUpdate returns an ITUpdate to bind a request into.
// Requests that omit the amount reset the price to DefaultAmount; a submitted blank amount is invalid.
func NewITUpdate() ITUpdate {
	return ITUpdate{Amount: strconv.FormatFloat(DefaultAmount, 'f', -1, 64)}
}

func (iu *ITUpdate) Validate(validate *validator.Validate) error {
	iu.Name = core.CleanString(iu.Name)
	iu.Email = core.CleanString(iu.Email, true /* lower */)
	iu.UPIID = core.CleanString(iu.UPIID)
	iu.Amount = core.CleanString(iu.Amount)
	return validate.Struct(iu)
}

type GetFilter struct {
	ID       int
	Username string
}
