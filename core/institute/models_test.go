package institute

import (
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/coachdesk/core"
)

func newValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	_en := en.New()
	translator, _ := ut.New(_en, _en).GetTranslator("en")
	core.InitValidators(validate, translator)
	return validate, translator
}

// fieldErrors runs validate & returns the translated message of each invalid field.
func fieldErrors(t *testing.T, validate func() error, translator ut.Translator) map[string]string {
	err := validate()
	if err == nil {
		return nil
	}
	vErr, ok := core.IsValidationError(core.TranslateValidationErrors(err, translator))
	require.True(t, ok, "unexpected error: %v", err)
	flds := make(map[string]string, len(vErr.Fields))
	for _, f := range vErr.Fields {
		flds[f.Field] = f.Error
	}
	return flds
}

func TestParseTestimonials(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []Testimonial
	}{
		{name: "empty", raw: "", want: []Testimonial{}},
		{name: "null", raw: "null", want: []Testimonial{}},
		{name: "corrupt", raw: "[{", want: []Testimonial{}},
		{name: "object", raw: `{"name":"A"}`, want: []Testimonial{}},
		{name: "ok", raw: `[{"name":"A","text":"Great","image":"/uploads/a.png"}]`, want: []Testimonial{{Name: "A", Text: "Great", Image: "/uploads/a.png"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseTestimonials(tt.raw))
		})
	}
}

func TestEncodeTestimonials(t *testing.T) {
	assert.Equal(t, "[]", EncodeTestimonials(nil))
	assert.Equal(t, `[{"name":"A","text":"Great"}]`, EncodeTestimonials([]Testimonial{{Name: "A", Text: "Great"}}))
}

func TestDecodeTestimonialsPayload(t *testing.T) {
	assert.Equal(t, []Testimonial{}, DecodeTestimonialsPayload([]byte(`lol`)))
	assert.Equal(t, []Testimonial{}, DecodeTestimonialsPayload([]byte(`{}`)))
	assert.Equal(t, []Testimonial{}, DecodeTestimonialsPayload([]byte(`{"testimonials":"lol"}`)))
	assert.Equal(t,
		[]Testimonial{{Name: "A", Text: "x"}, {Name: "B", Text: "y"}},
		DecodeTestimonialsPayload([]byte(`{"testimonials":[{"name":"A","text":"x"},{"name":"B","text":"y"}]}`)),
	)
}

func TestConfiguration_fallbacks(t *testing.T) {
	var conf Configuration
	assert.Equal(t, FallbackWhyChooseUs, conf.WhyChooseUsOrDefault())
	assert.Equal(t, DefaultPDFTitle, conf.PDFTitleOrDefault())
	assert.Equal(t, []string{"Quality education", "Expert faculty", "Proven results"}, conf.WhyChooseUsItems())

	conf = DefaultConfiguration(7)
	assert.Equal(t, 7, conf.InstituteID)
	assert.Equal(t, []string{"Quality education", "Expert faculty", "Proven results"}, conf.WhyChooseUsItems())
	assert.NotNil(t, conf.Testimonials)

	conf.WhyChooseUs = "Small batches\n\n  Mock tests  "
	conf.PDFTitle = "Free papers"
	assert.Equal(t, []string{"Small batches", "Mock tests"}, conf.WhyChooseUsItems())
	assert.Equal(t, "Free papers", conf.PDFTitleOrDefault())
}

func TestInstitute_fallbacks(t *testing.T) {
	var inst Institute
	assert.Equal(t, FallbackUPIID, inst.PaymentAddress())
	assert.Equal(t, DefaultAmount, inst.Price())

	inst = Institute{UPIID: "acme@upi", Amount: 499}
	assert.Equal(t, "acme@upi", inst.PaymentAddress())
	assert.Equal(t, 499.0, inst.Price())
}

func TestInstitute_password(t *testing.T) {
	var inst Institute
	assert.NoError(t, inst.SetPassword("pw123"))
	assert.NotEqual(t, []byte("pw123"), inst.PasswordHash)
	assert.NoError(t, inst.CheckPassword("pw123"))
	assert.Error(t, inst.CheckPassword("nope"))
}

func TestNewInstitute_Validate(t *testing.T) {
	validate, translator := newValidator()

	ni := NewInstitute{Username: " Acme ", Password: "pw", Name: " Acme Coaching ", Email: "Owner@Acme.TEST"}
	assert.Nil(t, fieldErrors(t, func() error { return ni.Validate(validate) }, translator))
	assert.Equal(t, "acme", ni.Username)
	assert.Equal(t, "Acme Coaching", ni.Name)
	assert.Equal(t, "owner@acme.test", ni.Email)

	ni = NewInstitute{Username: "Acme Coaching", Name: "Acme\r\nBcc: x@evil.test", Email: "nope"}
	assert.Equal(t, map[string]string{
		"username":       "only lowercase letters, digits and hyphens are allowed",
		"password":       "this field is required",
		"institute_name": "line breaks are not allowed",
		"email":          "email must be a valid email address",
	}, fieldErrors(t, func() error { return ni.Validate(validate) }, translator))
}

func TestUpdateProfile_Validate(t *testing.T) {
	validate, translator := newValidator()

	tests := []struct {
		name string
		up   UpdateProfile
		want map[string]string
	}{
		{name: "no name", up: UpdateProfile{Name: " ", Amount: "10"}, want: map[string]string{"institute_name": "this field is required"}},
		{name: "no amount", up: UpdateProfile{Name: "Acme"}, want: map[string]string{"amount": "Invalid amount"}},
		{name: "blank amount", up: UpdateProfile{Name: "Acme", Amount: "  "}, want: map[string]string{"amount": "Invalid amount"}},
		{name: "negative amount", up: UpdateProfile{Name: "Acme", Amount: "-3"}, want: map[string]string{"amount": "Invalid amount"}},
		{name: "not a number", up: UpdateProfile{Name: "Acme", Amount: "NaN"}, want: map[string]string{"amount": "Invalid amount"}},
		{name: "multi-line upi id", up: UpdateProfile{Name: "Acme", Amount: "10", UPIID: "a@upi\nb"}, want: map[string]string{"upi_id": "line breaks are not allowed"}},
		{name: "multi-line why choose us", up: UpdateProfile{Name: "Acme", Amount: "10", WhyChooseUs: "Small batches\nMock tests"}},
		{name: "ok", up: UpdateProfile{Name: " Acme ", Amount: " 1500.50 ", Email: "Owner@Acme.test"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, fieldErrors(t, func() error { return tt.up.Validate(validate) }, translator))
		})
	}

	up := UpdateProfile{Name: " Acme ", Amount: " 1500.50 ", Email: "Owner@Acme.test"}
	require.NoError(t, up.Validate(validate))
	assert.Equal(t, UpdateProfile{Name: "Acme", Amount: "1500.50", Email: "owner@acme.test"}, up)
}

func TestITUpdate_Validate(t *testing.T) {
	validate, translator := newValidator()

	withAmount := func(amount string) ITUpdate {
		iu := NewITUpdate()
		iu.Name = "Acme"
		iu.Amount = amount
		return iu
	}

	tests := []struct {
		name string
		iu   ITUpdate
		want map[string]string
	}{
		{name: "invalid", iu: ITUpdate{Name: "  ", Amount: "abc"}, want: map[string]string{"institute_name": "this field is required", "amount": "Invalid amount"}},
		{name: "blank amount", iu: withAmount("  "), want: map[string]string{"amount": "Invalid amount"}},
		{name: "empty amount", iu: withAmount(""), want: map[string]string{"amount": "Invalid amount"}},
		{name: "infinite amount", iu: withAmount("Inf"), want: map[string]string{"amount": "Invalid amount"}},
		{name: "ok", iu: withAmount("2500")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, fieldErrors(t, func() error { return tt.iu.Validate(validate) }, translator))
		})
	}

	// amount left out of the request
	iu := NewITUpdate()
	iu.Name = "Acme"
	require.NoError(t, iu.Validate(validate))
	amount, ok := core.ParseAmount(iu.Amount)
	require.True(t, ok)
	assert.Equal(t, DefaultAmount, amount)
}
