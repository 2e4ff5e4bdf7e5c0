package core

import (
	"errors"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type leadForm struct {
	Name   string `json:"name" validate:"required,singleline"`
	Amount string `json:"amount" validate:"amount"`
	Slug   string `json:"slug" validate:"omitempty,slug"`
}

func newTestValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	_en := en.New()
	translator, _ := ut.New(_en, _en).GetTranslator("en")
	InitValidators(validate, translator)
	return validate, translator
}

func TestInitValidators(t *testing.T) {
	validate, translator := newTestValidator()

	tests := []struct {
		name string
		form leadForm
		want []FieldError
	}{
		{name: "ok", form: leadForm{Name: "Asha", Amount: "10.5", Slug: "acme-academy"}},
		{
			name: "line breaks",
			form: leadForm{Name: "Asha\r\nBcc: x@evil.test", Amount: "0"},
			want: []FieldError{{Field: "name", Error: "line breaks are not allowed"}},
		},
		{
			name: "everything wrong",
			form: leadForm{Amount: " ", Slug: "Acme Academy"},
			want: []FieldError{
				{Field: "name", Error: "this field is required"},
				{Field: "amount", Error: "Invalid amount"},
				{Field: "slug", Error: "only lowercase letters, digits and hyphens are allowed"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := TranslateValidationErrors(validate.Struct(tt.form), translator)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			vErr, ok := IsValidationError(err)
			require.True(t, ok)
			assert.Equal(t, tt.want, vErr.Fields)
			assert.Equal(t, tt.want[0].Error, vErr.FirstMessage())
		})
	}

	other := errors.New("boom")
	assert.Equal(t, other, TranslateValidationErrors(other, translator))
	assert.Nil(t, TranslateValidationErrors(nil, translator))
}
