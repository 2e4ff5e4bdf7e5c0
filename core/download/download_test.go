package download_test

import (
	"context"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/coachdesk/core"
	"github.com/trezcool/coachdesk/core/download"
	"github.com/trezcool/coachdesk/core/institute"
	emailsvc "github.com/trezcool/coachdesk/services/email"
	sqlxrepos "github.com/trezcool/coachdesk/storage/database/sqlx"
	"github.com/trezcool/coachdesk/tests"
)

func TestRequest_Validate(t *testing.T) {
	validate := validator.New()
	_en := en.New()
	translator, _ := ut.New(_en, _en).GetTranslator("en")
	core.InitValidators(validate, translator)

	req := download.Request{Name: " Asha ", Email: " Asha@Example.com ", Phone: " 98765 "}
	require.NoError(t, req.Validate(validate))
	assert.Equal(t, download.Request{Name: "Asha", Email: "asha@example.com", Phone: "98765"}, req)

	req = download.Request{Name: "Asha", Email: "nope", Phone: "1"}
	assert.Error(t, req.Validate(validate))
	req = download.Request{Email: "asha@example.com", Phone: "1"}
	assert.Error(t, req.Validate(validate))

	req = download.Request{Name: "Asha\r\nBcc: x@evil.test", Email: "asha@example.com", Phone: "1"}
	vErr, ok := core.IsValidationError(core.TranslateValidationErrors(req.Validate(validate), translator))
	require.True(t, ok)
	assert.Equal(t, []core.FieldError{{Field: "name", Error: "line breaks are not allowed"}}, vErr.Fields)
}

func TestService_Record(t *testing.T) {
	conf := testutil.NewConfig(t)
	db := testutil.PrepareDB(t, conf)
	instRepo := sqlxrepos.NewInstituteRepository(db)
	instSvc := institute.NewService(instRepo, sqlxrepos.NewConfigurationRepository(db))
	emailsvc.ResetSentMessages()
	svc := download.NewService(sqlxrepos.NewDownloadRepository(db), instSvc, emailsvc.NewConsoleServiceMock(conf, testutil.NewLogger(conf)))
	ctx := context.Background()

	acme := testutil.CreateInstitute(t, instRepo, "acme", "Acme", "owner@acme.test", "pw", true)
	quiet := testutil.CreateInstitute(t, instRepo, "quiet", "Quiet", "", "pw", false)
	req := download.Request{Name: "Asha", Email: "asha@example.com", Phone: "98765"}

	_, ok, err := svc.Record(ctx, "nope", "x.pdf", req)
	require.NoError(t, err)
	assert.False(t, ok)

	rec, ok, err := svc.Record(ctx, "ACME", "acme_papers.pdf", req)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, acme.ID, rec.InstituteID)
	if assert.Len(t, emailsvc.SentMessages, 1) {
		msg := emailsvc.SentMessages[0]
		assert.Equal(t, "PDF Download - Asha", msg.Subject)
		assert.Equal(t, "owner@acme.test", msg.To[0].Address)
		assert.Contains(t, msg.TextContent, "File: acme_papers.pdf")
	}

	// disabled tenants still get their downloads recorded, without a notification when they have no email
	_, ok, err = svc.Record(ctx, "quiet", "quiet_papers.pdf", req)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Len(t, emailsvc.SentMessages, 1)

	recs, err := svc.ListByInstitute(ctx, quiet.ID)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}
