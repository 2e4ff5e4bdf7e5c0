package registration_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/coachdesk/core/institute"
	"github.com/trezcool/coachdesk/core/registration"
	emailsvc "github.com/trezcool/coachdesk/services/email"
	sqlxrepos "github.com/trezcool/coachdesk/storage/database/sqlx"
	"github.com/trezcool/coachdesk/tests"
)

type fixture struct {
	svc      *registration.Service
	instRepo institute.Repository
	regRepo  registration.Repository
}

func setup(t *testing.T) fixture {
	conf := testutil.NewConfig(t)
	db := testutil.PrepareDB(t, conf)
	instRepo := sqlxrepos.NewInstituteRepository(db)
	regRepo := sqlxrepos.NewRegistrationRepository(db)
	instSvc := institute.NewService(instRepo, sqlxrepos.NewConfigurationRepository(db))

	emailsvc.ResetSentMessages()
	mailSvc := emailsvc.NewConsoleServiceMock(conf, testutil.NewLogger(conf))
	return fixture{
		svc:      registration.NewService(regRepo, instSvc, mailSvc, conf),
		instRepo: instRepo,
		regRepo:  regRepo,
	}
}

func TestService_Register(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	testutil.CreateInstitute(t, f.instRepo, "acme", "Acme", "owner@acme.test", "pw", true)
	testutil.CreateInstitute(t, f.instRepo, "quiet", "Quiet", "", "pw", true)
	testutil.CreateInstitute(t, f.instRepo, "sleepy", "Sleepy", "owner@sleepy.test", "pw", false)
	nr := registration.NewRegistration{Name: "Asha", Email: "asha@example.com", Phone: "98765"}

	tests := []struct {
		name      string
		uname     string
		wantErr   error
		wantMails []string // subjects
	}{
		{name: "unknown institute", uname: "nope", wantErr: registration.ErrInstituteNotFound},
		{name: "disabled institute", uname: "sleepy", wantErr: registration.ErrInstituteNotFound},
		{name: "ok", uname: "acme", wantMails: []string{"Registration Confirmation - Acme", "New Registration - Asha"}},
		{name: "institute without email", uname: "quiet", wantMails: []string{"Registration Confirmation - Quiet"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			emailsvc.ResetSentMessages()
			reg, err := f.svc.Register(ctx, tt.uname, nr)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, errors.Cause(err))
				assert.Empty(t, emailsvc.SentMessages)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, registration.StatusPending, reg.PaymentStatus)

			subjects := make([]string, 0, len(emailsvc.SentMessages))
			for _, msg := range emailsvc.SentMessages {
				subjects = append(subjects, msg.Subject)
			}
			assert.Equal(t, tt.wantMails, subjects)
			assert.Contains(t, emailsvc.SentMessages[0].TextContent, "http://example.com"+registration.PaymentPath(reg.ID))
			assert.Equal(t, "asha@example.com", emailsvc.SentMessages[0].To[0].Address)
		})
	}
}

func TestService_ConfirmPayment(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	inst := testutil.CreateInstitute(t, f.instRepo, "acme", "Acme", "owner@acme.test", "pw", true)
	reg := testutil.CreateRegistration(t, f.regRepo, inst.ID, "Asha", "asha@example.com", "98765")

	_, err := f.svc.ConfirmPayment(ctx, registration.ConfirmPayment{RegistrationID: 999, PaymentID: "TXN"})
	assert.Equal(t, registration.ErrNotFound, errors.Cause(err))
	assert.Empty(t, emailsvc.SentMessages)

	details, err := f.svc.ConfirmPayment(ctx, registration.ConfirmPayment{RegistrationID: reg.ID})
	require.NoError(t, err)
	assert.Equal(t, registration.StatusCompleted, details.PaymentStatus)
	_, err = uuid.Parse(details.PaymentID)
	assert.NoError(t, err)
	if assert.Len(t, emailsvc.SentMessages, 2) {
		assert.Equal(t, "Payment Confirmed - Welcome to Acme!", emailsvc.SentMessages[0].Subject)
		assert.Equal(t, "Payment Received - Asha", emailsvc.SentMessages[1].Subject)
		assert.Contains(t, emailsvc.SentMessages[1].TextContent, details.PaymentID)
	}

	// confirming again overwrites the reference & notifies again
	details, err = f.svc.ConfirmPayment(ctx, registration.ConfirmPayment{RegistrationID: reg.ID, PaymentID: "TXN42"})
	require.NoError(t, err)
	assert.Equal(t, "TXN42", details.PaymentID)
	assert.Len(t, emailsvc.SentMessages, 4)

	regs, err := f.svc.ListByInstitute(ctx, inst.ID)
	require.NoError(t, err)
	if assert.Len(t, regs, 1) {
		assert.True(t, regs[0].IsPaid())
	}
}
