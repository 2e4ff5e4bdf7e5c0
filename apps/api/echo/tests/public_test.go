package tests

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/coachdesk/core/registration"
	emailsvc "github.com/trezcool/coachdesk/services/email"
	"github.com/trezcool/coachdesk/tests"
)

func Test_scenario_acme(t *testing.T) {
	app := setup(t)
	itCookies := app.loginITAdmin(t)

	createBody := url.Values{
		"username":       {"acme"},
		"password":       {"pw123"},
		"institute_name": {"Acme Coaching"},
		"email":          {"owner@acme.test"},
	}

	body, ct := formBody(createBody)
	app.run(t, httpTest{
		method:   http.MethodPost,
		path:     "/it/create_institute",
		body:     body,
		ct:       ct,
		cookies:  itCookies,
		wantCode: http.StatusOK,
		wantData: []byte(`{"success":true,"message":"Institute created successfully!"}`),
	})

	// duplicate username
	createBody.Set("institute_name", "Evil Acme")
	body, ct = formBody(createBody)
	app.run(t, httpTest{
		method:   http.MethodPost,
		path:     "/it/create_institute",
		body:     body,
		ct:       ct,
		cookies:  itCookies,
		wantCode: http.StatusConflict,
		wantData: []byte(`{"success":false,"error":"Username already exists"}`),
	})

	rec := app.run(t, httpTest{method: http.MethodGet, path: "/institute/acme", wantCode: http.StatusOK})
	assert.Contains(t, rec.Body.String(), "Acme Coaching")
	assert.NotContains(t, rec.Body.String(), "Evil Acme")
	assert.Contains(t, rec.Body.String(), "Expert faculty")

	body, ct = formBody(url.Values{"name": {"A"}, "email": {"a@example.com"}, "phone": {"123"}})
	app.run(t, httpTest{
		method:   http.MethodPost,
		path:     "/register/acme",
		body:     body,
		ct:       ct,
		wantCode: http.StatusOK,
		wantData: []byte(`{"success":true,"registration_id":1,"payment_url":"/payment/1","redirect":true}`),
	})
	if assert.Len(t, emailsvc.SentMessages, 2) {
		assert.Equal(t, "a@example.com", emailsvc.SentMessages[0].To[0].Address)
		assert.Equal(t, "owner@acme.test", emailsvc.SentMessages[1].To[0].Address)
	}

	rec = app.run(t, httpTest{method: http.MethodGet, path: "/payment/1", wantCode: http.StatusOK})
	assert.Contains(t, rec.Body.String(), "payment@institute.com")
	assert.Contains(t, rec.Body.String(), "1000.00")

	body, ct = formBody(url.Values{"registration_id": {"1"}, "payment_id": {"UPI-42"}})
	rec = app.run(t, httpTest{method: http.MethodPost, path: "/payment/confirm", body: body, ct: ct, wantCode: http.StatusOK})
	assert.Contains(t, rec.Body.String(), "UPI-42")

	details, err := app.regRepo.GetPaymentDetails(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, registration.StatusCompleted, details.PaymentStatus)
	assert.Equal(t, "UPI-42", details.PaymentID)
	assert.Len(t, emailsvc.SentMessages, 4)

	app.run(t, httpTest{
		method:   http.MethodPost,
		path:     "/it/toggle_institute/1",
		cookies:  itCookies,
		wantCode: http.StatusOK,
		wantData: []byte(`{"success":true}`),
	})
	app.run(t, httpTest{method: http.MethodGet, path: "/institute/acme", wantCode: http.StatusNotFound})
}

func Test_publicApi_institutePage(t *testing.T) {
	app := setup(t)
	testutil.CreateInstitute(t, app.instRepo, "acme", "Acme Coaching", "", "pw123", true)
	testutil.CreateInstitute(t, app.instRepo, "sleepy", "Sleepy Tutors", "", "pw123", false)

	tests := []httpTest{
		{name: "active", method: http.MethodGet, path: "/institute/acme", wantCode: http.StatusOK},
		{name: "inactive", method: http.MethodGet, path: "/institute/sleepy", wantCode: http.StatusNotFound},
		{name: "unknown", method: http.MethodGet, path: "/institute/nope", wantCode: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app.run(t, tt)
		})
	}
}

func Test_publicApi_register(t *testing.T) {
	app := setup(t)
	testutil.CreateInstitute(t, app.instRepo, "acme", "Acme Coaching", "", "pw123", true)
	testutil.CreateInstitute(t, app.instRepo, "sleepy", "Sleepy Tutors", "", "pw123", false)

	valid := url.Values{"name": {"A"}, "email": {"a@example.com"}, "phone": {"123"}}
	notFound := marchallObj(t, httpErr{Error: "Institute not found"})

	tests := []struct {
		name     string
		path     string
		form     url.Values
		wantCode int
		wantData []byte
	}{
		{
			name:     "unknown institute",
			path:     "/register/nope",
			form:     valid,
			wantCode: http.StatusNotFound,
			wantData: notFound,
		},
		{
			name:     "inactive institute",
			path:     "/register/sleepy",
			form:     valid,
			wantCode: http.StatusNotFound,
			wantData: notFound,
		},
		{
			name:     "missing fields",
			path:     "/register/acme",
			form:     url.Values{},
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"name":"this field is required","email":"this field is required","phone":"this field is required"}`),
		},
		{
			name:     "header injection",
			path:     "/register/acme",
			form:     url.Values{"name": {"Asha\r\nReply-To: attacker@evil.test"}, "email": {"a@example.com"}, "phone": {"123\n456"}},
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"name":"line breaks are not allowed","phone":"line breaks are not allowed"}`),
		},
		{
			name:     "ok",
			path:     "/register/acme",
			form:     valid,
			wantCode: http.StatusOK,
			wantData: []byte(`{"success":true,"registration_id":1,"payment_url":"/payment/1","redirect":true}`),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, ct := formBody(tt.form)
			app.run(t, httpTest{method: http.MethodPost, path: tt.path, body: body, ct: ct, wantCode: tt.wantCode, wantData: tt.wantData})
		})
	}

	// no tenant email: only the aspirant is notified
	assert.Len(t, emailsvc.SentMessages, 1)
}

func Test_publicApi_payment(t *testing.T) {
	app := setup(t)
	inst := testutil.CreateInstitute(t, app.instRepo, "acme", "Acme Coaching", "owner@acme.test", "pw123", true)
	reg := testutil.CreateRegistration(t, app.regRepo, inst.ID, "A", "a@example.com", "123")

	app.run(t, httpTest{name: "unknown page", method: http.MethodGet, path: "/payment/42", wantCode: http.StatusNotFound})
	app.run(t, httpTest{name: "bad id", method: http.MethodGet, path: "/payment/lol", wantCode: http.StatusNotFound})

	body, ct := formBody(url.Values{"registration_id": {"42"}})
	app.run(t, httpTest{name: "confirm unknown", method: http.MethodPost, path: "/payment/confirm", body: body, ct: ct, wantCode: http.StatusNotFound})
	assert.Empty(t, emailsvc.SentMessages)

	// payment reference is generated when missing
	body, ct = formBody(url.Values{"registration_id": {"1"}})
	app.run(t, httpTest{method: http.MethodPost, path: "/payment/confirm", body: body, ct: ct, wantCode: http.StatusOK})
	details, err := app.regRepo.GetPaymentDetails(context.Background(), reg.ID)
	require.NoError(t, err)
	assert.Equal(t, registration.StatusCompleted, details.PaymentStatus)
	assert.Len(t, details.PaymentID, 36)

	// confirming again keeps the registration completed & notifies again
	body, ct = formBody(url.Values{"registration_id": {"1"}, "payment_id": {"again"}})
	app.run(t, httpTest{method: http.MethodPost, path: "/payment/confirm", body: body, ct: ct, wantCode: http.StatusOK})
	details, err = app.regRepo.GetPaymentDetails(context.Background(), reg.ID)
	require.NoError(t, err)
	assert.Equal(t, registration.StatusCompleted, details.PaymentStatus)
	assert.Len(t, emailsvc.SentMessages, 4)
}

func Test_publicApi_download(t *testing.T) {
	app := setup(t)
	inst := testutil.CreateInstitute(t, app.instRepo, "acme", "Acme Coaching", "owner@acme.test", "pw123", true)
	cookies := app.loginInstitute(t, "acme", "pw123")

	body, ct := multipartBody(t, "pdf_file", "Sample Papers.pdf", []byte("%PDF-1.4 lol"))
	app.run(t, httpTest{method: http.MethodPost, path: "/admin/upload_pdf", body: body, ct: ct, cookies: cookies, wantCode: http.StatusFound})

	conf, err := app.confRepo.GetConfiguration(context.Background(), inst.ID)
	require.NoError(t, err)
	require.Equal(t, "acme_sample-papers.pdf", conf.PDFFilename)

	rec := app.run(t, httpTest{method: http.MethodGet, path: "/download/acme/acme_sample-papers.pdf", wantCode: http.StatusOK})
	assert.Contains(t, rec.Body.String(), `name="email"`)

	form := url.Values{"name": {"B"}, "email": {"b@example.com"}, "phone": {"456"}}
	body, ct = formBody(form)
	rec = app.run(t, httpTest{method: http.MethodPost, path: "/download/acme/acme_sample-papers.pdf", body: body, ct: ct, wantCode: http.StatusOK})
	assert.Equal(t, "%PDF-1.4 lol", rec.Body.String())
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Disposition"), "attachment"))
	assert.Len(t, emailsvc.SentMessages, 1)

	// unknown file: still recorded
	body, ct = formBody(form)
	app.run(t, httpTest{method: http.MethodPost, path: "/download/acme/nope.pdf", body: body, ct: ct, wantCode: http.StatusNotFound})

	// unknown institute: nothing recorded, file still served
	body, ct = formBody(form)
	app.run(t, httpTest{method: http.MethodPost, path: "/download/nope/acme_sample-papers.pdf", body: body, ct: ct, wantCode: http.StatusOK})

	recs, err := app.dlRepo.QueryRecords(context.Background(), inst.ID)
	require.NoError(t, err)
	assert.Len(t, recs, 2)

	// missing fields
	body, ct = formBody(url.Values{})
	app.run(t, httpTest{method: http.MethodPost, path: "/download/acme/acme_sample-papers.pdf", body: body, ct: ct, wantCode: http.StatusBadRequest})

	// line breaks never reach the lead mail
	sent := len(emailsvc.SentMessages)
	body, ct = formBody(url.Values{"name": {"B\r\nBcc: x@evil.test"}, "email": {"b@example.com"}, "phone": {"456"}})
	app.run(t, httpTest{
		method:   http.MethodPost,
		path:     "/download/acme/acme_sample-papers.pdf",
		body:     body,
		ct:       ct,
		wantCode: http.StatusBadRequest,
		wantData: []byte(`{"name":"line breaks are not allowed"}`),
	})
	assert.Len(t, emailsvc.SentMessages, sent)
}

func Test_publicApi_misc(t *testing.T) {
	app := setup(t)

	tests := []httpTest{
		{name: "health", method: http.MethodGet, path: "/health", wantCode: http.StatusOK, wantData: []byte(`{"status":"ok"}`)},
		{name: "index", method: http.MethodGet, path: "/", wantCode: http.StatusOK},
		{name: "missing upload", method: http.MethodGet, path: "/uploads/nope.png", wantCode: http.StatusNotFound},
		{name: "path traversal", method: http.MethodGet, path: "/uploads/..%2F..%2Fetc%2Fpasswd", wantCode: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app.run(t, tt)
		})
	}
}
