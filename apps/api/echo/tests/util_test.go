package tests

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"reflect"
	"strings"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/trezcool/coachdesk/apps/api/echo"
	"github.com/trezcool/coachdesk/core"
	"github.com/trezcool/coachdesk/core/download"
	"github.com/trezcool/coachdesk/core/institute"
	"github.com/trezcool/coachdesk/core/itadmin"
	"github.com/trezcool/coachdesk/core/registration"
	emailsvc "github.com/trezcool/coachdesk/services/email"
	sqlxrepos "github.com/trezcool/coachdesk/storage/database/sqlx"
	"github.com/trezcool/coachdesk/storage/files"
	"github.com/trezcool/coachdesk/tests"
)

type (
	testApp struct {
		srv       *echoapi.Server
		conf      *core.Config
		instRepo  institute.Repository
		confRepo  institute.ConfigRepository
		regRepo   registration.Repository
		dlRepo    download.Repository
		adminRepo itadmin.Repository
	}

	httpErr struct {
		Error string `json:"error"`
	}

	httpTest struct {
		name     string
		method   string
		path     string
		body     io.Reader
		ct       string
		cookies  []*http.Cookie
		wantCode int
		wantData []byte
	}
)

func setup(t *testing.T) *testApp {
	conf := testutil.NewConfig(t)
	db := testutil.PrepareDB(t, conf)
	logger := testutil.NewLogger(conf)

	// set up repos
	app := &testApp{
		conf:      conf,
		instRepo:  sqlxrepos.NewInstituteRepository(db),
		confRepo:  sqlxrepos.NewConfigurationRepository(db),
		regRepo:   sqlxrepos.NewRegistrationRepository(db),
		dlRepo:    sqlxrepos.NewDownloadRepository(db),
		adminRepo: sqlxrepos.NewITAdminRepository(db),
	}

	// set up services
	assets, err := files.NewLocalStore(conf.Uploads.Dir)
	require.NoError(t, err)
	emailsvc.ResetSentMessages()
	mailSvc := emailsvc.NewConsoleServiceMock(conf, logger)
	instSvc := institute.NewService(app.instRepo, app.confRepo)

	validate := validator.New()
	_en := en.New()
	translator, _ := ut.New(_en, _en).GetTranslator("en")
	core.InitValidators(validate, translator)

	// set up server
	app.srv, err = echoapi.NewServer(echoapi.ServerDeps{
		Conf:            conf,
		Logger:          logger,
		InstituteSvc:    instSvc,
		RegistrationSvc: registration.NewService(app.regRepo, instSvc, mailSvc, conf),
		DownloadSvc:     download.NewService(app.dlRepo, instSvc, mailSvc),
		ITAdminSvc:      itadmin.NewService(app.adminRepo),
		Assets:          assets,
		Validate:        validate,
		Translator:      translator,
	})
	require.NoError(t, err)
	return app
}

func (app *testApp) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	app.srv.ServeHTTP(rec, req)
	return rec
}

func (app *testApp) run(t *testing.T, tt httpTest) *httptest.ResponseRecorder {
	req := newRequest(tt.method, tt.path, tt.body, tt.ct, tt.cookies...)
	rec := app.do(req)
	if tt.wantData != nil {
		checkCodeAndData(t, tt, rec)
	} else if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
	}
	return rec
}

// login signs in through the given authenticate endpoint & returns the session cookies.
func (app *testApp) login(t *testing.T, path, uname, pwd string) []*http.Cookie {
	body, ct := formBody(url.Values{"username": {uname}, "password": {pwd}})
	rec := app.do(newRequest(http.MethodPost, path, body, ct))
	require.Equal(t, http.StatusFound, rec.Code)
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	return cookies
}

func (app *testApp) loginInstitute(t *testing.T, uname, pwd string) []*http.Cookie {
	return app.login(t, "/admin/authenticate", uname, pwd)
}

func (app *testApp) loginITAdmin(t *testing.T) []*http.Cookie {
	testutil.CreateITAdmin(t, app.adminRepo, "itadmin", "itadmin123")
	return app.login(t, "/it/authenticate", "itadmin", "itadmin123")
}

func newRequest(method, path string, body io.Reader, ct string, cookies ...*http.Cookie) *http.Request {
	if body == nil {
		body = http.NoBody
	}
	req := httptest.NewRequest(method, path, body)
	if ct != "" {
		req.Header.Set("Content-Type", ct)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return req
}

func formBody(v url.Values) (io.Reader, string) {
	return strings.NewReader(v.Encode()), "application/x-www-form-urlencoded"
}

func jsonBody(t *testing.T, obj interface{}) (io.Reader, string) {
	return bytes.NewReader(marchallObj(t, obj)), "application/json"
}

func multipartBody(t *testing.T, field, filename string, content []byte) (io.Reader, string) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	fw, err := w.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &body, w.FormDataContentType()
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ObjectsAreEqual(j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

// withCookies merges the cookies set by rec into cookies.
func withCookies(cookies []*http.Cookie, rec *httptest.ResponseRecorder) []*http.Cookie {
	set := rec.Result().Cookies()
	if len(set) == 0 {
		return cookies
	}
	merged := make([]*http.Cookie, 0, len(cookies)+len(set))
	for _, c := range cookies {
		replaced := false
		for _, s := range set {
			if s.Name == c.Name {
				replaced = true
				break
			}
		}
		if !replaced {
			merged = append(merged, c)
		}
	}
	return append(merged, set...)
}
