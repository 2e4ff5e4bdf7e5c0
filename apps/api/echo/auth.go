package echoapi

import (
	"crypto/sha256"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/coachdesk/core"
	"github.com/trezcool/coachdesk/core/institute"
	"github.com/trezcool/coachdesk/core/itadmin"
)

const (
	sessionName = "coachdesk_session"

	// session values
	keyInstituteID = "institute_id"
	keyUsername    = "username"
	keyITAdminID   = "it_admin_id"
	keyITUsername  = "it_username"

	kindInstitute = "institute"
	kindITAdmin   = "itadmin"

	contextPrincipalKey = "principal"
)

// sessionStore keeps both principal kinds in one signed & encrypted cookie.
type sessionStore struct {
	store sessions.Store
}

func newSessionStore(conf *core.Config) *sessionStore {
	h := sha256.Sum256([]byte("auth:" + conf.SecretKey))
	e := sha256.Sum256([]byte("enc:" + conf.SecretKey))

	store := sessions.NewCookieStore(h[:], e[:])
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   7 * 24 * 60 * 60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   !conf.Debug && !conf.TestMode,
	}
	return &sessionStore{store: store}
}

// get never fails: an undecodable cookie yields a fresh session.
func (s *sessionStore) get(ctx echo.Context) *sessions.Session {
	sess, err := s.store.Get(ctx.Request(), sessionName)
	if err != nil {
		sess, _ = s.store.New(ctx.Request(), sessionName)
	}
	return sess
}

func (s *sessionStore) save(ctx echo.Context, sess *sessions.Session) error {
	return errors.Wrap(sess.Save(ctx.Request(), ctx.Response()), "saving session")
}

func (s *sessionStore) loginInstitute(ctx echo.Context, inst institute.Institute) error {
	sess := s.get(ctx)
	sess.Values[keyInstituteID] = inst.ID
	sess.Values[keyUsername] = inst.Username
	return s.save(ctx, sess)
}

func (s *sessionStore) loginITAdmin(ctx echo.Context, admin itadmin.Admin) error {
	sess := s.get(ctx)
	sess.Values[keyITAdminID] = admin.ID
	sess.Values[keyITUsername] = admin.Username
	return s.save(ctx, sess)
}

// logout drops every principal from the session.
func (s *sessionStore) logout(ctx echo.Context) error {
	sess := s.get(ctx)
	for k := range sess.Values {
		delete(sess.Values, k)
	}
	return s.save(ctx, sess)
}

func (s *sessionStore) institute(ctx echo.Context) (core.Principal, bool) {
	sess := s.get(ctx)
	id, ok := sess.Values[keyInstituteID].(int)
	if !ok {
		return core.Principal{}, false
	}
	uname, _ := sess.Values[keyUsername].(string)
	return core.Principal{Kind: kindInstitute, ID: id, Username: uname}, true
}

func (s *sessionStore) itAdmin(ctx echo.Context) (core.Principal, bool) {
	sess := s.get(ctx)
	id, ok := sess.Values[keyITAdminID].(int)
	if !ok {
		return core.Principal{}, false
	}
	uname, _ := sess.Values[keyITUsername].(string)
	return core.Principal{Kind: kindITAdmin, ID: id, Username: uname}, true
}

func (s *sessionStore) flash(ctx echo.Context, msg string) error {
	sess := s.get(ctx)
	sess.AddFlash(msg)
	return s.save(ctx, sess)
}

// flashes pops the pending flash messages.
func (s *sessionStore) flashes(ctx echo.Context) ([]string, error) {
	sess := s.get(ctx)
	raw := sess.Flashes()
	if len(raw) == 0 {
		return nil, nil
	}
	msgs := make([]string, 0, len(raw))
	for _, f := range raw {
		if msg, ok := f.(string); ok {
			msgs = append(msgs, msg)
		}
	}
	return msgs, s.save(ctx, sess)
}

func getContextPrincipal(ctx echo.Context) (core.Principal, error) {
	if p, ok := ctx.Get(contextPrincipalKey).(core.Principal); ok {
		return p, nil
	}
	return core.Principal{}, errUnauthorized
}
