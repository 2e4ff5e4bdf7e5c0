package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/pkg/errors"

	"github.com/trezcool/coachdesk/core"
	"github.com/trezcool/coachdesk/core/download"
	"github.com/trezcool/coachdesk/core/institute"
	"github.com/trezcool/coachdesk/core/itadmin"
	"github.com/trezcool/coachdesk/core/registration"
)

type (
	ServerDeps struct {
		Conf            *core.Config
		Logger          core.Logger
		InstituteSvc    *institute.Service
		RegistrationSvc *registration.Service
		DownloadSvc     *download.Service
		ITAdminSvc      *itadmin.Service
		Assets          core.AssetStore
		Validate        *validator.Validate
		Translator      ut.Translator
	}

	Server struct {
		address  string
		app      *echo.Echo
		errors   chan error
		shutdown chan os.Signal
	}
)

var _ http.Handler = (*Server)(nil)

func NewServer(deps ServerDeps) (*Server, error) {
	s := &Server{
		address:  deps.Conf.Server.Address,
		app:      echo.New(),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	if err := s.setup(deps); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Server) setup(deps ServerDeps) error {
	conf := deps.Conf

	renderer, err := newTemplateRenderer()
	if err != nil {
		return errors.Wrap(err, "parsing page templates")
	}

	s.app.HideBanner = true
	s.app.Debug = conf.Debug
	s.app.Logger.SetLevel(log.INFO)
	s.app.Renderer = renderer
	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(deps.Logger, deps.Translator, s.signalShutdown)

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.Server.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(middleware.BodyLimit(conf.Uploads.MaxBytes))

	sess := newSessionStore(conf)

	registerPublicAPI(s.app, sess, deps.InstituteSvc, deps.RegistrationSvc, deps.DownloadSvc, deps.Assets, deps.Validate)
	registerAdminAPI(s.app, sess, deps.InstituteSvc, deps.RegistrationSvc, deps.DownloadSvc, deps.Assets, deps.Validate, deps.Translator)
	registerITAPI(s.app, sess, deps.InstituteSvc, deps.ITAdminSvc, deps.Validate, deps.Translator)
	return nil
}

// Start listens on the configured address. Listener failures are sent to Errors.
func (s *Server) Start() {
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	if err := s.app.Start(s.address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default: // already shutting down
	}
}
