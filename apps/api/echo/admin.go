package echoapi

import (
	"io"
	"mime/multipart"
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/coachdesk/core"
	"github.com/trezcool/coachdesk/core/download"
	"github.com/trezcool/coachdesk/core/institute"
	"github.com/trezcool/coachdesk/core/registration"
)

const (
	adminLoginPath     = "/admin/login"
	adminDashboardPath = "/admin/dashboard"

	msgNoFile          = "No file selected"
	msgInvalidFileType = "Invalid file type"
)

type (
	adminApi struct {
		sess       *sessionStore
		instSvc    *institute.Service
		regSvc     *registration.Service
		dlSvc      *download.Service
		assets     core.AssetStore
		validate   *validator.Validate
		translator ut.Translator
	}

	LoginRequest struct {
		Username string `json:"username" form:"username"`
		Password string `json:"password" form:"password"`
	}

	adminDashboard struct {
		Institute     institute.Institute
		Config        institute.Configuration
		Registrations []registration.Registration
	}

	uploadResponse struct {
		Success  bool   `json:"success"`
		ImageURL string `json:"image_url,omitempty"`
		Error    string `json:"error,omitempty"`
	}
)

func registerAdminAPI(
	app *echo.Echo,
	sess *sessionStore,
	instSvc *institute.Service,
	regSvc *registration.Service,
	dlSvc *download.Service,
	assets core.AssetStore,
	validate *validator.Validate,
	translator ut.Translator,
) {
	api := adminApi{
		sess:       sess,
		instSvc:    instSvc,
		regSvc:     regSvc,
		dlSvc:      dlSvc,
		assets:     assets,
		validate:   validate,
		translator: translator,
	}

	g := app.Group("/admin")

	// un-authed endpoints
	g.GET("/login", api.loginForm)
	g.POST("/authenticate", api.authenticate)
	g.GET("/logout", api.logout)

	// authed pages
	pages := g.Group("", instituteRequired(sess, false))
	pages.GET("/dashboard", api.dashboard)
	pages.POST("/update", api.update)
	pages.POST("/upload_pdf", api.uploadPDF)

	// authed JSON endpoints
	ag := g.Group("", instituteRequired(sess, true))
	ag.GET("/registrations", api.registrations)
	ag.GET("/downloads", api.downloads)
	ag.POST("/upload_image", api.uploadImage)
	ag.POST("/update_testimonials", api.updateTestimonials)
}

// Handlers

func (api *adminApi) loginForm(ctx echo.Context) error {
	return renderPage(ctx, api.sess, http.StatusOK, "admin_login", "Institute admin", nil)
}

func (api *adminApi) authenticate(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}

	inst, err := api.instSvc.Authenticate(ctx.Request().Context(), data.Username, data.Password)
	if err != nil {
		switch cause := errors.Cause(err); cause {
		case institute.ErrDisabled, institute.ErrInvalidCredentials:
			return flashAndRedirect(ctx, api.sess, adminLoginPath, cause.Error())
		}
		return errors.Wrap(err, "authenticating institute")
	}

	if err = api.sess.loginInstitute(ctx, inst); err != nil {
		return err
	}
	return ctx.Redirect(http.StatusFound, adminDashboardPath)
}

func (api *adminApi) logout(ctx echo.Context) error {
	if err := api.sess.logout(ctx); err != nil {
		return err
	}
	return ctx.Redirect(http.StatusFound, "/")
}

func (api *adminApi) dashboard(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	reqCtx := ctx.Request().Context()

	inst, err := api.instSvc.GetByID(reqCtx, p.ID)
	if err != nil {
		if errors.Cause(err) == institute.ErrNotFound {
			if err = api.sess.logout(ctx); err != nil {
				return err
			}
			return ctx.Redirect(http.StatusFound, adminLoginPath)
		}
		return errors.Wrap(err, "getting institute")
	}
	conf, err := api.instSvc.GetConfiguration(reqCtx, inst.ID)
	if err != nil {
		return errors.Wrap(err, "getting configuration")
	}
	regs, err := api.regSvc.ListByInstitute(reqCtx, inst.ID)
	if err != nil {
		return errors.Wrap(err, "listing registrations")
	}

	data := adminDashboard{Institute: inst, Config: conf, Registrations: regs}
	return renderPage(ctx, api.sess, http.StatusOK, "admin_dashboard", inst.Name+" dashboard", data)
}

func (api *adminApi) registrations(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	regs, err := api.regSvc.ListByInstitute(ctx.Request().Context(), p.ID)
	if err != nil {
		return errors.Wrap(err, "listing registrations")
	}
	return ctx.JSON(http.StatusOK, regs)
}

func (api *adminApi) downloads(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	recs, err := api.dlSvc.ListByInstitute(ctx.Request().Context(), p.ID)
	if err != nil {
		return errors.Wrap(err, "listing download records")
	}
	return ctx.JSON(http.StatusOK, recs)
}

func (api *adminApi) update(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}

	var data institute.UpdateProfile
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateProfile")
	}
	if err = data.Validate(api.validate); err != nil {
		if vErr, ok := core.IsValidationError(core.TranslateValidationErrors(err, api.translator)); ok {
			return flashAndRedirect(ctx, api.sess, adminDashboardPath, vErr.FirstMessage())
		}
		return err
	}

	if _, err = api.instSvc.UpdateProfile(ctx.Request().Context(), p.ID, data); err != nil {
		return errors.Wrap(err, "updating profile")
	}
	return flashAndRedirect(ctx, api.sess, adminDashboardPath, "Settings updated successfully!")
}

func (api *adminApi) uploadPDF(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}

	fh, err := formFile(ctx, "pdf_file")
	if err != nil {
		return err
	}
	if fh == nil {
		return flashAndRedirect(ctx, api.sess, adminDashboardPath, msgNoFile)
	}
	if !core.AllowedFile(fh.Filename, institute.PDFExtensions...) {
		return flashAndRedirect(ctx, api.sess, adminDashboardPath, msgInvalidFileType)
	}

	name := p.Username + "_" + core.SecureFilename(fh.Filename)
	if err = api.saveUpload(ctx, fh, name); err != nil {
		return err
	}
	if err = api.instSvc.SetPDF(ctx.Request().Context(), p.ID, name); err != nil {
		return errors.Wrap(err, "setting pdf")
	}
	return flashAndRedirect(ctx, api.sess, adminDashboardPath, "PDF uploaded successfully!")
}

func (api *adminApi) uploadImage(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}

	fh, err := formFile(ctx, "image")
	if err != nil {
		return err
	}
	if fh == nil {
		return ctx.JSON(http.StatusBadRequest, uploadResponse{Error: msgNoFile})
	}
	if !core.AllowedFile(fh.Filename, institute.ImageExtensions...) {
		return ctx.JSON(http.StatusBadRequest, uploadResponse{Error: msgInvalidFileType})
	}

	salt := uuid.NewString()[:8]
	name := p.Username + "_testimonial_" + salt + "_" + core.SecureFilename(fh.Filename)
	if err = api.saveUpload(ctx, fh, name); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, uploadResponse{Success: true, ImageURL: "/uploads/" + name})
}

func (api *adminApi) updateTestimonials(ctx echo.Context) error {
	p, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}

	body, err := io.ReadAll(ctx.Request().Body)
	if err != nil {
		return errors.Wrap(err, "reading testimonials payload")
	}
	testimonials := institute.DecodeTestimonialsPayload(body)

	if err = api.instSvc.SetTestimonials(ctx.Request().Context(), p.ID, testimonials); err != nil {
		return errors.Wrap(err, "setting testimonials")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"success": true})
}

func (api *adminApi) saveUpload(ctx echo.Context, fh *multipart.FileHeader, name string) error {
	src, err := fh.Open()
	if err != nil {
		return errors.Wrap(err, "opening uploaded file")
	}
	defer src.Close()

	return errors.Wrap(api.assets.Save(ctx.Request().Context(), name, src), "saving uploaded file")
}

// formFile returns nil when no file was submitted under `field`.
func formFile(ctx echo.Context, field string) (*multipart.FileHeader, error) {
	fh, err := ctx.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "reading multipart form")
	}
	if fh.Filename == "" {
		return nil, nil
	}
	return fh, nil
}
