package echoapi

import (
	"fmt"
	"mime"
	"net/http"
	"path"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/coachdesk/core"
	"github.com/trezcool/coachdesk/core/download"
	"github.com/trezcool/coachdesk/core/institute"
	"github.com/trezcool/coachdesk/core/registration"
)

type (
	publicApi struct {
		sess     *sessionStore
		instSvc  *institute.Service
		regSvc   *registration.Service
		dlSvc    *download.Service
		assets   core.AssetStore
		validate *validator.Validate
	}

	registerResponse struct {
		Success        bool   `json:"success"`
		RegistrationID int    `json:"registration_id"`
		PaymentURL     string `json:"payment_url"`
		Redirect       bool   `json:"redirect"`
	}

	institutePage struct {
		Institute    institute.Institute
		Config       institute.Configuration
		WhyChooseUs  []string
		PDFTitle     string
		Testimonials []institute.Testimonial
	}

	downloadPage struct {
		Username string
		Filename string
	}
)

func registerPublicAPI(
	app *echo.Echo,
	sess *sessionStore,
	instSvc *institute.Service,
	regSvc *registration.Service,
	dlSvc *download.Service,
	assets core.AssetStore,
	validate *validator.Validate,
) {
	api := publicApi{
		sess:     sess,
		instSvc:  instSvc,
		regSvc:   regSvc,
		dlSvc:    dlSvc,
		assets:   assets,
		validate: validate,
	}

	app.GET("/", api.index)
	app.GET("/health", api.health)
	app.GET("/institute/:username", api.institutePage)
	app.POST("/register/:username", api.register)
	app.GET("/payment/:id", api.paymentPage)
	app.POST("/payment/confirm", api.confirmPayment)
	app.GET("/download/:username/:filename", api.downloadForm)
	app.POST("/download/:username/:filename", api.download)
	app.GET("/uploads/:filename", api.upload)
}

// Handlers

func (api *publicApi) index(ctx echo.Context) error {
	return renderPage(ctx, api.sess, http.StatusOK, "index", "Coaching institutes", nil)
}

func (api *publicApi) health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

func (api *publicApi) institutePage(ctx echo.Context) error {
	page, err := api.instSvc.GetPage(ctx.Request().Context(), ctx.Param("username"))
	if err != nil {
		if errors.Cause(err) == institute.ErrNotFound {
			return ctx.String(http.StatusNotFound, institute.ErrNotFound.Error())
		}
		return errors.Wrap(err, "getting institute page")
	}

	data := institutePage{
		Institute:    page.Institute,
		Config:       page.Configuration,
		WhyChooseUs:  page.Configuration.WhyChooseUsItems(),
		PDFTitle:     page.Configuration.PDFTitleOrDefault(),
		Testimonials: page.Configuration.Testimonials,
	}
	return renderPage(ctx, api.sess, http.StatusOK, "institute", page.Institute.Name, data)
}

func (api *publicApi) register(ctx echo.Context) error {
	var data registration.NewRegistration
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewRegistration")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	reg, err := api.regSvc.Register(ctx.Request().Context(), ctx.Param("username"), data)
	if err != nil {
		if errors.Cause(err) == registration.ErrInstituteNotFound {
			return errInstituteNotFound
		}
		return errors.Wrap(err, "registering")
	}

	return ctx.JSON(http.StatusOK, registerResponse{
		Success:        true,
		RegistrationID: reg.ID,
		PaymentURL:     registration.PaymentPath(reg.ID),
		Redirect:       true,
	})
}

func (api *publicApi) paymentPage(ctx echo.Context) error {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return ctx.String(http.StatusNotFound, registration.ErrNotFound.Error())
	}

	details, err := api.regSvc.GetPaymentDetails(ctx.Request().Context(), id)
	if err != nil {
		if errors.Cause(err) == registration.ErrNotFound {
			return ctx.String(http.StatusNotFound, registration.ErrNotFound.Error())
		}
		return errors.Wrap(err, "getting payment details")
	}
	return renderPage(ctx, api.sess, http.StatusOK, "payment", "Complete your payment", details)
}

func (api *publicApi) confirmPayment(ctx echo.Context) error {
	var data registration.ConfirmPayment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ConfirmPayment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	details, err := api.regSvc.ConfirmPayment(ctx.Request().Context(), data)
	if err != nil {
		if errors.Cause(err) == registration.ErrNotFound {
			return ctx.String(http.StatusNotFound, registration.ErrNotFound.Error())
		}
		return errors.Wrap(err, "confirming payment")
	}
	return renderPage(ctx, api.sess, http.StatusOK, "payment_success", "Payment confirmed", details)
}

func (api *publicApi) downloadForm(ctx echo.Context) error {
	data := downloadPage{Username: ctx.Param("username"), Filename: ctx.Param("filename")}
	return renderPage(ctx, api.sess, http.StatusOK, "download", "Download "+data.Filename, data)
}

func (api *publicApi) download(ctx echo.Context) error {
	var data download.Request
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to download.Request")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	filename := ctx.Param("filename")
	if _, _, err := api.dlSvc.Record(ctx.Request().Context(), ctx.Param("username"), filename, data); err != nil {
		return errors.Wrap(err, "recording download")
	}
	return api.serveAsset(ctx, filename, true)
}

func (api *publicApi) upload(ctx echo.Context) error {
	return api.serveAsset(ctx, ctx.Param("filename"), false)
}

func (api *publicApi) serveAsset(ctx echo.Context, name string, attachment bool) error {
	rc, err := api.assets.Open(ctx.Request().Context(), name)
	if err != nil {
		if errors.Cause(err) == core.ErrAssetNotFound {
			return ctx.String(http.StatusNotFound, core.ErrAssetNotFound.Error())
		}
		return errors.Wrap(err, "opening asset")
	}
	defer rc.Close()

	ct := mime.TypeByExtension(path.Ext(name))
	if ct == "" {
		ct = echo.MIMEOctetStream
	}
	if attachment {
		ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", path.Base(name)))
	}
	return ctx.Stream(http.StatusOK, ct, rc)
}
