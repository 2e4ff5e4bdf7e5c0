package echoapi

import (
	"net/http"
	"strconv"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/coachdesk/core"
	"github.com/trezcool/coachdesk/core/institute"
	"github.com/trezcool/coachdesk/core/itadmin"
)

const (
	itLoginPath     = "/it/login"
	itDashboardPath = "/it/dashboard"
)

type (
	itApi struct {
		sess       *sessionStore
		instSvc    *institute.Service
		adminSvc   *itadmin.Service
		validate   *validator.Validate
		translator ut.Translator
	}

	successResponse struct {
		Success bool   `json:"success"`
		Message string `json:"message,omitempty"`
		Error   string `json:"error,omitempty"`
	}
)

func registerITAPI(
	app *echo.Echo,
	sess *sessionStore,
	instSvc *institute.Service,
	adminSvc *itadmin.Service,
	validate *validator.Validate,
	translator ut.Translator,
) {
	api := itApi{
		sess:       sess,
		instSvc:    instSvc,
		adminSvc:   adminSvc,
		validate:   validate,
		translator: translator,
	}

	g := app.Group("/it")

	// un-authed endpoints
	g.GET("/login", api.loginForm)
	g.POST("/authenticate", api.authenticate)
	g.GET("/logout", api.logout)

	// authed pages
	pages := g.Group("", itAdminRequired(sess, false))
	pages.GET("/dashboard", api.dashboard)
	pages.GET("/edit/:id", api.editForm)
	pages.POST("/update/:id", api.update)

	// authed JSON endpoints
	ag := g.Group("", itAdminRequired(sess, true))
	ag.GET("/institutes", api.institutes)
	ag.POST("/create_institute", api.createInstitute)
	ag.POST("/toggle_institute/:id", api.toggleInstitute)
	ag.POST("/edit_institute/:id", api.editInstitute)
}

// Handlers

func (api *itApi) loginForm(ctx echo.Context) error {
	return renderPage(ctx, api.sess, http.StatusOK, "it_login", "IT admin", nil)
}

func (api *itApi) authenticate(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}

	admin, err := api.adminSvc.Authenticate(ctx.Request().Context(), data.Username, data.Password)
	if err != nil {
		if errors.Cause(err) == itadmin.ErrInvalidCredentials {
			return flashAndRedirect(ctx, api.sess, itLoginPath, itadmin.ErrInvalidCredentials.Error())
		}
		return errors.Wrap(err, "authenticating it admin")
	}

	if err = api.sess.loginITAdmin(ctx, admin); err != nil {
		return err
	}
	return ctx.Redirect(http.StatusFound, itDashboardPath)
}

func (api *itApi) logout(ctx echo.Context) error {
	if err := api.sess.logout(ctx); err != nil {
		return err
	}
	return ctx.Redirect(http.StatusFound, "/")
}

func (api *itApi) dashboard(ctx echo.Context) error {
	insts, err := api.instSvc.List(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing institutes")
	}
	return renderPage(ctx, api.sess, http.StatusOK, "it_dashboard", "IT dashboard", insts)
}

func (api *itApi) institutes(ctx echo.Context) error {
	insts, err := api.instSvc.List(ctx.Request().Context(), queryOrderings(ctx)...)
	if err != nil {
		return errors.Wrap(err, "listing institutes")
	}
	return ctx.JSON(http.StatusOK, insts)
}

func (api *itApi) createInstitute(ctx echo.Context) error {
	var data institute.NewInstitute
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewInstitute")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if _, err := api.instSvc.Create(ctx.Request().Context(), data); err != nil {
		if errors.Cause(err) == institute.ErrUsernameExists {
			return ctx.JSON(http.StatusConflict, successResponse{Error: institute.ErrUsernameExists.Error()})
		}
		return errors.Wrap(err, "creating institute")
	}
	return ctx.JSON(http.StatusOK, successResponse{Success: true, Message: "Institute created successfully!"})
}

func (api *itApi) toggleInstitute(ctx echo.Context) error {
	id, ok := paramID(ctx)
	if !ok {
		return errInstituteNotFound
	}
	if err := api.instSvc.Toggle(ctx.Request().Context(), id); err != nil {
		if errors.Cause(err) == institute.ErrNotFound {
			return errInstituteNotFound
		}
		return errors.Wrap(err, "toggling institute")
	}
	return ctx.JSON(http.StatusOK, successResponse{Success: true})
}

func (api *itApi) editInstitute(ctx echo.Context) error {
	id, ok := paramID(ctx)
	if !ok {
		return errInstituteNotFound
	}

	data := institute.NewITUpdate()
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ITUpdate")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if _, err := api.instSvc.EditByIT(ctx.Request().Context(), id, data); err != nil {
		if errors.Cause(err) == institute.ErrNotFound {
			return errInstituteNotFound
		}
		return errors.Wrap(err, "updating institute")
	}
	return ctx.JSON(http.StatusOK, successResponse{Success: true, Message: "Institute updated successfully"})
}

func (api *itApi) editForm(ctx echo.Context) error {
	id, ok := paramID(ctx)
	if !ok {
		return flashAndRedirect(ctx, api.sess, itDashboardPath, institute.ErrNotFound.Error())
	}

	inst, err := api.instSvc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		if errors.Cause(err) == institute.ErrNotFound {
			return flashAndRedirect(ctx, api.sess, itDashboardPath, institute.ErrNotFound.Error())
		}
		return errors.Wrap(err, "getting institute")
	}
	return renderPage(ctx, api.sess, http.StatusOK, "it_edit", "Edit "+inst.Name, inst)
}

func (api *itApi) update(ctx echo.Context) error {
	id, ok := paramID(ctx)
	if !ok {
		return flashAndRedirect(ctx, api.sess, itDashboardPath, institute.ErrNotFound.Error())
	}

	data := institute.NewITUpdate()
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ITUpdate")
	}
	if err := data.Validate(api.validate); err != nil {
		if vErr, ok := core.IsValidationError(core.TranslateValidationErrors(err, api.translator)); ok {
			return flashAndRedirect(ctx, api.sess, "/it/edit/"+strconv.Itoa(id), vErr.FirstMessage())
		}
		return err
	}

	if _, err := api.instSvc.EditByIT(ctx.Request().Context(), id, data); err != nil {
		if errors.Cause(err) == institute.ErrNotFound {
			return flashAndRedirect(ctx, api.sess, itDashboardPath, institute.ErrNotFound.Error())
		}
		return errors.Wrap(err, "updating institute")
	}
	return flashAndRedirect(ctx, api.sess, itDashboardPath, "Institute updated successfully!")
}

// queryOrderings reads the "ordering" query param, e.g. `?ordering=-created_at,username`.
func queryOrderings(ctx echo.Context) []core.DBOrdering {
	val := ctx.QueryParam("ordering")
	if val == "" {
		return nil
	}

	var orderings []core.DBOrdering
	for _, field := range strings.Split(val, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		orderings = append(orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
	return orderings
}

func paramID(ctx echo.Context) (int, bool) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}
