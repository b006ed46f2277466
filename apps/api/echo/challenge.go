package echoapi

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/yousuf-shahzad/maths-soc-source/core"
	"github.com/yousuf-shahzad/maths-soc-source/core/challenge"
	"github.com/yousuf-shahzad/maths-soc-source/core/user"
)

type challengeApi struct {
	conf     *core.Config
	svc      *challenge.Service
	usrSvc   *user.Service
	validate *validator.Validate
}

func registerChallengeAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	conf *core.Config,
	svc *challenge.Service,
	usrSvc *user.Service,
	validate *validator.Validate,
) {
	api := challengeApi{
		conf:     conf,
		svc:      svc,
		usrSvc:   usrSvc,
		validate: validate,
	}

	cg := g.Group("/challenges")

	// un-authed endpoints
	cg.GET("", api.query)
	cg.GET("/latest", api.latest)
	cg.GET("/:id", api.retrieve)

	// authed endpoints; jwt is attached per route so the un-authed GETs
	// above keep working (an empty-prefix sub-group would shadow them).
	cg.POST("/:id/submissions", api.submit, jwt)
	cg.GET("/:id/submissions", api.querySubmissions, jwt)

	// admin endpoints
	cg.POST("", api.create, jwt, adminMiddleware())
	cg.POST("/:id/file", api.uploadFile, jwt, adminMiddleware())
	cg.PUT("/:id", api.update, jwt, adminMiddleware())
	cg.DELETE("", api.destroyMultiple, jwt, adminMiddleware())
	cg.DELETE("/:id", api.destroy, jwt, adminMiddleware())
}

// Handlers

func (api *challengeApi) create(ctx echo.Context) error {
	var data challenge.NewChallenge
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewChallenge")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	chg, err := api.svc.Create(data)
	if err != nil {
		return errors.Wrap(err, "creating challenge")
	}
	return ctx.JSON(http.StatusCreated, chg)
}

func (api *challengeApi) query(ctx echo.Context) error {
	challenges, err := api.svc.QueryAll()
	if err != nil {
		return errors.Wrap(err, "querying challenges")
	}
	if challenges == nil {
		challenges = []challenge.Challenge{}
	}
	return ctx.JSON(http.StatusOK, challenges)
}

func (api *challengeApi) latest(ctx echo.Context) error {
	chg, err := api.svc.GetLatest()
	if err != nil {
		if errors.Cause(err) == challenge.ErrNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "finding latest challenge")
	}
	return ctx.JSON(http.StatusOK, chg)
}

func (api *challengeApi) retrieve(ctx echo.Context) error {
	chg, err := api.getObject(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, chg)
}

func (api *challengeApi) update(ctx echo.Context) error {
	chg, err := api.getObject(ctx)
	if err != nil {
		return err
	}

	var data challenge.UpdateChallenge
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateChallenge")
	}
	if err := data.Validate(chg, api.validate); err != nil {
		return err
	}

	chg, err = api.svc.Update(chg.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating challenge")
	}
	return ctx.JSON(http.StatusOK, chg)
}

func (api *challengeApi) destroy(ctx echo.Context) error {
	chg, err := api.getObject(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.Delete(chg.ID); err != nil {
		return errors.Wrap(err, "deleting challenge")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *challengeApi) destroyMultiple(ctx echo.Context) error {
	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if query.IDs == nil {
		return ctx.NoContent(http.StatusNoContent)
	}
	if err := api.svc.Delete(query.IDs...); err != nil {
		return errors.Wrap(err, "deleting challenges")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// uploadFile attaches a worksheet (PDF or image) to the challenge.
func (api *challengeApi) uploadFile(ctx echo.Context) error {
	chg, err := api.getObject(ctx)
	if err != nil {
		return err
	}

	url, err := saveUploadedFile(ctx, api.conf, "challenges")
	if err != nil {
		return err
	}

	chg, err = api.svc.Update(chg.ID, challenge.UpdateChallenge{
		Title:   chg.Title,
		Content: chg.Content,
		FileURL: url,
	})
	if err != nil {
		return errors.Wrap(err, "attaching challenge file")
	}
	return ctx.JSON(http.StatusOK, chg)
}

func (api *challengeApi) submit(ctx echo.Context) error {
	chg, err := api.getObject(ctx)
	if err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data challenge.NewSubmission
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSubmission")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	verdict, err := api.svc.Submit(ctxUsr.ID, chg.ID, data)
	if err != nil {
		switch errors.Cause(err) {
		case challenge.ErrBoxNotFound:
			return errHttpNotFound
		case challenge.ErrChallengeLocked:
			return echo.NewHTTPError(http.StatusForbidden, challenge.ErrChallengeLocked.Error())
		case challenge.ErrNoAttemptsLeft:
			return core.NewValidationError(challenge.ErrNoAttemptsLeft)
		}
		return errors.Wrap(err, "grading submission")
	}
	return ctx.JSON(http.StatusOK, verdict)
}

func (api *challengeApi) querySubmissions(ctx echo.Context) error {
	chg, err := api.getObject(ctx)
	if err != nil {
		return err
	}
	ctxUsr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	subs, err := api.svc.Submissions(chg.ID, ctxUsr.ID)
	if err != nil {
		return errors.Wrap(err, "querying submissions")
	}
	if subs == nil {
		subs = []challenge.Submission{}
	}
	return ctx.JSON(http.StatusOK, subs)
}

func (api *challengeApi) getObject(ctx echo.Context) (challenge.Challenge, error) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return challenge.Challenge{}, errHttpNotFound
	}
	chg, err := api.svc.GetByID(id)
	if err != nil {
		if errors.Cause(err) == challenge.ErrNotFound {
			return challenge.Challenge{}, errHttpNotFound
		}
		return challenge.Challenge{}, errors.Wrap(err, "finding challenge by ID")
	}
	return chg, nil
}
