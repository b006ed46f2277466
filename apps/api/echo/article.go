package echoapi

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/yousuf-shahzad/maths-soc-source/core"
	"github.com/yousuf-shahzad/maths-soc-source/core/article"
	"github.com/yousuf-shahzad/maths-soc-source/core/user"
)

type articleApi struct {
	conf     *core.Config
	svc      *article.Service
	usrSvc   *user.Service
	validate *validator.Validate
}

// registerArticleAPI mounts the same handler set twice: /articles and
// /newsletters only differ by the kind they are pinned to.
func registerArticleAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	conf *core.Config,
	svc *article.Service,
	usrSvc *user.Service,
	validate *validator.Validate,
) {
	api := articleApi{
		conf:     conf,
		svc:      svc,
		usrSvc:   usrSvc,
		validate: validate,
	}

	for kind, prefix := range map[string]string{
		article.KindArticle:    "/articles",
		article.KindNewsletter: "/newsletters",
	} {
		kind := kind
		ag := g.Group(prefix)

		// un-authed endpoints
		ag.GET("", api.query(kind))
		ag.GET("/latest", api.latest(kind))
		ag.GET("/:id", api.retrieve(kind))

		// admin endpoints; jwt is attached per route so the un-authed GETs
		// above keep working (an empty-prefix sub-group would shadow them).
		ag.POST("", api.create(kind), jwt, adminMiddleware())
		ag.POST("/:id/file", api.uploadFile(kind), jwt, adminMiddleware())
		ag.PUT("/:id", api.update(kind), jwt, adminMiddleware())
		ag.DELETE("/:id", api.destroy(kind), jwt, adminMiddleware())
	}
}

// Handlers

func (api *articleApi) create(kind string) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		var data article.NewArticle
		if err := ctx.Bind(&data); err != nil {
			return errors.Wrap(err, "binding to NewArticle")
		}
		data.Kind = kind
		if err := data.Validate(api.validate); err != nil {
			return err
		}

		ctxUsr, err := getContextUser(ctx, api.usrSvc)
		if err != nil {
			return errors.Wrap(err, "getting context user")
		}

		art, err := api.svc.Create(ctxUsr.ID, data)
		if err != nil {
			return errors.Wrap(err, "creating article")
		}
		return ctx.JSON(http.StatusCreated, art)
	}
}

func (api *articleApi) query(kind string) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		arts, err := api.svc.Query(kind)
		if err != nil {
			return errors.Wrap(err, "querying articles")
		}
		if arts == nil {
			arts = []article.Article{}
		}
		return ctx.JSON(http.StatusOK, arts)
	}
}

func (api *articleApi) latest(kind string) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		art, err := api.svc.GetLatest(kind)
		if err != nil {
			if errors.Cause(err) == article.ErrNotFound {
				return errHttpNotFound
			}
			return errors.Wrap(err, "finding latest article")
		}
		return ctx.JSON(http.StatusOK, art)
	}
}

func (api *articleApi) retrieve(kind string) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		art, err := api.getObject(ctx, kind)
		if err != nil {
			return err
		}
		return ctx.JSON(http.StatusOK, art)
	}
}

func (api *articleApi) update(kind string) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		art, err := api.getObject(ctx, kind)
		if err != nil {
			return err
		}

		var data article.UpdateArticle
		if err := ctx.Bind(&data); err != nil {
			return errors.Wrap(err, "binding to UpdateArticle")
		}
		if err := data.Validate(art, api.validate); err != nil {
			return err
		}

		art, err = api.svc.Update(art.ID, data)
		if err != nil {
			return errors.Wrap(err, "updating article")
		}
		return ctx.JSON(http.StatusOK, art)
	}
}

func (api *articleApi) uploadFile(kind string) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		art, err := api.getObject(ctx, kind)
		if err != nil {
			return err
		}

		url, err := saveUploadedFile(ctx, api.conf, kind+"s")
		if err != nil {
			return err
		}

		art, err = api.svc.Update(art.ID, article.UpdateArticle{
			Title:   art.Title,
			Content: art.Content,
			FileURL: url,
		})
		if err != nil {
			return errors.Wrap(err, "attaching article file")
		}
		return ctx.JSON(http.StatusOK, art)
	}
}

func (api *articleApi) destroy(kind string) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		art, err := api.getObject(ctx, kind)
		if err != nil {
			return err
		}
		if err := api.svc.Delete(art.ID); err != nil {
			return errors.Wrap(err, "deleting article")
		}
		return ctx.NoContent(http.StatusNoContent)
	}
}

// getObject loads the article and 404s when it is of the other kind, so
// /newsletters/:id cannot leak articles and vice versa.
func (api *articleApi) getObject(ctx echo.Context, kind string) (article.Article, error) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return article.Article{}, errHttpNotFound
	}
	art, err := api.svc.GetByID(id)
	if err != nil {
		if errors.Cause(err) == article.ErrNotFound {
			return article.Article{}, errHttpNotFound
		}
		return article.Article{}, errors.Wrap(err, "finding article by ID")
	}
	if art.Kind != kind {
		return article.Article{}, errHttpNotFound
	}
	return art, nil
}
