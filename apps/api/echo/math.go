package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/yousuf-shahzad/maths-soc-source/mathexpr"
)

type mathApi struct {
	validate *validator.Validate
}

// registerMathAPI mounts the expression tooling used by admins when authoring
// challenge answers. Compare and NormalizeForStorage never panic, so malformed
// input can never 500 here.
func registerMathAPI(g *echo.Group, jwt echo.MiddlewareFunc, validate *validator.Validate) {
	api := mathApi{validate: validate}

	mg := g.Group("/math", jwt)
	mg.POST("/test-equivalence", api.testEquivalence, adminMiddleware())
	mg.POST("/normalize", api.normalize, adminMiddleware())
}

// Handlers

func (api *mathApi) testEquivalence(ctx echo.Context) error {
	var data EquivalenceRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to EquivalenceRequest")
	}
	if err := api.validate.Struct(&data); err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, EquivalenceResponse{
		Equivalent:  mathexpr.Compare(data.Expr1, data.Expr2),
		Normalized1: mathexpr.NormalizeForStorage(data.Expr1),
		Normalized2: mathexpr.NormalizeForStorage(data.Expr2),
	})
}

func (api *mathApi) normalize(ctx echo.Context) error {
	var data NormalizeRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NormalizeRequest")
	}
	if err := api.validate.Struct(&data); err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, NormalizeResponse{
		Normalized: mathexpr.NormalizeForStorage(data.Expr),
	})
}

type (
	EquivalenceRequest struct {
		Expr1 string `json:"expr1" validate:"required"`
		Expr2 string `json:"expr2" validate:"required"`
	}

	EquivalenceResponse struct {
		Equivalent  bool   `json:"equivalent"`
		Normalized1 string `json:"normalized1"`
		Normalized2 string `json:"normalized2"`
	}

	NormalizeRequest struct {
		Expr string `json:"expr" validate:"required"`
	}

	NormalizeResponse struct {
		Normalized string `json:"normalized"`
	}
)
