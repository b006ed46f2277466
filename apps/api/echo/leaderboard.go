package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/yousuf-shahzad/maths-soc-source/core/leaderboard"
)

type leaderboardApi struct {
	svc *leaderboard.Service
}

func registerLeaderboardAPI(g *echo.Group, svc *leaderboard.Service) {
	api := leaderboardApi{svc: svc}

	lg := g.Group("/leaderboard")
	lg.GET("", api.top)
}

// Handlers

func (api *leaderboardApi) top(ctx echo.Context) error {
	limit, _ := strconv.Atoi(ctx.QueryParam("limit")) // 0 -> service default

	entries, err := api.svc.Top(limit)
	if err != nil {
		return errors.Wrap(err, "querying leaderboard")
	}
	if entries == nil {
		entries = []leaderboard.Entry{}
	}
	return ctx.JSON(http.StatusOK, entries)
}
