package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pot-code/brain-trails/internal/infrastructure/auth"
	"github.com/pot-code/brain-trails/internal/stats"
)

type StatsHandler struct {
	JWTUtil      *auth.JWTUtil
	StatsUseCase stats.StatsUseCase
}

func NewStatsHandler(JWTUtil *auth.JWTUtil, StatsUseCase stats.StatsUseCase) *StatsHandler {
	return &StatsHandler{JWTUtil, StatsUseCase}
}

func (sh *StatsHandler) HandleOverview(c echo.Context) error {
	overview, err := sh.StatsUseCase.Overview(c.Request().Context(), currentUser(c, sh.JWTUtil))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, overview)
}

func (sh *StatsHandler) HandleStudy(c echo.Context) error {
	study, err := sh.StatsUseCase.Study(c.Request().Context(), currentUser(c, sh.JWTUtil))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, study)
}
