package httpserver

import (
	"net/http"

	"github.com/Skotchmaster/liontv_shop/services/storefront/internal/service"
	"github.com/labstack/echo/v4"
)

type CatalogHTTP struct {
	Svc service.CatalogService
}

func (h *CatalogHTTP) Plans(c echo.Context) error {
	return c.JSON(http.StatusOK, h.Svc.Plans())
}
