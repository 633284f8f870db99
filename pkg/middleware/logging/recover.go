package loggingmw

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/liontv_shop/pkg/logging"
)

// Recover turns handler panics into errors and hands them back up the chain,
// so it belongs after RequestLogger. The stack goes to the request logger.
func Recover() echo.MiddlewareFunc {
	return echomw.RecoverWithConfig(echomw.RecoverConfig{
		DisableErrorHandler: true,
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			logging.FromContext(c.Request().Context()).Error("panic_recovered",
				"error", err,
				"stack", string(stack),
			)
			return err
		},
	})
}
