package middleware

import (
	"fmt"
	"net/http"
	"runtime"

	applogger "IntelliMarket/pkg/logger"

	"github.com/labstack/echo/v4"
)

const stackSize = 4 << 10

// Recover turns a handler panic into a logged 500 so one bad request cannot
// take the display server down.
func Recover(l *applogger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				if r == http.ErrAbortHandler {
					panic(r)
				}
				stack := make([]byte, stackSize)
				stack = stack[:runtime.Stack(stack, false)]
				l.Error("handler panic",
					applogger.String("route", c.Path()),
					applogger.String("panic", fmt.Sprint(r)),
					applogger.String("stack", string(stack)),
				)
				if c.Response().Committed {
					return
				}
				err = c.JSON(http.StatusInternalServerError, errorBody(http.StatusInternalServerError, "An unexpected error occurred. Please try again."))
			}()
			return next(c)
		}
	}
}

// errorBody mirrors the envelope written by the http package.
func errorBody(status int, msg string) echo.Map {
	return echo.Map{
		"status":  status,
		"message": http.StatusText(status),
		"data":    echo.Map{"error": msg},
	}
}
