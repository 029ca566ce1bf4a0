package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Envelope wraps every JSON body the server writes.
type Envelope struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Page is the data of a list response.
type Page struct {
	Rows  interface{} `json:"rows"`
	Total int         `json:"total"`
}

func DataResponse(c echo.Context, status int, data interface{}) error {
	return c.JSON(status, Envelope{Status: status, Message: http.StatusText(status), Data: data})
}

func SuccessResponse(c echo.Context, data interface{}) error {
	return DataResponse(c, http.StatusOK, data)
}

func PageResponse(c echo.Context, rows interface{}, total int) error {
	return SuccessResponse(c, Page{Rows: rows, Total: total})
}

func NoContentResponse(c echo.Context) error {
	return c.NoContent(http.StatusNoContent)
}

// ErrorResponse writes {"error": msg} under status.
func ErrorResponse(c echo.Context, status int, msg string) error {
	return DataResponse(c, status, map[string]string{"error": msg})
}

// AppErrorResponse writes err as {error, kind}. Upstream statuses below 400
// become 502 and errors that are not AppErrors become 500.
func AppErrorResponse(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	var appErr *AppError
	if errors.As(err, &appErr) {
		status = appErr.Status
		if status < 400 {
			status = http.StatusBadGateway
		}
	}
	return DataResponse(c, status, map[string]string{
		"error": FormatMessage(err),
		"kind":  string(KindOf(err)),
	})
}
