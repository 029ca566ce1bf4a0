package api

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"IntelliMarket/internal/domain/models"
	"IntelliMarket/internal/usecase"
	xhttp "IntelliMarket/pkg/http"
	xlogger "IntelliMarket/pkg/logger"

	"github.com/labstack/echo/v4"
)

// maxValidators bounds the per-client debouncer registry; idle ones are
// dropped when it is exceeded.
const maxValidators = 1024

// ValidateHandler answers symbol lookups typed into the display surface.
// Each client has its own debouncer: a newer request supersedes an older
// one, which is answered 204.
type ValidateHandler struct {
	logger *xlogger.Logger
	ctrl   *usecase.Controller
	delay  time.Duration

	mu         sync.Mutex
	validators map[string]*usecase.SymbolValidator
}

func NewValidateHandler(logger *xlogger.Logger, ctrl *usecase.Controller, debounce time.Duration) *ValidateHandler {
	return &ValidateHandler{
		logger:     logger,
		ctrl:       ctrl,
		delay:      debounce,
		validators: make(map[string]*usecase.SymbolValidator),
	}
}

func (h *ValidateHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/api/validate/:symbol", h.Validate)
}

type validation struct {
	v   *models.SymbolValidation
	err error
}

func (h *ValidateHandler) Validate(c echo.Context) error {
	symbol := xhttp.NormalizeSymbol(c.Param("symbol"))
	if symbol == "" {
		return xhttp.ErrorResponse(c, http.StatusBadRequest, "Symbol is required")
	}

	done := make(chan validation, 1)
	h.validator(c.RealIP()).Schedule(symbol, func(v *models.SymbolValidation, err error) {
		done <- validation{v, err}
	})

	select {
	case <-c.Request().Context().Done():
		return nil
	case res := <-done:
		switch {
		case errors.Is(res.err, usecase.ErrSuperseded), errors.Is(res.err, usecase.ErrCanceled):
			return xhttp.NoContentResponse(c)
		case res.err != nil:
			h.logger.Warn("symbol validation failed", xlogger.String("symbol", symbol), xlogger.Error(res.err))
			return xhttp.ErrorResponse(c, http.StatusBadGateway, xhttp.FormatMessage(res.err))
		}
		return xhttp.SuccessResponse(c, res.v)
	}
}

func (h *ValidateHandler) validator(key string) *usecase.SymbolValidator {
	h.mu.Lock()
	defer h.mu.Unlock()

	if v, ok := h.validators[key]; ok {
		return v
	}
	if len(h.validators) >= maxValidators {
		for k, v := range h.validators {
			if v.State() == usecase.StateIdle {
				delete(h.validators, k)
			}
		}
	}
	v := usecase.NewSymbolValidator(h.ctrl.ValidateSymbol, h.delay)
	h.validators[key] = v
	return v
}
