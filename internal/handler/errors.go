package handler

import (
	"context"
	"errors"
	"funnel-engine/internal/funnel"
	"funnel-engine/internal/service"
	"net/http"

	"github.com/labstack/echo/v4"
)

// toHTTPError maps engine failures onto buyer-facing responses.
func toHTTPError(err error) error {
	var chargeErr *funnel.ChargeError

	switch {
	case errors.As(err, &chargeErr):
		return echo.NewHTTPError(http.StatusPaymentRequired, chargeErr.Error()).SetInternal(err)
	case errors.Is(err, funnel.ErrIdentityNotFound):
		return echo.NewHTTPError(http.StatusNotFound,
			funnel.ErrIdentityNotFound.Error()+". Please contact support.").SetInternal(err)
	case errors.Is(err, funnel.ErrOfferUnavailable):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, funnel.ErrOfferUnavailable.Error()).SetInternal(err)
	case errors.Is(err, service.ErrFlowNotFound):
		return echo.NewHTTPError(http.StatusNotFound, service.ErrFlowNotFound.Error()).SetInternal(err)
	case errors.Is(err, service.ErrInvalidRequest):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error()).SetInternal(err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return echo.NewHTTPError(http.StatusRequestTimeout, "request cancelled").SetInternal(err)
	default:
		return err
	}
}
