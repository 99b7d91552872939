package handler

import (
	"funnel-engine/internal/dto"
	"funnel-engine/internal/funnel"
	"funnel-engine/internal/service"
	"net/http"

	"github.com/labstack/echo/v4"
)

type FunnelHandler struct {
	checkoutService service.CheckoutService
	identityService service.IdentityService
	purchaseService service.PurchaseService
}

func NewFunnelHandler(
	checkoutService service.CheckoutService,
	identityService service.IdentityService,
	purchaseService service.PurchaseService,
) *FunnelHandler {
	return &FunnelHandler{
		checkoutService: checkoutService,
		identityService: identityService,
		purchaseService: purchaseService,
	}
}

func (h *FunnelHandler) CreateSetupCheckout(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.SetupCheckoutRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}
	if req.FlowID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing flow_id")
	}

	result, err := h.checkoutService.CreateSetupCheckout(ctx, &req)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, result)
}

func (h *FunnelHandler) ResolveIdentity(c echo.Context) error {
	ctx := c.Request().Context()

	checkoutConfigID := c.Param("checkoutConfigID")
	identity, err := h.identityService.ResolveMember(ctx, service.IdentityRequest{
		CheckoutConfigID: checkoutConfigID,
		Email:            c.QueryParam("email"),
		SessionID:        c.QueryParam("sessionId"),
	})
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, &dto.IdentityResponse{
		MemberID:      identity.MemberID,
		Email:         identity.Email,
		SetupIntentID: identity.SetupIntentID,
	})
}

// Decide handles accept/decline on a step and returns the redirect the embed
// script has to carry out.
func (h *FunnelHandler) Decide(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.DecideRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	origin := req.Origin
	if origin == "" {
		origin = c.Request().Header.Get(echo.HeaderOrigin)
	}
	env := &funnel.RecordingEnvironment{
		PageOrigin: origin,
		IsEmbedded: req.Embedded,
	}

	result, err := h.checkoutService.ChargeAndAdvance(ctx, c.Param("flowID"), &req, env)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, result)
}

func (h *FunnelHandler) GetPurchases(c echo.Context) error {
	ctx := c.Request().Context()

	purchases, err := h.purchaseService.GetPurchases(ctx,
		c.QueryParam("memberId"),
		c.Param("flowID"),
		c.QueryParam("sessionId"),
	)
	if err != nil {
		return toHTTPError(err)
	}

	return c.JSON(http.StatusOK, purchases)
}

// TrackPurchase records a purchase made outside the engine, e.g. the initial checkout.
func (h *FunnelHandler) TrackPurchase(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.TrackPurchaseRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	if err := h.purchaseService.TrackPurchase(ctx, &req); err != nil {
		return toHTTPError(err)
	}

	return c.NoContent(http.StatusAccepted)
}
