package server

import (
	"context"
	"errors"
	"funnel-engine/internal/config"
	"funnel-engine/internal/dto"
	"funnel-engine/internal/handler"
	fmw "funnel-engine/internal/middleware"
	"funnel-engine/internal/service"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

type Services struct {
	Checkout service.CheckoutService
	Identity service.IdentityService
	Purchase service.PurchaseService
	Flow     service.FlowService
	Webhook  service.WebhookService
}

type Server struct {
	echo           *echo.Echo
	funnelHandler  *handler.FunnelHandler
	flowHandler    *handler.FlowHandler
	webhookHandler *handler.WebhookHandler
	auth           config.Auth
	rateLimit      config.RateLimit
}

func NewServer(services Services, auth config.Auth, rateLimit config.RateLimit) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = handleError

	e.Use(middleware.RequestLogger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	s := &Server{
		echo:           e,
		funnelHandler:  handler.NewFunnelHandler(services.Checkout, services.Identity, services.Purchase),
		flowHandler:    handler.NewFlowHandler(services.Flow),
		webhookHandler: handler.NewWebhookHandler(services.Webhook),
		auth:           auth,
		rateLimit:      rateLimit,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.echo.Group("/api")

	api.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	// -------- buyer facing --------
	limit := middleware.RateLimiter(
		middleware.NewRateLimiterMemoryStore(rate.Limit(s.rateLimit.RPS)),
	)
	api.POST("/checkout/setup", s.funnelHandler.CreateSetupCheckout, limit)
	api.GET("/identity/:checkoutConfigID", s.funnelHandler.ResolveIdentity, limit)
	api.POST("/flows/:flowID/decide", s.funnelHandler.Decide, limit)
	api.GET("/flows/:flowID/purchases", s.funnelHandler.GetPurchases, limit)
	api.POST("/purchases", s.funnelHandler.TrackPurchase, limit)

	// -------- dashboard --------
	dashboard := api.Group("/dashboard", fmw.MerchantAuth(s.auth.JWTSecret))
	dashboard.GET("/flows/:flowID", s.flowHandler.GetFlow)
	dashboard.DELETE("/flows/:flowID/nodes/:nodeID", s.flowHandler.DeleteNode)

	// -------- processor webhooks / callbacks --------
	api.POST("/webhooks/paypal", s.webhookHandler.PayPalWebhook)
	api.POST("/checkout/braintree/vault", s.webhookHandler.BraintreeVault)
}

// handleError renders every failure as dto.ErrorResponse. Messages of
// unexpected errors stay in the log.
func handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	msg := http.StatusText(code)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if m, ok := he.Message.(string); ok {
			msg = m
		} else {
			msg = http.StatusText(code)
		}
	}
	if code >= http.StatusInternalServerError {
		slog.ErrorContext(c.Request().Context(), "request failed",
			"method", c.Request().Method,
			"path", c.Path(),
			"error", err,
		)
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	_ = c.JSON(code, &dto.ErrorResponse{Error: msg})
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() *echo.Echo {
	return s.echo
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
