package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const companyIDKey = "company_id"

// MerchantClaims is the dashboard token: HS256, carrying the merchant's company.
type MerchantClaims struct {
	CompanyID string `json:"company_id"`
	jwt.RegisteredClaims
}

// MerchantAuth guards dashboard routes with a bearer token signed with secret.
func MerchantAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := strings.CutPrefix(c.Request().Header.Get(echo.HeaderAuthorization), "Bearer ")
			if !ok || raw == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
			}

			claims, err := parseMerchantToken(secret, raw)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token").SetInternal(err)
			}

			c.Set(companyIDKey, claims.CompanyID)
			return next(c)
		}
	}
}

func parseMerchantToken(secret, raw string) (*MerchantClaims, error) {
	if secret == "" {
		return nil, errors.New("merchant auth secret not configured")
	}

	claims := &MerchantClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if claims.CompanyID == "" {
		return nil, errors.New("token has no company_id")
	}
	return claims, nil
}

// CompanyID returns the company set by MerchantAuth.
func CompanyID(c echo.Context) string {
	id, _ := c.Get(companyIDKey).(string)
	return id
}
