package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/omnilodge/concierge/domain/entities"
	"github.com/omnilodge/concierge/domain/repositories"
	"github.com/omnilodge/concierge/internal/auth"
	"github.com/omnilodge/concierge/internal/websocket"
	"github.com/omnilodge/concierge/usecase"
)

// InitRoutes initializes all API routes
func InitRoutes(e *echo.Echo, hub *websocket.Hub, concierge *usecase.Concierge, logger *zap.Logger) {
	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "omnilodge-concierge",
		})
	})

	// API v1 routes
	v1 := e.Group("/api/v1")

	v1.POST("/guests/login", func(c echo.Context) error {
		return guestLogin(c, logger)
	})

	v1.GET("/bookings", func(c echo.Context) error {
		return listBookings(c, concierge, logger)
	})
	v1.POST("/bookings/:code/cancel", func(c echo.Context) error {
		return cancelBooking(c, concierge, logger)
	})

	// WebSocket endpoint with JWT validation
	e.GET("/ws", func(c echo.Context) error {
		return websocketWithAuth(hub, c, logger)
	})
}

// guestLogin issues a guest token. There is no password: the kiosk is
// on hotel premises and the email only scopes which bookings are shown.
func guestLogin(c echo.Context, logger *zap.Logger) error {
	var req GuestLoginRequest
	if err := c.Bind(&req); err != nil {
		logger.Error("Failed to bind guest login request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}

	guest := entities.Guest{Email: req.Email, Name: req.Name}
	if err := guest.Validate(); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_guest",
			Message: err.Error(),
		})
	}

	token, err := auth.GenerateGuestToken(guest.Email, guest.Name)
	if err != nil {
		logger.Error("Failed to generate guest token",
			zap.String("email", guest.Email),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "token_generation_failed",
			Message: "Failed to generate authentication token",
		})
	}

	logger.Info("Guest logged in", zap.String("email", guest.Email))

	return c.JSON(http.StatusOK, GuestLoginResponse{
		Token:     token,
		ExpiresAt: time.Now().Add(7 * 24 * time.Hour),
		Email:     guest.Email,
	})
}

func listBookings(c echo.Context, concierge *usecase.Concierge, logger *zap.Logger) error {
	claims, errResp := guestClaims(c)
	if errResp != nil {
		return c.JSON(http.StatusUnauthorized, errResp)
	}

	bookings, err := concierge.ListBookings(c.Request().Context(), claims.Email)
	if err != nil {
		logger.Error("Failed to list bookings",
			zap.String("email", claims.Email),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "list_failed",
			Message: "Could not load bookings",
		})
	}
	if bookings == nil {
		bookings = []*entities.Booking{}
	}

	return c.JSON(http.StatusOK, BookingListResponse{Bookings: bookings})
}

func cancelBooking(c echo.Context, concierge *usecase.Concierge, logger *zap.Logger) error {
	claims, errResp := guestClaims(c)
	if errResp != nil {
		return c.JSON(http.StatusUnauthorized, errResp)
	}

	code := c.Param("code")
	err := concierge.CancelBooking(c.Request().Context(), claims.Email, code)
	if errors.Is(err, repositories.ErrBookingNotFound) {
		return c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "booking_not_found",
			Message: "No booking found for that confirmation code",
		})
	}
	if err != nil {
		logger.Error("Failed to cancel booking",
			zap.String("code", code),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "cancel_failed",
			Message: "Could not cancel booking",
		})
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "cancelled"})
}

// guestClaims validates the bearer token on a REST request.
func guestClaims(c echo.Context) (*auth.JWTClaims, *ErrorResponse) {
	token := bearerToken(c)
	if token == "" {
		return nil, &ErrorResponse{
			Error:   "missing_token",
			Message: "JWT token is required in Authorization header",
		}
	}

	claims, err := auth.ValidateToken(token)
	if err != nil {
		return nil, &ErrorResponse{
			Error:   "invalid_token",
			Message: "Invalid or expired JWT token",
		}
	}
	return claims, nil
}

func bearerToken(c echo.Context) string {
	authHeader := c.Request().Header.Get("Authorization")
	if len(authHeader) > 7 && authHeader[:7] == "Bearer " {
		return authHeader[7:]
	}
	return ""
}

// websocketWithAuth handles WebSocket connections with JWT authentication
func websocketWithAuth(hub *websocket.Hub, c echo.Context, logger *zap.Logger) error {
	// Browsers cannot set headers on WebSocket upgrades, so the token may
	// also arrive as a query parameter.
	token := bearerToken(c)
	if token == "" {
		token = c.QueryParam("token")
	}

	if token == "" {
		logger.Warn("WebSocket connection rejected: missing token")
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "missing_token",
			Message: "JWT token is required",
		})
	}

	claims, err := auth.ValidateToken(token)
	if err != nil {
		logger.Warn("WebSocket connection rejected: invalid token", zap.Error(err))
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "invalid_token",
			Message: "Invalid or expired JWT token",
		})
	}

	if claims.Role != "guest" {
		logger.Warn("WebSocket connection rejected: invalid role",
			zap.String("role", claims.Role))
		return c.JSON(http.StatusForbidden, ErrorResponse{
			Error:   "invalid_role",
			Message: "Only guest tokens are allowed for WebSocket connections",
		})
	}

	guest := entities.Guest{Email: claims.Email, Name: claims.Name}

	logger.Info("WebSocket connection authenticated",
		zap.String("email", guest.Email))

	return websocket.HandleWebSocket(hub, c, guest, logger)
}
