package server

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"socialfeed/internal/middleware"
	"socialfeed/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

var (
	errMissingToken  = errors.New("authorization required")
	errRevokedToken  = errors.New("token has been revoked")
	errInvalidTicket = errors.New("invalid or expired websocket ticket")
)

// bearerToken returns the token from an "Authorization: Bearer <token>" header.
func bearerToken(c *fiber.Ctx) string {
	scheme, token, ok := strings.Cut(c.Get(fiber.HeaderAuthorization), " ")
	if !ok || scheme != "Bearer" {
		return ""
	}
	return strings.TrimSpace(token)
}

// authenticate validates the request's bearer JWT and returns the user id in its subject.
// Tokens are issued elsewhere; this service only verifies them.
func (s *Server) authenticate(c *fiber.Ctx) (uint, error) {
	tokenString := bearerToken(c)
	if tokenString == "" {
		return 0, errMissingToken
	}

	var claims jwt.RegisteredClaims
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}),
		jwt.WithExpirationRequired(),
	}
	if s.config.JWTIssuer != "" {
		opts = append(opts, jwt.WithIssuer(s.config.JWTIssuer))
	}
	if s.config.JWTAudience != "" {
		opts = append(opts, jwt.WithAudience(s.config.JWTAudience))
	}

	_, err := jwt.ParseWithClaims(tokenString, &claims, func(*jwt.Token) (any, error) {
		return []byte(s.config.JWTSecret), nil
	}, opts...)
	if err != nil {
		return 0, err
	}

	userID, err := strconv.ParseUint(claims.Subject, 10, 32)
	if err != nil || userID == 0 {
		return 0, errors.New("invalid subject claim")
	}

	if claims.ID != "" && s.redis != nil {
		n, err := s.redis.Exists(c.UserContext(), "blacklist:"+claims.ID).Result()
		if err == nil && n > 0 {
			return 0, errRevokedToken
		}
	}

	return uint(userID), nil
}

// redeemTicket consumes a ticket issued by IssueWSTicket.
func (s *Server) redeemTicket(c *fiber.Ctx, ticket string) (uint, error) {
	if s.redis == nil {
		return 0, errInvalidTicket
	}
	raw, err := s.redis.GetDel(c.UserContext(), wsTicketPrefix+ticket).Result()
	if err != nil {
		return 0, errInvalidTicket
	}
	userID, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || userID == 0 {
		return 0, errInvalidTicket
	}
	return uint(userID), nil
}

// AuthRequired rejects requests without a valid bearer token and stores the
// caller's id in Locals("userID") and the request context. Websocket routes
// also accept a ?ticket= from IssueWSTicket.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var (
			userID uint
			err    error
		)
		if ticket := c.Query("ticket"); ticket != "" && strings.HasPrefix(c.Path(), "/ws/") {
			userID, err = s.redeemTicket(c, ticket)
		} else {
			userID, err = s.authenticate(c)
		}
		switch {
		case errors.Is(err, errMissingToken):
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		case errors.Is(err, errInvalidTicket):
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid or expired websocket ticket"))
		case errors.Is(err, errRevokedToken):
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Token has been revoked"))
		case err != nil:
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid or expired token"))
		}

		c.Locals("userID", userID)
		c.SetUserContext(context.WithValue(c.UserContext(), middleware.UserIDKey, userID))
		return c.Next()
	}
}

// optionalUserID attempts to extract userID from Authorization header but does not enforce it.
func (s *Server) optionalUserID(c *fiber.Ctx) (uint, bool) {
	if uid, ok := c.Locals("userID").(uint); ok {
		return uid, true
	}
	userID, err := s.authenticate(c)
	if err != nil {
		return 0, false
	}
	return userID, true
}

// currentUserID returns the id stored by AuthRequired.
func currentUserID(c *fiber.Ctx) uint {
	uid, _ := c.Locals("userID").(uint)
	return uid
}
