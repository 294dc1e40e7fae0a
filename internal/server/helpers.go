package server

import (
	"errors"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"unicode"

	"socialfeed/internal/middleware"
	"socialfeed/internal/models"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

const (
	defaultListLimit   = 20
	maxPaginationLimit = 100
)

// statusFor maps an AppError code to its HTTP status.
func statusFor(code string) int {
	switch code {
	case models.CodeValidation, models.CodeInvalidOperation:
		return fiber.StatusBadRequest
	case models.CodeUnauthorized:
		return fiber.StatusUnauthorized
	case models.CodeForbidden:
		return fiber.StatusForbidden
	case models.CodeNotFound:
		return fiber.StatusNotFound
	case models.CodeConflict:
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

// respondError writes err as a JSON error response. Errors that are not an
// AppError are logged and reported as internal.
func respondError(c *fiber.Ctx, err error) error {
	var appErr *models.AppError
	if !errors.As(err, &appErr) {
		appErr = models.NewInternalError(err)
	}
	status := statusFor(appErr.Code)
	if status == fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "request failed",
			slog.String("path", c.Path()),
			slog.String("error", err.Error()),
		)
	}
	return models.RespondWithError(c, status, appErr)
}

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 400 JSON response and returns errResponseWritten.
// Callers should check: if err != nil { return nil }
func (s *Server) parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+humanizeParam(param)))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// humanizeParam converts a route param name into a human-readable label.
// Examples: "id" -> "ID", "userId" -> "user ID".
func humanizeParam(param string) string {
	if param == "id" {
		return "ID"
	}
	if prefix, ok := strings.CutSuffix(param, "Id"); ok {
		return strings.ToLower(strings.Join(splitCamel(prefix), " ")) + " ID"
	}
	return param
}

func splitCamel(s string) []string {
	var words []string
	start := 0
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			words = append(words, s[start:i])
			start = i
		}
	}
	return append(words, s[start:])
}

// parseLimitOffset extracts limit and offset query parameters.
func parseLimitOffset(c *fiber.Ctx) (limit, offset int) {
	limit = c.QueryInt("limit", defaultListLimit)
	if limit <= 0 {
		limit = defaultListLimit
	}
	limit = min(limit, maxPaginationLimit)
	return limit, max(c.QueryInt("offset", 0), 0)
}

// parsePageParams reads page and page_size. A missing page means 1. A page that
// is not a number is rejected; page_size that is not a number falls back to the
// default size (0).
func parsePageParams(c *fiber.Ctx) (page, pageSize int, err error) {
	page = 1
	if raw := c.Query("page"); raw != "" {
		page, err = strconv.Atoi(raw)
		if err != nil {
			return 0, 0, models.NewInvalidOperationError("page must be a positive integer")
		}
	}
	pageSize, _ = strconv.Atoi(c.Query("page_size"))
	return page, pageSize, nil
}

// pageResponse is the page-number pagination envelope.
type pageResponse[T any] struct {
	Count       int64   `json:"count"`
	Next        *string `json:"next"`
	Previous    *string `json:"previous"`
	PageSize    int     `json:"page_size"`
	TotalPages  int     `json:"total_pages"`
	CurrentPage int     `json:"current_page"`
	Results     []T     `json:"results"`
}

func newPageResponse[T any](c *fiber.Ctx, p models.Page[T]) pageResponse[T] {
	resp := pageResponse[T]{
		Count:       p.Total,
		PageSize:    p.PageSize,
		TotalPages:  p.TotalPages,
		CurrentPage: p.Page,
		Results:     p.Items,
	}
	if p.HasNext() {
		resp.Next = pageURL(c, p.Page+1)
	}
	if p.HasPrevious() {
		resp.Previous = pageURL(c, p.Page-1)
	}
	return resp
}

// pageURL rebuilds the request URL with page replaced.
func pageURL(c *fiber.Ctx, page int) *string {
	q := url.Values{}
	for k, v := range c.Queries() {
		q.Set(k, v)
	}
	q.Set("page", strconv.Itoa(page))
	u := c.BaseURL() + c.Path() + "?" + q.Encode()
	return &u
}

// listResponse wraps limit/offset results.
type listResponse[T any] struct {
	Count   int64 `json:"count"`
	Limit   int   `json:"limit"`
	Offset  int   `json:"offset"`
	Results []T   `json:"results"`
}
