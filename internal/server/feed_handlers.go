package server

import (
	"socialfeed/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetFeed handles GET /api/feed?page=&page_size=
// The feed holds posts by the caller and everyone they follow, newest first.
func (s *Server) GetFeed(c *fiber.Ctx) error {
	return s.feed(c, service.FeedLatest)
}

// GetTrendingFeed handles GET /api/feed/trending?page=&page_size=
func (s *Server) GetTrendingFeed(c *fiber.Ctx) error {
	return s.feed(c, service.FeedTrending)
}

func (s *Server) feed(c *fiber.Ctx, kind service.FeedKind) error {
	page, pageSize, err := parsePageParams(c)
	if err != nil {
		return respondError(c, err)
	}

	result, err := s.feedService.Feed(c.UserContext(), currentUserID(c), kind, page, pageSize)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(newPageResponse(c, result))
}
