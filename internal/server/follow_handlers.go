package server

import (
	"socialfeed/internal/models"

	"github.com/gofiber/fiber/v2"
)

// Follow handles POST /api/follow/:userId
func (s *Server) Follow(c *fiber.Ctx) error {
	targetID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	state, err := s.followService.Follow(c.UserContext(), currentUserID(c), targetID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(state)
}

// GetFollowStatus handles GET /api/follow/:userId
func (s *Server) GetFollowStatus(c *fiber.Ctx) error {
	targetID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	following, err := s.followService.IsFollowing(c.UserContext(), currentUserID(c), targetID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"following": following})
}

// Unfollow handles POST /api/unfollow/:userId
func (s *Server) Unfollow(c *fiber.Ctx) error {
	targetID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	state, err := s.followService.Unfollow(c.UserContext(), currentUserID(c), targetID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(state)
}

// GetFollowers handles GET /api/users/:id/followers
func (s *Server) GetFollowers(c *fiber.Ctx) error {
	userID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	limit, offset := parseLimitOffset(c)

	users, total, err := s.followService.Followers(c.UserContext(), userID, limit, offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(listResponse[models.User]{Count: total, Limit: limit, Offset: offset, Results: users})
}

// GetFollowing handles GET /api/users/:id/following
func (s *Server) GetFollowing(c *fiber.Ctx) error {
	userID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	limit, offset := parseLimitOffset(c)

	users, total, err := s.followService.Following(c.UserContext(), userID, limit, offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(listResponse[models.User]{Count: total, Limit: limit, Offset: offset, Results: users})
}
