package server

import (
	"socialfeed/internal/models"

	"github.com/gofiber/fiber/v2"
)

// LikePost handles POST /api/posts/:id/like. Each call flips the caller's like.
func (s *Server) LikePost(c *fiber.Ctx) error {
	return s.toggleLike(c, models.LikeKindPost)
}

// LikeComment handles POST /api/comments/:id/like
func (s *Server) LikeComment(c *fiber.Ctx) error {
	return s.toggleLike(c, models.LikeKindComment)
}

func (s *Server) toggleLike(c *fiber.Ctx, kind models.LikeKind) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	result, err := s.likeService.Toggle(c.UserContext(), currentUserID(c), models.LikeTarget{Kind: kind, ID: id})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(result)
}

// GetPostLike handles GET /api/posts/:id/like
func (s *Server) GetPostLike(c *fiber.Ctx) error {
	return s.likeStatus(c, models.LikeKindPost)
}

// GetCommentLike handles GET /api/comments/:id/like
func (s *Server) GetCommentLike(c *fiber.Ctx) error {
	return s.likeStatus(c, models.LikeKindComment)
}

func (s *Server) likeStatus(c *fiber.Ctx, kind models.LikeKind) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	status, err := s.likeService.Status(c.UserContext(), currentUserID(c), models.LikeTarget{Kind: kind, ID: id})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(status)
}
