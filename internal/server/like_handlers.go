package server

import (
	"vibez/internal/models"

	"github.com/gofiber/fiber/v2"
)

// LikePost handles POST /api/posts/:id/like
func (s *Server) LikePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	return s.toggleLike(c, models.PostTarget(id))
}

// LikeComment handles POST /api/comments/:id/like
func (s *Server) LikeComment(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	return s.toggleLike(c, models.CommentTarget(id))
}

// GetPostLike handles GET /api/posts/:id/like
func (s *Server) GetPostLike(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	return s.likeState(c, models.PostTarget(id))
}

// GetCommentLike handles GET /api/comments/:id/like
func (s *Server) GetCommentLike(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	return s.likeState(c, models.CommentTarget(id))
}

func (s *Server) likeState(c *fiber.Ctx, target models.LikeTarget) error {
	result, err := s.likeService.LikeState(c.UserContext(), currentUserID(c), target)
	if err != nil {
		return respondWithError(c, err)
	}
	return c.JSON(result)
}

// toggleLike answers 201 when a like was created and 200 when one was removed.
func (s *Server) toggleLike(c *fiber.Ctx, target models.LikeTarget) error {
	result, err := s.likeService.ToggleLike(c.UserContext(), currentUserID(c), target)
	if err != nil {
		return respondWithError(c, err)
	}

	status := fiber.StatusOK
	if result.Status == models.LikeStatusLiked {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(result)
}
