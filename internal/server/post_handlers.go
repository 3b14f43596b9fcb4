package server

import (
	"net/url"
	"strings"

	"vibez/internal/models"
	"vibez/internal/service"

	"github.com/gofiber/fiber/v2"
)

// postRequest is accepted as JSON or as multipart form fields alongside "media" files.
type postRequest struct {
	Content string `json:"content" form:"content" validate:"max=50000"`
}

// GetPosts handles GET /api/posts
func (s *Server) GetPosts(c *fiber.Ctx) error {
	page := parsePagination(c, defaultPaginationLimit)

	posts, err := s.postService.ListPosts(c.UserContext(), page.Limit, page.Offset)
	if err != nil {
		return respondWithError(c, err)
	}
	return c.JSON(posts)
}

// GetPostsByHashtag handles GET /api/posts/hashtag/:hashtag
func (s *Server) GetPostsByHashtag(c *fiber.Ctx) error {
	// fiber leaves percent-escapes in params, and tags may be non-ASCII.
	tag, err := url.PathUnescape(c.Params("hashtag"))
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewFieldValidationError("Invalid hashtag",
			map[string]string{"hashtag": "must be a valid URL path segment"}))
	}
	if strings.TrimSpace(tag) == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Hashtag is required"))
	}
	page := parsePagination(c, defaultPaginationLimit)

	posts, err := s.postService.ListPostsByHashtag(c.UserContext(), tag, page.Limit, page.Offset)
	if err != nil {
		return respondWithError(c, err)
	}
	return c.JSON(posts)
}

// CreatePost handles POST /api/posts
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req postRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Invalid request body"))
	}
	if err := s.validateRequest(&req); err != nil {
		return respondWithError(c, err)
	}

	uploads, cleanup, err := s.parseUploads(c)
	if err != nil {
		return respondWithError(c, err)
	}
	defer cleanup()

	result, err := s.postService.CreatePost(c.UserContext(), service.CreatePostInput{
		UserID:  currentUserID(c),
		Content: req.Content,
		Media:   uploads,
	})
	if err != nil {
		return respondWithError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

// GetPost handles GET /api/posts/:id
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	post, err := s.postService.GetPost(c.UserContext(), id)
	if err != nil {
		return respondWithError(c, err)
	}
	return c.JSON(post)
}

// UpdatePost handles PUT and PATCH /api/posts/:id
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req postRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Invalid request body"))
	}
	if err := s.validateRequest(&req); err != nil {
		return respondWithError(c, err)
	}

	post, err := s.postService.UpdatePost(c.UserContext(), service.UpdatePostInput{
		UserID:  currentUserID(c),
		PostID:  id,
		Content: req.Content,
	})
	if err != nil {
		return respondWithError(c, err)
	}
	return c.JSON(post)
}

// DeletePost handles DELETE /api/posts/:id
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.postService.DeletePost(c.UserContext(), service.DeletePostInput{
		UserID: currentUserID(c),
		PostID: id,
	}); err != nil {
		return respondWithError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
