package service

import (
	"context"
	"strings"

	"socialfeed/internal/models"
	"socialfeed/internal/repository"
	"socialfeed/internal/validation"
)

// CommentService provides comment and reply business logic.
type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
	pagination  Pagination
}

type CreateCommentInput struct {
	UserID   uint
	PostID   uint
	ParentID *uint
	Content  string
}

type UpdateCommentInput struct {
	UserID    uint
	CommentID uint
	Content   string
}

// NewCommentService returns a new CommentService.
func NewCommentService(commentRepo repository.CommentRepository, postRepo repository.PostRepository, pagination Pagination) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		postRepo:    postRepo,
		pagination:  pagination,
	}
}

// CreateComment adds a comment to a post, or a reply when ParentID is set.
// A reply's parent must belong to the same post.
func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	content := strings.TrimSpace(in.Content)
	if err := validation.ValidateCommentContent(content); err != nil {
		return nil, models.NewValidationError(err.Error())
	}

	if _, err := s.postRepo.GetByID(ctx, in.PostID, 0); err != nil {
		return nil, err
	}

	if in.ParentID != nil {
		parent, err := s.commentRepo.GetByID(ctx, *in.ParentID, 0)
		if err != nil {
			return nil, err
		}
		if parent.PostID != in.PostID {
			return nil, models.NewInvalidOperationError("Parent comment belongs to a different post")
		}
	}

	comment := &models.Comment{
		UserID:   in.UserID,
		PostID:   in.PostID,
		ParentID: in.ParentID,
		Content:  content,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}
	return s.commentRepo.GetByID(ctx, comment.ID, in.UserID)
}

// ListComments returns a post's top-level comments, oldest first.
func (s *CommentService) ListComments(ctx context.Context, postID uint, page, pageSize int, currentUserID uint) (models.Page[models.Comment], error) {
	req, err := s.pagination.Request(page, pageSize)
	if err != nil {
		return models.Page[models.Comment]{}, err
	}
	if _, err := s.postRepo.GetByID(ctx, postID, 0); err != nil {
		return models.Page[models.Comment]{}, err
	}
	comments, total, err := s.commentRepo.ListByPost(ctx, postID, req.PageSize, req.Offset(), currentUserID)
	if err != nil {
		return models.Page[models.Comment]{}, err
	}
	return pageOf(comments, total, req)
}

// ListReplies returns the direct replies to a comment, oldest first.
func (s *CommentService) ListReplies(ctx context.Context, commentID uint, page, pageSize int, currentUserID uint) (models.Page[models.Comment], error) {
	req, err := s.pagination.Request(page, pageSize)
	if err != nil {
		return models.Page[models.Comment]{}, err
	}
	if _, err := s.commentRepo.GetByID(ctx, commentID, 0); err != nil {
		return models.Page[models.Comment]{}, err
	}
	replies, total, err := s.commentRepo.ListReplies(ctx, commentID, req.PageSize, req.Offset(), currentUserID)
	if err != nil {
		return models.Page[models.Comment]{}, err
	}
	return pageOf(replies, total, req)
}

func (s *CommentService) UpdateComment(ctx context.Context, in UpdateCommentInput) (*models.Comment, error) {
	comment, err := s.commentRepo.GetByID(ctx, in.CommentID, in.UserID)
	if err != nil {
		return nil, err
	}
	if comment.UserID != in.UserID {
		return nil, models.NewForbiddenError("You can only edit your own comments")
	}

	content := strings.TrimSpace(in.Content)
	if err := validation.ValidateCommentContent(content); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	comment.Content = content

	if err := s.commentRepo.Update(ctx, comment); err != nil {
		return nil, err
	}
	return s.commentRepo.GetByID(ctx, comment.ID, in.UserID)
}

func (s *CommentService) DeleteComment(ctx context.Context, userID, commentID uint) error {
	comment, err := s.commentRepo.GetByID(ctx, commentID, userID)
	if err != nil {
		return err
	}
	if comment.UserID != userID {
		return models.NewForbiddenError("You can only delete your own comments")
	}
	return s.commentRepo.Delete(ctx, commentID)
}
