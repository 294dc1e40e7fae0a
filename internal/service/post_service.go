package service

import (
	"context"
	"strings"

	"socialfeed/internal/events"
	"socialfeed/internal/models"
	"socialfeed/internal/repository"
	"socialfeed/internal/validation"
)

type PostService struct {
	postRepo   repository.PostRepository
	userRepo   repository.UserRepository
	events     events.Publisher
	pagination Pagination
}

type CreatePostInput struct {
	UserID   uint
	Title    string
	Content  string
	ImageURL string
}

// UpdatePostInput carries a partial update; nil fields are left unchanged.
type UpdatePostInput struct {
	UserID   uint
	PostID   uint
	Title    *string
	Content  *string
	ImageURL *string
}

type ListPostsInput struct {
	Search        string
	AuthorID      uint
	// OnlyFollowing restricts the listing to authors CurrentUserID follows.
	OnlyFollowing bool
	Page          int
	PageSize      int
	CurrentUserID uint
}

func NewPostService(
	postRepo repository.PostRepository,
	userRepo repository.UserRepository,
	pub events.Publisher,
	pagination Pagination,
) *PostService {
	return &PostService{
		postRepo:   postRepo,
		userRepo:   userRepo,
		events:     pub,
		pagination: pagination,
	}
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	title := strings.TrimSpace(in.Title)
	content := strings.TrimSpace(in.Content)
	if err := validatePost(title, content); err != nil {
		return nil, err
	}

	post := &models.Post{
		UserID:   in.UserID,
		Title:    title,
		Content:  content,
		ImageURL: strings.TrimSpace(in.ImageURL),
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}

	events.Emit(ctx, s.events, events.New(events.PostCreated, in.UserID, post.ID, nil))
	return s.postRepo.GetByID(ctx, post.ID, in.UserID)
}

func (s *PostService) GetPost(ctx context.Context, id, currentUserID uint) (*models.Post, error) {
	return s.postRepo.GetByID(ctx, id, currentUserID)
}

func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, in.PostID, in.UserID)
	if err != nil {
		return nil, err
	}
	if post.UserID != in.UserID {
		return nil, models.NewForbiddenError("You can only edit your own posts")
	}

	if in.Title != nil {
		post.Title = strings.TrimSpace(*in.Title)
	}
	if in.Content != nil {
		post.Content = strings.TrimSpace(*in.Content)
	}
	if in.ImageURL != nil {
		post.ImageURL = strings.TrimSpace(*in.ImageURL)
	}
	if err := validatePost(post.Title, post.Content); err != nil {
		return nil, err
	}

	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, err
	}
	return s.postRepo.GetByID(ctx, post.ID, in.UserID)
}

func (s *PostService) DeletePost(ctx context.Context, userID, postID uint) error {
	post, err := s.postRepo.GetByID(ctx, postID, userID)
	if err != nil {
		return err
	}
	if post.UserID != userID {
		return models.NewForbiddenError("You can only delete your own posts")
	}
	return s.postRepo.Delete(ctx, postID)
}

// ListPosts is the explore listing: every post, newest first, optionally filtered.
func (s *PostService) ListPosts(ctx context.Context, in ListPostsInput) (models.Page[models.Post], error) {
	req, err := s.pagination.Request(in.Page, in.PageSize)
	if err != nil {
		return models.Page[models.Post]{}, err
	}
	filter := repository.PostFilter{Search: in.Search, AuthorID: in.AuthorID}
	if in.OnlyFollowing {
		if in.CurrentUserID == 0 {
			return models.Page[models.Post]{}, models.NewUnauthorizedError("Log in to filter by followed users")
		}
		filter.FollowedBy = in.CurrentUserID
	}
	posts, total, err := s.postRepo.List(ctx, filter, req.PageSize, req.Offset(), in.CurrentUserID)
	if err != nil {
		return models.Page[models.Post]{}, err
	}
	return pageOf(posts, total, req)
}

// UserPosts lists one author's posts. An unknown author is NotFound rather than an empty page.
func (s *PostService) UserPosts(ctx context.Context, authorID uint, page, pageSize int, currentUserID uint) (models.Page[models.Post], error) {
	if _, err := s.userRepo.GetByID(ctx, authorID); err != nil {
		return models.Page[models.Post]{}, err
	}
	return s.ListPosts(ctx, ListPostsInput{
		AuthorID:      authorID,
		Page:          page,
		PageSize:      pageSize,
		CurrentUserID: currentUserID,
	})
}

func validatePost(title, content string) error {
	if err := validation.ValidatePostTitle(title); err != nil {
		return models.NewValidationError(err.Error())
	}
	if err := validation.ValidatePostContent(content); err != nil {
		return models.NewValidationError(err.Error())
	}
	return nil
}
