package repository

import (
	"context"
	"strings"

	"socialfeed/internal/models"

	"gorm.io/gorm"
)

// PostFilter narrows a post listing. Zero values mean "no filter".
type PostFilter struct {
	// Search matches title, content or author username, case-insensitively.
	Search   string
	AuthorID uint
	// FollowedBy keeps posts whose author is followed by this user.
	FollowedBy uint
}

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint, viewerID uint) (*models.Post, error)
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, filter PostFilter, limit, offset int, viewerID uint) ([]models.Post, int64, error)
	// ListByAuthors returns posts by any of authorIDs, newest first.
	ListByAuthors(ctx context.Context, authorIDs []uint, limit, offset int, viewerID uint) ([]models.Post, int64, error)
	// TrendingByAuthors returns posts by any of authorIDs, most liked first.
	TrendingByAuthors(ctx context.Context, authorIDs []uint, limit, offset int, viewerID uint) ([]models.Post, int64, error)
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Omit("User").Create(post).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id uint, viewerID uint) (*models.Post, error) {
	var post models.Post
	err := applyPostDetails(r.db.WithContext(ctx), viewerID).
		Preload("User").
		First(&post, id).Error
	if err != nil {
		return nil, translateError(err, "Post", id)
	}
	return &post, nil
}

func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	res := r.db.WithContext(ctx).Model(post).
		Select("title", "content", "image_url").
		Updates(post)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Post", post.ID)
	}
	return nil
}

// Delete soft-deletes the post; its likes and comments stay but are no longer reachable.
func (r *postRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Post{}, id)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Post", id)
	}
	return nil
}

func (r *postRepository) List(ctx context.Context, filter PostFilter, limit, offset int, viewerID uint) ([]models.Post, int64, error) {
	scope := func(db *gorm.DB) *gorm.DB {
		if filter.AuthorID != 0 {
			db = db.Where("posts.user_id = ?", filter.AuthorID)
		}
		if filter.FollowedBy != 0 {
			db = db.Where("posts.user_id IN (SELECT followee_id FROM follows WHERE follower_id = ?)", filter.FollowedBy)
		}
		if q := strings.TrimSpace(filter.Search); q != "" {
			like := "%" + strings.ToLower(q) + "%"
			db = db.Joins("JOIN users ON users.id = posts.user_id").
				Where("(LOWER(posts.title) LIKE ? OR LOWER(posts.content) LIKE ? OR LOWER(users.username) LIKE ?)", like, like, like)
		}
		return db
	}
	return r.page(ctx, scope, newestFirst, limit, offset, viewerID)
}

func (r *postRepository) ListByAuthors(ctx context.Context, authorIDs []uint, limit, offset int, viewerID uint) ([]models.Post, int64, error) {
	if len(authorIDs) == 0 {
		return []models.Post{}, 0, nil
	}
	return r.page(ctx, byAuthors(authorIDs), newestFirst, limit, offset, viewerID)
}

func (r *postRepository) TrendingByAuthors(ctx context.Context, authorIDs []uint, limit, offset int, viewerID uint) ([]models.Post, int64, error) {
	if len(authorIDs) == 0 {
		return []models.Post{}, 0, nil
	}
	return r.page(ctx, byAuthors(authorIDs), mostLikedFirst, limit, offset, viewerID)
}

func byAuthors(authorIDs []uint) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("posts.user_id IN ?", authorIDs)
	}
}

// Ties on created_at are broken by id so pagination is stable.
func newestFirst(db *gorm.DB) *gorm.DB {
	return db.Order("posts.created_at DESC").Order("posts.id DESC")
}

// likes_count is the aggregated alias selected by applyPostDetails.
func mostLikedFirst(db *gorm.DB) *gorm.DB {
	return db.Order("likes_count DESC").Order("posts.created_at DESC").Order("posts.id DESC")
}

func (r *postRepository) page(
	ctx context.Context,
	scope func(*gorm.DB) *gorm.DB,
	order func(*gorm.DB) *gorm.DB,
	limit, offset int,
	viewerID uint,
) ([]models.Post, int64, error) {
	db := readDB(r.db).WithContext(ctx)

	var total int64
	if err := db.Model(&models.Post{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	posts := []models.Post{}
	if total == 0 || offset >= int(total) {
		return posts, total, nil
	}

	err := applyPostDetails(db.Model(&models.Post{}), viewerID).
		Scopes(scope, order).
		Preload("User").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return posts, total, nil
}

// applyPostDetails adds subqueries to fetch counts and liked status in a single query.
func applyPostDetails(db *gorm.DB, viewerID uint) *gorm.DB {
	selectQuery := "posts.*, " +
		"(SELECT COUNT(*) FROM comments WHERE comments.post_id = posts.id AND comments.deleted_at IS NULL) AS comments_count, " +
		"(SELECT COUNT(*) FROM post_likes WHERE post_likes.post_id = posts.id) AS likes_count"

	if viewerID != 0 {
		return db.Select(selectQuery+", EXISTS(SELECT 1 FROM post_likes WHERE post_likes.post_id = posts.id AND post_likes.user_id = ?) AS liked", viewerID)
	}
	return db.Select(selectQuery + ", false AS liked")
}
