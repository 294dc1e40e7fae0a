package repository

import (
	"context"
	"fmt"

	"socialfeed/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// LikeRepository toggles membership of a user in a post's or comment's liked-by set.
type LikeRepository interface {
	// Toggle flips the like of userID on target and returns the resulting state.
	Toggle(ctx context.Context, userID uint, target models.LikeTarget) (models.LikeResult, error)
	IsLiked(ctx context.Context, userID uint, target models.LikeTarget) (bool, error)
	Count(ctx context.Context, target models.LikeTarget) (int64, error)
}

type likeRepository struct {
	db *gorm.DB
}

// NewLikeRepository creates a new like repository
func NewLikeRepository(db *gorm.DB) LikeRepository {
	return &likeRepository{db: db}
}

type likeTable struct {
	resource  string
	table     string
	model     func() any
	targetCol string
	newRow    func(userID, targetID uint) any
}

var likeTables = map[models.LikeKind]likeTable{
	models.LikeKindPost: {
		resource:  "Post",
		table:     "posts",
		model:     func() any { return &models.PostLike{} },
		targetCol: "post_id",
		newRow: func(userID, targetID uint) any {
			return &models.PostLike{UserID: userID, PostID: targetID}
		},
	},
	models.LikeKindComment: {
		resource:  "Comment",
		table:     "comments",
		model:     func() any { return &models.CommentLike{} },
		targetCol: "comment_id",
		newRow: func(userID, targetID uint) any {
			return &models.CommentLike{UserID: userID, CommentID: targetID}
		},
	},
}

func tableFor(target models.LikeTarget) (likeTable, error) {
	t, ok := likeTables[target.Kind]
	if !ok {
		return likeTable{}, models.NewValidationError(fmt.Sprintf("unknown like target %q", target.Kind))
	}
	return t, nil
}

// Toggle runs in one transaction: lock the target row, delete an existing like or
// insert a new one, then count. The unique (user, target) index makes a racing
// duplicate insert a no-op.
func (r *likeRepository) Toggle(ctx context.Context, userID uint, target models.LikeTarget) (models.LikeResult, error) {
	tbl, err := tableFor(target)
	if err != nil {
		return models.LikeResult{}, err
	}

	var result models.LikeResult
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []uint
		if err := lockForUpdate(tx.Table(tbl.table)).
			Where("id = ? AND deleted_at IS NULL", target.ID).
			Limit(1).
			Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return models.NewNotFoundError(tbl.resource, target.ID)
		}

		del := tx.Where("user_id = ? AND "+tbl.targetCol+" = ?", userID, target.ID).Delete(tbl.model())
		if del.Error != nil {
			return del.Error
		}

		if del.RowsAffected == 0 {
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(tbl.newRow(userID, target.ID)).Error; err != nil {
				return err
			}
			result.Liked = true
		}

		return tx.Model(tbl.model()).Where(tbl.targetCol+" = ?", target.ID).Count(&result.TotalLikes).Error
	})
	if err != nil {
		return models.LikeResult{}, translateError(err, tbl.resource, target.ID)
	}
	return result, nil
}

func (r *likeRepository) IsLiked(ctx context.Context, userID uint, target models.LikeTarget) (bool, error) {
	tbl, err := tableFor(target)
	if err != nil {
		return false, err
	}
	var n int64
	if err := readDB(r.db).WithContext(ctx).Model(tbl.model()).
		Where("user_id = ? AND "+tbl.targetCol+" = ?", userID, target.ID).
		Count(&n).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return n > 0, nil
}

func (r *likeRepository) Count(ctx context.Context, target models.LikeTarget) (int64, error) {
	tbl, err := tableFor(target)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := readDB(r.db).WithContext(ctx).Model(tbl.model()).
		Where(tbl.targetCol+" = ?", target.ID).
		Count(&n).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}
