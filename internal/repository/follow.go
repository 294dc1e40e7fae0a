package repository

import (
	"context"

	"socialfeed/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FollowRepository persists the directed follow graph.
type FollowRepository interface {
	// Follow inserts the edge follower->followee if absent and returns the resulting
	// state. created reports whether a new edge was written.
	Follow(ctx context.Context, followerID, followeeID uint) (state models.FollowState, created bool, err error)
	// Unfollow removes the edge if present. removed reports whether an edge was deleted.
	Unfollow(ctx context.Context, followerID, followeeID uint) (state models.FollowState, removed bool, err error)
	IsFollowing(ctx context.Context, followerID, followeeID uint) (bool, error)
	FollowingIDs(ctx context.Context, userID uint) ([]uint, error)
	Followers(ctx context.Context, userID uint, limit, offset int) ([]models.User, int64, error)
	Following(ctx context.Context, userID uint, limit, offset int) ([]models.User, int64, error)
}

type followRepository struct {
	db *gorm.DB
}

// NewFollowRepository creates a new follow repository
func NewFollowRepository(db *gorm.DB) FollowRepository {
	return &followRepository{db: db}
}

func (r *followRepository) Follow(ctx context.Context, followerID, followeeID uint) (models.FollowState, bool, error) {
	var state models.FollowState
	var created bool

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureUserExists(tx, followeeID); err != nil {
			return err
		}

		res := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.Follow{FollowerID: followerID, FolloweeID: followeeID})
		if res.Error != nil {
			return res.Error
		}
		created = res.RowsAffected > 0

		var err error
		state, err = followState(tx, followerID, followeeID)
		return err
	})
	if err != nil {
		return models.FollowState{}, false, translateError(err, "User", followeeID)
	}
	return state, created, nil
}

func (r *followRepository) Unfollow(ctx context.Context, followerID, followeeID uint) (models.FollowState, bool, error) {
	var state models.FollowState
	var removed bool

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureUserExists(tx, followeeID); err != nil {
			return err
		}

		res := tx.Where("follower_id = ? AND followee_id = ?", followerID, followeeID).Delete(&models.Follow{})
		if res.Error != nil {
			return res.Error
		}
		removed = res.RowsAffected > 0

		var err error
		state, err = followState(tx, followerID, followeeID)
		return err
	})
	if err != nil {
		return models.FollowState{}, false, translateError(err, "User", followeeID)
	}
	return state, removed, nil
}

func ensureUserExists(tx *gorm.DB, userID uint) error {
	var n int64
	if err := tx.Model(&models.User{}).Where("id = ?", userID).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return models.NewNotFoundError("User", userID)
	}
	return nil
}

// followState reads the edge and both counts inside tx so they describe one snapshot.
func followState(tx *gorm.DB, followerID, followeeID uint) (models.FollowState, error) {
	var state models.FollowState
	var edges int64
	if err := tx.Model(&models.Follow{}).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Count(&edges).Error; err != nil {
		return state, err
	}
	if err := tx.Model(&models.Follow{}).Where("followee_id = ?", followeeID).Count(&state.FollowersCount).Error; err != nil {
		return state, err
	}
	if err := tx.Model(&models.Follow{}).Where("follower_id = ?", followerID).Count(&state.FollowingCount).Error; err != nil {
		return state, err
	}
	state.Following = edges > 0
	return state, nil
}

func (r *followRepository) IsFollowing(ctx context.Context, followerID, followeeID uint) (bool, error) {
	var n int64
	err := readDB(r.db).WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Limit(1).
		Count(&n).Error
	if err != nil {
		return false, models.NewInternalError(err)
	}
	return n > 0, nil
}

func (r *followRepository) FollowingIDs(ctx context.Context, userID uint) ([]uint, error) {
	ids := []uint{}
	err := readDB(r.db).WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ?", userID).
		Order("followee_id ASC").
		Pluck("followee_id", &ids).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return ids, nil
}

// Followers lists the users following userID, most recent follow first.
func (r *followRepository) Followers(ctx context.Context, userID uint, limit, offset int) ([]models.User, int64, error) {
	return r.listSide(ctx, "follows.follower_id", "follows.followee_id", userID, limit, offset)
}

// Following lists the users userID follows, most recent follow first.
func (r *followRepository) Following(ctx context.Context, userID uint, limit, offset int) ([]models.User, int64, error) {
	return r.listSide(ctx, "follows.followee_id", "follows.follower_id", userID, limit, offset)
}

func (r *followRepository) listSide(ctx context.Context, joinCol, filterCol string, userID uint, limit, offset int) ([]models.User, int64, error) {
	db := readDB(r.db).WithContext(ctx)

	var total int64
	if err := db.Model(&models.Follow{}).Where(filterCol+" = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	users := []models.User{}
	err := db.Model(&models.User{}).
		Select("users.*").
		Joins("JOIN follows ON "+joinCol+" = users.id").
		Where(filterCol+" = ?", userID).
		Order("follows.created_at DESC, follows.id DESC").
		Limit(clampLimit(limit)).
		Offset(offset).
		Find(&users).Error
	if err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return users, total, nil
}
