// Package seed fills a database with demo users, posts, comments, follows and
// likes. It is meant for development environments and tests.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"socialfeed/internal/middleware"
	"socialfeed/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultPassword is the plaintext password of every seeded account.
const DefaultPassword = "password123"

// Options controls how much data Seed creates.
type Options struct {
	Users           int
	PostsPerUser    int
	CommentsPerPost int
	FollowsPerUser  int
	LikesPerPost    int
	// MaxDays spreads post timestamps over the last MaxDays days.
	MaxDays int
	// SkipBcrypt stores a cheap placeholder hash; use it only for throwaway databases.
	SkipBcrypt bool
	// RandSeed makes the generated data reproducible when non-zero.
	RandSeed int64
}

// DefaultOptions is a small but non-trivial social graph.
func DefaultOptions() Options {
	return Options{
		Users:           20,
		PostsPerUser:    5,
		CommentsPerPost: 3,
		FollowsPerUser:  6,
		LikesPerPost:    4,
		MaxDays:         30,
	}
}

// Summary counts what Seed inserted.
type Summary struct {
	Users    int
	Posts    int
	Comments int
	Follows  int
	Likes    int
}

// Factory builds domain rows from fake data and persists them.
type Factory struct {
	db    *gorm.DB
	faker *gofakeit.Faker
	opts  Options
	now   time.Time
	hash  string
}

// NewFactory creates a Factory bound to db.
func NewFactory(db *gorm.DB, opts Options) (*Factory, error) {
	seed := opts.RandSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	hash := "seed-" + DefaultPassword
	if !opts.SkipBcrypt {
		b, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash seed password: %w", err)
		}
		hash = string(b)
	}

	return &Factory{
		db:    db,
		faker: gofakeit.New(seed),
		opts:  opts,
		now:   time.Now().UTC(),
		hash:  hash,
	}, nil
}

// Seed creates a random social graph with opts.
func Seed(ctx context.Context, db *gorm.DB, opts Options) (Summary, error) {
	f, err := NewFactory(db.WithContext(ctx), opts)
	if err != nil {
		return Summary{}, err
	}
	return f.Run()
}

// Run creates users first, then content, then the edges between them.
func (f *Factory) Run() (Summary, error) {
	var sum Summary

	users := make([]*models.User, 0, f.opts.Users)
	for i := range f.opts.Users {
		u, err := f.CreateUser(i)
		if err != nil {
			return sum, fmt.Errorf("create user: %w", err)
		}
		users = append(users, u)
	}
	sum.Users = len(users)

	var posts []*models.Post
	for _, u := range users {
		for range f.opts.PostsPerUser {
			p, err := f.CreatePost(u)
			if err != nil {
				return sum, fmt.Errorf("create post: %w", err)
			}
			posts = append(posts, p)
		}
	}
	sum.Posts = len(posts)

	for _, p := range posts {
		for range f.opts.CommentsPerPost {
			if _, err := f.CreateComment(f.pick(users), p); err != nil {
				return sum, fmt.Errorf("create comment: %w", err)
			}
			sum.Comments++
		}
	}

	for _, u := range users {
		n, err := f.followSome(u, users)
		if err != nil {
			return sum, fmt.Errorf("create follows: %w", err)
		}
		sum.Follows += n
	}

	for _, p := range posts {
		n, err := f.likeSome(p, users)
		if err != nil {
			return sum, fmt.Errorf("create likes: %w", err)
		}
		sum.Likes += n
	}

	middleware.Logger.Info("seed complete",
		slog.Int("users", sum.Users),
		slog.Int("posts", sum.Posts),
		slog.Int("comments", sum.Comments),
		slog.Int("follows", sum.Follows),
		slog.Int("likes", sum.Likes),
	)
	return sum, nil
}

// CreateUser persists a fake user. n keeps usernames and emails unique.
func (f *Factory) CreateUser(n int, overrides ...func(*models.User)) (*models.User, error) {
	name := fmt.Sprintf("%s_%d", f.faker.Username(), n)
	user := &models.User{
		Username: name,
		Email:    fmt.Sprintf("%s@%s", name, f.faker.DomainName()),
		Password: f.hash,
		Bio:      f.faker.Sentence(10),
		Avatar:   fmt.Sprintf("https://i.pravatar.cc/150?u=%s", f.faker.UUID()),
	}
	for _, o := range overrides {
		o(user)
	}
	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// CreatePost persists a fake post by user with a created_at within MaxDays.
func (f *Factory) CreatePost(user *models.User, overrides ...func(*models.Post)) (*models.Post, error) {
	created := f.pastTime()
	post := &models.Post{
		Title:     f.faker.Sentence(5),
		Content:   f.faker.Paragraph(1, 3, 12, "\n"),
		ImageURL:  fmt.Sprintf("https://picsum.photos/seed/%s/800/800", f.faker.UUID()),
		UserID:    user.ID,
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, o := range overrides {
		o(post)
	}
	if err := f.db.Omit("User").Create(post).Error; err != nil {
		return nil, err
	}
	return post, nil
}

// CreateComment persists a top-level comment by user on post.
func (f *Factory) CreateComment(user *models.User, post *models.Post) (*models.Comment, error) {
	comment := &models.Comment{
		Content: f.faker.Sentence(8),
		UserID:  user.ID,
		PostID:  post.ID,
	}
	if err := f.db.Omit("User").Create(comment).Error; err != nil {
		return nil, err
	}
	return comment, nil
}

func (f *Factory) followSome(u *models.User, users []*models.User) (int, error) {
	var rows []models.Follow
	seen := map[uint]bool{u.ID: true}
	for _, target := range f.sample(users, f.opts.FollowsPerUser+1) {
		if seen[target.ID] || len(rows) == f.opts.FollowsPerUser {
			continue
		}
		seen[target.ID] = true
		rows = append(rows, models.Follow{FollowerID: u.ID, FolloweeID: target.ID})
	}
	if len(rows) == 0 {
		return 0, nil
	}
	res := f.db.Clauses(clause.OnConflict{DoNothing: true}).Omit("Follower", "Followee").Create(&rows)
	return int(res.RowsAffected), res.Error
}

func (f *Factory) likeSome(p *models.Post, users []*models.User) (int, error) {
	var rows []models.PostLike
	for _, u := range f.sample(users, f.opts.LikesPerPost) {
		rows = append(rows, models.PostLike{UserID: u.ID, PostID: p.ID})
	}
	if len(rows) == 0 {
		return 0, nil
	}
	res := f.db.Clauses(clause.OnConflict{DoNothing: true}).Omit("User", "Post").Create(&rows)
	return int(res.RowsAffected), res.Error
}

func (f *Factory) pick(users []*models.User) *models.User {
	return users[f.faker.Number(0, len(users)-1)]
}

// sample returns up to n distinct users in random order.
func (f *Factory) sample(users []*models.User, n int) []*models.User {
	if n <= 0 || len(users) == 0 {
		return nil
	}
	shuffled := append([]*models.User(nil), users...)
	f.faker.ShuffleAnySlice(shuffled)
	return shuffled[:min(n, len(shuffled))]
}

func (f *Factory) pastTime() time.Time {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 30
	}
	back := time.Duration(f.faker.Number(0, maxDays*24*60)) * time.Minute
	return f.now.Add(-back)
}
