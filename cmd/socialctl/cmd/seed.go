package cmd

import (
	"errors"
	"fmt"

	"socialfeed/internal/database"
	"socialfeed/internal/seed"

	"github.com/spf13/cobra"
)

var seedOpts = seed.DefaultOptions()

func init() {
	f := seedCmd.Flags()
	f.IntVar(&seedOpts.Users, "users", seedOpts.Users, "number of users to create")
	f.IntVar(&seedOpts.PostsPerUser, "posts", seedOpts.PostsPerUser, "posts per user")
	f.IntVar(&seedOpts.CommentsPerPost, "comments", seedOpts.CommentsPerPost, "comments per post")
	f.IntVar(&seedOpts.FollowsPerUser, "follows", seedOpts.FollowsPerUser, "accounts each user follows")
	f.IntVar(&seedOpts.LikesPerPost, "likes", seedOpts.LikesPerPost, "likes per post")
	f.IntVar(&seedOpts.MaxDays, "days", seedOpts.MaxDays, "spread post timestamps over this many days")
	f.BoolVar(&seedOpts.SkipBcrypt, "fast", false, "skip bcrypt and store a placeholder password hash")
	f.Int64Var(&seedOpts.RandSeed, "rand-seed", 0, "random seed for reproducible data")
	RootCmd.AddCommand(seedCmd)
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Fill the database with demo users, posts, follows and likes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if seedOpts.Users < 2 {
			return errors.New("--users must be at least 2")
		}

		cfg, db, err := connect()
		if err != nil {
			return err
		}
		defer func() { _ = database.Close(db) }()

		if cfg.IsProduction() {
			return errors.New("refusing to seed a production database")
		}
		if err := database.ApplySchema(cmd.Context(), db, cfg); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}

		sum, err := seed.Seed(cmd.Context(), db, seedOpts)
		if err != nil {
			return err
		}
		cmd.Printf("seeded %d users, %d posts, %d comments, %d follows, %d likes (password %q)\n",
			sum.Users, sum.Posts, sum.Comments, sum.Follows, sum.Likes, seed.DefaultPassword)
		return nil
	},
}
