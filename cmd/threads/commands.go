package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"
	"threadscli/pkg/threads"
)

var (
	postsTab     string
	searchRecent bool
)

// withSession adapts a data command so it receives a ready client
func withSession(run func(ctx context.Context, s *session, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		s, err := newSession(cmd)
		if err != nil {
			return err
		}
		return run(cmd.Context(), s, args)
	}
}

var userCmd = &cobra.Command{
	Use:   "user <username>",
	Short: "Show a profile",
	Example: `  threads user zuck
  threads user @mosseri --format json`,
	Args: cobra.ExactArgs(1),
	RunE: withSession(func(ctx context.Context, s *session, args []string) error {
		u, err := s.client.UserByUsername(ctx, args[0])
		if err != nil {
			return err
		}
		return s.out.User(u)
	}),
}

var postsCmd = &cobra.Command{
	Use:   "posts <username|user-id>",
	Short: "List a profile's threads, replies or reposts",
	Example: `  threads posts zuck
  threads posts zuck --tab replies --max-pages 3`,
	Args: cobra.ExactArgs(1),
	RunE: withSession(func(ctx context.Context, s *session, args []string) error {
		tab, err := threads.ParseTab(postsTab)
		if err != nil {
			return err
		}
		res, err := s.client.UserPosts(ctx, args[0], tab, s.cfg.Pagination.MaxPages)
		if err != nil {
			return err
		}
		return s.out.Posts(res)
	}),
}

var threadCmd = &cobra.Command{
	Use:   "thread <post-url|code|id>",
	Short: "Show a post and its replies",
	Example: `  threads thread https://www.threads.com/@zuck/post/C8H5FiCtESk
  threads thread C8H5FiCtESk`,
	Args: cobra.ExactArgs(1),
	RunE: withSession(func(ctx context.Context, s *session, args []string) error {
		t, err := s.client.Thread(ctx, args[0])
		if err != nil {
			return err
		}
		return s.out.Thread(t)
	}),
}

var homeCmd = &cobra.Command{
	Use:   "home",
	Short: "Show your home timeline",
	Args:  cobra.NoArgs,
	RunE: withSession(func(ctx context.Context, s *session, _ []string) error {
		res, err := s.client.HomeTimeline(ctx, s.cfg.Pagination.MaxPages)
		if err != nil {
			return err
		}
		return s.out.Posts(res)
	}),
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search posts",
	Example: `  threads search golang
  threads search "go 1.24" --recent`,
	Args: cobra.MinimumNArgs(1),
	RunE: withSession(func(ctx context.Context, s *session, args []string) error {
		res, err := s.client.Search(ctx, strings.Join(args, " "), searchRecent, s.cfg.Pagination.MaxPages)
		if err != nil {
			return err
		}
		return s.out.Posts(res)
	}),
}

var followersCmd = &cobra.Command{
	Use:   "followers <username|user-id>",
	Short: "List the accounts following a profile",
	Args:  cobra.ExactArgs(1),
	RunE: withSession(func(ctx context.Context, s *session, args []string) error {
		res, err := s.client.Followers(ctx, args[0], s.cfg.Pagination.MaxPages)
		if err != nil {
			return err
		}
		return s.out.Users(res)
	}),
}

var followingCmd = &cobra.Command{
	Use:   "following <username|user-id>",
	Short: "List the accounts a profile follows",
	Args:  cobra.ExactArgs(1),
	RunE: withSession(func(ctx context.Context, s *session, args []string) error {
		res, err := s.client.Following(ctx, args[0], s.cfg.Pagination.MaxPages)
		if err != nil {
			return err
		}
		return s.out.Users(res)
	}),
}

var likersCmd = &cobra.Command{
	Use:   "likers <post-url|code|id>",
	Short: "List the accounts that liked a post",
	Args:  cobra.ExactArgs(1),
	RunE: withSession(func(ctx context.Context, s *session, args []string) error {
		res, err := s.client.PostLikers(ctx, args[0], s.cfg.Pagination.MaxPages)
		if err != nil {
			return err
		}
		return s.out.Users(res)
	}),
}

var repostersCmd = &cobra.Command{
	Use:   "reposters <post-url|code|id>",
	Short: "List the accounts that reposted a post",
	Args:  cobra.ExactArgs(1),
	RunE: withSession(func(ctx context.Context, s *session, args []string) error {
		res, err := s.client.PostReposters(ctx, args[0], s.cfg.Pagination.MaxPages)
		if err != nil {
			return err
		}
		return s.out.Users(res)
	}),
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the account the session belongs to",
	Args:  cobra.NoArgs,
	RunE: withSession(func(ctx context.Context, s *session, _ []string) error {
		u, err := s.client.CurrentUser(ctx)
		if err != nil {
			return err
		}
		return s.out.User(u)
	}),
}

func init() {
	postsCmd.Flags().StringVarP(&postsTab, "tab", "t", "threads", "profile tab: threads, replies, reposts")
	searchCmd.Flags().BoolVar(&searchRecent, "recent", false, "order results by recency instead of relevance")

	rootCmd.AddCommand(userCmd, postsCmd, threadCmd, homeCmd, searchCmd,
		followersCmd, followingCmd, likersCmd, repostersCmd, whoamiCmd)
}
