// Command rwid is the terminal client for the rwid API: sign in, browse
// platforms and communities, read feeds, like, bookmark and post.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rwid/internal/authbridge"
	"rwid/internal/client"
	"rwid/internal/config"
	"rwid/internal/middleware"
	"rwid/internal/observability"
	"rwid/internal/session"
)

const usageText = `Usage: rwid <command> [flags] [args]

Account:
  login --username <u> [--password <p>]   Sign in with credentials (password also from RWID_PASSWORD)
  login-as <uid>                          Sign in as a user (development servers only)
  google [--id-token <t>]                 Sign in with a Google ID token (also from GOOGLE_ID_TOKEN)
  logout                                  Sign out and revoke the session
  whoami                                  Show the signed-in user

Browse:
  platforms                               List public platforms
  platform <slug>                         Show a platform and its communities
  community <slug> <id>                   Show a community and your access
  feed <slug> <id> [--pinned] [--like post-id] [--bookmark post-id]
                                          Show a community feed, optionally toggling a post first
  bookmarks [--limit n]                   List your bookmarked posts

Act:
  like <post-id>                          Like or unlike a post
  bookmark <post-id>                      Bookmark or unbookmark a post
  post <slug> <id> --content <text> [--title t] [--image url] [--pinned]
`

var errUsage = errors.New("invalid usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] == "help" || args[0] == "--help" || args[0] == "-h" {
		fmt.Fprint(stdout, usageText)
		return 0
	}

	cfg, err := config.LoadClientConfig()
	if err != nil {
		fmt.Fprintf(stderr, "rwid: %v\n", err)
		return 1
	}

	// Diagnostics go to stderr and stay quiet unless LOG_LEVEL asks otherwise.
	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		level = "error"
	}
	logger := middleware.NewLogger(stderr, "", level)
	middleware.Logger = logger
	observability.SetLogger(logger)
	store, err := session.NewFileStore(cfg.SessionPath)
	if err != nil {
		fmt.Fprintf(stderr, "rwid: %v\n", err)
		return 1
	}

	a := newApp(cfg, client.New(cfg, store), stdout)
	defer a.close()

	if err := a.dispatch(ctx, args); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(stderr, usageText)
			return 2
		}
		fmt.Fprintf(stderr, "rwid: %v\n", err)
		return 1
	}
	return 0
}

// app holds one invocation's client, auth provider and bridge.
type app struct {
	cfg      *config.ClientConfig
	api      *client.Client
	provider *client.Provider
	google   *googleToken
	bridge   *authbridge.Bridge
	out      io.Writer
	// now is swapped in tests so relative times are stable.
	now func() time.Time
}

func newApp(cfg *config.ClientConfig, api *client.Client, out io.Writer) *app {
	provider := client.NewProvider(api)
	google := &googleToken{}
	return &app{
		cfg:      cfg,
		api:      api,
		provider: provider,
		google:   google,
		out:      out,
		now:      time.Now,
		bridge: authbridge.New(authbridge.Options{
			Provider:        provider,
			Profiles:        api.Profiles(),
			Facade:          api,
			Google:          google,
			Sessions:        api.Sessions(),
			GoogleClientID:  cfg.GoogleWebClientID,
			WatchdogTimeout: cfg.AuthWatchdogTimeout,
		}),
	}
}

func (a *app) close() {
	a.bridge.Close()
}

func (a *app) dispatch(ctx context.Context, args []string) error {
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "login", "login-as", "google", "logout", "whoami":
		a.bridge.Start(ctx)
	}

	switch cmd {
	case "login":
		return a.login(ctx, rest)
	case "login-as":
		return a.loginAs(ctx, rest)
	case "google":
		return a.loginGoogle(ctx, rest)
	case "logout":
		return a.logout(ctx)
	case "whoami":
		return a.whoami(ctx)
	case "platforms":
		return a.platforms(ctx)
	case "platform":
		return a.platform(ctx, rest)
	case "community":
		return a.community(ctx, rest)
	case "feed":
		return a.feed(ctx, rest)
	case "bookmarks":
		return a.bookmarks(ctx, rest)
	case "like":
		return a.like(ctx, rest)
	case "bookmark":
		return a.bookmark(ctx, rest)
	case "post":
		return a.post(ctx, rest)
	default:
		return errUsage
	}
}
