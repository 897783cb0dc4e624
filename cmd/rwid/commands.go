package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"rwid/internal/client"
	"rwid/internal/models"

	flag "github.com/spf13/pflag"
)

// googleToken hands a pre-obtained Google ID token to the auth bridge. A
// terminal has no Google account picker, so the token comes from a flag or
// GOOGLE_ID_TOKEN.
type googleToken struct {
	token string
}

func (g *googleToken) IDToken(context.Context) (string, error) {
	return g.token, nil
}

func (g *googleToken) SignOut(context.Context) error {
	g.token = ""
	return nil
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parseID(s, what string) (uint, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid %s %q", what, s)
	}
	return uint(id), nil
}

// slugAndCommunity reads the <slug> <community-id> positional pair.
func slugAndCommunity(args []string) (string, uint, error) {
	if len(args) != 2 {
		return "", 0, errUsage
	}
	id, err := parseID(args[1], "community id")
	if err != nil {
		return "", 0, err
	}
	return args[0], id, nil
}

func (a *app) printSignedIn() error {
	user := a.bridge.State().User
	if user == nil {
		return errors.New("sign-in did not complete")
	}
	fmt.Fprintf(a.out, "Signed in as %s (%s)\n", user.Name, user.Role)
	return nil
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := newFlagSet("login")
	username := fs.StringP("username", "u", "", "Username or email")
	password := fs.StringP("password", "p", "", "Password")
	if err := fs.Parse(args); err != nil || fs.NArg() != 0 {
		return errUsage
	}
	if *password == "" {
		*password = os.Getenv("RWID_PASSWORD")
	}
	if strings.TrimSpace(*username) == "" || *password == "" {
		return errors.New("username and password are required")
	}

	res := a.bridge.LoginWithCredentials(ctx, *username, *password)
	if !res.OK {
		return errors.New(res.Error)
	}
	return a.printSignedIn()
}

func (a *app) loginAs(ctx context.Context, args []string) error {
	if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
		return errUsage
	}
	res := a.bridge.LoginAs(ctx, strings.TrimSpace(args[0]))
	if !res.OK {
		return errors.New(res.Error)
	}
	return a.printSignedIn()
}

func (a *app) loginGoogle(ctx context.Context, args []string) error {
	fs := newFlagSet("google")
	idToken := fs.String("id-token", "", "Google ID token")
	if err := fs.Parse(args); err != nil || fs.NArg() != 0 {
		return errUsage
	}
	if *idToken == "" {
		*idToken = os.Getenv("GOOGLE_ID_TOKEN")
	}
	a.google.token = strings.TrimSpace(*idToken)

	res := a.bridge.LoginWithGoogle(ctx)
	if !res.OK {
		return errors.New(res.Error)
	}
	return a.printSignedIn()
}

func (a *app) logout(ctx context.Context) error {
	a.bridge.Logout(ctx)
	fmt.Fprintln(a.out, "Signed out")
	return nil
}

func (a *app) whoami(ctx context.Context) error {
	if err := a.provider.Restore(ctx); err != nil {
		return err
	}
	user := a.bridge.State().User
	if user == nil {
		fmt.Fprintln(a.out, "Not signed in")
		return nil
	}
	fmt.Fprintf(a.out, "%s (%s)\n", user.Name, user.Role)
	fmt.Fprintf(a.out, "  id:    %s\n", user.ID)
	if user.Email != "" {
		fmt.Fprintf(a.out, "  email: %s\n", user.Email)
	}
	return nil
}

func (a *app) platforms(ctx context.Context) error {
	platforms := a.api.Platforms(ctx)
	if len(platforms) == 0 {
		fmt.Fprintln(a.out, "No platforms yet")
		return nil
	}
	for _, p := range platforms {
		line := fmt.Sprintf("%-20s %s", p.Slug, p.Name)
		if p.Tagline != "" {
			line += " - " + p.Tagline
		}
		fmt.Fprintln(a.out, line)
	}
	return nil
}

func (a *app) platform(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	detail := a.api.PlatformDetail(ctx, args[0])
	if detail.NotFound || detail.Platform == nil {
		return fmt.Errorf("platform %q not found", args[0])
	}
	p := detail.Platform
	fmt.Fprintln(a.out, p.Name)
	if p.Tagline != "" {
		fmt.Fprintln(a.out, p.Tagline)
	}
	if p.Description != "" {
		fmt.Fprintln(a.out)
		fmt.Fprintln(a.out, p.Description)
	}
	fmt.Fprintln(a.out)
	if len(detail.Communities) == 0 {
		fmt.Fprintln(a.out, "No communities yet")
		return nil
	}
	fmt.Fprintln(a.out, "Communities:")
	for _, c := range detail.Communities {
		fmt.Fprintf(a.out, "  %4d  %s (%d members)\n", c.ID, c.Name, c.MemberCount)
	}
	return nil
}

func (a *app) community(ctx context.Context, args []string) error {
	slug, id, err := slugAndCommunity(args)
	if err != nil {
		return err
	}
	detail := a.api.CommunityDetail(ctx, slug, id)
	if detail.NotFound || detail.Community == nil {
		return fmt.Errorf("community %d not found on %q", id, slug)
	}
	fmt.Fprintf(a.out, "%s / %s\n", detail.Platform.Name, detail.Community.Name)
	if detail.Community.Description != "" {
		fmt.Fprintln(a.out, detail.Community.Description)
	}
	switch {
	case detail.Access.IsOwner:
		fmt.Fprintln(a.out, "You own this platform")
	case detail.Access.HasAccess:
		fmt.Fprintln(a.out, "You are a member")
	default:
		fmt.Fprintln(a.out, "Subscribe to see all posts")
	}
	return nil
}

func (a *app) feed(ctx context.Context, args []string) error {
	fs := newFlagSet("feed")
	pinned := fs.Bool("pinned", false, "Only show pinned posts")
	like := fs.String("like", "", "Like or unlike a post before showing the feed")
	bookmark := fs.String("bookmark", "", "Bookmark or unbookmark a post before showing the feed")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	slug, id, err := slugAndCommunity(fs.Args())
	if err != nil {
		return err
	}

	view := a.api.Feed(ctx, slug, id, *pinned)
	if *like != "" {
		postID, err := parseID(*like, "post id")
		if err != nil {
			return err
		}
		if !a.api.ToggleFeedLike(ctx, view, postID) {
			return fmt.Errorf("could not update like on post #%d", postID)
		}
	}
	if *bookmark != "" {
		postID, err := parseID(*bookmark, "post id")
		if err != nil {
			return err
		}
		if !a.api.ToggleFeedBookmark(ctx, view, postID) {
			return fmt.Errorf("could not update bookmark on post #%d", postID)
		}
	}
	a.renderFeed(view, *pinned)
	return nil
}

func (a *app) renderFeed(view *client.FeedView, pinnedOnly bool) {
	if view.Empty != nil {
		fmt.Fprintln(a.out, view.Empty.Title)
		fmt.Fprintln(a.out, view.Empty.Message)
		return
	}
	if view.OnlyPinned && !pinnedOnly {
		fmt.Fprintln(a.out, "Showing pinned posts. Subscribe to see all posts.")
		fmt.Fprintln(a.out)
	}
	for _, p := range view.Posts {
		a.printPost(p, view.Liked[p.ID], view.Bookmarked[p.ID])
	}
}

func (a *app) printPost(p *models.Post, liked, bookmarked bool) {
	header := fmt.Sprintf("#%d %s, %s", p.ID, p.AuthorName, client.FormatRelative(p.CreatedAt, a.now()))
	if p.Pinned {
		header += " [pinned]"
	}
	fmt.Fprintln(a.out, header)
	if p.Title != "" {
		fmt.Fprintf(a.out, "  %s\n", p.Title)
	}
	excerpt, truncated := client.Excerpt(p.Content)
	fmt.Fprintf(a.out, "  %s\n", excerpt)
	if truncated {
		fmt.Fprintln(a.out, "  (read more)")
	}

	status := fmt.Sprintf("  likes: %d  comments: %d", p.Likes, p.Comments)
	if liked {
		status += "  liked"
	}
	if bookmarked {
		status += "  bookmarked"
	}
	fmt.Fprintln(a.out, status)
	fmt.Fprintln(a.out)
}

func (a *app) bookmarks(ctx context.Context, args []string) error {
	fs := newFlagSet("bookmarks")
	limit := fs.Int("limit", 0, "Maximum number of bookmarks to show")
	if err := fs.Parse(args); err != nil || fs.NArg() != 0 {
		return errUsage
	}
	items := a.api.Bookmarks(ctx, *limit)
	if len(items) == 0 {
		fmt.Fprintln(a.out, "No bookmarks yet")
		return nil
	}
	for _, b := range items {
		if b.Post == nil {
			continue
		}
		a.printPost(b.Post, b.Post.IsLiked, true)
	}
	return nil
}

func (a *app) like(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	id, err := parseID(args[0], "post id")
	if err != nil {
		return err
	}
	res, err := a.api.ToggleLike(ctx, id)
	if err != nil {
		return err
	}
	verb := "Unliked"
	if res.Liked {
		verb = "Liked"
	}
	fmt.Fprintf(a.out, "%s post #%d (%d likes)\n", verb, res.PostID, res.Likes)
	return nil
}

func (a *app) bookmark(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	id, err := parseID(args[0], "post id")
	if err != nil {
		return err
	}
	res, err := a.api.ToggleBookmark(ctx, id)
	if err != nil {
		return err
	}
	verb := "Removed bookmark from"
	if res.Bookmarked {
		verb = "Bookmarked"
	}
	fmt.Fprintf(a.out, "%s post #%d\n", verb, res.PostID)
	return nil
}

func (a *app) post(ctx context.Context, args []string) error {
	fs := newFlagSet("post")
	content := fs.StringP("content", "m", "", "Post content")
	title := fs.String("title", "", "Optional title")
	image := fs.String("image", "", "Optional image URL")
	pinned := fs.Bool("pinned", false, "Pin the post (owners only)")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	slug, id, err := slugAndCommunity(fs.Args())
	if err != nil {
		return err
	}

	post, view, err := a.api.ComposePost(ctx, slug, id, client.NewPost{
		Title:    *title,
		Content:  *content,
		ImageURL: *image,
		Pinned:   *pinned,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Posted #%d to %s\n", post.ID, post.CommunityName)
	fmt.Fprintln(a.out)
	a.renderFeed(view, false)
	return nil
}
