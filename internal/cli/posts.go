package cli

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/posts"
	"github.com/Makepad-fr/tada/internal/ui"
)

func (e *env) doPosts(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("posts", flag.ContinueOnError)
	fs.SetOutput(ui.Stderr())
	page := fs.Int("page", 1, "page number, 1-based")
	user := fs.Int("user", 0, "only posts by this user id (author for --create)")
	id := fs.Int("id", 0, "show a single post")
	create := fs.String("create", "", "create a post with this title")
	update := fs.Int("update", 0, "update the post with this id")
	del := fs.Int("delete", 0, "delete the post with this id")
	title := fs.String("title", "", "new title for --update")
	body := fs.String("body", "", "body for --create or --update")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() > 0 {
		ui.Fail("usage: todo posts [--page N] [--user ID] [--id ID] [--create TITLE | --update ID | --delete ID] [--title T] [--body B]")
		return 2
	}

	client := posts.NewClient(e.cfg.Posts.BaseURL, posts.Options{
		Timeout: e.cfg.Posts.Timeout,
		Token:   bearer(),
	})

	switch {
	case *del > 0:
		if err := client.Delete(ctx, *del); err != nil {
			ui.Fail("posts: " + err.Error())
			return 1
		}
		ui.OK(fmt.Sprintf("deleted post %d", *del))
		return 0

	case *update > 0:
		if *title == "" && *body == "" {
			ui.Fail("posts: --update needs --title or --body")
			return 2
		}
		p, err := client.Get(ctx, *update)
		if err != nil {
			ui.Fail("posts: " + err.Error())
			return 1
		}
		if *title != "" {
			p.Title = *title
		}
		if *body != "" {
			p.Body = *body
		}
		if p, err = client.Update(ctx, p); err != nil {
			ui.Fail("posts: " + err.Error())
			return 1
		}
		ui.OK(fmt.Sprintf("updated post %d", p.ID))
		return 0

	case strings.TrimSpace(*create) != "":
		p, err := client.Create(ctx, model.Post{UserID: max(*user, 1), Title: strings.TrimSpace(*create), Body: *body})
		if err != nil {
			ui.Fail("posts: " + err.Error())
			return 1
		}
		ui.OK(fmt.Sprintf("created post %d", p.ID))
		return 0
	}

	if *id > 0 {
		p, err := client.Get(ctx, *id)
		if err != nil {
			ui.Fail("posts: " + err.Error())
			return 1
		}
		t := ui.Current()
		ui.Panel([]string{
			t.Title.Render(p.Title),
			t.Muted.Render(fmt.Sprintf("#%d by user %d", p.ID, p.UserID)),
			"",
			p.Body,
		})
		return 0
	}

	fetch := client.FetchAll
	if *user > 0 {
		fetch = func(ctx context.Context) ([]model.Post, error) { return client.ByUser(ctx, *user) }
	}
	loader := posts.NewLoader(fetch, func(s posts.State) {
		if s.Loading {
			e.logger.Debug("fetching posts", "user", *user)
		}
	})
	if !loader.Load(ctx) {
		ui.Fail("posts: cancelled")
		return 1
	}
	st := loader.State()
	if st.Err != nil {
		ui.Fail("posts: " + st.Err.Error())
		return 1
	}

	ui.Panel(postLines(posts.Paginate(st.Posts, *page, e.cfg.Posts.PageSize)))
	return 0
}

func postLines(pg posts.Page) []string {
	t := ui.Current()
	lines := []string{
		fmt.Sprintf("%s  %s", t.Title.Render("Posts"), t.Muted.Render(fmt.Sprintf("%d total", pg.Total))),
		"",
	}
	if len(pg.Posts) == 0 {
		lines = append(lines, t.Muted.Render("no posts"))
	}
	for _, p := range pg.Posts {
		title := p.Title
		if r := []rune(title); len(r) > 60 {
			title = string(r[:57]) + "..."
		}
		lines = append(lines, fmt.Sprintf("%s %s", t.Muted.Render(fmt.Sprintf("%3d.", p.ID)), title))
	}

	var nav []string
	if pg.HasPrev() {
		nav = append(nav, fmt.Sprintf("--page %d", pg.Number-1))
	}
	if pg.HasNext() {
		nav = append(nav, fmt.Sprintf("--page %d", pg.Number+1))
	}
	footer := fmt.Sprintf("page %d/%d", pg.Number, pg.TotalPages)
	if len(nav) > 0 {
		footer += "  " + strings.Join(nav, "  ")
	}
	return append(lines, "", t.Muted.Render(footer))
}
