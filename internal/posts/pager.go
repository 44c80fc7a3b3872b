package posts

import "github.com/Makepad-fr/tada/internal/model"

// DefaultPageSize matches the grid the posts view shows.
const DefaultPageSize = 12

// Page is one slice of a post list.
type Page struct {
	Posts      []model.Post
	Number     int // 1-based, clamped into range
	Size       int
	Total      int // number of posts overall
	TotalPages int
}

// Paginate returns page number n (1-based) of posts. Out of range numbers are
// clamped; a non-positive size uses DefaultPageSize.
func Paginate(posts []model.Post, n, size int) Page {
	if size <= 0 {
		size = DefaultPageSize
	}
	total := len(posts)
	pages := (total + size - 1) / size
	if pages == 0 {
		pages = 1
	}
	if n < 1 {
		n = 1
	}
	if n > pages {
		n = pages
	}
	start := (n - 1) * size
	end := min(start+size, total)
	return Page{
		Posts:      posts[start:end],
		Number:     n,
		Size:       size,
		Total:      total,
		TotalPages: pages,
	}
}

// HasNext reports whether a later page exists.
func (p Page) HasNext() bool { return p.Number < p.TotalPages }

// HasPrev reports whether an earlier page exists.
func (p Page) HasPrev() bool { return p.Number > 1 }
