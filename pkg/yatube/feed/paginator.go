package feed

import (
	"errors"
	"strconv"
	"strings"

	"github.com/mikepea/yatube/pkg/yatube/models"
)

// PageSize is the number of posts on one feed page.
const PageSize = 10

// Page is one window of a feed.
type Page struct {
	Number         int
	NumPages       int
	Total          int64
	Posts          []models.Post
	HasPrevious    bool
	HasNext        bool
	PreviousNumber int
	NextNumber     int
}

// Offset is the index of the first post on the page.
func (p Page) Offset() int {
	return (p.Number - 1) * PageSize
}

// PageFor resolves the requested page against a collection of total posts.
// A non-integer request yields the first page; a number below one or past
// the end yields the last page. An empty collection still has one empty page.
func PageFor(total int64, raw string) Page {
	numPages := 1
	if total > 0 {
		numPages = int((total + PageSize - 1) / PageSize)
	}

	number := 1
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	switch {
	case err == nil:
		number = n
		if number < 1 || number > numPages {
			number = numPages
		}
	case errors.Is(err, strconv.ErrRange):
		// An integer too large to represent is past the end.
		number = numPages
	}

	return Page{
		Number:         number,
		NumPages:       numPages,
		Total:          total,
		HasPrevious:    number > 1,
		HasNext:        number < numPages,
		PreviousNumber: number - 1,
		NextNumber:     number + 1,
	}
}
