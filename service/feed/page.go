package feed

import (
	"strconv"
	"strings"

	"github.com/KAsare1/Postly-server/cmd/models"
)

// PageSize is the number of posts on every feed page.
const PageSize = 10

// ParsePage turns the raw ?page= value into a page number. Anything that
// is not a number yields the first page; range clamping happens later.
func ParsePage(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 1
	}
	return n
}

// NumPages is never below one: an empty feed still has an (empty) first page.
func NumPages(total int64, size int) int {
	if total <= 0 {
		return 1
	}
	return int((total + int64(size) - 1) / int64(size))
}

// Clamp pulls number into [1, numPages].
func Clamp(number, numPages int) int {
	if number < 1 {
		return 1
	}
	if number > numPages {
		return numPages
	}
	return number
}

type Page struct {
	Posts    []models.Post
	Number   int
	NumPages int
	Total    int64
}

func (p *Page) HasNext() bool {
	return p.Number < p.NumPages
}

func (p *Page) HasPrevious() bool {
	return p.Number > 1
}

func (p *Page) NextNumber() int {
	return p.Number + 1
}

func (p *Page) PreviousNumber() int {
	return p.Number - 1
}
