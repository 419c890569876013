// Package pagination implements the page cursor shared by every paged view.
//
// A Cursor is 1-based and always stays inside [1, TotalPages], with TotalPages >= 1
// even for an empty result.
package pagination

import "fmt"

// TotalPages returns ceil(total/pageSize), never less than one.
func TotalPages(total, pageSize int) int {
	if pageSize <= 0 || total <= 0 {
		return 1
	}
	return (total + pageSize - 1) / pageSize
}

// Window returns the 1-based record range shown on page, or (0, 0) for an empty set.
func Window(page, pageSize, total int) (from, to int) {
	if total <= 0 || pageSize <= 0 || page <= 0 {
		return 0, 0
	}
	from = (page-1)*pageSize + 1
	to = page * pageSize
	if to > total {
		to = total
	}
	if from > to {
		return 0, 0
	}
	return from, to
}

// Label renders the "Showing X to Y of Z entries" caption.
func Label(page, pageSize, total int) string {
	from, to := Window(page, pageSize, total)
	return fmt.Sprintf("Showing %d to %d of %d entries", from, to, total)
}

// Offset converts a page into a zero-based record offset.
func Offset(page, pageSize int) int {
	if page <= 1 || pageSize <= 0 {
		return 0
	}
	return (page - 1) * pageSize
}

// Cursor tracks the current page of a list.
type Cursor struct {
	page       int
	pageSize   int
	total      int
	totalKnown bool
	totalPages int
}

// New returns a cursor on page one.
func New(pageSize int) *Cursor {
	if pageSize <= 0 {
		pageSize = 10
	}
	return &Cursor{page: 1, pageSize: pageSize, totalPages: 1}
}

func (c *Cursor) Page() int       { return c.page }
func (c *Cursor) PageSize() int   { return c.pageSize }
func (c *Cursor) TotalPages() int { return c.totalPages }

// Total returns the record count and whether the server reported one.
func (c *Cursor) Total() (int, bool) { return c.total, c.totalKnown }

// SetTotal records the server's record count and re-derives the page count.
func (c *Cursor) SetTotal(total int) {
	if total < 0 {
		total = 0
	}
	c.total = total
	c.totalKnown = true
	c.totalPages = TotalPages(total, c.pageSize)
	c.clamp()
}

// SetTotalPages is used when the server reports only a page count.
func (c *Cursor) SetTotalPages(pages int) {
	if pages < 1 {
		pages = 1
	}
	c.totalKnown = false
	c.totalPages = pages
	c.clamp()
}

// Next advances one page; it reports whether the page changed.
func (c *Cursor) Next() bool {
	before := c.page
	c.GoTo(c.page + 1)
	return before != c.page
}

// Prev steps back one page; it reports whether the page changed.
func (c *Cursor) Prev() bool {
	before := c.page
	c.GoTo(c.page - 1)
	return before != c.page
}

// GoTo moves to page n clamped into range and returns the resulting page.
func (c *Cursor) GoTo(n int) int {
	c.page = n
	c.clamp()
	return c.page
}

// SetPageSize changes the page size, re-derives the page count when the total is known,
// and clamps the current page.
func (c *Cursor) SetPageSize(p int) {
	if p <= 0 || p == c.pageSize {
		return
	}
	c.pageSize = p
	if c.totalKnown {
		c.totalPages = TotalPages(c.total, p)
	}
	c.clamp()
}

// Remove adjusts the known total after n records were deleted locally.
func (c *Cursor) Remove(n int) {
	if !c.totalKnown || n <= 0 {
		return
	}
	c.SetTotal(max(c.total-n, 0))
}

func (c *Cursor) clamp() {
	if c.totalPages < 1 {
		c.totalPages = 1
	}
	if c.page < 1 {
		c.page = 1
	}
	if c.page > c.totalPages {
		c.page = c.totalPages
	}
}

// Button is one page entry of the pagination control.
type Button struct {
	Page   int  `json:"page"`
	Active bool `json:"active"`
}

// View is the render-ready state of a cursor.
type View struct {
	Page       int      `json:"page"`
	PageSize   int      `json:"page_size"`
	TotalPages int      `json:"total_pages"`
	Total      *int     `json:"total,omitempty"`
	Label      string   `json:"label,omitempty"`
	Buttons    []Button `json:"buttons"`
	HasPrev    bool     `json:"has_prev"`
	HasNext    bool     `json:"has_next"`
}

// View renders the cursor for the pagination control.
func (c *Cursor) View() View {
	v := View{
		Page:       c.page,
		PageSize:   c.pageSize,
		TotalPages: c.totalPages,
		Buttons:    make([]Button, 0, c.totalPages),
		HasPrev:    c.page > 1,
		HasNext:    c.page < c.totalPages,
	}
	for i := 1; i <= c.totalPages; i++ {
		v.Buttons = append(v.Buttons, Button{Page: i, Active: i == c.page})
	}
	if c.totalKnown {
		total := c.total
		v.Total = &total
		v.Label = Label(c.page, c.pageSize, c.total)
	}
	return v
}
