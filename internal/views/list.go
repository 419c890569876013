// Package views keeps the per-admin state of the dashboard screens: paged lists, the post
// feed and the product draft. Handlers mutate it and render snapshots of it.
package views

import (
	"sync"

	"github.com/Omkar-Primocys/Ziogram-Admin/internal/observability"
	"github.com/Omkar-Primocys/Ziogram-Admin/internal/pagination"
)

// Ticket identifies one list fetch. Results are applied only if no newer ticket was
// applied first.
type Ticket struct {
	Gen      uint64
	Page     int
	PageSize int
}

// Result is the payload of one list fetch.
type Result[T any] struct {
	Records      []T
	Total        int
	TotalKnown   bool
	TotalPages   int
	EmptyMessage string
}

// Outcome tells the caller what Apply did.
type Outcome struct {
	Applied bool
	// Refetch is set when the requested page fell outside the reported range; the
	// cursor was clamped and the clamped page must be fetched.
	Refetch bool
}

// ListView is the render-ready state of a list.
type ListView[T any] struct {
	Rows         []T             `json:"rows"`
	Pagination   pagination.View `json:"pagination"`
	Loading      bool            `json:"loading"`
	Error        string          `json:"error,omitempty"`
	EmptyMessage string          `json:"empty_message,omitempty"`
}

// ListState is one paged list.
type ListState[T any] struct {
	mu           sync.Mutex
	name         string
	key          func(T) int64
	records      []T
	cursor       *pagination.Cursor
	err          string
	emptyMessage string
	stale        bool
	issued       uint64
	applied      uint64
	// loads counts the fetches that replaced records.
	loads uint64
}

// NewListState returns an empty list. key extracts the record id used by Remove and Update.
func NewListState[T any](name string, pageSize int, key func(T) int64) *ListState[T] {
	return &ListState[T]{
		name:   name,
		key:    key,
		cursor: pagination.New(pageSize),
		stale:  true,
	}
}

// Begin starts a fetch of the current page.
func (l *ListState[T]) Begin() Ticket {
	return l.BeginPage(0)
}

// BeginPage starts a fetch of page, which may lie beyond the page count known so far.
// The cursor moves there once the result confirms the page exists. page <= 0 means the
// current page.
func (l *ListState[T]) BeginPage(page int) Ticket {
	l.mu.Lock()
	defer l.mu.Unlock()
	if page <= 0 {
		page = l.cursor.Page()
	}
	l.issued++
	l.stale = false
	return Ticket{Gen: l.issued, Page: page, PageSize: l.cursor.PageSize()}
}

// Apply installs r unless a newer fetch already landed.
func (l *ListState[T]) Apply(t Ticket, r Result[T]) Outcome {
	l.mu.Lock()
	defer l.mu.Unlock()

	if t.Gen <= l.applied {
		observability.StaleResponsesDropped.WithLabelValues(l.name).Inc()
		return Outcome{}
	}
	l.applied = t.Gen

	if t.PageSize != l.cursor.PageSize() {
		// The page size changed while this fetch was in flight; its totals no longer
		// describe the cursor.
		return Outcome{Applied: true, Refetch: true}
	}

	if r.TotalKnown {
		l.cursor.SetTotal(r.Total)
	} else {
		l.cursor.SetTotalPages(r.TotalPages)
	}
	if l.cursor.GoTo(t.Page) != t.Page {
		return Outcome{Applied: true, Refetch: true}
	}

	l.records = r.Records
	l.loads++
	l.err = ""
	l.emptyMessage = r.EmptyMessage
	return Outcome{Applied: true}
}

// Fail records a failed fetch. Records from the last successful fetch are kept.
func (l *ListState[T]) Fail(t Ticket, msg string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if t.Gen <= l.applied {
		observability.StaleResponsesDropped.WithLabelValues(l.name).Inc()
		return false
	}
	l.applied = t.Gen
	l.err = msg
	return true
}

// Remove drops every record with id from the current page. A reported user can own
// several rows. The list goes stale when the page empties or the cursor has to move.
func (l *ListState[T]) Remove(id int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	kept := make([]T, 0, len(l.records))
	for _, rec := range l.records {
		if l.key(rec) != id {
			kept = append(kept, rec)
		}
	}
	removed := len(l.records) - len(kept)
	if removed == 0 {
		return false
	}
	l.records = kept

	page := l.cursor.Page()
	l.cursor.Remove(removed)
	if len(kept) == 0 || l.cursor.Page() != page {
		l.stale = true
	}
	return true
}

// updateIfLoads applies fn to the record with id unless another fetch replaced the
// records after the loads count was read.
func (l *ListState[T]) updateIfLoads(loads uint64, id int64, fn func(*T)) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.loads != loads {
		return false
	}
	for i := range l.records {
		if l.key(l.records[i]) == id {
			fn(&l.records[i])
			return true
		}
	}
	return false
}

// updateCurrent is Update that also returns the loads count the record belongs to.
func (l *ListState[T]) updateCurrent(id int64, fn func(*T)) (uint64, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.records {
		if l.key(l.records[i]) == id {
			fn(&l.records[i])
			return l.loads, true
		}
	}
	return l.loads, false
}

// Update applies fn to the record with id.
func (l *ListState[T]) Update(id int64, fn func(*T)) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.records {
		if l.key(l.records[i]) == id {
			fn(&l.records[i])
			return true
		}
	}
	return false
}

// Find returns a copy of the record with id.
func (l *ListState[T]) Find(id int64) (T, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, rec := range l.records {
		if l.key(rec) == id {
			return rec, true
		}
	}
	var zero T
	return zero, false
}

// Invalidate marks the list for a refetch on its next read.
func (l *ListState[T]) Invalidate() {
	l.mu.Lock()
	l.stale = true
	l.mu.Unlock()
}

// NeedsRefresh reports whether the list was invalidated or never fetched.
func (l *ListState[T]) NeedsRefresh() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stale
}

// SetPage moves the cursor and reports whether the page changed.
func (l *ListState[T]) SetPage(n int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	before := l.cursor.Page()
	return l.cursor.GoTo(n) != before
}

// SetPageSize changes the page size and reports whether it changed.
func (l *ListState[T]) SetPageSize(p int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	before := l.cursor.PageSize()
	l.cursor.SetPageSize(p)
	return l.cursor.PageSize() != before
}

// Page returns the current page.
func (l *ListState[T]) Page() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cursor.Page()
}

// Snapshot renders the list.
func (l *ListState[T]) Snapshot() ListView[T] {
	l.mu.Lock()
	defer l.mu.Unlock()
	rows := make([]T, len(l.records))
	copy(rows, l.records)
	return ListView[T]{
		Rows:         rows,
		Pagination:   l.cursor.View(),
		Loading:      l.applied < l.issued,
		Error:        l.err,
		EmptyMessage: l.emptyMessage,
	}
}
