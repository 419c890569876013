package views

import (
	"testing"

	"github.com/Omkar-Primocys/Ziogram-Admin/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func users(ids ...int64) []models.User {
	out := make([]models.User, len(ids))
	for i, id := range ids {
		out[i] = models.User{UserID: id}
	}
	return out
}

func newUsers() *ListState[models.User] {
	return NewListState("users", 10, func(u models.User) int64 { return u.UserID })
}

func TestListState_DropsStaleResponses(t *testing.T) {
	l := newUsers()
	older := l.Begin()
	newer := l.Begin()

	out := l.Apply(newer, Result[models.User]{Records: users(2), Total: 1, TotalKnown: true})
	assert.True(t, out.Applied)

	out = l.Apply(older, Result[models.User]{Records: users(1), Total: 1, TotalKnown: true})
	assert.False(t, out.Applied)
	assert.False(t, l.Fail(older, "late failure"))

	snap := l.Snapshot()
	require.Len(t, snap.Rows, 1)
	assert.Equal(t, int64(2), snap.Rows[0].UserID)
	assert.Empty(t, snap.Error)
	assert.False(t, snap.Loading)
}

func TestListState_PaginationScenario(t *testing.T) {
	l := newUsers()
	tk := l.Begin()
	assert.True(t, l.Snapshot().Loading)
	l.Apply(tk, Result[models.User]{Records: users(1, 2, 3, 4, 5, 6, 7, 8, 9, 10), Total: 25, TotalKnown: true})

	snap := l.Snapshot()
	assert.Equal(t, "Showing 1 to 10 of 25 entries", snap.Pagination.Label)
	assert.Len(t, snap.Pagination.Buttons, 3)
	assert.True(t, snap.Pagination.Buttons[0].Active)

	require.True(t, l.SetPage(3))
	tk = l.Begin()
	assert.Equal(t, 3, tk.Page)
	l.Apply(tk, Result[models.User]{Records: users(21, 22, 23, 24, 25), Total: 25, TotalKnown: true})
	assert.Equal(t, "Showing 21 to 25 of 25 entries", l.Snapshot().Pagination.Label)

	assert.False(t, l.SetPage(9), "already clamped to the last page")
}

func TestListState_ClampAndRefetch(t *testing.T) {
	l := newUsers()
	tk := l.Begin()
	l.Apply(tk, Result[models.User]{Records: users(1), Total: 25, TotalKnown: true})
	l.SetPage(3)
	tk = l.Begin()
	l.Apply(tk, Result[models.User]{Records: users(21, 22, 23, 24, 25), Total: 25, TotalKnown: true})

	// Records were deleted elsewhere: page 3 no longer exists.
	tk = l.Begin()
	out := l.Apply(tk, Result[models.User]{Records: nil, Total: 12, TotalKnown: true})
	assert.True(t, out.Applied)
	assert.True(t, out.Refetch)
	assert.Equal(t, 2, l.Page())
	assert.Len(t, l.Snapshot().Rows, 5, "rows are kept until the clamped page arrives")

	tk = l.Begin()
	assert.Equal(t, 2, tk.Page)
	out = l.Apply(tk, Result[models.User]{Records: users(11, 12), Total: 12, TotalKnown: true})
	assert.False(t, out.Refetch)
	assert.Equal(t, "Showing 11 to 12 of 12 entries", l.Snapshot().Pagination.Label)
}

func TestListState_PageSizeChangeClamps(t *testing.T) {
	l := newUsers()
	tk := l.Begin()
	l.Apply(tk, Result[models.User]{Records: users(1), Total: 25, TotalKnown: true})
	l.SetPage(3)

	inFlight := l.Begin()
	require.True(t, l.SetPageSize(50))
	assert.Equal(t, 1, l.Page())

	out := l.Apply(inFlight, Result[models.User]{Records: users(21), Total: 25, TotalKnown: true})
	assert.True(t, out.Refetch)

	tk = l.Begin()
	assert.Equal(t, 50, tk.PageSize)
	assert.Equal(t, 1, tk.Page)
}

func TestListState_RemoveAndFail(t *testing.T) {
	l := newUsers()
	tk := l.Begin()
	l.Apply(tk, Result[models.User]{Records: users(1, 2, 3), Total: 3, TotalKnown: true})

	assert.True(t, l.Remove(2))
	assert.False(t, l.Remove(2))
	snap := l.Snapshot()
	assert.Equal(t, users(1, 3), snap.Rows)
	require.NotNil(t, snap.Pagination.Total)
	assert.Equal(t, 2, *snap.Pagination.Total)

	tk = l.Begin()
	assert.True(t, l.Fail(tk, "Error fetching users"))
	snap = l.Snapshot()
	assert.Equal(t, "Error fetching users", snap.Error)
	assert.Equal(t, users(1, 3), snap.Rows)
}

func TestListState_RemoveDropsEveryReportForUser(t *testing.T) {
	l := NewListState("reported", 10, func(r models.Report) int64 { return r.TargetUserID() })
	tk := l.Begin()
	l.Apply(tk, Result[models.Report]{
		Records: []models.Report{
			{ReportID: 1, ReportedUser: 7},
			{ReportID: 2, ReportedUser: 7},
			{ReportID: 3, ReportedUser: 8},
		},
		Total:      3,
		TotalKnown: true,
	})

	require.True(t, l.Remove(7))
	snap := l.Snapshot()
	require.Len(t, snap.Rows, 1)
	assert.Equal(t, int64(3), snap.Rows[0].ReportID)
	require.NotNil(t, snap.Pagination.Total)
	assert.Equal(t, 1, *snap.Pagination.Total)
	assert.False(t, l.NeedsRefresh())
}

func TestListState_RemoveLastRowOfPageMarksStale(t *testing.T) {
	l := newUsers()
	require.False(t, l.SetPage(3))
	tk := l.BeginPage(3)
	out := l.Apply(tk, Result[models.User]{Records: users(21), Total: 21, TotalKnown: true})
	require.True(t, out.Applied)
	require.False(t, out.Refetch)
	require.Equal(t, 3, l.Page())

	require.True(t, l.Remove(21))
	assert.True(t, l.NeedsRefresh())
	assert.Equal(t, 2, l.Page())
	assert.Equal(t, "Showing 11 to 20 of 20 entries", l.Snapshot().Pagination.Label)
}

func TestListState_Invalidate(t *testing.T) {
	l := newUsers()
	assert.True(t, l.NeedsRefresh())
	l.Begin()
	assert.False(t, l.NeedsRefresh())
	l.Invalidate()
	assert.True(t, l.NeedsRefresh())
}

func TestListState_UnknownTotal(t *testing.T) {
	l := newUsers()
	tk := l.Begin()
	l.Apply(tk, Result[models.User]{Records: users(1), TotalPages: 4})
	snap := l.Snapshot()
	assert.Nil(t, snap.Pagination.Total)
	assert.Empty(t, snap.Pagination.Label)
	assert.Equal(t, 4, snap.Pagination.TotalPages)
}

func TestListState_BeginPageBeyondKnownRange(t *testing.T) {
	l := newUsers()
	tk := l.BeginPage(3)
	assert.Equal(t, 3, tk.Page)
	assert.Equal(t, 1, l.Page(), "cursor waits for the result")

	out := l.Apply(tk, Result[models.User]{Records: users(21, 22), Total: 22, TotalKnown: true})
	assert.False(t, out.Refetch)
	assert.Equal(t, 3, l.Page())
	assert.Equal(t, "Showing 21 to 22 of 22 entries", l.Snapshot().Pagination.Label)

	tk = l.BeginPage(7)
	out = l.Apply(tk, Result[models.User]{Total: 22, TotalKnown: true})
	assert.True(t, out.Refetch)
	assert.Equal(t, 3, l.Page())
}
