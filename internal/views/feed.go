package views

import (
	"errors"
	"sync"
	"time"

	"github.com/Omkar-Primocys/Ziogram-Admin/internal/models"
	"github.com/Omkar-Primocys/Ziogram-Admin/internal/observability"
	"github.com/Omkar-Primocys/Ziogram-Admin/internal/pagination"
)

// LikeState is the lifecycle of an optimistic like toggle.
type LikeState string

const (
	LikeIdle      LikeState = "idle"
	LikePending   LikeState = "pending"
	LikeConfirmed LikeState = "confirmed"
	LikeFailed    LikeState = "failed"
)

// Modal tabs.
const (
	TabLikes    = "likes"
	TabComments = "comments"
)

var (
	ErrLikePending  = errors.New("a like on this post is already in flight")
	ErrPostNotFound = errors.New("post is not on the current page")
	ErrInvalidTab   = errors.New("tab must be likes or comments")
)

// Modal is the open post detail dialog. Counts are captured when it opens.
type Modal struct {
	PostID       int64  `json:"post_id"`
	Tab          string `json:"tab"`
	LikeCount    int    `json:"like_count"`
	CommentCount int    `json:"comment_count"`
}

// LikeTicket carries what is needed to confirm or roll back one toggle.
type LikeTicket struct {
	PostID    int64
	Liked     bool
	prevLiked bool
	prevCount int
	loads     uint64
}

// FeedState is the post feed with its like, show-more and modal state.
type FeedState struct {
	*ListState[models.Post]

	mu       sync.Mutex
	likes    map[int64]LikeState
	expanded map[int64]bool
	modal    *Modal
}

func NewFeedState(pageSize int) *FeedState {
	return &FeedState{
		ListState: NewListState("posts", pageSize, func(p models.Post) int64 { return p.PostID }),
		likes:     make(map[int64]LikeState),
		expanded:  make(map[int64]bool),
	}
}

// ToggleLike flips the like flag and adjusts the count by one before the upstream call.
func (f *FeedState) ToggleLike(postID int64) (LikeTicket, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.likes[postID] == LikePending {
		return LikeTicket{}, ErrLikePending
	}
	var t LikeTicket
	loads, found := f.ListState.updateCurrent(postID, func(p *models.Post) {
		t = LikeTicket{PostID: postID, prevLiked: p.IsLiked, prevCount: p.TotalLikes}
		p.IsLiked = !p.IsLiked
		if p.IsLiked {
			p.TotalLikes++
		} else {
			p.TotalLikes--
		}
		t.Liked = p.IsLiked
	})
	if !found {
		return LikeTicket{}, ErrPostNotFound
	}
	t.loads = loads
	f.likes[postID] = LikePending
	return t, nil
}

// ConfirmLike marks the toggle as accepted upstream.
func (f *FeedState) ConfirmLike(t LikeTicket) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.likes[t.PostID] = LikeConfirmed
	observability.LikeOutcomes.WithLabelValues(string(LikeConfirmed)).Inc()
}

// RollbackLike restores the flag and count captured by ToggleLike. A page refetched while
// the like was in flight already carries the server's counts and is left alone.
func (f *FeedState) RollbackLike(t LikeTicket) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ListState.updateIfLoads(t.loads, t.PostID, func(p *models.Post) {
		p.IsLiked = t.prevLiked
		p.TotalLikes = t.prevCount
	})
	f.likes[t.PostID] = LikeFailed
	observability.LikeOutcomes.WithLabelValues(string(LikeFailed)).Inc()
}

// LikeStateOf returns the like lifecycle of a post.
func (f *FeedState) LikeStateOf(postID int64) LikeState {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok := f.likes[postID]; ok {
		return s
	}
	return LikeIdle
}

// ToggleExpanded flips the show-more state of a post and returns the new state.
func (f *FeedState) ToggleExpanded(postID int64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.expanded[postID] {
		delete(f.expanded, postID)
		return false
	}
	f.expanded[postID] = true
	return true
}

// OpenModal opens the detail dialog on tab with the post's current counts.
func (f *FeedState) OpenModal(postID int64, tab string) (*Modal, error) {
	if tab != TabLikes && tab != TabComments {
		return nil, ErrInvalidTab
	}
	post, ok := f.ListState.Find(postID)
	if !ok {
		return nil, ErrPostNotFound
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.modal = &Modal{PostID: postID, Tab: tab, LikeCount: post.TotalLikes, CommentCount: post.TotalComments}
	m := *f.modal
	return &m, nil
}

// CloseModal clears the dialog.
func (f *FeedState) CloseModal() {
	f.mu.Lock()
	f.modal = nil
	f.mu.Unlock()
}

// PostView is one rendered feed card.
type PostView struct {
	PostID        int64     `json:"post_id"`
	Author        string    `json:"author"`
	UserName      string    `json:"user_name"`
	ProfilePic    string    `json:"profile_pic,omitempty"`
	Initials      string    `json:"initials,omitempty"`
	Age           string    `json:"age"`
	Clock         string    `json:"clock"`
	Location      string    `json:"location,omitempty"`
	Media         []string  `json:"media"`
	Text          string    `json:"text"`
	Expanded      bool      `json:"expanded"`
	ShowMore      bool      `json:"show_more"`
	TotalLikes    int       `json:"total_likes"`
	TotalComments int       `json:"total_comments"`
	IsLiked       bool      `json:"is_liked"`
	LikeState     LikeState `json:"like_state"`
}

// FeedView is the rendered feed.
type FeedView struct {
	Posts        []PostView      `json:"posts"`
	Pagination   pagination.View `json:"pagination"`
	Loading      bool            `json:"loading"`
	Error        string          `json:"error,omitempty"`
	EmptyMessage string          `json:"empty_message,omitempty"`
	Modal        *Modal          `json:"modal,omitempty"`
}

// Render builds the feed cards with ages relative to now.
func (f *FeedState) Render(now time.Time) FeedView {
	snap := f.ListState.Snapshot()

	f.mu.Lock()
	defer f.mu.Unlock()

	view := FeedView{
		Posts:      make([]PostView, 0, len(snap.Rows)),
		Pagination: snap.Pagination,
		Loading:    snap.Loading,
		Error:      snap.Error,
	}
	if len(snap.Rows) == 0 && !snap.Loading && snap.Error == "" {
		view.EmptyMessage = "No posts available"
	}
	if f.modal != nil {
		m := *f.modal
		view.Modal = &m
	}

	for _, p := range snap.Rows {
		pv := PostView{
			PostID:        p.PostID,
			Author:        joinName(p.Profile.FirstName, p.Profile.LastName),
			UserName:      p.Profile.UserName,
			Age:           RelativeAge(p.CreatedAt, now),
			Clock:         Clock(p.CreatedAt),
			Location:      p.Location,
			Media:         make([]string, 0, len(p.Media)),
			Expanded:      f.expanded[p.PostID],
			ShowMore:      NeedsShowMore(p.PostDesc),
			TotalLikes:    p.TotalLikes,
			TotalComments: p.TotalComments,
			IsLiked:       p.IsLiked,
			LikeState:     LikeIdle,
		}
		if s, ok := f.likes[p.PostID]; ok {
			pv.LikeState = s
		}
		if IsDefaultAvatar(p.Profile.ProfilePic) {
			pv.Initials = Initials(p.Profile.FirstName, p.Profile.LastName)
		} else {
			pv.ProfilePic = p.Profile.ProfilePic
		}
		if pv.Expanded {
			pv.Text = p.PostDesc
		} else {
			pv.Text = Excerpt(p.PostDesc)
		}
		for _, m := range p.Media {
			pv.Media = append(pv.Media, m.MediaLocation)
		}
		view.Posts = append(view.Posts, pv)
	}
	return view
}

func joinName(first, last string) string {
	switch {
	case first == "":
		return last
	case last == "":
		return first
	default:
		return first + " " + last
	}
}
