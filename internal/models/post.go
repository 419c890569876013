package models

import "time"

// PostProfile is the author block embedded in a post.
type PostProfile struct {
	ProfilePic string `json:"profile_pic"`
	UserName   string `json:"user_name"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
}

// Media is one attachment of a post.
type Media struct {
	MediaLocation string `json:"media_location"`
}

// Post mirrors an upstream post with its aggregate counters.
type Post struct {
	PostID        int64       `json:"post_id"`
	CreatedAt     time.Time   `json:"createdAt"`
	Location      string      `json:"location,omitempty"`
	PostDesc      string      `json:"post_desc"`
	Profile       PostProfile `json:"Profile"`
	Media         []Media     `json:"Media"`
	TotalLikes    int         `json:"totalLikes"`
	TotalComments int         `json:"totalComments"`
	IsLiked       bool        `json:"isLiked"`
}
