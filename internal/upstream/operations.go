package upstream

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/Omkar-Primocys/Ziogram-Admin/internal/models"
)

// Named endpoints of the platform API.
const (
	EndpointAdminLogin       = "adminLogin"
	EndpointListUsers        = "getAllUser"
	EndpointReportedUsers    = "reported-user-list"
	EndpointListPosts        = "list-all-post"
	EndpointLike             = "like"
	EndpointBlock            = "block-by-admin"
	EndpointUnblock          = "unblock-by-admin"
	EndpointDelete           = "delete-by-admin"
	EndpointSearchCategories = "search-category-for-add-product"
	EndpointAddProduct       = "addProduct"
)

// noReportedUsers is the rejection message the platform uses for an empty report list.
const noReportedUsers = "no reported users found"

// LoginRequest carries the admin credentials.
type LoginRequest struct {
	AdminID       string `json:"admin_id"`
	AdminPassword string `json:"admin_password"`
}

// AdminProfile is the admin record returned at login.
type AdminProfile struct {
	AdminName  string `json:"admin_name"`
	ProfilePic string `json:"profile_pic"`
	EmailID    string `json:"email_id,omitempty"`
}

// LoginResult is the adminLogin payload.
type LoginResult struct {
	Token string       `json:"token"`
	Admin AdminProfile `json:"isAdmin"`
}

// UserPage is one page of getAllUser.
type UserPage struct {
	Users      []models.User     `json:"allUsers"`
	Pagination models.Pagination `json:"pagination"`
}

// ReportPage is one page of reported-user-list.
type ReportPage struct {
	Reports    []models.Report   `json:"isReportedUsers"`
	Pagination models.Pagination `json:"pagination"`
	// Empty is set when the platform answered with its "no reported users" rejection.
	Empty bool `json:"-"`
}

// PostPage is one page of list-all-post.
type PostPage struct {
	Posts       []models.Post `json:"data"`
	CurrentPage int           `json:"currentPage"`
	TotalPages  int           `json:"totalPages"`
	TotalPosts  int           `json:"totalPosts,omitempty"`
}

// MutationResult is the envelope of a moderation or like mutation.
type MutationResult struct {
	Message string `json:"message"`
}

// AdminLogin exchanges credentials for an upstream token.
func (c *Client) AdminLogin(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	var out LoginResult
	if err := c.Post(ctx, EndpointAdminLogin, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListUsers fetches one page of registered users.
func (c *Client) ListUsers(ctx context.Context, page, limit int) (*UserPage, error) {
	var out UserPage
	body := map[string]int{"page": page, "limit": limit}
	if err := c.Post(ctx, EndpointListUsers, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListReportedUsers fetches one page of user reports. The platform's "No reported users
// found" rejection is returned as an empty page.
func (c *Client) ListReportedUsers(ctx context.Context, page, pageSize int) (*ReportPage, error) {
	var out ReportPage
	body := map[string]int{"page": page, "pageSize": pageSize}
	if err := c.Post(ctx, EndpointReportedUsers, body, &out); err != nil {
		if rej, ok := IsRejected(err); ok && strings.EqualFold(strings.TrimSpace(rej.Message), noReportedUsers) {
			return &ReportPage{Empty: true, Pagination: models.Pagination{Page: 1, Pages: 1, PageSize: pageSize}}, nil
		}
		return nil, err
	}
	return &out, nil
}

// ListPosts fetches one page of the post feed.
func (c *Client) ListPosts(ctx context.Context, page, limit int) (*PostPage, error) {
	var out PostPage
	body := map[string]int{"page": page, "limit": limit}
	if err := c.Post(ctx, EndpointListPosts, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Like toggles the acting admin's like on a post.
func (c *Client) Like(ctx context.Context, postID int64) error {
	return c.Post(ctx, EndpointLike, map[string]int64{"post_id": postID}, nil)
}

// Mutate calls a user moderation endpoint (block, unblock or delete) with the user id.
func (c *Client) Mutate(ctx context.Context, endpoint string, userID int64) (string, error) {
	var out MutationResult
	if err := c.Post(ctx, endpoint, map[string]int64{"user_id": userID}, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

// SearchCategories returns the categories offered for new products.
func (c *Client) SearchCategories(ctx context.Context) ([]models.Category, error) {
	var out struct {
		Categories []models.Category `json:"isCategory"`
	}
	if err := c.Post(ctx, EndpointSearchCategories, map[string]any{}, &out); err != nil {
		return nil, err
	}
	return out.Categories, nil
}

// AddProduct submits a product with its images as multipart form data.
func (c *Client) AddProduct(ctx context.Context, draft models.ProductDraft, images []File) (string, error) {
	fields := map[string]string{
		"Product_name":    draft.Name,
		"categorySelect":  strconv.FormatInt(draft.CategoryID, 10),
		"Product_desc":    draft.Description,
		"Additional_desc": draft.AdditionalDesc,
		"original_price":  strconv.FormatFloat(draft.OriginalPrice, 'f', -1, 64),
		"sale_price":      strconv.FormatFloat(draft.SalePrice, 'f', -1, 64),
		"in_stock":        strconv.Itoa(draft.InStock),
	}
	if len(draft.Variants) > 0 {
		b, err := json.Marshal(draft.Variants)
		if err != nil {
			return "", err
		}
		fields["variants"] = string(b)
	}
	if len(draft.Types) > 0 {
		b, err := json.Marshal(draft.Types)
		if err != nil {
			return "", err
		}
		fields["types"] = string(b)
	}

	files := make([]File, len(images))
	for i, img := range images {
		img.Field = "files"
		files[i] = img
	}

	var out MutationResult
	if err := c.PostMultipart(ctx, EndpointAddProduct, fields, files, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}
