// Package mockupstream is an in-memory stand-in for the platform API, used for local
// development of the console and for end-to-end tests.
package mockupstream

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Omkar-Primocys/Ziogram-Admin/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// DefaultAvatar is the placeholder profile picture the platform hands out.
const DefaultAvatar = "/uploads/profile-image.jpg"

var categoryNames = []string{"Apparel", "Footwear", "Home", "Beauty", "Electronics", "Sports", "Books", "Toys"}

// Options sizes the generated dataset.
type Options struct {
	Seed          int64
	Users         int
	Reports       int // negative generates none
	Posts         int
	AdminEmail    string
	AdminPassword string
	AdminName     string
	BaseURL       string
	BcryptCost    int
	Now           time.Time
}

func (o *Options) defaults() {
	if o.Users <= 0 {
		o.Users = 57
	}
	if o.Reports < 0 {
		o.Reports = 0
	} else if o.Reports == 0 {
		o.Reports = 23
	}
	if o.Posts <= 0 {
		o.Posts = 34
	}
	if o.AdminEmail == "" {
		o.AdminEmail = "admin@ziogram.local"
	}
	if o.AdminPassword == "" {
		o.AdminPassword = "admin123"
	}
	if o.AdminName == "" {
		o.AdminName = "Ziogram Admin"
	}
	if o.BaseURL == "" {
		o.BaseURL = "http://localhost:3008"
	}
	if o.BcryptCost == 0 {
		o.BcryptCost = bcrypt.DefaultCost
	}
	if o.Now.IsZero() {
		o.Now = time.Now()
	}
}

// Product is a product accepted by addProduct.
type Product struct {
	ID     int64
	Draft  models.ProductDraft
	Images []string
}

// Dataset is the mutable state behind the mock API.
type Dataset struct {
	mu         sync.Mutex
	admin      admin
	tokens     map[string]bool
	users      []*models.User
	reports    []models.Report
	posts      []*models.Post
	categories []models.Category
	products   []Product
}

type admin struct {
	email    string
	name     string
	pic      string
	password []byte
}

// Generate builds a deterministic dataset from opts.Seed.
func Generate(opts Options) (*Dataset, error) {
	opts.defaults()
	f := gofakeit.New(opts.Seed)

	hash, err := bcrypt.GenerateFromPassword([]byte(opts.AdminPassword), opts.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash admin password: %w", err)
	}

	ds := &Dataset{
		admin: admin{
			email:    strings.ToLower(opts.AdminEmail),
			name:     opts.AdminName,
			pic:      opts.BaseURL + DefaultAvatar,
			password: hash,
		},
		tokens: make(map[string]bool),
	}

	for i := range categoryNames {
		ds.categories = append(ds.categories, models.Category{CategoryID: int64(i + 1), CategoryName: categoryNames[i]})
	}

	since := opts.Now.AddDate(-1, 0, 0)
	for i := 0; i < opts.Users; i++ {
		created := f.DateRange(since, opts.Now)
		u := &models.User{
			UserID:           int64(i + 1),
			UserName:         strings.ToLower(f.Username()),
			FirstName:        f.FirstName(),
			LastName:         f.LastName(),
			DOB:              f.DateRange(opts.Now.AddDate(-60, 0, 0), opts.Now.AddDate(-18, 0, 0)).Format("2006-01-02"),
			MobileNum:        f.Phone(),
			EmailID:          strings.ToLower(f.Email()),
			LoginType:        f.RandomString([]string{"email", "phone", "google"}),
			Verified:         models.Flag(f.Bool()),
			OTPVerification:  models.Flag(f.Bool()),
			BlockedFromAdmin: models.Flag(f.Number(1, 10) == 1),
			CreatedAt:        created,
			UpdatedAt:        created,
		}
		if i%3 == 0 {
			u.ProfilePic = opts.BaseURL + DefaultAvatar
		} else {
			u.ProfilePic = fmt.Sprintf("https://i.pravatar.cc/150?u=%s", f.UUID())
		}
		ds.users = append(ds.users, u)
	}

	for i := 0; i < opts.Reports && len(ds.users) > 1; i++ {
		target := ds.users[f.Number(0, len(ds.users)-1)]
		reporter := ds.users[f.Number(0, len(ds.users)-1)]
		created := f.DateRange(target.CreatedAt, opts.Now)
		ds.reports = append(ds.reports, models.Report{
			ReportID:     int64(i + 1),
			ReportedBy:   reporter.UserID,
			ReportedUser: target.UserID,
			ReportText:   f.Sentence(f.Number(4, 12)),
			CreatedAt:    created,
			UpdatedAt:    created,
		})
	}

	for i := 0; i < opts.Posts && len(ds.users) > 0; i++ {
		author := ds.users[f.Number(0, len(ds.users)-1)]
		p := &models.Post{
			PostID:        int64(i + 1),
			CreatedAt:     f.DateRange(opts.Now.AddDate(0, 0, -30), opts.Now),
			Location:      f.City(),
			PostDesc:      f.Paragraph(1, f.Number(1, 4), f.Number(4, 14), "\n"),
			TotalLikes:    f.Number(0, 400),
			TotalComments: f.Number(0, 80),
			Profile: models.PostProfile{
				ProfilePic: author.ProfilePic,
				UserName:   author.UserName,
				FirstName:  author.FirstName,
				LastName:   author.LastName,
			},
		}
		media := f.Number(0, 3)
		for j := 0; j < media; j++ {
			p.Media = append(p.Media, models.Media{
				MediaLocation: fmt.Sprintf("https://picsum.photos/seed/%s/800/800", f.UUID()),
			})
		}
		ds.posts = append(ds.posts, p)
	}
	// Newest first, as the platform lists them.
	sort.SliceStable(ds.posts, func(i, j int) bool { return ds.posts[i].CreatedAt.After(ds.posts[j].CreatedAt) })

	return ds, nil
}

// Login checks the admin credentials and issues a token.
func (d *Dataset) Login(email, password string) (string, bool) {
	if strings.ToLower(strings.TrimSpace(email)) != d.admin.email {
		return "", false
	}
	if bcrypt.CompareHashAndPassword(d.admin.password, []byte(password)) != nil {
		return "", false
	}
	token := uuid.NewString()
	d.mu.Lock()
	d.tokens[token] = true
	d.mu.Unlock()
	return token, true
}

// ValidToken reports whether token was issued by Login.
func (d *Dataset) ValidToken(token string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.tokens[token]
}

// Users returns one page of users ordered by id.
func (d *Dataset) Users(page, limit int) ([]models.User, models.Pagination) {
	d.mu.Lock()
	defer d.mu.Unlock()
	from, to, p := window(len(d.users), page, limit)
	out := make([]models.User, 0, to-from)
	for _, u := range d.users[from:to] {
		out = append(out, *u)
	}
	return out, p
}

// ReportedUsers returns one page of reports with the reported user's current profile.
func (d *Dataset) ReportedUsers(page, pageSize int) ([]models.Report, models.Pagination) {
	d.mu.Lock()
	defer d.mu.Unlock()
	live := make([]models.Report, 0, len(d.reports))
	for _, r := range d.reports {
		if u := d.userLocked(r.ReportedUser); u != nil {
			r.Profile = *u
			live = append(live, r)
		}
	}
	from, to, p := window(len(live), page, pageSize)
	return live[from:to], p
}

// Posts returns one page of the feed.
func (d *Dataset) Posts(page, limit int) ([]models.Post, models.Pagination) {
	d.mu.Lock()
	defer d.mu.Unlock()
	from, to, p := window(len(d.posts), page, limit)
	out := make([]models.Post, 0, to-from)
	for _, post := range d.posts[from:to] {
		out = append(out, *post)
	}
	return out, p
}

// ToggleLike flips the admin's like on a post.
func (d *Dataset) ToggleLike(postID int64) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, p := range d.posts {
		if p.PostID != postID {
			continue
		}
		p.IsLiked = !p.IsLiked
		if p.IsLiked {
			p.TotalLikes++
		} else {
			p.TotalLikes--
		}
		return p.IsLiked, nil
	}
	return false, errors.New("Post not found")
}

// SetBlocked sets the admin block flag of a user.
func (d *Dataset) SetBlocked(userID int64, blocked bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	u := d.userLocked(userID)
	if u == nil {
		return errors.New("User not found")
	}
	u.BlockedFromAdmin = models.Flag(blocked)
	return nil
}

// DeleteUser removes a user. Reports against them drop out of the report list.
func (d *Dataset) DeleteUser(userID int64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, u := range d.users {
		if u.UserID == userID {
			d.users = append(d.users[:i], d.users[i+1:]...)
			return nil
		}
	}
	return errors.New("User not found")
}

// Categories returns the product categories.
func (d *Dataset) Categories() []models.Category {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]models.Category(nil), d.categories...)
}

// AddProduct stores a product.
func (d *Dataset) AddProduct(draft models.ProductDraft, images []string) (int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	known := false
	for _, c := range d.categories {
		if c.CategoryID == draft.CategoryID {
			known = true
			break
		}
	}
	if !known {
		return 0, errors.New("Category not found")
	}
	id := int64(len(d.products) + 1)
	d.products = append(d.products, Product{ID: id, Draft: draft, Images: images})
	return id, nil
}

// Products returns the stored products.
func (d *Dataset) Products() []Product {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Product(nil), d.products...)
}

func (d *Dataset) userLocked(id int64) *models.User {
	for _, u := range d.users {
		if u.UserID == id {
			return u
		}
	}
	return nil
}

func window(total, page, size int) (from, to int, p models.Pagination) {
	if size <= 0 {
		size = 10
	}
	if page <= 0 {
		page = 1
	}
	pages := (total + size - 1) / size
	from = min((page-1)*size, total)
	to = min(from+size, total)
	return from, to, models.Pagination{Total: total, Page: page, Pages: pages, PageSize: size}
}
