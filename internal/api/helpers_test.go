package api

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"

	"bookstore-service/internal/entity"
	"bookstore-service/internal/service"
)

type fakeBooks struct {
	books    map[int]*entity.Book
	filter   entity.BookFilter
	keys     map[string]bool
	lastKey  string
	warmedUp bool
}

func newFakeBooks() *fakeBooks {
	return &fakeBooks{
		books: map[int]*entity.Book{
			1: {ID: 1, Title: "Dune", Author: "Frank Herbert", OriginalPrice: 1000, FinalPrice: 800, DiscountPercent: 20},
		},
		keys: map[string]bool{},
	}
}

func (f *fakeBooks) GetBook(ctx context.Context, id int) (*entity.Book, error) {
	book, ok := f.books[id]
	if !ok {
		return nil, service.ErrBookNotFound
	}
	return book, nil
}

func (f *fakeBooks) ListBooks(ctx context.Context, filter entity.BookFilter) ([]*entity.Book, error) {
	f.filter = filter
	var out []*entity.Book
	for _, b := range f.books {
		out = append(out, b)
	}
	return out, nil
}

func (f *fakeBooks) CreateBook(ctx context.Context, book *entity.Book, idempotentKey string) (*entity.Book, error) {
	f.lastKey = idempotentKey
	if book.Title == "" {
		return nil, service.ErrInvalidInput
	}
	if idempotentKey != "" {
		if f.keys[idempotentKey] {
			return nil, service.ErrDuplicateRequest
		}
		f.keys[idempotentKey] = true
	}
	book.ID = len(f.books) + 1
	f.books[book.ID] = book
	return book, nil
}

func (f *fakeBooks) UpdateBook(ctx context.Context, id int, book *entity.Book) (*entity.Book, error) {
	if _, ok := f.books[id]; !ok {
		return nil, service.ErrBookNotFound
	}
	book.ID = id
	f.books[id] = book
	return book, nil
}

func (f *fakeBooks) DeleteBook(ctx context.Context, id int) error {
	if _, ok := f.books[id]; !ok {
		return service.ErrBookNotFound
	}
	delete(f.books, id)
	return nil
}

func (f *fakeBooks) PreWarmCacheAsync(ctx context.Context) (int, error) {
	f.warmedUp = true
	return len(f.books), nil
}

type fakeUsers struct {
	token   string
	claims  *service.JwtCustomClaims
	revoked []string
}

func (f *fakeUsers) GetUserByID(ctx context.Context, id int) (*entity.User, error) {
	if id != 1 {
		return nil, service.ErrUserNotFound
	}
	return &entity.User{ID: 1, Username: "admin", Email: "admin@example.com", Password: "hash", Role: entity.RoleAdmin}, nil
}

func (f *fakeUsers) CreateUser(ctx context.Context, user *entity.User, password string) (*entity.User, error) {
	if password == "" {
		return nil, service.ErrInvalidInput
	}
	user.ID = 2
	user.Password = "hash"
	return user, nil
}

func (f *fakeUsers) Login(ctx context.Context, email, password string) (string, error) {
	if password != "pw" {
		return "", service.ErrInvalidCredentials
	}
	return f.token, nil
}

func (f *fakeUsers) ValidateToken(ctx context.Context, token string) (*service.JwtCustomClaims, error) {
	if token != f.token || f.claims == nil {
		return nil, service.ErrInvalidCredentials
	}
	return f.claims, nil
}

func (f *fakeUsers) Logout(ctx context.Context, email string) error {
	f.revoked = append(f.revoked, email)
	return nil
}

type fakeBlogs struct {
	blogs map[int]*entity.Blog
	all   bool
}

func newFakeBlogs() *fakeBlogs {
	return &fakeBlogs{blogs: map[int]*entity.Blog{
		1: {ID: 1, Title: "Hello", Slug: "hello", Content: "body", Published: true},
	}}
}

func (f *fakeBlogs) GetBlog(ctx context.Context, id int) (*entity.Blog, error) {
	blog, ok := f.blogs[id]
	if !ok {
		return nil, service.ErrBlogNotFound
	}
	return blog, nil
}

func (f *fakeBlogs) ListBlogs(ctx context.Context, publishedOnly bool) ([]*entity.Blog, error) {
	f.all = !publishedOnly
	out := []*entity.Blog{}
	for _, b := range f.blogs {
		out = append(out, b)
	}
	return out, nil
}

func (f *fakeBlogs) CreateBlog(ctx context.Context, blog *entity.Blog) (*entity.Blog, error) {
	if blog.Title == "" {
		return nil, service.ErrInvalidInput
	}
	slug := service.Slugify(blog.Title)
	for _, b := range f.blogs {
		if b.Slug == slug {
			return nil, service.ErrAlreadyExists
		}
	}
	blog.ID = len(f.blogs) + 1
	blog.Slug = slug
	f.blogs[blog.ID] = blog
	return blog, nil
}

func (f *fakeBlogs) UpdateBlog(ctx context.Context, id int, blog *entity.Blog) (*entity.Blog, error) {
	if _, ok := f.blogs[id]; !ok {
		return nil, service.ErrBlogNotFound
	}
	blog.ID = id
	f.blogs[id] = blog
	return blog, nil
}

func (f *fakeBlogs) DeleteBlog(ctx context.Context, id int) error {
	if _, ok := f.blogs[id]; !ok {
		return service.ErrBlogNotFound
	}
	delete(f.blogs, id)
	return nil
}

type testServer struct {
	e       *echo.Echo
	books   *fakeBooks
	blogs   *fakeBlogs
	users   *fakeUsers
	uploads *service.UploadService
	redis   *miniredis.Miniredis
}

// newTestServer mounts every route with a pass-through admin guard.
func newTestServer(t *testing.T) *testServer {
	t.Helper()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	books := newFakeBooks()
	users := &fakeUsers{token: "tkn"}
	uploads := service.NewUploadService(t.TempDir(), "/uploads", 1<<20, 50, 50)
	blogs := newFakeBlogs()

	e := echo.New()
	Register(e, Handlers{
		Books:   NewBookHandler(books),
		Blogs:   NewBlogHandler(blogs),
		Users:   NewUserHandler(users),
		Pricing: NewPricingHandler(service.NewPricingService(books, rdb, time.Minute)),
		Uploads: NewUploadHandler(uploads),
	})

	return &testServer{e: e, books: books, blogs: blogs, users: users, uploads: uploads, redis: mr}
}

func (s *testServer) do(method, target, body string, headers ...string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}
