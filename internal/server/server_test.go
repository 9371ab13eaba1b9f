package server

import (
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"bookshop/internal/app"
	"bookshop/internal/auth"
	"bookshop/internal/domain"
	"bookshop/internal/store"
)

type testEnv struct {
	srv   *httptest.Server
	store *store.MemoryStore
	app   *app.App
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dataStore := store.NewMemoryStore()
	appCore, err := app.New(app.Config{
		Store:    dataStore,
		Sessions: store.NewMemorySessionStore(),
	})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	redis := miniredis.RunT(t)
	s, err := New(Config{
		App:       appCore,
		RedisAddr: redis.Addr(),
	})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	srv := httptest.NewServer(s.Router())
	t.Cleanup(srv.Close)
	return &testEnv{srv: srv, store: dataStore, app: appCore}
}

// newClient returns a cookie-carrying client that does not follow
// redirects, so tests can assert on them.
func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("new cookie jar: %v", err)
	}
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func (e *testEnv) seedStaff(t *testing.T, username, password string) {
	t.Helper()
	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if err := e.store.SaveUser(domain.User{
		ID:           "staff-" + username,
		Username:     username,
		PasswordHash: hash,
		IsStaff:      true,
		CreatedAt:    time.Now().UTC(),
	}); err != nil {
		t.Fatalf("save user: %v", err)
	}
}

func postForm(t *testing.T, client *http.Client, url string, values url.Values) *http.Response {
	t.Helper()
	resp, err := client.PostForm(url, values)
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	return resp
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(body)
}

func login(t *testing.T, client *http.Client, base, username, password string) {
	t.Helper()
	resp := postForm(t, client, base+"/login/", url.Values{
		"username": {username},
		"password": {password},
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("login expected redirect, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/" {
		t.Fatalf("login redirect = %q, want /", loc)
	}
}

func TestRegisterLoginBrowseCartEndToEnd(t *testing.T) {
	env := newTestEnv(t)
	env.seedStaff(t, "admin", "adminpw")

	staff := newClient(t)
	login(t, staff, env.srv.URL, "admin", "adminpw")

	// Staff creates the book through the admin form.
	resp := postForm(t, staff, env.srv.URL+"/admin/books/add/", url.Values{
		"title":  {"T"},
		"author": {"A"},
		"price":  {"9.99"},
		"stock":  {"5"},
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("create book expected redirect, got %d", resp.StatusCode)
	}
	books, err := env.app.ListBooks()
	if err != nil || len(books) != 1 {
		t.Fatalf("books = %v err = %v, want one book", books, err)
	}
	bookID := books[0].ID

	// The book shows up on the admin listing and the public catalog.
	resp, err = staff.Get(env.srv.URL + "/admin/books/")
	if err != nil {
		t.Fatalf("admin list: %v", err)
	}
	if body := readBody(t, resp); !strings.Contains(body, "T") || !strings.Contains(body, "Book added successfully.") {
		t.Fatalf("admin list missing book or flash:\n%s", body)
	}

	// A fresh visitor registers and logs in.
	shopper := newClient(t)
	resp = postForm(t, shopper, env.srv.URL+"/register/", url.Values{
		"username":         {"alice"},
		"password":         {"pw"},
		"password_confirm": {"pw"},
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/login/" {
		t.Fatalf("register expected redirect to /login/, got %d %q", resp.StatusCode, resp.Header.Get("Location"))
	}
	resp, err = shopper.Get(env.srv.URL + "/login/")
	if err != nil {
		t.Fatalf("login page: %v", err)
	}
	if body := readBody(t, resp); !strings.Contains(body, "Registration successful. Please login.") {
		t.Fatalf("login page missing registration flash:\n%s", body)
	}
	login(t, shopper, env.srv.URL, "alice", "pw")

	// Catalog shows the book and an empty cart badge.
	resp, err = shopper.Get(env.srv.URL + "/")
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	if body := readBody(t, resp); !strings.Contains(body, "Cart (0)") || !strings.Contains(body, "9.99") {
		t.Fatalf("catalog missing badge or book:\n%s", body)
	}

	// Add to cart twice.
	for i := 0; i < 2; i++ {
		resp = postForm(t, shopper, env.srv.URL+"/add-to-cart/"+bookID+"/", nil)
		resp.Body.Close()
		if resp.StatusCode != http.StatusSeeOther {
			t.Fatalf("add to cart expected redirect, got %d", resp.StatusCode)
		}
		if loc := resp.Header.Get("Location"); loc != "/" {
			t.Fatalf("add to cart without referer should go to /, got %q", loc)
		}
	}

	// Cart shows quantity 2, subtotal 19.98, and the badge counts both.
	resp, err = shopper.Get(env.srv.URL + "/cart/")
	if err != nil {
		t.Fatalf("cart: %v", err)
	}
	body := readBody(t, resp)
	for _, want := range []string{"Cart (2)", "<td>2</td>", "$19.98", "Total: $19.98"} {
		if !strings.Contains(body, want) {
			t.Fatalf("cart missing %q:\n%s", want, body)
		}
	}
}

func TestAddToCartRedirectsToReferer(t *testing.T) {
	env := newTestEnv(t)
	book, errs, err := env.app.CreateBook(app.BookForm{Title: "T", Author: "A", Price: "1.00", Stock: "1"})
	if err != nil || len(errs) > 0 {
		t.Fatalf("create book: %v %v", err, errs)
	}

	client := newClient(t)
	req, err := http.NewRequest(http.MethodPost, env.srv.URL+"/add-to-cart/"+book.ID+"/", strings.NewReader(""))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Referer", "/book/"+book.ID+"/")
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("add to cart: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("expected redirect, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/book/"+book.ID+"/" {
		t.Fatalf("redirect = %q, want referring page", loc)
	}
}

func TestAddToCartUnknownBookIs404(t *testing.T) {
	env := newTestEnv(t)
	client := newClient(t)
	resp := postForm(t, client, env.srv.URL+"/add-to-cart/nope/", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestCartViewFailsWhenBookDeleted(t *testing.T) {
	env := newTestEnv(t)
	book, errs, err := env.app.CreateBook(app.BookForm{Title: "T", Author: "A", Price: "1.00", Stock: "1"})
	if err != nil || len(errs) > 0 {
		t.Fatalf("create book: %v %v", err, errs)
	}

	client := newClient(t)
	resp := postForm(t, client, env.srv.URL+"/add-to-cart/"+book.ID+"/", nil)
	resp.Body.Close()

	if _, err := env.app.DeleteBook(book.ID); err != nil {
		t.Fatalf("delete book: %v", err)
	}
	resp, err = client.Get(env.srv.URL + "/cart/")
	if err != nil {
		t.Fatalf("cart: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("stale cart line should fail the whole view with 404, got %d", resp.StatusCode)
	}
}

func TestAdminRoutesRedirectNonStaffToLogin(t *testing.T) {
	env := newTestEnv(t)

	// Anonymous visitor.
	anon := newClient(t)
	for _, path := range []string{"/admin/books/", "/admin/books/add/", "/admin/books/x/edit/", "/admin/books/x/delete/"} {
		resp, err := anon.Get(env.srv.URL + path)
		if err != nil {
			t.Fatalf("get %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusFound || resp.Header.Get("Location") != "/login/" {
			t.Fatalf("%s expected redirect to /login/, got %d %q", path, resp.StatusCode, resp.Header.Get("Location"))
		}
	}

	// Authenticated but non-staff user gets the same redirect, never a 403.
	shopper := newClient(t)
	resp := postForm(t, shopper, env.srv.URL+"/register/", url.Values{
		"username":         {"bob"},
		"password":         {"pw"},
		"password_confirm": {"pw"},
	})
	resp.Body.Close()
	login(t, shopper, env.srv.URL, "bob", "pw")

	resp, err := shopper.Get(env.srv.URL + "/admin/books/")
	if err != nil {
		t.Fatalf("admin list: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusFound || resp.Header.Get("Location") != "/login/" {
		t.Fatalf("non-staff expected redirect to /login/, got %d %q", resp.StatusCode, resp.Header.Get("Location"))
	}
}

func TestAdminCreateValidationRedisplaysForm(t *testing.T) {
	env := newTestEnv(t)
	env.seedStaff(t, "admin", "adminpw")
	client := newClient(t)
	login(t, client, env.srv.URL, "admin", "adminpw")

	resp := postForm(t, client, env.srv.URL+"/admin/books/add/", url.Values{
		"title":  {"T"},
		"author": {"A"},
		"price":  {"-1"},
		"stock":  {"5"},
	})
	body := readBody(t, resp)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected form redisplay, got %d", resp.StatusCode)
	}
	if !strings.Contains(body, "Price must be non-negative.") {
		t.Fatalf("missing price error:\n%s", body)
	}
	if strings.Contains(body, "Invalid price.") {
		t.Fatalf("negative price must not also report a parse error:\n%s", body)
	}
	if !strings.Contains(body, `value="-1"`) {
		t.Fatalf("submitted price should be redisplayed:\n%s", body)
	}
	books, err := env.app.ListBooks()
	if err != nil {
		t.Fatalf("list books: %v", err)
	}
	if len(books) != 0 {
		t.Fatalf("invalid book must not persist, got %v", books)
	}

	resp = postForm(t, client, env.srv.URL+"/admin/books/add/", url.Values{
		"title":  {"T"},
		"author": {"A"},
		"price":  {"abc"},
		"stock":  {"5"},
	})
	body = readBody(t, resp)
	if !strings.Contains(body, "Invalid price.") {
		t.Fatalf("missing parse error:\n%s", body)
	}
}

func TestAdminEditAndDelete(t *testing.T) {
	env := newTestEnv(t)
	env.seedStaff(t, "admin", "adminpw")
	client := newClient(t)
	login(t, client, env.srv.URL, "admin", "adminpw")

	book, errs, err := env.app.CreateBook(app.BookForm{Title: "Old", Author: "A", Price: "2.00", Stock: "1"})
	if err != nil || len(errs) > 0 {
		t.Fatalf("create book: %v %v", err, errs)
	}

	// Edit form comes pre-filled.
	resp, err := client.Get(env.srv.URL + "/admin/books/" + book.ID + "/edit/")
	if err != nil {
		t.Fatalf("edit form: %v", err)
	}
	if body := readBody(t, resp); !strings.Contains(body, `value="Old"`) {
		t.Fatalf("edit form not pre-filled:\n%s", body)
	}

	resp = postForm(t, client, env.srv.URL+"/admin/books/"+book.ID+"/edit/", url.Values{
		"title":  {"New"},
		"author": {"A"},
		"price":  {"3.00"},
		"stock":  {"2"},
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("update expected redirect, got %d", resp.StatusCode)
	}
	got, err := env.app.GetBook(book.ID)
	if err != nil || got.Title != "New" {
		t.Fatalf("book = %+v err = %v, want updated title", got, err)
	}

	resp = postForm(t, client, env.srv.URL+"/admin/books/"+book.ID+"/delete/", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("delete expected redirect, got %d", resp.StatusCode)
	}
	if _, err := env.app.GetBook(book.ID); err != app.ErrBookNotFound {
		t.Fatalf("book should be gone, got err %v", err)
	}

	// Deleting again is a 404.
	resp = postForm(t, client, env.srv.URL+"/admin/books/"+book.ID+"/delete/", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("second delete expected 404, got %d", resp.StatusCode)
	}
}

func TestLoginInvalidCredentialsGenericError(t *testing.T) {
	env := newTestEnv(t)
	env.seedStaff(t, "admin", "adminpw")
	client := newClient(t)

	for _, creds := range []url.Values{
		{"username": {"admin"}, "password": {"wrong"}},
		{"username": {"ghost"}, "password": {"whatever"}},
	} {
		resp := postForm(t, client, env.srv.URL+"/login/", creds)
		body := readBody(t, resp)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected form redisplay, got %d", resp.StatusCode)
		}
		if !strings.Contains(body, "Invalid username or password.") {
			t.Fatalf("missing generic error:\n%s", body)
		}
	}
}

func TestLogoutDiscardsSession(t *testing.T) {
	env := newTestEnv(t)
	env.seedStaff(t, "admin", "adminpw")
	client := newClient(t)
	login(t, client, env.srv.URL, "admin", "adminpw")

	resp, err := client.Get(env.srv.URL + "/logout/")
	if err != nil {
		t.Fatalf("logout: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusFound || resp.Header.Get("Location") != "/login/" {
		t.Fatalf("logout expected redirect to /login/, got %d %q", resp.StatusCode, resp.Header.Get("Location"))
	}

	// Admin routes are gated again.
	resp, err = client.Get(env.srv.URL + "/admin/books/")
	if err != nil {
		t.Fatalf("admin list: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected gate redirect after logout, got %d", resp.StatusCode)
	}

	// Logout while logged out is fine.
	resp, err = client.Get(env.srv.URL + "/logout/")
	if err != nil {
		t.Fatalf("second logout: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("logout should be idempotent, got %d", resp.StatusCode)
	}
}

func TestRegisterRateLimited(t *testing.T) {
	env := newTestEnv(t)
	client := newClient(t)

	// The default register quota is 5 per minute per client IP.
	var last int
	for i := 0; i < 6; i++ {
		resp := postForm(t, client, env.srv.URL+"/register/", url.Values{
			"username": {""}, "password": {""}, "password_confirm": {""},
		})
		resp.Body.Close()
		last = resp.StatusCode
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("sixth register attempt expected 429, got %d", last)
	}
}

func TestRegisterRedisplaysSubmittedData(t *testing.T) {
	env := newTestEnv(t)
	client := newClient(t)

	resp := postForm(t, client, env.srv.URL+"/register/", url.Values{
		"username":         {"alice"},
		"password":         {"one"},
		"password_confirm": {"two"},
	})
	body := readBody(t, resp)
	if !strings.Contains(body, "Passwords do not match.") {
		t.Fatalf("missing mismatch error:\n%s", body)
	}
	if !strings.Contains(body, `value="alice"`) {
		t.Fatalf("username should be redisplayed:\n%s", body)
	}
}
