package app

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"bookshop/internal/auth"
	"bookshop/internal/domain"
	"bookshop/internal/store"
)

// Config holds runtime configuration for the core application.
type Config struct {
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	SessionTTL    time.Duration
	Store         store.Store
	Sessions      store.SessionStore
}

// App is the core application service wiring together persistence and
// domain logic for the shop.
type App struct {
	store    store.Store
	sessions store.SessionStore
}

// New constructs the application. Unless injected, the data store is
// Postgres via GORM and the session store is Redis.
func New(cfg Config) (*App, error) {
	if cfg.SessionTTL == 0 {
		cfg.SessionTTL = 24 * time.Hour
	}

	dataStore := cfg.Store
	if dataStore == nil {
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("database URL required")
		}
		var err error
		dataStore, err = store.NewGormStore(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("init postgres store: %w", err)
		}
	}

	sessionStore := cfg.Sessions
	if sessionStore == nil {
		if cfg.RedisAddr == "" {
			return nil, fmt.Errorf("redis addr required for session store")
		}
		sessionStore = store.NewRedisSessionStore(cfg.RedisAddr, cfg.RedisPassword, cfg.SessionTTL)
	}

	return &App{
		store:    dataStore,
		sessions: sessionStore,
	}, nil
}

// Sessions exposes the session store for the HTTP layer.
func (a *App) Sessions() store.SessionStore {
	return a.sessions
}

// RegistrationForm carries raw registration input.
type RegistrationForm struct {
	Username        string
	Password        string
	PasswordConfirm string
}

// validateRegistration collects all failures in order rather than
// stopping at the first one, so the form can show the complete list.
func (a *App) validateRegistration(form RegistrationForm) ([]string, error) {
	var errs []string
	if form.Username == "" {
		errs = append(errs, "Username is required.")
	}
	if form.Password == "" {
		errs = append(errs, "Password is required.")
	}
	if form.Password != form.PasswordConfirm {
		errs = append(errs, "Passwords do not match.")
	}
	taken, err := a.store.HasUsername(form.Username)
	if err != nil {
		return nil, fmt.Errorf("check username: %w", err)
	}
	if taken {
		errs = append(errs, "Username already exists.")
	}
	return errs, nil
}

// Register creates a new non-staff user. A non-empty message list means
// validation failed and nothing was persisted.
func (a *App) Register(form RegistrationForm) (domain.User, []string, error) {
	errs, err := a.validateRegistration(form)
	if err != nil {
		return domain.User{}, nil, err
	}
	if len(errs) > 0 {
		return domain.User{}, errs, nil
	}
	hash, err := auth.HashPassword(form.Password)
	if err != nil {
		return domain.User{}, nil, fmt.Errorf("hash password: %w", err)
	}
	user := domain.User{
		ID:           uuid.NewString(),
		Username:     form.Username,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := a.store.SaveUser(user); err != nil {
		return domain.User{}, nil, fmt.Errorf("save user: %w", err)
	}
	return user, nil, nil
}

// Login validates credentials. Unknown usernames and wrong passwords
// both yield ErrInvalidCredentials.
func (a *App) Login(username, password string) (domain.User, error) {
	user, ok, err := a.store.GetUserByUsername(username)
	if err != nil {
		return domain.User{}, fmt.Errorf("fetch user: %w", err)
	}
	if !ok {
		return domain.User{}, ErrInvalidCredentials
	}
	if !auth.CheckPassword(password, user.PasswordHash) {
		return domain.User{}, ErrInvalidCredentials
	}
	return user, nil
}

// UserFromSession resolves the session's authenticated user, if any.
func (a *App) UserFromSession(sess domain.Session) (domain.User, bool) {
	if sess.UserID == "" {
		return domain.User{}, false
	}
	user, ok, err := a.store.GetUserByID(sess.UserID)
	if err != nil || !ok {
		return domain.User{}, false
	}
	return user, true
}

// ListBooks returns the whole catalog. No filtering or pagination.
func (a *App) ListBooks() ([]domain.Book, error) {
	return a.store.ListBooks()
}

// GetBook returns one book or ErrBookNotFound.
func (a *App) GetBook(id string) (domain.Book, error) {
	book, ok, err := a.store.GetBook(id)
	if err != nil {
		return domain.Book{}, fmt.Errorf("fetch book: %w", err)
	}
	if !ok {
		return domain.Book{}, ErrBookNotFound
	}
	return book, nil
}

// AddToCart increments the session cart quantity for the book by one,
// after verifying the book exists. Quantities are not checked against
// stock. The caller is responsible for persisting the session.
func (a *App) AddToCart(sess *domain.Session, bookID string) (domain.Book, error) {
	book, err := a.GetBook(bookID)
	if err != nil {
		return domain.Book{}, err
	}
	sess.Cart = sess.Cart.Add(book.ID)
	return book, nil
}

// CartEntry is one rendered cart row with live book data.
type CartEntry struct {
	Book     domain.Book
	Quantity int
	Subtotal float64
}

// CartContents resolves every cart line against the live catalog, in
// insertion order. Prices are read fresh, never cached. A line whose
// book no longer exists fails the whole view with ErrBookNotFound.
func (a *App) CartContents(sess domain.Session) ([]CartEntry, float64, error) {
	entries := make([]CartEntry, 0, len(sess.Cart))
	total := 0.0
	for _, line := range sess.Cart {
		book, err := a.GetBook(line.BookID)
		if err != nil {
			return nil, 0, err
		}
		subtotal := book.Price * float64(line.Quantity)
		entries = append(entries, CartEntry{
			Book:     book,
			Quantity: line.Quantity,
			Subtotal: subtotal,
		})
		total += subtotal
	}
	return entries, total, nil
}

// BookForm carries raw admin form input; price and stock arrive as the
// submitted strings so failed parses can be redisplayed verbatim.
type BookForm struct {
	Title       string
	Author      string
	Description string
	Price       string
	Stock       string
}

// CreateBook validates and persists a new catalog entry. A non-empty
// message list means validation failed and nothing was persisted.
func (a *App) CreateBook(form BookForm) (domain.Book, []string, error) {
	price, stock, errs := validateBookForm(form)
	if len(errs) > 0 {
		return domain.Book{}, errs, nil
	}
	now := time.Now().UTC()
	book := domain.Book{
		ID:          uuid.NewString(),
		Title:       form.Title,
		Author:      form.Author,
		Description: form.Description,
		Price:       price,
		Stock:       stock,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := a.store.SaveBook(book); err != nil {
		return domain.Book{}, nil, fmt.Errorf("save book: %w", err)
	}
	return book, nil, nil
}

// UpdateBook overwrites all five fields of an existing book, even
// unchanged ones. Returns ErrBookNotFound when the ID is absent.
func (a *App) UpdateBook(id string, form BookForm) (domain.Book, []string, error) {
	book, err := a.GetBook(id)
	if err != nil {
		return domain.Book{}, nil, err
	}
	price, stock, errs := validateBookForm(form)
	if len(errs) > 0 {
		return domain.Book{}, errs, nil
	}
	book.Title = form.Title
	book.Author = form.Author
	book.Description = form.Description
	book.Price = price
	book.Stock = stock
	book.UpdatedAt = time.Now().UTC()
	if err := a.store.SaveBook(book); err != nil {
		return domain.Book{}, nil, fmt.Errorf("save book: %w", err)
	}
	return book, nil, nil
}

// DeleteBook removes a book unconditionally. Sessions whose carts still
// reference it are left alone; their cart views will fail until the
// session expires.
func (a *App) DeleteBook(id string) (domain.Book, error) {
	book, err := a.GetBook(id)
	if err != nil {
		return domain.Book{}, err
	}
	if err := a.store.DeleteBook(id); err != nil {
		if err == store.ErrNotFound {
			return domain.Book{}, ErrBookNotFound
		}
		return domain.Book{}, fmt.Errorf("delete book: %w", err)
	}
	return book, nil
}
