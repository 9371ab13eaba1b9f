package store

import "bookshop/internal/domain"

// Store defines persistence operations for users and books.
type Store interface {
	// users
	SaveUser(domain.User) error
	HasUsername(username string) (bool, error)
	GetUserByUsername(username string) (domain.User, bool, error)
	GetUserByID(id string) (domain.User, bool, error)

	// books
	SaveBook(domain.Book) error
	ListBooks() ([]domain.Book, error)
	GetBook(id string) (domain.Book, bool, error)
	DeleteBook(id string) error
}

// SessionStore persists per-token session state (auth identity, cart,
// flash notices).
type SessionStore interface {
	Get(token string) (domain.Session, bool, error)
	Save(token string, sess domain.Session) error
	Delete(token string) error
}
