package domain

import "time"

// Book is a catalog record managed through the admin forms.
type Book struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Author      string    `json:"author"`
	Description string    `json:"description,omitempty"`
	Price       float64   `json:"price"`
	Stock       int       `json:"stock"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// User is a registered account. IsStaff gates the admin routes and is
// only ever set out-of-band (direct database update), never via HTTP.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	IsStaff      bool      `json:"isStaff"`
	CreatedAt    time.Time `json:"createdAt"`
}

// CartLine is one cart entry: a book reference and a requested quantity.
type CartLine struct {
	BookID   string `json:"bookId"`
	Quantity int    `json:"quantity"`
}

// Cart holds the session's cart lines in insertion order.
type Cart []CartLine

// Add increments the quantity for bookID, appending a new line when the
// book is not in the cart yet. Quantities are not bounded by stock.
func (c Cart) Add(bookID string) Cart {
	for i := range c {
		if c[i].BookID == bookID {
			c[i].Quantity++
			return c
		}
	}
	return append(c, CartLine{BookID: bookID, Quantity: 1})
}

// Count returns the sum of all quantities, used for the catalog badge.
func (c Cart) Count() int {
	total := 0
	for _, line := range c {
		total += line.Quantity
	}
	return total
}

// Session is the server-held state bound to one client token. UserID is
// empty for anonymous sessions. Flashes are one-shot notices consumed on
// the next page render.
type Session struct {
	UserID  string   `json:"userId,omitempty"`
	Cart    Cart     `json:"cart,omitempty"`
	Flashes []string `json:"flashes,omitempty"`
}
