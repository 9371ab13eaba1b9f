package store

import (
	"testing"
	"time"

	"bookshop/internal/domain"
)

func TestMemoryStoreBooksInsertionOrder(t *testing.T) {
	m := NewMemoryStore()
	for _, id := range []string{"b1", "b2", "b3"} {
		if err := m.SaveBook(domain.Book{ID: id, Title: "T " + id, Author: "A", CreatedAt: time.Now()}); err != nil {
			t.Fatalf("save book: %v", err)
		}
	}
	if err := m.DeleteBook("b2"); err != nil {
		t.Fatalf("delete book: %v", err)
	}
	books, err := m.ListBooks()
	if err != nil {
		t.Fatalf("list books: %v", err)
	}
	if len(books) != 2 || books[0].ID != "b1" || books[1].ID != "b3" {
		t.Fatalf("books = %v, want [b1 b3]", books)
	}
}

func TestMemoryStoreDeleteMissingBook(t *testing.T) {
	m := NewMemoryStore()
	if err := m.DeleteBook("nope"); err != ErrNotFound {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestMemoryStoreSaveBookUpdatesInPlace(t *testing.T) {
	m := NewMemoryStore()
	if err := m.SaveBook(domain.Book{ID: "b1", Title: "Old"}); err != nil {
		t.Fatalf("save book: %v", err)
	}
	if err := m.SaveBook(domain.Book{ID: "b1", Title: "New"}); err != nil {
		t.Fatalf("save book: %v", err)
	}
	books, err := m.ListBooks()
	if err != nil {
		t.Fatalf("list books: %v", err)
	}
	if len(books) != 1 || books[0].Title != "New" {
		t.Fatalf("books = %v, want single updated record", books)
	}
}

func TestMemoryStoreUsernameIndex(t *testing.T) {
	m := NewMemoryStore()
	if err := m.SaveUser(domain.User{ID: "u1", Username: "alice"}); err != nil {
		t.Fatalf("save user: %v", err)
	}
	taken, err := m.HasUsername("alice")
	if err != nil {
		t.Fatalf("has username: %v", err)
	}
	if !taken {
		t.Fatalf("expected alice to be taken")
	}
	user, ok, err := m.GetUserByUsername("alice")
	if err != nil || !ok {
		t.Fatalf("get by username: ok=%v err=%v", ok, err)
	}
	if user.ID != "u1" {
		t.Fatalf("user ID = %q, want u1", user.ID)
	}
	if _, ok, _ := m.GetUserByUsername("bob"); ok {
		t.Fatalf("bob should not exist")
	}
}
