package server

import (
	"fmt"
	"net/http"
	"strings"

	"bookshop/internal/app"
	"bookshop/internal/domain"
)

func (s *Server) handleBookList(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	books, err := s.app.ListBooks()
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	token, sess := s.loadSession(r)
	user, _ := s.app.UserFromSession(sess)
	s.render(w, http.StatusOK, "book_list.html", pageData{
		Title:     "Catalog",
		User:      optionalUser(user),
		CartCount: sess.Cart.Count(),
		Flashes:   s.popFlashes(w, token, &sess),
		Books:     books,
	})
}

func (s *Server) handleBookDetail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/book/"), "/")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}
	book, err := s.app.GetBook(id)
	if err == app.ErrBookNotFound {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	token, sess := s.loadSession(r)
	user, _ := s.app.UserFromSession(sess)
	s.render(w, http.StatusOK, "book_detail.html", pageData{
		Title:     book.Title,
		User:      optionalUser(user),
		CartCount: sess.Cart.Count(),
		Flashes:   s.popFlashes(w, token, &sess),
		Book:      &book,
	})
}

func (s *Server) handleAddToCart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/add-to-cart/"), "/")
	if id == "" || strings.Contains(id, "/") {
		http.NotFound(w, r)
		return
	}
	token, sess := s.loadSession(r)
	book, err := s.app.AddToCart(&sess, id)
	if err == app.ErrBookNotFound {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	sess.Flashes = append(sess.Flashes, fmt.Sprintf("Added %s to cart.", book.Title))
	if err := s.saveSession(w, token, sess); err != nil {
		s.serverError(w, r, err)
		return
	}
	target := r.Referer()
	if target == "" {
		target = "/"
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (s *Server) handleCart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	token, sess := s.loadSession(r)
	entries, total, err := s.app.CartContents(sess)
	if err == app.ErrBookNotFound {
		// A stale line whose book was deleted fails the whole view.
		http.NotFound(w, r)
		return
	}
	if err != nil {
		s.serverError(w, r, err)
		return
	}
	user, _ := s.app.UserFromSession(sess)
	s.render(w, http.StatusOK, "cart.html", pageData{
		Title:     "Your cart",
		User:      optionalUser(user),
		CartCount: sess.Cart.Count(),
		Flashes:   s.popFlashes(w, token, &sess),
		Entries:   entries,
		Total:     total,
	})
}

func optionalUser(user domain.User) *domain.User {
	if user.ID == "" {
		return nil
	}
	return &user
}
