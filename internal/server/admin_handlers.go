package server

import (
	"net/http"
	"strconv"
	"strings"

	"bookshop/internal/app"
	"bookshop/internal/domain"
)

// handleAdminBooks dispatches /admin/books/, /admin/books/add/,
// /admin/books/{id}/edit/ and /admin/books/{id}/delete/. The staff gate
// has already run.
func (s *Server) handleAdminBooks(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/admin/books/")
	switch {
	case rest == "":
		s.handleAdminBookList(w, r)
	case rest == "add/":
		s.handleAdminBookCreate(w, r)
	default:
		parts := strings.SplitN(strings.TrimSuffix(rest, "/"), "/", 2)
		if len(parts) != 2 {
			http.NotFound(w, r)
			return
		}
		id, action := parts[0], parts[1]
		switch action {
		case "edit":
			s.handleAdminBookUpdate(w, r, id)
		case "delete":
			s.handleAdminBookDelete(w, r, id)
		default:
			http.NotFound(w, r)
		}
	}
}

func (s *Server) handleAdminBookList(w http.ResponseWriter, r *http.Request) {
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
	s.render(w, http.StatusOK, "admin_book_list.html", pageData{
		Title:     "Manage books",
		User:      optionalUser(user),
		CartCount: sess.Cart.Count(),
		Flashes:   s.popFlashes(w, token, &sess),
		Books:     books,
	})
}

func (s *Server) handleAdminBookCreate(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.renderBookForm(w, r, "Add book", "/admin/books/add/", nil, nil)
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		form := bookFormFromRequest(r)
		_, errs, err := s.app.CreateBook(form)
		if err != nil {
			s.serverError(w, r, err)
			return
		}
		if len(errs) > 0 {
			s.renderBookForm(w, r, "Add book", "/admin/books/add/", errs, formValues(form))
			return
		}
		s.flashAndRedirect(w, r, "Book added successfully.")
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleAdminBookUpdate(w http.ResponseWriter, r *http.Request, id string) {
	action := "/admin/books/" + id + "/edit/"
	switch r.Method {
	case http.MethodGet:
		book, err := s.app.GetBook(id)
		if err == app.ErrBookNotFound {
			http.NotFound(w, r)
			return
		}
		if err != nil {
			s.serverError(w, r, err)
			return
		}
		s.renderBookForm(w, r, "Edit book", action, nil, bookValues(book))
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		form := bookFormFromRequest(r)
		_, errs, err := s.app.UpdateBook(id, form)
		if err == app.ErrBookNotFound {
			http.NotFound(w, r)
			return
		}
		if err != nil {
			s.serverError(w, r, err)
			return
		}
		if len(errs) > 0 {
			s.renderBookForm(w, r, "Edit book", action, errs, formValues(form))
			return
		}
		s.flashAndRedirect(w, r, "Book updated successfully.")
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleAdminBookDelete(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if _, err := s.app.DeleteBook(id); err != nil {
		if err == app.ErrBookNotFound {
			http.NotFound(w, r)
			return
		}
		s.serverError(w, r, err)
		return
	}
	s.flashAndRedirect(w, r, "Book deleted successfully.")
}

func (s *Server) renderBookForm(w http.ResponseWriter, r *http.Request, title, action string, errs []string, values map[string]string) {
	token, sess := s.loadSession(r)
	user, _ := s.app.UserFromSession(sess)
	s.render(w, http.StatusOK, "admin_book_form.html", pageData{
		Title:      title,
		User:       optionalUser(user),
		CartCount:  sess.Cart.Count(),
		Flashes:    s.popFlashes(w, token, &sess),
		Errors:     errs,
		Form:       values,
		FormAction: action,
	})
}

func (s *Server) flashAndRedirect(w http.ResponseWriter, r *http.Request, notice string) {
	token, sess := s.loadSession(r)
	sess.Flashes = append(sess.Flashes, notice)
	if err := s.saveSession(w, token, sess); err != nil {
		s.serverError(w, r, err)
		return
	}
	http.Redirect(w, r, "/admin/books/", http.StatusSeeOther)
}

func bookFormFromRequest(r *http.Request) app.BookForm {
	return app.BookForm{
		Title:       r.PostFormValue("title"),
		Author:      r.PostFormValue("author"),
		Description: r.PostFormValue("description"),
		Price:       r.PostFormValue("price"),
		Stock:       r.PostFormValue("stock"),
	}
}

func formValues(form app.BookForm) map[string]string {
	return map[string]string{
		"title":       form.Title,
		"author":      form.Author,
		"description": form.Description,
		"price":       form.Price,
		"stock":       form.Stock,
	}
}

func bookValues(book domain.Book) map[string]string {
	return map[string]string{
		"title":       book.Title,
		"author":      book.Author,
		"description": book.Description,
		"price":       strconv.FormatFloat(book.Price, 'f', -1, 64),
		"stock":       strconv.Itoa(book.Stock),
	}
}
