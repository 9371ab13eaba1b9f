package app

import "strconv"

// validateBookForm checks the shared create/update rules. All failures
// are collected so the admin form can show them together. Parse failures
// and negative values produce distinct messages.
func validateBookForm(form BookForm) (price float64, stock int, errs []string) {
	if form.Title == "" {
		errs = append(errs, "Title is required.")
	}
	if form.Author == "" {
		errs = append(errs, "Author is required.")
	}
	price, err := strconv.ParseFloat(form.Price, 64)
	if err != nil {
		errs = append(errs, "Invalid price.")
	} else if price < 0 {
		errs = append(errs, "Price must be non-negative.")
	}
	stock, err = strconv.Atoi(form.Stock)
	if err != nil {
		errs = append(errs, "Invalid stock.")
	} else if stock < 0 {
		errs = append(errs, "Stock must be non-negative.")
	}
	return price, stock, errs
}
