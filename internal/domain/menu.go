package domain

import "strings"

// MenuItem is one dish or drink. Price is in whole currency units.
type MenuItem struct {
	ID          int64
	Category    string
	Name        string
	Description string
	Price       int
	Available   bool
}

// InCategory matches category case-insensitively; an empty category matches everything.
func (m MenuItem) InCategory(category string) bool {
	category = strings.TrimSpace(category)
	return category == "" || strings.EqualFold(m.Category, category)
}
