package domain

import (
	"fmt"
	"strings"
)

// Category classifies both alerts and points of interest.
type Category int

const (
	CategoryHealth Category = iota + 1
	CategorySecurity
	CategoryIncident
)

// Categories lists every category in display order.
var Categories = []Category{CategoryHealth, CategorySecurity, CategoryIncident}

// ParseCategory accepts the English name or the backend (Spanish) name.
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "health", "salud":
		return CategoryHealth, nil
	case "security", "seguridad":
		return CategorySecurity, nil
	case "incident", "siniestro":
		return CategoryIncident, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidCategory, s)
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryHealth, CategorySecurity, CategoryIncident:
		return true
	}
	return false
}

func (c Category) String() string {
	switch c {
	case CategoryHealth:
		return "health"
	case CategorySecurity:
		return "security"
	case CategoryIncident:
		return "incident"
	}
	return fmt.Sprintf("Category(%d)", int(c))
}

// BackendName is the spelling used by the REST backend.
func (c Category) BackendName() string {
	switch c {
	case CategoryHealth:
		return "salud"
	case CategorySecurity:
		return "seguridad"
	case CategoryIncident:
		return "siniestro"
	}
	return ""
}

// Marker describes how a category is drawn on the map.
type Marker struct {
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

// PointMarker returns the presentation of a point of interest of this category.
func (c Category) PointMarker() Marker {
	switch c {
	case CategoryHealth:
		return Marker{Icon: "hospital-box", Color: "#16a34a"}
	case CategorySecurity:
		return Marker{Icon: "shield-check", Color: "#3b82f6"}
	case CategoryIncident:
		return Marker{Icon: "fire-truck", Color: "#f97316"}
	}
	return Marker{Icon: "map-marker", Color: "#6b7280"}
}

// AlertMarker returns the presentation of an alert of this category.
func (c Category) AlertMarker() Marker {
	switch c {
	case CategoryHealth:
		return Marker{Icon: "heart-pulse", Color: "#ef4444"}
	case CategorySecurity:
		return Marker{Icon: "shield-alert", Color: "#f59e0b"}
	case CategoryIncident:
		return Marker{Icon: "fire", Color: "#dc2626"}
	}
	return Marker{Icon: "alert", Color: "#6b7280"}
}

func (c Category) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return []byte("unknown"), nil
	}
	return []byte(c.String()), nil
}

func (c *Category) UnmarshalText(b []byte) error {
	parsed, err := ParseCategory(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// CategoryFilter selects either every category or exactly one.
// The zero value is FilterAll.
type CategoryFilter struct {
	category Category
}

// FilterAll matches every category.
var FilterAll = CategoryFilter{}

// FilterBy returns a filter matching only c.
func FilterBy(c Category) CategoryFilter {
	return CategoryFilter{category: c}
}

// ParseCategoryFilter accepts "all" (or an empty string) and any category name.
func ParseCategoryFilter(s string) (CategoryFilter, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == "all" || s == "todos" {
		return FilterAll, nil
	}
	c, err := ParseCategory(s)
	if err != nil {
		return FilterAll, err
	}
	return FilterBy(c), nil
}

// All reports whether the filter is a no-op.
func (f CategoryFilter) All() bool {
	return f.category == 0
}

// Category returns the selected category; ok is false for FilterAll.
func (f CategoryFilter) Category() (c Category, ok bool) {
	return f.category, f.category != 0
}

// Matches reports whether c passes the filter.
func (f CategoryFilter) Matches(c Category) bool {
	return f.All() || f.category == c
}

func (f CategoryFilter) String() string {
	if f.All() {
		return "all"
	}
	return f.category.String()
}

func (f CategoryFilter) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

func (f *CategoryFilter) UnmarshalText(b []byte) error {
	parsed, err := ParseCategoryFilter(string(b))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}
