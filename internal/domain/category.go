package domain

import "fmt"

// Category is a guidance topic. The empty category means general guidance.
type Category string

const (
	CategoryNone    Category = ""
	CategoryLove    Category = "love"
	CategoryCareer  Category = "career"
	CategoryGrowth  Category = "growth"
	CategoryHealing Category = "healing"
)

// Categories lists the browsable tiles in display order.
var Categories = []Category{CategoryLove, CategoryCareer, CategoryGrowth, CategoryHealing}

var categoryTitles = map[Category]string{
	CategoryLove:    "💞 Love",
	CategoryCareer:  "💼 Career",
	CategoryGrowth:  "🌱 Growth",
	CategoryHealing: "🕊 Healing",
}

func ParseCategory(s string) (Category, error) {
	if s == "" || s == "none" {
		return CategoryNone, nil
	}
	c := Category(s)
	if _, ok := categoryTitles[c]; !ok {
		return CategoryNone, fmt.Errorf("%w: %q", ErrUnknownCategory, s)
	}
	return c, nil
}

// Premium reports whether the category is reserved for premium subscribers.
func (c Category) Premium() bool {
	return c == CategoryGrowth || c == CategoryHealing
}

func (c Category) Title() string {
	if t, ok := categoryTitles[c]; ok {
		return t
	}
	return "General"
}
