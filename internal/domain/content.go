package domain

import (
	"time"

	"github.com/golden-fork/bistro"
)

// Article is a published blog post or news entry.
type Article struct {
	Slug          string           `json:"slug"`
	Title         string           `json:"title"`
	Excerpt       string           `json:"excerpt"`
	Content       string           `json:"content"`
	AuthorName    string           `json:"authorName"`
	Date          time.Time        `json:"date"`
	Modified      time.Time        `json:"modified"`
	Categories    []string         `json:"categories"`
	FeaturedImage *bistro.SEOImage `json:"featuredImage,omitempty"`
}

// ArticleSummary is the listing shape: no body content.
type ArticleSummary struct {
	Slug          string           `json:"slug"`
	Title         string           `json:"title"`
	Excerpt       string           `json:"excerpt"`
	Date          time.Time        `json:"date"`
	FeaturedImage *bistro.SEOImage `json:"featuredImage,omitempty"`
}

// Page is static site content (home, about, hours).
type Page struct {
	Slug     string    `json:"slug"`
	Title    string    `json:"title"`
	Content  string    `json:"content"`
	Modified time.Time `json:"modified"`
}

type Menu struct {
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Sections    []MenuSection `json:"sections"`
	Modified    time.Time     `json:"modified"`
}

type MenuSection struct {
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Items       []MenuItem `json:"items"`
}

type MenuItem struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Price       string `json:"price,omitempty"`
}

type FAQItem struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Promotion is time-bounded promotional content. Absence of active
// promotions is a valid state, not an error.
type Promotion struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	CouponCode  string           `json:"couponCode,omitempty"`
	Image       *bistro.SEOImage `json:"image,omitempty"`
	StartsAt    *time.Time       `json:"startsAt,omitempty"`
	EndsAt      *time.Time       `json:"endsAt,omitempty"`
}

// SitemapEntry is one public URL with its last modification time.
type SitemapEntry struct {
	URL      string    `json:"url"`
	Modified time.Time `json:"modified"`
}
