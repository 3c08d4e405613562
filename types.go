package bistro

import (
	"encoding/json"
	"time"
)

// ContentQuery describes a single named operation against the content
// backend. It is built per call site and never mutated.
type ContentQuery struct {
	Operation string
	Document  string
	// Entity is the root field of the response's data object that holds
	// the requested entity.
	Entity    string
	Variables map[string]any
	Cache     CachePolicy
	// OptionalEntity declares absence a valid outcome: a null entity
	// yields a nil payload instead of a not-found error.
	OptionalEntity bool
}

// CachePolicy controls result caching in the query client. A zero TTL
// bypasses the cache entirely.
type CachePolicy struct {
	TTL  time.Duration
	Tags []string
}

// RawSEORecord is the optional per-entity SEO block supplied by the
// backend. Every field may be absent; absence is distinct from empty.
type RawSEORecord struct {
	Title                *string    `json:"title,omitempty"`
	MetaDesc             *string    `json:"metaDesc,omitempty"`
	Canonical            *string    `json:"canonical,omitempty"`
	MetaKeywords         *string    `json:"metaKeywords,omitempty"`
	MetaRobotsNoindex    *bool      `json:"metaRobotsNoindex,omitempty"`
	MetaRobotsNofollow   *bool      `json:"metaRobotsNofollow,omitempty"`
	OpengraphTitle       *string    `json:"opengraphTitle,omitempty"`
	OpengraphDescription *string    `json:"opengraphDescription,omitempty"`
	OpengraphImage       *SEOImage  `json:"opengraphImage,omitempty"`
	TwitterTitle         *string    `json:"twitterTitle,omitempty"`
	TwitterDescription   *string    `json:"twitterDescription,omitempty"`
	TwitterImage         *SEOImage  `json:"twitterImage,omitempty"`
	Schema               *RawSchema `json:"schema,omitempty"`
	FullHead             *string    `json:"fullHead,omitempty"`
}

type SEOImage struct {
	URL    string `json:"url"`
	Alt    string `json:"alt,omitempty"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// RawSchema carries the backend's JSON-LD document as an opaque string.
// It is revalidated before anything is emitted from it.
type RawSchema struct {
	Raw string `json:"raw"`
}

// ResolvedSEOMetadata is the only metadata shape presentation code may
// consume. All fields are populated; title and description are never
// empty.
type ResolvedSEOMetadata struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Canonical   string     `json:"canonical"`
	Keywords    []string   `json:"keywords"`
	Robots      Robots     `json:"robots"`
	OpenGraph   SocialCard `json:"openGraph"`
	Twitter     SocialCard `json:"twitter"`
}

type Robots struct {
	Index  bool `json:"index"`
	Follow bool `json:"follow"`
}

// SocialCard holds one OpenGraph or Twitter block. Image is nil when no
// source exists; an empty image URL is never emitted.
type SocialCard struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Image       *SEOImage `json:"image,omitempty"`
}

// StructuredData is a JSON-LD document guaranteed to be re-parseable.
type StructuredData = json.RawMessage
