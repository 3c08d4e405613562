// Package seo reconciles backend-supplied SEO records against local
// fallbacks. Resolution never fails: any input, including a fully
// absent record, produces a fully populated metadata object.
package seo

import (
	"strings"

	"github.com/golden-fork/bistro"
	"github.com/golden-fork/bistro/rewrite"
)

// Last-resort constants. A page is never rendered with a blank title
// or description, even when both the backend and the caller supply
// nothing.
const (
	DefaultTitle       = "Golden Fork Bistro"
	DefaultDescription = "Seasonal plates and wood-fired mains from the Golden Fork kitchen."
)

// Fallback carries the caller's deterministic per-page fallbacks.
type Fallback struct {
	Title       string
	Description string
}

type Resolver struct {
	public string
	rw     *rewrite.Rewriter
}

func NewResolver(internalOrigin, publicOrigin string) *Resolver {
	return &Resolver{
		public: bistro.NormalizeOrigin(publicOrigin),
		rw:     rewrite.New(internalOrigin, publicOrigin),
	}
}

// Resolve applies the field precedence rules and returns sanitized,
// fully populated metadata. raw may be nil. route is the public path of
// the page and feeds the computed canonical default. featured is the
// entity's own image, used as the last image source on article-type
// pages; pass nil elsewhere.
func (r *Resolver) Resolve(raw *bistro.RawSEORecord, fb Fallback, route string, featured *bistro.SEOImage) bistro.ResolvedSEOMetadata {
	if raw == nil {
		raw = &bistro.RawSEORecord{}
	}
	if fb.Title == "" {
		fb.Title = DefaultTitle
	}
	if fb.Description == "" {
		fb.Description = DefaultDescription
	}

	ogTitle := bistro.FirstNonEmpty(deref(raw.OpengraphTitle), deref(raw.Title), fb.Title)
	ogDesc := bistro.FirstNonEmpty(deref(raw.OpengraphDescription), deref(raw.MetaDesc), fb.Description)
	ogImage := firstImage(raw.OpengraphImage, featured)

	resolved := bistro.ResolvedSEOMetadata{
		Title:       bistro.FirstNonEmpty(deref(raw.Title), fb.Title),
		Description: bistro.FirstNonEmpty(deref(raw.MetaDesc), fb.Description),
		Canonical:   bistro.FirstNonEmpty(deref(raw.Canonical), bistro.ComposeURL(r.public, route)),
		Keywords:    splitKeywords(deref(raw.MetaKeywords)),
		Robots: bistro.Robots{
			// Absent robots directives must never produce a noindex page.
			Index:  raw.MetaRobotsNoindex == nil || !*raw.MetaRobotsNoindex,
			Follow: raw.MetaRobotsNofollow == nil || !*raw.MetaRobotsNofollow,
		},
		OpenGraph: bistro.SocialCard{
			Title:       ogTitle,
			Description: ogDesc,
			Image:       ogImage,
		},
		Twitter: bistro.SocialCard{
			Title:       bistro.FirstNonEmpty(deref(raw.TwitterTitle), ogTitle),
			Description: bistro.FirstNonEmpty(deref(raw.TwitterDescription), ogDesc),
			Image:       firstImage(raw.TwitterImage, ogImage),
		},
	}

	return r.sanitize(resolved)
}

// sanitize passes every outbound string through the origin rewriter.
// Canonical and image URLs frequently arrive carrying the backend's
// internal origin.
func (r *Resolver) sanitize(m bistro.ResolvedSEOMetadata) bistro.ResolvedSEOMetadata {
	m.Title = r.rw.String(m.Title)
	m.Description = r.rw.String(m.Description)
	m.Canonical = r.rw.String(m.Canonical)
	for i, kw := range m.Keywords {
		m.Keywords[i] = r.rw.String(kw)
	}
	m.OpenGraph = r.sanitizeCard(m.OpenGraph)
	m.Twitter = r.sanitizeCard(m.Twitter)
	return m
}

func (r *Resolver) sanitizeCard(card bistro.SocialCard) bistro.SocialCard {
	card.Title = r.rw.String(card.Title)
	card.Description = r.rw.String(card.Description)
	card.Image = r.rw.Image(card.Image)
	return card
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// firstImage returns the first candidate with a URL, or nil. The
// renderer omits the tag entirely for nil; it never sees an empty URL.
func firstImage(candidates ...*bistro.SEOImage) *bistro.SEOImage {
	for _, img := range candidates {
		if img != nil && img.URL != "" {
			return img
		}
	}
	return nil
}

func splitKeywords(raw string) []string {
	if raw == "" {
		return []string{}
	}
	parts := strings.Split(raw, ",")
	keywords := make([]string, 0, len(parts))
	for _, p := range parts {
		if kw := strings.TrimSpace(p); kw != "" {
			keywords = append(keywords, kw)
		}
	}
	return keywords
}
