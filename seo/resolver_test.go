package seo

import (
	"strings"
	"testing"

	"github.com/golden-fork/bistro"
)

const (
	internalOrigin = "https://cms.example.internal"
	publicOrigin   = "https://example.com"
)

func strptr(s string) *string { return &s }
func boolptr(b bool) *bool    { return &b }

func TestResolveAbsentRecordUsesFallbacks(t *testing.T) {
	r := NewResolver(internalOrigin, publicOrigin)

	got := r.Resolve(nil, Fallback{Title: "T", Description: "D"}, "/menu", nil)

	if got.Title != "T" {
		t.Fatalf("expected fallback title, got %q", got.Title)
	}
	if got.Description != "D" {
		t.Fatalf("expected fallback description, got %q", got.Description)
	}
	if !got.Robots.Index || !got.Robots.Follow {
		t.Fatalf("absent SEO data must stay indexable, got %+v", got.Robots)
	}
	if got.Canonical != publicOrigin+"/menu" {
		t.Fatalf("expected computed canonical, got %q", got.Canonical)
	}
}

func TestResolvePrecedenceChainsAreIndependent(t *testing.T) {
	r := NewResolver(internalOrigin, publicOrigin)

	raw := &bistro.RawSEORecord{
		OpengraphTitle: strptr("OG only"),
	}
	got := r.Resolve(raw, Fallback{Title: "Fallback title", Description: "D"}, "/", nil)

	if got.OpenGraph.Title != "OG only" {
		t.Fatalf("expected raw OpenGraph title, got %q", got.OpenGraph.Title)
	}
	if got.Title != "Fallback title" {
		t.Fatalf("plain title must fall back independently, got %q", got.Title)
	}
}

func TestResolveOpenGraphFallsBackToPlainFields(t *testing.T) {
	r := NewResolver(internalOrigin, publicOrigin)

	raw := &bistro.RawSEORecord{
		Title:    strptr("Raw title"),
		MetaDesc: strptr("Raw description"),
	}
	got := r.Resolve(raw, Fallback{Title: "T", Description: "D"}, "/", nil)

	if got.OpenGraph.Title != "Raw title" {
		t.Fatalf("expected OpenGraph title from raw title, got %q", got.OpenGraph.Title)
	}
	if got.OpenGraph.Description != "Raw description" {
		t.Fatalf("expected OpenGraph description from metaDesc, got %q", got.OpenGraph.Description)
	}
}

func TestResolveTwitterOverridesWinOverOpenGraph(t *testing.T) {
	r := NewResolver(internalOrigin, publicOrigin)

	raw := &bistro.RawSEORecord{
		OpengraphTitle: strptr("OG title"),
		TwitterTitle:   strptr("TW title"),
		OpengraphImage: &bistro.SEOImage{URL: internalOrigin + "/og.jpg"},
		TwitterImage:   &bistro.SEOImage{URL: internalOrigin + "/tw.jpg"},
	}
	got := r.Resolve(raw, Fallback{Title: "T", Description: "D"}, "/", nil)

	if got.Twitter.Title != "TW title" {
		t.Fatalf("expected Twitter override, got %q", got.Twitter.Title)
	}
	if got.Twitter.Image == nil || got.Twitter.Image.URL != publicOrigin+"/tw.jpg" {
		t.Fatalf("expected sanitized Twitter image, got %+v", got.Twitter.Image)
	}
	if got.OpenGraph.Image == nil || got.OpenGraph.Image.URL != publicOrigin+"/og.jpg" {
		t.Fatalf("expected sanitized OpenGraph image, got %+v", got.OpenGraph.Image)
	}
}

func TestResolveTwitterMirrorsOpenGraphWhenUnset(t *testing.T) {
	r := NewResolver(internalOrigin, publicOrigin)

	raw := &bistro.RawSEORecord{
		OpengraphTitle: strptr("OG title"),
		OpengraphImage: &bistro.SEOImage{URL: publicOrigin + "/og.jpg"},
	}
	got := r.Resolve(raw, Fallback{Title: "T", Description: "D"}, "/", nil)

	if got.Twitter.Title != "OG title" {
		t.Fatalf("expected Twitter to mirror OpenGraph, got %q", got.Twitter.Title)
	}
	if got.Twitter.Image == nil || got.Twitter.Image.URL != publicOrigin+"/og.jpg" {
		t.Fatalf("expected Twitter image to mirror OpenGraph, got %+v", got.Twitter.Image)
	}
}

func TestResolveFeaturedImageIsLastImageSource(t *testing.T) {
	r := NewResolver(internalOrigin, publicOrigin)

	featured := &bistro.SEOImage{URL: internalOrigin + "/featured.jpg", Alt: "dish"}
	got := r.Resolve(nil, Fallback{Title: "T", Description: "D"}, "/blog/special", featured)

	if got.OpenGraph.Image == nil || got.OpenGraph.Image.URL != publicOrigin+"/featured.jpg" {
		t.Fatalf("expected featured image as OpenGraph fallback, got %+v", got.OpenGraph.Image)
	}
}

// No source at all: the image stays absent. An empty URL must never be
// emitted.
func TestResolveNoImageStaysAbsent(t *testing.T) {
	r := NewResolver(internalOrigin, publicOrigin)

	got := r.Resolve(nil, Fallback{Title: "Menu – Example", Description: "See our menu"}, "/menu", nil)

	if got.OpenGraph.Image != nil {
		t.Fatalf("expected absent OpenGraph image, got %+v", got.OpenGraph.Image)
	}
	if got.Twitter.Image != nil {
		t.Fatalf("expected absent Twitter image, got %+v", got.Twitter.Image)
	}
}

func TestResolveRobotsDirectives(t *testing.T) {
	r := NewResolver(internalOrigin, publicOrigin)

	raw := &bistro.RawSEORecord{
		MetaRobotsNoindex:  boolptr(true),
		MetaRobotsNofollow: boolptr(false),
	}
	got := r.Resolve(raw, Fallback{Title: "T", Description: "D"}, "/", nil)

	if got.Robots.Index {
		t.Fatalf("expected noindex to be honored")
	}
	if !got.Robots.Follow {
		t.Fatalf("expected follow to stay true")
	}
}

func TestResolveSanitizesCanonical(t *testing.T) {
	r := NewResolver(internalOrigin, publicOrigin)

	raw := &bistro.RawSEORecord{
		Canonical: strptr(internalOrigin + "/menu"),
	}
	got := r.Resolve(raw, Fallback{Title: "T", Description: "D"}, "/menu", nil)

	if strings.Contains(got.Canonical, internalOrigin) {
		t.Fatalf("internal origin leaked into canonical: %s", got.Canonical)
	}
	if got.Canonical != publicOrigin+"/menu" {
		t.Fatalf("expected rewritten canonical, got %s", got.Canonical)
	}
}

func TestResolveEmptyEverythingUsesConstants(t *testing.T) {
	r := NewResolver(internalOrigin, publicOrigin)

	got := r.Resolve(nil, Fallback{}, "/", nil)

	if got.Title == "" || got.Description == "" {
		t.Fatalf("title and description must never be empty: %+v", got)
	}
	if got.Title != DefaultTitle || got.Description != DefaultDescription {
		t.Fatalf("expected last-resort constants, got %+v", got)
	}
}

func TestResolveKeywords(t *testing.T) {
	r := NewResolver(internalOrigin, publicOrigin)

	raw := &bistro.RawSEORecord{
		MetaKeywords: strptr("bistro, seasonal menu , , wood-fired"),
	}
	got := r.Resolve(raw, Fallback{Title: "T", Description: "D"}, "/", nil)

	want := []string{"bistro", "seasonal menu", "wood-fired"}
	if len(got.Keywords) != len(want) {
		t.Fatalf("expected %v, got %v", want, got.Keywords)
	}
	for i := range want {
		if got.Keywords[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got.Keywords)
		}
	}

	empty := r.Resolve(nil, Fallback{Title: "T", Description: "D"}, "/", nil)
	if empty.Keywords == nil {
		t.Fatalf("keywords must be an empty list, not nil")
	}
}

// Absence and empty string are distinct: an explicitly empty title still
// falls through to the fallback, because a blank page title is never
// acceptable output.
func TestResolveEmptyStringFallsThrough(t *testing.T) {
	r := NewResolver(internalOrigin, publicOrigin)

	raw := &bistro.RawSEORecord{Title: strptr("")}
	got := r.Resolve(raw, Fallback{Title: "T", Description: "D"}, "/", nil)

	if got.Title != "T" {
		t.Fatalf("empty raw title must fall back, got %q", got.Title)
	}
}
