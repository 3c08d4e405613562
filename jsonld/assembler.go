// Package jsonld builds structured-data documents for each page type.
// A backend-supplied schema is passed through after revalidation and
// sanitization; anything absent or malformed is replaced by a
// synthesized document, so the output is always re-parseable JSON.
package jsonld

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/golden-fork/bistro"
	"github.com/golden-fork/bistro/rewrite"
)

type EntityType string

const (
	EntityArticle      EntityType = "article"
	EntityMenu         EntityType = "menu"
	EntityFAQ          EntityType = "faq"
	EntityOrganization EntityType = "organization"
	EntityBreadcrumb   EntityType = "breadcrumb"
)

const schemaContext = "https://schema.org"

// DomainFields feed synthesis when no usable backend schema exists.
// Only the fields relevant to the entity type are consumed.
type DomainFields struct {
	Title       string
	Description string
	Author      string
	Published   time.Time
	Modified    time.Time
	Image       string
	Category    string
	URL         string

	FAQ          []FAQEntry
	Breadcrumbs  []Crumb
	MenuSections []MenuSection
}

type FAQEntry struct {
	Question string
	Answer   string
}

type Crumb struct {
	Name string
	URL  string
}

type MenuSection struct {
	Name  string
	Items []MenuEntry
}

type MenuEntry struct {
	Name        string
	Description string
	Price       string
}

type Assembler struct {
	rw       *rewrite.Rewriter
	siteName string
	public   string
}

func NewAssembler(internalOrigin, publicOrigin, siteName string) *Assembler {
	return &Assembler{
		rw:       rewrite.New(internalOrigin, publicOrigin),
		siteName: siteName,
		public:   bistro.NormalizeOrigin(publicOrigin),
	}
}

// Assemble returns the structured-data document for one page. The
// backend schema wins when it parses; a malformed schema string is
// discarded, never emitted verbatim.
func (a *Assembler) Assemble(entityType EntityType, raw *bistro.RawSEORecord, fields DomainFields) bistro.StructuredData {
	if raw != nil && raw.Schema != nil && strings.TrimSpace(raw.Schema.Raw) != "" {
		dec := json.NewDecoder(strings.NewReader(raw.Schema.Raw))
		dec.UseNumber()
		var doc any
		if err := dec.Decode(&doc); err == nil && !dec.More() {
			if out, err := json.Marshal(a.rw.Value(doc)); err == nil {
				return bistro.StructuredData(out)
			}
		}
	}

	return a.synthesize(entityType, fields)
}

// Graph combines several documents under a single @graph envelope.
func Graph(docs ...bistro.StructuredData) bistro.StructuredData {
	members := make([]json.RawMessage, 0, len(docs))
	for _, doc := range docs {
		if len(doc) == 0 {
			continue
		}
		members = append(members, json.RawMessage(doc))
	}
	if len(members) == 1 {
		return bistro.StructuredData(members[0])
	}
	out, err := json.Marshal(map[string]any{
		"@context": schemaContext,
		"@graph":   members,
	})
	if err != nil {
		return bistro.StructuredData(`{}`)
	}
	return bistro.StructuredData(out)
}

// synthesize builds a minimal valid document from domain fields.
// Identical fields produce byte-identical output: documents are plain
// maps and encoding/json sorts map keys.
func (a *Assembler) synthesize(entityType EntityType, f DomainFields) bistro.StructuredData {
	var doc map[string]any

	switch entityType {
	case EntityArticle:
		doc = map[string]any{
			"@context":    schemaContext,
			"@type":       "BlogPosting",
			"headline":    f.Title,
			"description": f.Description,
			"publisher":   a.organization(),
		}
		if f.Author != "" {
			doc["author"] = map[string]any{"@type": "Person", "name": f.Author}
		}
		if !f.Published.IsZero() {
			doc["datePublished"] = f.Published.Format(time.RFC3339)
		}
		if !f.Modified.IsZero() {
			doc["dateModified"] = f.Modified.Format(time.RFC3339)
		}
		if f.Image != "" {
			doc["image"] = f.Image
		}
		if f.Category != "" {
			doc["articleSection"] = f.Category
		}
		if f.URL != "" {
			doc["mainEntityOfPage"] = f.URL
		}

	case EntityMenu:
		sections := make([]any, 0, len(f.MenuSections))
		for _, s := range f.MenuSections {
			items := make([]any, 0, len(s.Items))
			for _, item := range s.Items {
				entry := map[string]any{
					"@type": "MenuItem",
					"name":  item.Name,
				}
				if item.Description != "" {
					entry["description"] = item.Description
				}
				if item.Price != "" {
					entry["offers"] = map[string]any{
						"@type":         "Offer",
						"price":         item.Price,
						"priceCurrency": "USD",
					}
				}
				items = append(items, entry)
			}
			sections = append(sections, map[string]any{
				"@type":       "MenuSection",
				"name":        s.Name,
				"hasMenuItem": items,
			})
		}
		doc = map[string]any{
			"@context":       schemaContext,
			"@type":          "Menu",
			"name":           f.Title,
			"description":    f.Description,
			"hasMenuSection": sections,
		}

	case EntityFAQ:
		questions := make([]any, 0, len(f.FAQ))
		for _, entry := range f.FAQ {
			questions = append(questions, map[string]any{
				"@type": "Question",
				"name":  entry.Question,
				"acceptedAnswer": map[string]any{
					"@type": "Answer",
					"text":  entry.Answer,
				},
			})
		}
		doc = map[string]any{
			"@context":   schemaContext,
			"@type":      "FAQPage",
			"mainEntity": questions,
		}

	case EntityOrganization:
		doc = a.organization()
		doc["@context"] = schemaContext
		if f.Description != "" {
			doc["description"] = f.Description
		}
		if f.Image != "" {
			doc["image"] = f.Image
		}

	case EntityBreadcrumb:
		elements := make([]any, 0, len(f.Breadcrumbs))
		for i, crumb := range f.Breadcrumbs {
			elements = append(elements, map[string]any{
				"@type":    "ListItem",
				"position": i + 1,
				"name":     crumb.Name,
				"item":     crumb.URL,
			})
		}
		doc = map[string]any{
			"@context":        schemaContext,
			"@type":           "BreadcrumbList",
			"itemListElement": elements,
		}

	default:
		doc = map[string]any{
			"@context":    schemaContext,
			"@type":       "WebPage",
			"name":        f.Title,
			"description": f.Description,
		}
		if f.URL != "" {
			doc["url"] = f.URL
		}
	}

	out, err := json.Marshal(a.rw.Value(doc))
	if err != nil {
		// Unreachable with map-built documents, but the contract is
		// total: emit an empty object rather than fail.
		return bistro.StructuredData(`{}`)
	}
	return bistro.StructuredData(out)
}

func (a *Assembler) organization() map[string]any {
	return map[string]any{
		"@type": "Restaurant",
		"name":  a.siteName,
		"url":   a.public + "/",
	}
}
