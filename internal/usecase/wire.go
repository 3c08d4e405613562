package usecase

import (
	"time"

	"github.com/golden-fork/bistro"
	"github.com/golden-fork/bistro/internal/domain"
)

// Wire shapes for backend payloads. Conversion to domain types happens
// here so nothing downstream sees backend-specific structure.

type gqlName struct {
	Name string `json:"name"`
}

type gqlArticle struct {
	Slug          string               `json:"slug"`
	Title         string               `json:"title"`
	Excerpt       string               `json:"excerpt"`
	Content       string               `json:"content"`
	Date          string               `json:"date"`
	Modified      string               `json:"modified"`
	Author        *gqlName             `json:"author"`
	Categories    []gqlName            `json:"categories"`
	FeaturedImage *bistro.SEOImage     `json:"featuredImage"`
	SEO           *bistro.RawSEORecord `json:"seo"`
}

func (a gqlArticle) toDomain() domain.Article {
	categories := make([]string, 0, len(a.Categories))
	for _, c := range a.Categories {
		if c.Name != "" {
			categories = append(categories, c.Name)
		}
	}

	article := domain.Article{
		Slug:          a.Slug,
		Title:         a.Title,
		Excerpt:       a.Excerpt,
		Content:       a.Content,
		Date:          parseTime(a.Date),
		Modified:      parseTime(a.Modified),
		Categories:    categories,
		FeaturedImage: a.FeaturedImage,
	}
	if a.Author != nil {
		article.AuthorName = a.Author.Name
	}
	return article
}

type gqlArticleSummary struct {
	Slug          string           `json:"slug"`
	Title         string           `json:"title"`
	Excerpt       string           `json:"excerpt"`
	Date          string           `json:"date"`
	FeaturedImage *bistro.SEOImage `json:"featuredImage"`
}

type gqlArticleList struct {
	Nodes []gqlArticleSummary `json:"nodes"`
}

func (l gqlArticleList) toDomain() []domain.ArticleSummary {
	summaries := make([]domain.ArticleSummary, 0, len(l.Nodes))
	for _, n := range l.Nodes {
		summaries = append(summaries, domain.ArticleSummary{
			Slug:          n.Slug,
			Title:         n.Title,
			Excerpt:       n.Excerpt,
			Date:          parseTime(n.Date),
			FeaturedImage: n.FeaturedImage,
		})
	}
	return summaries
}

type gqlPage struct {
	Slug     string               `json:"slug"`
	Title    string               `json:"title"`
	Content  string               `json:"content"`
	Modified string               `json:"modified"`
	SEO      *bistro.RawSEORecord `json:"seo"`
}

func (p gqlPage) toDomain() domain.Page {
	return domain.Page{
		Slug:     p.Slug,
		Title:    p.Title,
		Content:  p.Content,
		Modified: parseTime(p.Modified),
	}
}

type gqlMenuItem struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
}

type gqlMenuSection struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Items       []gqlMenuItem `json:"items"`
}

type gqlMenu struct {
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Modified    string               `json:"modified"`
	Sections    []gqlMenuSection     `json:"sections"`
	SEO         *bistro.RawSEORecord `json:"seo"`
}

func (m gqlMenu) toDomain() domain.Menu {
	sections := make([]domain.MenuSection, 0, len(m.Sections))
	for _, s := range m.Sections {
		items := make([]domain.MenuItem, 0, len(s.Items))
		for _, item := range s.Items {
			items = append(items, domain.MenuItem{
				Name:        item.Name,
				Description: item.Description,
				Price:       item.Price,
			})
		}
		sections = append(sections, domain.MenuSection{
			Name:        s.Name,
			Description: s.Description,
			Items:       items,
		})
	}
	return domain.Menu{
		Title:       m.Title,
		Description: m.Description,
		Sections:    sections,
		Modified:    parseTime(m.Modified),
	}
}

type gqlFAQItem struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

type gqlFAQ struct {
	Title string               `json:"title"`
	Items []gqlFAQItem         `json:"items"`
	SEO   *bistro.RawSEORecord `json:"seo"`
}

type gqlPromotion struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	CouponCode  string           `json:"couponCode"`
	Image       *bistro.SEOImage `json:"image"`
	StartsAt    string           `json:"startsAt"`
	EndsAt      string           `json:"endsAt"`
}

type gqlPromotionList struct {
	Nodes []gqlPromotion `json:"nodes"`
}

func (l gqlPromotionList) toDomain() []domain.Promotion {
	promotions := make([]domain.Promotion, 0, len(l.Nodes))
	for _, n := range l.Nodes {
		promotions = append(promotions, domain.Promotion{
			Title:       n.Title,
			Description: n.Description,
			CouponCode:  n.CouponCode,
			Image:       n.Image,
			StartsAt:    parseTimePtr(n.StartsAt),
			EndsAt:      parseTimePtr(n.EndsAt),
		})
	}
	return promotions
}

type gqlSitemapEntry struct {
	Slug     string `json:"slug"`
	Modified string `json:"modified"`
}

type gqlSitemap struct {
	Articles []gqlSitemapEntry `json:"articles"`
	Pages    []gqlSitemapEntry `json:"pages"`
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02T15:04:05", s); err == nil {
		return t
	}
	return time.Time{}
}

func parseTimePtr(s string) *time.Time {
	t := parseTime(s)
	if t.IsZero() {
		return nil
	}
	return &t
}
