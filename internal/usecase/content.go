package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/golden-fork/bistro"
	"github.com/golden-fork/bistro/internal/domain"
	"github.com/golden-fork/bistro/jsonld"
	"github.com/golden-fork/bistro/rewrite"
	"github.com/golden-fork/bistro/seo"
)

// Cache durations per entity class. Promotions bypass the cache: coupon
// windows must reflect the backend immediately.
const (
	articleTTL = 5 * time.Minute
	pageTTL    = 10 * time.Minute
	menuTTL    = 10 * time.Minute
	faqTTL     = 30 * time.Minute
	sitemapTTL = time.Hour
)

// ContentUsecase composes the query gateway, SEO resolver, and
// structured-data assembler into per-page-type retrieval. It is the
// only surface page-rendering code talks to.
type ContentUsecase struct {
	gateway   ContentGateway
	snapshots SnapshotRepository
	broadcast PurgeBroadcaster
	resolver  *seo.Resolver
	assembler *jsonld.Assembler
	rw        *rewrite.Rewriter
	conf      domain.Config
}

// NewContentUsecase wires the pipeline. snapshots and broadcast may be
// nil; the corresponding fallback and fan-out are then skipped.
func NewContentUsecase(gateway ContentGateway, snapshots SnapshotRepository, broadcast PurgeBroadcaster, conf domain.Config) *ContentUsecase {
	return &ContentUsecase{
		gateway:   gateway,
		snapshots: snapshots,
		broadcast: broadcast,
		resolver:  seo.NewResolver(conf.InternalOrigin, conf.PublicOrigin),
		assembler: jsonld.NewAssembler(conf.InternalOrigin, conf.PublicOrigin, conf.SiteName),
		rw:        rewrite.New(conf.InternalOrigin, conf.PublicOrigin),
		conf:      conf,
	}
}

type ArticleView struct {
	Article domain.Article             `json:"article"`
	SEO     bistro.ResolvedSEOMetadata `json:"seo"`
	Schema  bistro.StructuredData      `json:"schema"`
	Stale   bool                       `json:"stale,omitempty"`
}

type ArticleListView struct {
	Articles []domain.ArticleSummary    `json:"articles"`
	SEO      bistro.ResolvedSEOMetadata `json:"seo"`
	Schema   bistro.StructuredData      `json:"schema"`
	Stale    bool                       `json:"stale,omitempty"`
}

type PageView struct {
	Page   domain.Page                `json:"page"`
	SEO    bistro.ResolvedSEOMetadata `json:"seo"`
	Schema bistro.StructuredData      `json:"schema"`
	Stale  bool                       `json:"stale,omitempty"`
}

type MenuView struct {
	Menu   domain.Menu                `json:"menu"`
	SEO    bistro.ResolvedSEOMetadata `json:"seo"`
	Schema bistro.StructuredData      `json:"schema"`
	Stale  bool                       `json:"stale,omitempty"`
}

type FAQView struct {
	Title  string                     `json:"title"`
	Items  []domain.FAQItem           `json:"items"`
	SEO    bistro.ResolvedSEOMetadata `json:"seo"`
	Schema bistro.StructuredData      `json:"schema"`
	Stale  bool                       `json:"stale,omitempty"`
}

type HomeView struct {
	Page           domain.Page                `json:"page"`
	Promotions     []domain.Promotion         `json:"promotions"`
	RecentArticles []domain.ArticleSummary    `json:"recentArticles"`
	SEO            bistro.ResolvedSEOMetadata `json:"seo"`
	Schema         bistro.StructuredData      `json:"schema"`
	Stale          bool                       `json:"stale,omitempty"`
}

func (uc *ContentUsecase) GetArticle(ctx context.Context, slug string) (*ArticleView, error) {
	payload, stale, err := uc.fetch(ctx, bistro.ContentQuery{
		Operation: "ArticleBySlug",
		Document:  queryArticleBySlug,
		Entity:    "article",
		Variables: map[string]any{"slug": slug},
		Cache: bistro.CachePolicy{
			TTL:  articleTTL,
			Tags: []string{"articles", "article:" + slug},
		},
	})
	if err != nil {
		return nil, err
	}

	var raw gqlArticle
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, errors.Wrap(err, "decode article payload")
	}

	article := raw.toDomain()
	article.Content = uc.rw.String(article.Content)
	article.Excerpt = uc.rw.String(article.Excerpt)
	article.FeaturedImage = uc.rw.Image(article.FeaturedImage)

	route := "/blog/" + article.Slug
	meta := uc.resolver.Resolve(raw.SEO, seo.Fallback{
		Title:       uc.pageTitle(article.Title),
		Description: article.Excerpt,
	}, route, article.FeaturedImage)

	fields := jsonld.DomainFields{
		Title:       article.Title,
		Description: meta.Description,
		Author:      article.AuthorName,
		Published:   article.Date,
		Modified:    article.Modified,
		URL:         meta.Canonical,
	}
	if article.FeaturedImage != nil {
		fields.Image = article.FeaturedImage.URL
	}
	if len(article.Categories) > 0 {
		fields.Category = article.Categories[0]
	}

	schema := jsonld.Graph(
		uc.assembler.Assemble(jsonld.EntityArticle, raw.SEO, fields),
		uc.breadcrumbs(jsonld.Crumb{Name: "Blog", URL: bistro.ComposeURL(uc.conf.PublicOrigin, "/blog")},
			jsonld.Crumb{Name: article.Title, URL: meta.Canonical}),
	)

	return &ArticleView{Article: article, SEO: meta, Schema: schema, Stale: stale}, nil
}

func (uc *ContentUsecase) GetArticles(ctx context.Context, limit int) (*ArticleListView, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}

	payload, stale, err := uc.fetch(ctx, bistro.ContentQuery{
		Operation: "Articles",
		Document:  queryArticles,
		Entity:    "articles",
		Variables: map[string]any{"limit": limit},
		Cache: bistro.CachePolicy{
			TTL:  articleTTL,
			Tags: []string{"articles"},
		},
	})
	if err != nil {
		return nil, err
	}

	var raw gqlArticleList
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, errors.Wrap(err, "decode article list payload")
	}

	summaries := raw.toDomain()
	for i := range summaries {
		summaries[i].Excerpt = uc.rw.String(summaries[i].Excerpt)
		summaries[i].FeaturedImage = uc.rw.Image(summaries[i].FeaturedImage)
	}

	meta := uc.resolver.Resolve(nil, seo.Fallback{
		Title: uc.pageTitle("Blog"),
	}, "/blog", nil)

	schema := uc.breadcrumbs(jsonld.Crumb{Name: "Blog", URL: meta.Canonical})

	return &ArticleListView{Articles: summaries, SEO: meta, Schema: schema, Stale: stale}, nil
}

func (uc *ContentUsecase) GetPage(ctx context.Context, slug string) (*PageView, error) {
	payload, stale, err := uc.fetch(ctx, bistro.ContentQuery{
		Operation: "PageBySlug",
		Document:  queryPageBySlug,
		Entity:    "page",
		Variables: map[string]any{"slug": slug},
		Cache: bistro.CachePolicy{
			TTL:  pageTTL,
			Tags: []string{"pages", "page:" + slug},
		},
	})
	if err != nil {
		return nil, err
	}

	var raw gqlPage
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, errors.Wrap(err, "decode page payload")
	}

	page := raw.toDomain()
	page.Content = uc.rw.String(page.Content)

	route := "/" + page.Slug
	meta := uc.resolver.Resolve(raw.SEO, seo.Fallback{
		Title: uc.pageTitle(page.Title),
	}, route, nil)

	schema := uc.assembler.Assemble("", raw.SEO, jsonld.DomainFields{
		Title:       page.Title,
		Description: meta.Description,
		URL:         meta.Canonical,
	})

	return &PageView{Page: page, SEO: meta, Schema: schema, Stale: stale}, nil
}

func (uc *ContentUsecase) GetMenu(ctx context.Context) (*MenuView, error) {
	payload, stale, err := uc.fetch(ctx, bistro.ContentQuery{
		Operation: "Menu",
		Document:  queryMenu,
		Entity:    "menu",
		Cache: bistro.CachePolicy{
			TTL:  menuTTL,
			Tags: []string{"menu"},
		},
	})
	if err != nil {
		return nil, err
	}

	var raw gqlMenu
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, errors.Wrap(err, "decode menu payload")
	}

	menu := raw.toDomain()
	for i := range menu.Sections {
		menu.Sections[i].Description = uc.rw.String(menu.Sections[i].Description)
		for j := range menu.Sections[i].Items {
			menu.Sections[i].Items[j].Description = uc.rw.String(menu.Sections[i].Items[j].Description)
		}
	}

	meta := uc.resolver.Resolve(raw.SEO, seo.Fallback{
		Title:       uc.pageTitle("Menu"),
		Description: menu.Description,
	}, "/menu", nil)

	sections := make([]jsonld.MenuSection, 0, len(menu.Sections))
	for _, s := range menu.Sections {
		items := make([]jsonld.MenuEntry, 0, len(s.Items))
		for _, item := range s.Items {
			items = append(items, jsonld.MenuEntry{
				Name:        item.Name,
				Description: item.Description,
				Price:       item.Price,
			})
		}
		sections = append(sections, jsonld.MenuSection{Name: s.Name, Items: items})
	}

	schema := uc.assembler.Assemble(jsonld.EntityMenu, raw.SEO, jsonld.DomainFields{
		Title:        bistro.FirstNonEmpty(menu.Title, "Menu"),
		Description:  meta.Description,
		URL:          meta.Canonical,
		MenuSections: sections,
	})

	return &MenuView{Menu: menu, SEO: meta, Schema: schema, Stale: stale}, nil
}

func (uc *ContentUsecase) GetFAQ(ctx context.Context) (*FAQView, error) {
	payload, stale, err := uc.fetch(ctx, bistro.ContentQuery{
		Operation: "FAQ",
		Document:  queryFAQ,
		Entity:    "faq",
		Cache: bistro.CachePolicy{
			TTL:  faqTTL,
			Tags: []string{"faq"},
		},
	})
	if err != nil {
		return nil, err
	}

	var raw gqlFAQ
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, errors.Wrap(err, "decode faq payload")
	}

	items := make([]domain.FAQItem, 0, len(raw.Items))
	entries := make([]jsonld.FAQEntry, 0, len(raw.Items))
	for _, item := range raw.Items {
		question := uc.rw.String(item.Question)
		answer := uc.rw.String(item.Answer)
		items = append(items, domain.FAQItem{Question: question, Answer: answer})
		entries = append(entries, jsonld.FAQEntry{Question: question, Answer: answer})
	}

	meta := uc.resolver.Resolve(raw.SEO, seo.Fallback{
		Title: uc.pageTitle("Frequently Asked Questions"),
	}, "/faq", nil)

	schema := uc.assembler.Assemble(jsonld.EntityFAQ, raw.SEO, jsonld.DomainFields{
		Title: raw.Title,
		FAQ:   entries,
	})

	return &FAQView{Title: raw.Title, Items: items, SEO: meta, Schema: schema, Stale: stale}, nil
}

// GetPromotions returns the active promotions. Absence is a valid
// outcome and yields an empty list; the backend is queried fresh every
// time because coupon windows must not be served from cache.
func (uc *ContentUsecase) GetPromotions(ctx context.Context) ([]domain.Promotion, error) {
	payload, _, err := uc.fetch(ctx, bistro.ContentQuery{
		Operation:      "Promotions",
		Document:       queryPromotions,
		Entity:         "promotions",
		OptionalEntity: true,
	})
	if err != nil {
		return nil, err
	}
	if payload == nil {
		return []domain.Promotion{}, nil
	}

	var raw gqlPromotionList
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, errors.Wrap(err, "decode promotions payload")
	}

	promotions := raw.toDomain()
	for i := range promotions {
		promotions[i].Description = uc.rw.String(promotions[i].Description)
		promotions[i].Image = uc.rw.Image(promotions[i].Image)
	}
	return promotions, nil
}

// GetHome fans out to the home page, promotions, and recent articles
// concurrently. The page itself is required; the side branches degrade
// independently to empty sections.
func (uc *ContentUsecase) GetHome(ctx context.Context) (*HomeView, error) {
	var (
		wg       sync.WaitGroup
		page     *PageView
		pageErr  error
		promos   []domain.Promotion
		articles []domain.ArticleSummary
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		page, pageErr = uc.GetPage(ctx, "home")
	}()
	go func() {
		defer wg.Done()
		result, err := uc.GetPromotions(ctx)
		if err != nil {
			slog.Warn("home: promotions degraded",
				slog.String("error", err.Error()),
				slog.String("module", "content"),
			)
			return
		}
		promos = result
	}()
	go func() {
		defer wg.Done()
		result, err := uc.GetArticles(ctx, 3)
		if err != nil {
			slog.Warn("home: recent articles degraded",
				slog.String("error", err.Error()),
				slog.String("module", "content"),
			)
			return
		}
		articles = result.Articles
	}()
	wg.Wait()

	if pageErr != nil {
		return nil, pageErr
	}
	if promos == nil {
		promos = []domain.Promotion{}
	}
	if articles == nil {
		articles = []domain.ArticleSummary{}
	}

	meta := page.SEO
	meta.Canonical = bistro.ComposeURL(uc.conf.PublicOrigin, "")

	schema := jsonld.Graph(
		uc.assembler.Assemble(jsonld.EntityOrganization, nil, jsonld.DomainFields{
			Description: meta.Description,
		}),
		page.Schema,
	)

	return &HomeView{
		Page:           page.Page,
		Promotions:     promos,
		RecentArticles: articles,
		SEO:            meta,
		Schema:         schema,
		Stale:          page.Stale,
	}, nil
}

// GetSitemap returns every public URL with its modification time, for
// the frontend's sitemap.xml renderer.
func (uc *ContentUsecase) GetSitemap(ctx context.Context) ([]domain.SitemapEntry, error) {
	payload, _, err := uc.fetch(ctx, bistro.ContentQuery{
		Operation: "Sitemap",
		Document:  querySitemap,
		Entity:    "sitemap",
		Cache: bistro.CachePolicy{
			TTL:  sitemapTTL,
			Tags: []string{"articles", "pages"},
		},
	})
	if err != nil {
		return nil, err
	}

	var raw gqlSitemap
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, errors.Wrap(err, "decode sitemap payload")
	}

	entries := make([]domain.SitemapEntry, 0, len(raw.Articles)+len(raw.Pages)+1)
	entries = append(entries, domain.SitemapEntry{URL: bistro.ComposeURL(uc.conf.PublicOrigin, "")})
	for _, p := range raw.Pages {
		entries = append(entries, domain.SitemapEntry{
			URL:      bistro.ComposeURL(uc.conf.PublicOrigin, "/"+p.Slug),
			Modified: parseTime(p.Modified),
		})
	}
	for _, a := range raw.Articles {
		entries = append(entries, domain.SitemapEntry{
			URL:      bistro.ComposeURL(uc.conf.PublicOrigin, "/blog/"+a.Slug),
			Modified: parseTime(a.Modified),
		})
	}
	return entries, nil
}

// Purge drops every cached result under the given tags in this process
// and broadcasts the purge to the others.
func (uc *ContentUsecase) Purge(ctx context.Context, tags []string) (int, error) {
	removed := 0
	for _, tag := range tags {
		removed += uc.gateway.InvalidateTag(tag)
	}

	if uc.broadcast != nil {
		if err := uc.broadcast.PublishPurge(ctx, tags); err != nil {
			return removed, errors.Wrap(err, "publish purge")
		}
	}
	return removed, nil
}

// fetch runs one gateway query, keeping the last good payload as a
// snapshot and serving it stale when the backend is unavailable. A
// missing entity is mapped to the domain error taxonomy here so callers
// above never see gateway error types.
func (uc *ContentUsecase) fetch(ctx context.Context, query bistro.ContentQuery) (json.RawMessage, bool, error) {
	payload, err := uc.gateway.Execute(ctx, query)
	if err == nil {
		if payload != nil && uc.snapshots != nil {
			if serr := uc.snapshots.Store(ctx, snapshotKey(query), payload); serr != nil {
				slog.Warn("snapshot store failed",
					slog.String("operation", query.Operation),
					slog.String("error", serr.Error()),
					slog.String("module", "content"),
				)
			}
		}
		return payload, false, nil
	}

	if bistro.IsNotFound(err) {
		return nil, false, domain.NotFoundError{Resource: query.Entity}
	}

	if bistro.IsUnavailable(err) {
		if uc.snapshots != nil {
			cached, at, serr := uc.snapshots.Load(ctx, snapshotKey(query))
			if serr == nil {
				slog.Warn("serving stale snapshot",
					slog.String("operation", query.Operation),
					slog.Time("storedAt", at),
					slog.String("module", "content"),
				)
				return cached, true, nil
			}
		}
		return nil, false, domain.UnavailableError{Reason: err.Error()}
	}

	return nil, false, err
}

func (uc *ContentUsecase) pageTitle(title string) string {
	if title == "" {
		return uc.conf.SiteName
	}
	return fmt.Sprintf("%s – %s", title, uc.conf.SiteName)
}

func (uc *ContentUsecase) breadcrumbs(crumbs ...jsonld.Crumb) bistro.StructuredData {
	all := append([]jsonld.Crumb{
		{Name: "Home", URL: bistro.ComposeURL(uc.conf.PublicOrigin, "")},
	}, crumbs...)
	return uc.assembler.Assemble(jsonld.EntityBreadcrumb, nil, jsonld.DomainFields{Breadcrumbs: all})
}

func snapshotKey(query bistro.ContentQuery) string {
	if len(query.Variables) == 0 {
		return query.Operation
	}
	encoded, _ := json.Marshal(query.Variables)
	return query.Operation + ":" + string(encoded)
}
