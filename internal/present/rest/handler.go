package rest

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/golden-fork/bistro/internal/domain"
	"github.com/golden-fork/bistro/internal/present/rest/middleware"
	"github.com/golden-fork/bistro/internal/present/rest/presenter"
	"github.com/golden-fork/bistro/internal/service"
	"github.com/golden-fork/bistro/internal/usecase"
)

type Handler struct {
	config  domain.Config
	content *usecase.ContentUsecase
	signal  *service.SignalService
}

func NewHandler(
	config domain.Config,
	content *usecase.ContentUsecase,
	signal *service.SignalService,
) *Handler {
	return &Handler{
		config:  config,
		content: content,
		signal:  signal,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	auth := middleware.NewAuthMiddleware(h.config)

	e.GET("/api/v1/home", h.handleHome)
	e.GET("/api/v1/articles", h.handleArticles)
	e.GET("/api/v1/articles/:slug", h.handleArticle)
	e.GET("/api/v1/pages/:slug", h.handlePage)
	e.GET("/api/v1/menu", h.handleMenu)
	e.GET("/api/v1/faq", h.handleFAQ)
	e.GET("/api/v1/promotions", h.handlePromotions)
	e.GET("/api/v1/sitemap", h.handleSitemap)
	e.POST("/api/v1/admin/purge", h.handlePurge, auth.RequireAdmin)
	e.GET("/realtime", h.handleRealtime)
}

func (h *Handler) handleHome(c echo.Context) error {
	ctx := c.Request().Context()

	view, err := h.content.GetHome(ctx)
	if err != nil {
		return respondError(c, err)
	}
	return presenter.OK(c, view)
}

func (h *Handler) handleArticles(c echo.Context) error {
	ctx := c.Request().Context()

	limit := 10
	limitStr := c.QueryParam("limit")
	if limitStr != "" {
		limitInt, err := strconv.Atoi(limitStr)
		if err != nil {
			return presenter.BadRequestMessage(c, "invalid limit parameter")
		}
		limit = limitInt
	}

	view, err := h.content.GetArticles(ctx, limit)
	if err != nil {
		return respondError(c, err)
	}
	return presenter.OK(c, view)
}

func (h *Handler) handleArticle(c echo.Context) error {
	ctx := c.Request().Context()

	slug := c.Param("slug")
	if slug == "" {
		return presenter.BadRequestMessage(c, "slug is required")
	}

	view, err := h.content.GetArticle(ctx, slug)
	if err != nil {
		return respondError(c, err)
	}
	return presenter.OK(c, view)
}

func (h *Handler) handlePage(c echo.Context) error {
	ctx := c.Request().Context()

	slug := c.Param("slug")
	if slug == "" {
		return presenter.BadRequestMessage(c, "slug is required")
	}

	view, err := h.content.GetPage(ctx, slug)
	if err != nil {
		return respondError(c, err)
	}
	return presenter.OK(c, view)
}

func (h *Handler) handleMenu(c echo.Context) error {
	ctx := c.Request().Context()

	view, err := h.content.GetMenu(ctx)
	if err != nil {
		return respondError(c, err)
	}
	return presenter.OK(c, view)
}

func (h *Handler) handleFAQ(c echo.Context) error {
	ctx := c.Request().Context()

	view, err := h.content.GetFAQ(ctx)
	if err != nil {
		return respondError(c, err)
	}
	return presenter.OK(c, view)
}

func (h *Handler) handlePromotions(c echo.Context) error {
	ctx := c.Request().Context()

	promotions, err := h.content.GetPromotions(ctx)
	if err != nil {
		return respondError(c, err)
	}
	return presenter.OK(c, echo.Map{"promotions": promotions})
}

func (h *Handler) handleSitemap(c echo.Context) error {
	ctx := c.Request().Context()

	entries, err := h.content.GetSitemap(ctx)
	if err != nil {
		return respondError(c, err)
	}
	return presenter.OK(c, echo.Map{"entries": entries})
}

type purgeRequest struct {
	Tags []string `json:"tags"`
}

func (h *Handler) handlePurge(c echo.Context) error {
	ctx := c.Request().Context()

	var request purgeRequest
	err := c.Bind(&request)
	if err != nil {
		return presenter.BadRequest(c, err)
	}
	if len(request.Tags) == 0 {
		return presenter.BadRequestMessage(c, "tags are required")
	}

	span := trace.SpanFromContext(ctx)
	span.SetAttributes(attribute.StringSlice("purge.tags", request.Tags))

	removed, err := h.content.Purge(ctx, request.Tags)
	if err != nil {
		return presenter.InternalError(c, err)
	}

	return presenter.OK(c, echo.Map{"status": "ok", "removed": removed})
}

// respondError keeps the taxonomy intact at the HTTP boundary: missing
// content renders 404, an unreachable backend 503. Collapsing the two
// would tell users a page doesn't exist when it merely couldn't be
// fetched.
func respondError(c echo.Context, err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return presenter.NotFound(c, "content not found")
	}
	if errors.Is(err, domain.ErrUnavailable) {
		return presenter.Unavailable(c, "content backend temporarily unavailable, retry shortly")
	}
	return presenter.InternalError(c, err)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type realtimeRequest struct {
	Type string `json:"type"`
}

func (h *Handler) handleRealtime(c echo.Context) error {
	if h.signal == nil {
		return presenter.BadRequestMessage(c, "realtime events are not configured")
	}

	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.Error(
			"Failed to upgrade WebSocket",
			slog.String("error", err.Error()),
			slog.String("module", "socket"),
		)
		return err
	}
	defer func() {
		ws.Close()
	}()

	ctx := c.Request().Context()

	output := make(chan service.Event)
	go h.signal.Realtime(ctx, output)

	quit := make(chan struct{})

	go func() {
		for {
			var req realtimeRequest
			err := ws.ReadJSON(&req)
			if err != nil {

				wsErr, ok := err.(*websocket.CloseError)
				if ok {
					if !(wsErr.Code == websocket.CloseNormalClosure || wsErr.Code == websocket.CloseGoingAway) {
						slog.DebugContext(
							ctx, "WebSocket closed",
							slog.String("error", wsErr.Error()),
							slog.String("module", "socket"),
						)
					}
				} else {
					slog.ErrorContext(
						ctx, "Error reading message",
						slog.String("error", err.Error()),
						slog.String("module", "socket"),
					)
				}

				// Close rather than send: the write loop may already
				// have returned and nobody would receive.
				close(quit)
				break
			}

			switch req.Type {
			case "h": // heartbeat
				// do nothing
			default:
				slog.InfoContext(
					ctx, "Unknown request type",
					slog.String("type", req.Type),
					slog.String("module", "socket"),
				)
			}
		}
	}()

	for {
		select {
		case <-quit:
			return nil
		case event := <-output:
			err := ws.WriteJSON(event)
			if err != nil {
				slog.ErrorContext(
					ctx, "Error writing message",
					slog.String("error", err.Error()),
					slog.String("module", "socket"),
				)
				return nil
			}
		}
	}
}
