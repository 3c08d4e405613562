package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golden-fork/bistro"
)

func articleQuery(ttl time.Duration) bistro.ContentQuery {
	return bistro.ContentQuery{
		Operation: "ArticleBySlug",
		Document:  `query ArticleBySlug($slug: String!) { article(slug: $slug) { title } }`,
		Entity:    "article",
		Variables: map[string]any{"slug": "opening-night"},
		Cache:     bistro.CachePolicy{TTL: ttl, Tags: []string{"articles"}},
	}
}

func backend(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New(server.URL)
}

func TestExecuteReturnsEntity(t *testing.T) {
	cl := backend(t, func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		if req["operationName"] != "ArticleBySlug" {
			t.Errorf("unexpected operation name: %v", req["operationName"])
		}
		w.Write([]byte(`{"data":{"article":{"title":"Opening night"}}}`))
	})

	payload, err := cl.Execute(context.Background(), articleQuery(0))
	if err != nil {
		t.Fatal(err)
	}

	var article struct {
		Title string `json:"title"`
	}
	if err := json.Unmarshal(payload, &article); err != nil {
		t.Fatal(err)
	}
	if article.Title != "Opening night" {
		t.Fatalf("unexpected title: %s", article.Title)
	}
}

func TestExecuteMissingEntityIsNotFound(t *testing.T) {
	cl := backend(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"article":null}}`))
	})

	_, err := cl.Execute(context.Background(), articleQuery(0))
	if !bistro.IsNotFound(err) {
		t.Fatalf("expected not-found, got %v", err)
	}
	if bistro.IsUnavailable(err) {
		t.Fatalf("absence must not read as unavailability: %v", err)
	}
}

func TestExecuteOptionalEntityAbsenceIsNotAnError(t *testing.T) {
	cl := backend(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"promotions":null}}`))
	})

	query := bistro.ContentQuery{
		Operation:      "ActivePromotions",
		Document:       `query ActivePromotions { promotions { title } }`,
		Entity:         "promotions",
		OptionalEntity: true,
	}
	payload, err := cl.Execute(context.Background(), query)
	if err != nil {
		t.Fatalf("expected no error for declared-optional entity, got %v", err)
	}
	if payload != nil {
		t.Fatalf("expected nil payload, got %s", payload)
	}
}

func TestExecuteBackendErrorsAreProtocol(t *testing.T) {
	cl := backend(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"errors":[{"message":"field does not exist"},{"message":"syntax error"}]}`))
	})

	_, err := cl.Execute(context.Background(), articleQuery(0))

	var qerr *bistro.QueryError
	if !errors.As(err, &qerr) || qerr.Kind != bistro.ErrorKindProtocol {
		t.Fatalf("expected protocol error, got %v", err)
	}
	if qerr.Message != "field does not exist; syntax error" {
		t.Fatalf("expected joined messages, got %q", qerr.Message)
	}
	if bistro.IsNotFound(err) {
		t.Fatalf("protocol errors must not read as absence")
	}
}

func TestExecuteServerErrorIsTransport(t *testing.T) {
	cl := backend(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := cl.Execute(context.Background(), articleQuery(0))
	if !bistro.IsUnavailable(err) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if bistro.IsNotFound(err) {
		t.Fatalf("transport errors must not read as absence")
	}
}

func TestExecuteMalformedResponseIsTransport(t *testing.T) {
	cl := backend(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":`))
	})

	_, err := cl.Execute(context.Background(), articleQuery(0))
	if !bistro.IsUnavailable(err) {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestExecuteTimeoutIsClassified(t *testing.T) {
	release := make(chan struct{})
	cl := backend(t, func(w http.ResponseWriter, r *http.Request) {
		<-release
	})
	defer close(release)
	cl.SetTimeout(50 * time.Millisecond)

	_, err := cl.Execute(context.Background(), articleQuery(0))

	var qerr *bistro.QueryError
	if !errors.As(err, &qerr) || qerr.Kind != bistro.ErrorKindTimeout {
		t.Fatalf("expected timeout, got %v", err)
	}
	// A timeout is still an unavailability signal for callers that only
	// distinguish absent from unreachable.
	if !bistro.IsUnavailable(err) {
		t.Fatalf("timeout must match the transport class")
	}
}

func TestExecuteUnreachableEndpointIsTransport(t *testing.T) {
	cl := New("http://127.0.0.1:1")
	cl.SetTimeout(200 * time.Millisecond)

	_, err := cl.Execute(context.Background(), articleQuery(0))
	if !bistro.IsUnavailable(err) {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestExecuteRejectsNonScalarVariables(t *testing.T) {
	cl := New("http://127.0.0.1:1")

	query := articleQuery(0)
	query.Variables = map[string]any{"filter": map[string]any{"tag": "news"}}

	_, err := cl.Execute(context.Background(), query)
	var qerr *bistro.QueryError
	if !errors.As(err, &qerr) || qerr.Kind != bistro.ErrorKindProtocol {
		t.Fatalf("expected protocol error before any request, got %v", err)
	}
}

func TestExecuteRequiresOperationName(t *testing.T) {
	cl := New("http://127.0.0.1:1")

	_, err := cl.Execute(context.Background(), bistro.ContentQuery{Entity: "article"})
	var qerr *bistro.QueryError
	if !errors.As(err, &qerr) || qerr.Kind != bistro.ErrorKindProtocol {
		t.Fatalf("expected protocol error, got %v", err)
	}
}

func TestExecuteServesFromCache(t *testing.T) {
	var hits atomic.Int32
	cl := backend(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(`{"data":{"article":{"title":"Opening night"}}}`))
	})

	query := articleQuery(time.Minute)
	if _, err := cl.Execute(context.Background(), query); err != nil {
		t.Fatal(err)
	}
	if _, err := cl.Execute(context.Background(), query); err != nil {
		t.Fatal(err)
	}

	if got := hits.Load(); got != 1 {
		t.Fatalf("expected one backend hit, got %d", got)
	}
}

func TestExecuteZeroTTLBypassesCache(t *testing.T) {
	var hits atomic.Int32
	cl := backend(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(`{"data":{"article":{"title":"Opening night"}}}`))
	})

	query := articleQuery(0)
	cl.Execute(context.Background(), query)
	cl.Execute(context.Background(), query)

	if got := hits.Load(); got != 2 {
		t.Fatalf("expected every request to reach the backend, got %d", got)
	}
}

func TestInvalidateTag(t *testing.T) {
	var hits atomic.Int32
	cl := backend(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(`{"data":{"article":{"title":"Opening night"}}}`))
	})

	query := articleQuery(time.Minute)
	cl.Execute(context.Background(), query)

	if removed := cl.InvalidateTag("articles"); removed != 1 {
		t.Fatalf("expected one entry removed, got %d", removed)
	}
	if removed := cl.InvalidateTag("articles"); removed != 0 {
		t.Fatalf("expected tag index to be cleared, got %d", removed)
	}

	cl.Execute(context.Background(), query)
	if got := hits.Load(); got != 2 {
		t.Fatalf("expected refetch after invalidation, got %d hits", got)
	}
}

func TestCacheKeyDistinguishesVariables(t *testing.T) {
	a := articleQuery(time.Minute)
	b := articleQuery(time.Minute)
	b.Variables = map[string]any{"slug": "closing-night"}

	if cacheKey(a) == cacheKey(b) {
		t.Fatal("different variables must not collide")
	}
	if cacheKey(a) != cacheKey(articleQuery(time.Minute)) {
		t.Fatal("equal queries must hash equally")
	}
}
