// Package client executes named queries against the content backend
// endpoint. All failure is reported as *bistro.QueryError; nothing in
// this package panics or retries.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/patrickmn/go-cache"
	"github.com/zeebo/xxh3"

	"github.com/golden-fork/bistro"
)

const defaultTimeout = 3 * time.Second

type Client struct {
	client    *http.Client
	endpoint  string
	userAgent string

	cache     *cache.Cache
	memcached *memcache.Client

	mu   sync.Mutex
	tags map[string]map[string]struct{}
}

func New(endpoint string) *Client {
	httpClient := &http.Client{
		Timeout: defaultTimeout,
	}

	c := &Client{
		client:    httpClient,
		endpoint:  endpoint,
		userAgent: "bistro-content-pipeline",
		cache:     cache.New(10*time.Minute, 15*time.Minute),
		tags:      map[string]map[string]struct{}{},
	}
	httpClient.Transport = c
	return c
}

func (c *Client) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("User-Agent", c.userAgent)
	return http.DefaultTransport.RoundTrip(req)
}

// SetTimeout overrides the bounded wait applied to every query.
func (c *Client) SetTimeout(d time.Duration) {
	if d > 0 {
		c.client.Timeout = d
	}
}

// UseMemcached adds a shared second cache tier consulted after the
// in-process cache and populated alongside it.
func (c *Client) UseMemcached(mc *memcache.Client) {
	c.memcached = mc
}

type envelope struct {
	Data   map[string]json.RawMessage `json:"data"`
	Errors []envelopeError            `json:"errors"`
}

type envelopeError struct {
	Message string `json:"message"`
}

// Execute runs one query against the backend, serving from cache when
// the policy allows. A nil payload with a nil error means the caller
// declared absence a valid outcome and the entity was absent.
func (c *Client) Execute(ctx context.Context, query bistro.ContentQuery) (json.RawMessage, error) {
	if query.Operation == "" {
		return nil, &bistro.QueryError{Kind: bistro.ErrorKindProtocol, Message: "operation name is required"}
	}
	if err := checkVariables(query.Variables); err != nil {
		return nil, err
	}

	key := cacheKey(query)
	if query.Cache.TTL > 0 {
		if payload, found := c.lookup(key, query.Cache); found {
			return payload, nil
		}
	}

	payload, err := c.roundTrip(ctx, query)
	if err != nil {
		return nil, err
	}

	if payload != nil && query.Cache.TTL > 0 {
		c.store(key, payload, query.Cache)
	}

	return payload, nil
}

func (c *Client) roundTrip(ctx context.Context, query bistro.ContentQuery) (json.RawMessage, error) {
	body, err := json.Marshal(map[string]any{
		"operationName": query.Operation,
		"query":         query.Document,
		"variables":     query.Variables,
	})
	if err != nil {
		return nil, &bistro.QueryError{Kind: bistro.ErrorKindProtocol, Message: fmt.Sprintf("failed to serialize query: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, &bistro.QueryError{Kind: bistro.ErrorKindTransport, Message: fmt.Sprintf("failed to create request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, classifyTransport(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &bistro.QueryError{Kind: bistro.ErrorKindTransport, Message: fmt.Sprintf("unexpected status code: %d", resp.StatusCode)}
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, &bistro.QueryError{Kind: bistro.ErrorKindTransport, Message: fmt.Sprintf("failed to decode response: %v", err)}
	}

	// An application-level error list is final for this request; it is
	// never retried here.
	if len(env.Errors) > 0 {
		msgs := make([]string, 0, len(env.Errors))
		for _, e := range env.Errors {
			msgs = append(msgs, e.Message)
		}
		return nil, &bistro.QueryError{Kind: bistro.ErrorKindProtocol, Message: strings.Join(msgs, "; ")}
	}

	entity, ok := env.Data[query.Entity]
	if !ok || isNullJSON(entity) {
		if query.OptionalEntity {
			return nil, nil
		}
		return nil, &bistro.QueryError{Kind: bistro.ErrorKindNotFound, Message: fmt.Sprintf("%s not found", query.Entity)}
	}

	return entity, nil
}

// InvalidateTag drops every cached result stored under tag and returns
// the number of entries removed.
func (c *Client) InvalidateTag(tag string) int {
	c.mu.Lock()
	keys := c.tags[tag]
	delete(c.tags, tag)
	c.mu.Unlock()

	for key := range keys {
		c.cache.Delete(key)
		if c.memcached != nil {
			c.memcached.Delete(key)
		}
	}
	return len(keys)
}

func (c *Client) lookup(key string, policy bistro.CachePolicy) (json.RawMessage, bool) {
	if cached, found := c.cache.Get(key); found {
		if payload, ok := cached.(json.RawMessage); ok {
			return payload, true
		}
	}

	if c.memcached != nil {
		item, err := c.memcached.Get(key)
		if err == nil {
			payload := json.RawMessage(item.Value)
			c.cache.Set(key, payload, policy.TTL)
			c.index(key, policy.Tags)
			return payload, true
		}
	}

	return nil, false
}

func (c *Client) store(key string, payload json.RawMessage, policy bistro.CachePolicy) {
	c.cache.Set(key, payload, policy.TTL)
	c.index(key, policy.Tags)

	if c.memcached != nil {
		c.memcached.Set(&memcache.Item{
			Key:        key,
			Value:      []byte(payload),
			Expiration: int32(policy.TTL / time.Second),
		})
	}
}

func (c *Client) index(key string, tags []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, tag := range tags {
		keys, ok := c.tags[tag]
		if !ok {
			keys = map[string]struct{}{}
			c.tags[tag] = keys
		}
		keys[key] = struct{}{}
	}
}

// cacheKey derives a stable key from the operation and its variables.
// encoding/json sorts map keys, so equal variable sets hash equally.
func cacheKey(query bistro.ContentQuery) string {
	payload, _ := json.Marshal(map[string]any{
		"query":     query.Document,
		"variables": query.Variables,
	})
	return fmt.Sprintf("query:%s:%016x", query.Operation, xxh3.Hash(payload))
}

func checkVariables(variables map[string]any) error {
	for name, value := range variables {
		switch value.(type) {
		case nil, string, bool, int, int32, int64, float32, float64:
		default:
			return &bistro.QueryError{
				Kind:    bistro.ErrorKindProtocol,
				Message: fmt.Sprintf("variable %q is not a scalar", name),
			}
		}
	}
	return nil
}

func classifyTransport(err error) *bistro.QueryError {
	if isTimeout(err) {
		return &bistro.QueryError{Kind: bistro.ErrorKindTimeout, Message: err.Error()}
	}
	return &bistro.QueryError{Kind: bistro.ErrorKindTransport, Message: err.Error()}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isNullJSON(raw json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(raw))
	return trimmed == "" || trimmed == "null"
}
