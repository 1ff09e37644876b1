package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/stylinx-storefront/pkg/errors"
	"github.com/angelmondragon/stylinx-storefront/pkg/metrics"
)

const (
	DefaultBaseURL              = "https://api.escuelajs.co/api/v1"
	defaultTimeout              = 10 * time.Second
	responseBodyReadLimit int64 = 1024
	metricsService              = "catalog"
)

// API is the remote catalog surface consumed by the Store.
type API interface {
	ListProducts(ctx context.Context, filter ProductFilter) ([]Product, error)
	GetProduct(ctx context.Context, id int) (*Product, error)
	ListCategories(ctx context.Context) ([]Category, error)
	GetCategory(ctx context.Context, id int) (*Category, error)
}

// Client talks to the public catalog REST API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	metrics    *metrics.UpstreamMetrics
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the catalog base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// WithMetrics records request outcomes.
func WithMetrics(m *metrics.UpstreamMetrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient builds a catalog client.
func NewClient(opts ...Option) *Client {
	client := &Client{
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client
}

// ListProducts returns the products matching filter.
func (c *Client) ListProducts(ctx context.Context, filter ProductFilter) ([]Product, error) {
	path := "products"
	if q := filter.Values().Encode(); q != "" {
		path += "?" + q
	}
	var out []Product
	if err := c.getJSON(ctx, "list_products", path, "failed to fetch products", &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []Product{}
	}
	return out, nil
}

// GetProduct returns a single product. Unknown ids yield CodeNotFound.
func (c *Client) GetProduct(ctx context.Context, id int) (*Product, error) {
	if id <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found").WithDetails(map[string]any{"id": id})
	}
	var out Product
	if err := c.getJSON(ctx, "get_product", "products/"+strconv.Itoa(id), "failed to fetch product", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListCategories returns every category.
func (c *Client) ListCategories(ctx context.Context) ([]Category, error) {
	var out []Category
	if err := c.getJSON(ctx, "list_categories", "categories", "failed to fetch categories", &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []Category{}
	}
	return out, nil
}

// GetCategory returns a single category. Unknown ids yield CodeNotFound.
func (c *Client) GetCategory(ctx context.Context, id int) (*Category, error) {
	if id <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found").WithDetails(map[string]any{"id": id})
	}
	var out Category
	if err := c.getJSON(ctx, "get_category", "categories/"+strconv.Itoa(id), "failed to fetch category", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) getJSON(ctx context.Context, op, path, failMsg string, dest any) (err error) {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "catalog client not configured")
	}
	start := time.Now()
	defer func() {
		code := ""
		if err != nil {
			code = string(pkgerrors.As(err).Code())
		}
		c.metrics.Observe(metricsService, op, time.Since(start), code)
	}()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.buildURL(path), nil)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeNetwork, err, failMsg)
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeNetwork, err, failMsg)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		body := strings.TrimSpace(string(msg))
		cause := fmt.Errorf("status %d: %s", resp.StatusCode, body)
		if isNotFound(resp.StatusCode, body) {
			return pkgerrors.Wrap(pkgerrors.CodeNotFound, cause, notFoundMessage(path))
		}
		return pkgerrors.Wrap(pkgerrors.CodeNetwork, cause, failMsg).WithDetails(map[string]any{"status": resp.StatusCode})
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeNetwork, err, failMsg)
	}
	return nil
}

// The catalog API answers unknown ids with 400 "Could not find any entity" instead of 404.
func isNotFound(status int, body string) bool {
	if status == http.StatusNotFound {
		return true
	}
	return status == http.StatusBadRequest && strings.Contains(body, "Could not find")
}

func notFoundMessage(path string) string {
	if strings.HasPrefix(path, "categories") {
		return "category not found"
	}
	return "product not found"
}

func (c *Client) buildURL(path string) string {
	trimmed := strings.TrimRight(c.baseURL, "/")
	path = strings.TrimLeft(path, "/")
	return fmt.Sprintf("%s/%s", trimmed, path)
}
