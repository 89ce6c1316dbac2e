// Package remote talks to the external products API (fakestoreapi.com or a
// compatible service).
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/GoSim-25-26J-441/go-storefront-backend/internal/catalog/domain"
	"github.com/GoSim-25-26J-441/go-storefront-backend/pkg/logger"
	"golang.org/x/time/rate"
)

const maxErrorBody = 512

// Client is a products API client. Every call waits on a client-side rate
// limiter and honours ctx cancellation; there is no timeout unless one is
// configured.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	log        *slog.Logger
}

type Options struct {
	Timeout time.Duration
	RPS     float64
	Burst   int
	Logger  *slog.Logger
	// HTTPClient overrides the default client, mainly for tests.
	HTTPClient *http.Client
}

func NewClient(baseURL string, opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}

	limit := rate.Inf
	if opts.RPS > 0 {
		limit = rate.Limit(opts.RPS)
	}
	burst := opts.Burst
	if burst < 1 {
		burst = 1
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: hc,
		limiter:    rate.NewLimiter(limit, burst),
		log:        logger.OrDefault(opts.Logger).With("component", "products_api"),
	}
}

// List fetches GET /products. Records that cannot be decoded at all are
// skipped; schema checks are left to the caller.
func (c *Client) List(ctx context.Context) ([]domain.Product, error) {
	body, err := c.do(ctx, "load products", http.MethodGet, "/products", nil)
	if err != nil {
		return nil, err
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("load products: %w: %v", domain.ErrMalformedResponse, err)
	}

	products := make([]domain.Product, 0, len(raw))
	for i, r := range raw {
		var p domain.Product
		if err := json.Unmarshal(r, &p); err != nil {
			c.log.Warn("skipping undecodable product", slog.Int("index", i), slog.Any("err", err))
			continue
		}
		products = append(products, p)
	}
	return products, nil
}

// Get fetches GET /products/{id}. A 404 (or an empty body, which the demo API
// returns for unknown ids) yields domain.ErrProductNotFound.
func (c *Client) Get(ctx context.Context, id int) (*domain.Product, error) {
	body, err := c.do(ctx, "fetch product", http.MethodGet, productPath(id), nil)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(body)) == 0 || bytes.Equal(bytes.TrimSpace(body), []byte("null")) {
		return nil, &domain.RemoteError{
			Op:      "fetch product",
			Status:  http.StatusNotFound,
			Message: "empty response",
			Err:     domain.ErrProductNotFound,
		}
	}
	return decodeOne("fetch product", body)
}

func (c *Client) Create(ctx context.Context, d domain.Draft) (*domain.Product, error) {
	body, err := c.do(ctx, "create product", http.MethodPost, "/products", d)
	if err != nil {
		return nil, err
	}
	return decodeOne("create product", body)
}

func (c *Client) Update(ctx context.Context, id int, d domain.Draft) (*domain.Product, error) {
	body, err := c.do(ctx, "update product", http.MethodPut, productPath(id), d)
	if err != nil {
		return nil, err
	}
	return decodeOne("update product", body)
}

func (c *Client) Delete(ctx context.Context, id int) error {
	_, err := c.do(ctx, "delete product", http.MethodDelete, productPath(id), nil)
	return err
}

func (c *Client) do(ctx context.Context, op, method, path string, payload any) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &domain.RemoteError{Op: op, Message: err.Error(), Err: err}
	}

	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to marshal request: %w", op, err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &domain.RemoteError{Op: op, Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &domain.RemoteError{Op: op, Status: resp.StatusCode, Message: "failed to read response", Err: err}
	}

	c.log.Debug("products API call",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("latency", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := string(body)
		if len(msg) > maxErrorBody {
			msg = msg[:maxErrorBody]
		}
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		rerr := &domain.RemoteError{Op: op, Status: resp.StatusCode, Message: msg}
		if resp.StatusCode == http.StatusNotFound {
			rerr.Err = domain.ErrProductNotFound
		}
		return nil, rerr
	}

	return body, nil
}

func decodeOne(op string, body []byte) (*domain.Product, error) {
	var p domain.Product
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", op, domain.ErrMalformedResponse, err)
	}
	return &p, nil
}

func productPath(id int) string {
	return "/products/" + strconv.Itoa(id)
}
