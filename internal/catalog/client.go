package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sahelshop/storefront/internal/config"
	"github.com/sahelshop/storefront/internal/domain"
	apperrors "github.com/sahelshop/storefront/pkg/errors"
)

// errNotFound marks a 404 from the catalog; callers translate it using the
// id they asked for.
var errNotFound = errors.New("catalog resource not found")

// Client talks to the catalog (headless content) service. Reads are batched;
// the only write is the stock update used by the verifier's decrement step.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new catalog client
func NewClient(cfg config.ServiceConfig, logger *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		token:   cfg.Token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

type productPayload struct {
	ID            int     `json:"id"`
	Name          string  `json:"name"`
	Price         float64 `json:"price"`
	StockQuantity int     `json:"stock_quantity"`
	TrackStock    bool    `json:"track_stock"`
	Sellable      bool    `json:"sellable"`
}

type productListResponse struct {
	Data []productPayload `json:"data"`
}

type productResponse struct {
	Data productPayload `json:"data"`
}

type stockUpdateRequest struct {
	StockQuantity int  `json:"stock_quantity"`
	Sellable      bool `json:"sellable"`
}

// GetProduct fetches a single product record.
func (c *Client) GetProduct(ctx context.Context, id int) (*domain.Product, error) {
	var resp productResponse
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/products/%d", id), nil, &resp); err != nil {
		if errors.Is(err, errNotFound) {
			return nil, &apperrors.ErrNotFound{Resource: "product", ID: strconv.Itoa(id)}
		}
		return nil, err
	}
	product := toDomain(resp.Data)
	return &product, nil
}

// ListProductsByIDs fetches every requested product in one batched read,
// keyed by product id. Products the catalog no longer knows are simply
// absent from the map.
func (c *Client) ListProductsByIDs(ctx context.Context, ids []int) (map[int]domain.Product, error) {
	if len(ids) == 0 {
		return map[int]domain.Product{}, nil
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	path := "/api/products?ids=" + url.QueryEscape(strings.Join(parts, ","))

	var resp productListResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		if errors.Is(err, errNotFound) {
			return nil, &apperrors.ErrNotFound{Resource: "products", ID: strings.Join(parts, ",")}
		}
		return nil, err
	}

	products := make(map[int]domain.Product, len(resp.Data))
	for _, p := range resp.Data {
		products[p.ID] = toDomain(p)
	}
	return products, nil
}

// UpdateProductStock writes a product's stock quantity and sellable flag.
func (c *Client) UpdateProductStock(ctx context.Context, id, quantity int, sellable bool) error {
	body := stockUpdateRequest{StockQuantity: quantity, Sellable: sellable}
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/api/products/%d/stock", id), body, nil); err != nil {
		if errors.Is(err, errNotFound) {
			return &apperrors.ErrNotFound{Resource: "product", ID: strconv.Itoa(id)}
		}
		return err
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return errNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("catalog API error",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
		)
		return fmt.Errorf("catalog API error: status %d, body: %s", resp.StatusCode, string(respBody))
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}
	return nil
}

func toDomain(p productPayload) domain.Product {
	return domain.Product{
		ID:            p.ID,
		Name:          p.Name,
		Price:         p.Price,
		StockQuantity: p.StockQuantity,
		TrackStock:    p.TrackStock,
		Sellable:      p.Sellable,
	}
}
