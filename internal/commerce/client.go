package commerce

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/sahelshop/storefront/internal/config"
	"github.com/sahelshop/storefront/internal/domain"
	apperrors "github.com/sahelshop/storefront/pkg/errors"
)

// errNotFound marks a 404 from the commerce service; callers translate it
// using the identifier they asked for.
var errNotFound = errors.New("commerce resource not found")

// Client talks to the commerce service: delivery zones, fee quotes, order
// creation and order status.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new commerce client
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

type zonesResponse struct {
	Success bool                  `json:"success"`
	Data    []domain.DeliveryZone `json:"data"`
}

type quoteRequest struct {
	DeliveryZoneID int     `json:"delivery_zone_id"`
	Subtotal       float64 `json:"subtotal"`
}

type quoteResponse struct {
	Success bool            `json:"success"`
	Data    domain.FeeQuote `json:"data"`
}

type orderResponse struct {
	Data domain.OrderResult `json:"data"`
}

type statusResponse struct {
	OrderNumber string             `json:"order_number"`
	Status      domain.OrderStatus `json:"status"`
	Message     string             `json:"message"`
}

// validationResponse is the commerce service's structured rejection of an
// order draft.
type validationResponse struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors"`
}

// ListDeliveryZones fetches all deliverable zones.
func (c *Client) ListDeliveryZones(ctx context.Context) ([]domain.DeliveryZone, error) {
	var resp zonesResponse
	if err := c.do(ctx, http.MethodGet, "/v1/delivery-zones", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// QuoteDeliveryFee asks the commerce service for the fee for a zone and
// subtotal. The service may apply rules such as free delivery above a
// threshold; its answer is authoritative over any client-side estimate.
func (c *Client) QuoteDeliveryFee(ctx context.Context, zoneID int, subtotal float64) (*domain.FeeQuote, error) {
	var resp quoteResponse
	body := quoteRequest{DeliveryZoneID: zoneID, Subtotal: subtotal}
	if err := c.do(ctx, http.MethodPost, "/v1/calculate-delivery", body, &resp); err != nil {
		if errors.Is(err, errNotFound) {
			return nil, &apperrors.ErrNotFound{Resource: "delivery zone", ID: strconv.Itoa(zoneID)}
		}
		return nil, err
	}
	return &resp.Data, nil
}

// CreateOrder submits the assembled draft. A structured rejection comes back
// as *errors.ErrServerValidation with the service's field messages intact.
func (c *Client) CreateOrder(ctx context.Context, draft *domain.OrderDraft) (*domain.OrderResult, error) {
	var resp orderResponse
	if err := c.do(ctx, http.MethodPost, "/v1/orders", draft, &resp); err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// GetOrderStatus returns the current status for an order number.
func (c *Client) GetOrderStatus(ctx context.Context, orderNumber string) (domain.OrderStatus, error) {
	var resp statusResponse
	if err := c.do(ctx, http.MethodGet, "/v1/orders/"+orderNumber+"/status", nil, &resp); err != nil {
		if errors.Is(err, errNotFound) {
			return "", &apperrors.ErrNotFound{Resource: "order", ID: orderNumber}
		}
		return "", err
	}
	return resp.Status, nil
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
	if resp.StatusCode == http.StatusUnprocessableEntity {
		var v validationResponse
		if err := json.Unmarshal(respBody, &v); err == nil {
			return &apperrors.ErrServerValidation{Message: v.Message, Fields: v.Errors}
		}
		return &apperrors.ErrServerValidation{Message: string(respBody)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("commerce API error",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
		)
		return fmt.Errorf("commerce API error: status %d, body: %s", resp.StatusCode, string(respBody))
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}
	return nil
}
