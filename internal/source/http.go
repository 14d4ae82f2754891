package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/salonloop/notifier/internal/config"
	apperrors "github.com/salonloop/notifier/pkg/errors"
	"github.com/salonloop/notifier/pkg/logger"
)

// wire shapes of the booking platform API
type (
	appointmentEnvelope struct {
		Data []appointmentPayload `json:"data"`
	}

	appointmentPayload struct {
		ID        string          `json:"id"`
		Status    string          `json:"status"`
		StartDate time.Time       `json:"start_date"`
		Service   servicePayload  `json:"service"`
		Customer  customerPayload `json:"customer"`
	}

	servicePayload struct {
		Name string `json:"name"`
	}

	customerPayload struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
		Phone string `json:"phone"`
	}
)

type httpClient struct {
	baseURL    string
	businessID string
	apiKey     string
	client     *http.Client
	customers  *gocache.Cache
	logger     *logger.Logger
}

// NewHTTPClient builds the production client for the booking platform API.
func NewHTTPClient(cfg config.SourceConfig, apiKey string, logger *logger.Logger) Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &httpClient{
		baseURL:    cfg.BaseURL,
		businessID: cfg.BusinessID,
		apiKey:     apiKey,
		client:     &http.Client{Timeout: timeout},
		customers:  gocache.New(ttl, 2*ttl),
		logger:     logger,
	}
}

func (c *httpClient) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return apperrors.SourceUnavailable("failed to build source request", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return apperrors.SourceUnavailable("source request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return apperrors.SourceUnavailable(
			fmt.Sprintf("source returned status %d", resp.StatusCode),
			fmt.Errorf("%s %s: %s", http.MethodGet, path, string(body)),
		)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.SourceUnavailable("failed to decode source response", err)
	}
	return nil
}

func (c *httpClient) VerifyConnection(ctx context.Context) error {
	var out map[string]interface{}
	return c.get(ctx, "/businesses/"+c.businessID, nil, &out)
}

func (c *httpClient) FetchCompletedEvents(ctx context.Context, day time.Time) ([]ExternalEvent, error) {
	date := day.UTC().Format("2006-01-02")
	query := url.Values{}
	query.Set("filter[start_date_min]", date+"T00:00:00")
	query.Set("filter[start_date_max]", date+"T23:59:59")
	query.Set("filter[status]", "completed")
	query.Set("limit", "100")

	var envelope appointmentEnvelope
	if err := c.get(ctx, "/businesses/"+c.businessID+"/appointments", query, &envelope); err != nil {
		return nil, err
	}

	events := make([]ExternalEvent, 0, len(envelope.Data))
	for _, payload := range envelope.Data {
		events = append(events, c.toExternalEvent(ctx, payload))
	}
	return events, nil
}

func (c *httpClient) FetchEvent(ctx context.Context, id string) (*ExternalEvent, error) {
	var payload appointmentPayload
	if err := c.get(ctx, "/businesses/"+c.businessID+"/appointments/"+id, nil, &payload); err != nil {
		return nil, err
	}
	event := c.toExternalEvent(ctx, payload)
	return &event, nil
}

func (c *httpClient) toExternalEvent(ctx context.Context, payload appointmentPayload) ExternalEvent {
	event := ExternalEvent{
		ID:            payload.ID,
		CustomerID:    payload.Customer.ID,
		CustomerName:  payload.Customer.Name,
		CustomerEmail: payload.Customer.Email,
		CustomerPhone: payload.Customer.Phone,
		ServiceName:   payload.Service.Name,
		StartTime:     payload.StartDate,
		Completed:     payload.Status == "completed",
	}

	// Some listings omit contact details; resolve them from the customer
	// endpoint, cached so a run makes one lookup per customer at most.
	if event.CustomerEmail == "" && event.CustomerID != "" {
		if customer, err := c.fetchCustomer(ctx, event.CustomerID); err == nil {
			event.CustomerEmail = customer.Email
			if event.CustomerName == "" {
				event.CustomerName = customer.Name
			}
			if event.CustomerPhone == "" {
				event.CustomerPhone = customer.Phone
			}
		} else {
			c.logger.Warn("customer lookup failed", "customer_id", event.CustomerID, "error", err.Error())
		}
	}
	return event
}

func (c *httpClient) fetchCustomer(ctx context.Context, id string) (*customerPayload, error) {
	if cached, ok := c.customers.Get(id); ok {
		customer := cached.(customerPayload)
		return &customer, nil
	}

	var customer customerPayload
	if err := c.get(ctx, "/businesses/"+c.businessID+"/customers/"+id, nil, &customer); err != nil {
		return nil, err
	}
	c.customers.Set(id, customer, gocache.DefaultExpiration)
	return &customer, nil
}
