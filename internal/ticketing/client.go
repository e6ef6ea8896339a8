package ticketing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Source abstracts the external ticketing API. Implementations must treat
// any upstream failure as an error; callers downgrade it to "no data this
// cycle".
type Source interface {
	FetchPendingTickets(ctx context.Context, filter PendingFilter) ([]PendingTicket, error)
	FetchTicketHistory(ctx context.Context, ticketID string) ([]HistoryEvent, error)
}

// ClientConfig holds connection values for the ticketing API.
type ClientConfig struct {
	BaseURL        string
	APIToken       string
	PageSize       int
	TimeoutSeconds int
}

type client struct {
	http     *http.Client
	baseURL  string
	token    string
	pageSize int
	logger   *zap.Logger
}

// NewClient builds an authenticated HTTP client for the ticketing API.
func NewClient(cfg ClientConfig, logger *zap.Logger) Source {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 50
	}
	return &client{
		http:     &http.Client{Timeout: timeout},
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		token:    cfg.APIToken,
		pageSize: pageSize,
		logger:   logger,
	}
}

type listEnvelope struct {
	Data []PendingTicket `json:"data"`
}

type historyEnvelope struct {
	Data []HistoryEvent `json:"data"`
}

// FetchPendingTickets lists pending tickets with a capped page size.
func (c *client) FetchPendingTickets(ctx context.Context, filter PendingFilter) ([]PendingTicket, error) {
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > c.pageSize {
		pageSize = c.pageSize
	}
	query := url.Values{}
	query.Set("pageSize", strconv.Itoa(pageSize))
	if len(filter.Statuses) > 0 {
		query.Set("status", strings.Join(filter.Statuses, ","))
	}

	var envelope listEnvelope
	if err := c.getJSON(ctx, "/tickets/pending?"+query.Encode(), &envelope); err != nil {
		return nil, err
	}
	return envelope.Data, nil
}

// FetchTicketHistory returns the full event history for one ticket.
func (c *client) FetchTicketHistory(ctx context.Context, ticketID string) ([]HistoryEvent, error) {
	var envelope historyEnvelope
	path := "/tickets/" + url.PathEscape(ticketID) + "/history"
	if err := c.getJSON(ctx, path, &envelope); err != nil {
		return nil, err
	}
	return envelope.Data, nil
}

func (c *client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Warn("ticketing API returned non-success status",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode))
		return fmt.Errorf("ticketing API %s: status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
