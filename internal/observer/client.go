package observer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/sitepilot/crm-backend/internal/application/dto"
)

// Client reads an order's log over the REST API. It backs the operator
// watcher; server-side observers read the repo directly.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

var _ LogSource = (*Client)(nil)

func NewClient(baseURL, token string) *Client {
	return &Client{
		BaseURL: baseURL,
		Token:   token,
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) ReadLog(ctx context.Context, orderID uint64) ([]dto.LogEntryView, error) {
	url := c.BaseURL + "/orders/" + strconv.FormatUint(orderID, 10) + "/log"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("read log: %s: %s", resp.Status, body)
	}

	var logResp dto.LogResponse
	if err := json.NewDecoder(resp.Body).Decode(&logResp); err != nil {
		return nil, fmt.Errorf("decoding log, %v", err)
	}
	return logResp.Entries, nil
}
