package printer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Client talks to the external print agent. The agent accepts a rendered
// HTML document and a print type, and replies with a success flag.
type Client struct {
	HTTP    *http.Client
	BaseURL string
}

func NewClient(baseURL string) *Client {
	return &Client{
		HTTP:    &http.Client{Timeout: 10 * time.Second},
		BaseURL: baseURL,
	}
}

type printRequest struct {
	HTML string `json:"html"`
	Type string `json:"type"`
}

type printResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

// Dispatch sends the document to the agent. A non-2xx status or a
// success=false body is a print failure. Returns the agent's message on
// success so callers can surface it to the operator.
func (c *Client) Dispatch(ctx context.Context, html, printType string) (string, error) {
	body, err := json.Marshal(printRequest{HTML: html, Type: printType})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/print", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("print agent unreachable: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return "", fmt.Errorf("print agent: %s", res.Status)
	}

	var pr printResponse
	if err := json.NewDecoder(res.Body).Decode(&pr); err != nil {
		return "", fmt.Errorf("print agent: decode response: %w", err)
	}
	if !pr.Success {
		if pr.Error != "" {
			return "", fmt.Errorf("print agent: %s", pr.Error)
		}
		return "", fmt.Errorf("print agent: print failed")
	}
	return pr.Message, nil
}
