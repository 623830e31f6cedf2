package pagecontroller

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/fakhrymubarak/iss-finder/internal/model"
	json "github.com/goccy/go-json"
)

// ErrUnexpectedStatus is returned when the server answers with a non-2xx status.
var ErrUnexpectedStatus = errors.New("unexpected response status")

// Client talks to the ISS Finder server the way the page script does.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the server at baseURL.
func NewClient(baseURL string, httpClient ...*http.Client) *Client {
	client := http.DefaultClient
	if len(httpClient) > 0 && httpClient[0] != nil {
		client = httpClient[0]
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
	}
}

// UpdateLocation posts coords to /update_location.
func (c *Client) UpdateLocation(ctx context.Context, coords model.Coordinates) (*model.StatusResponse, error) {
	body, err := json.Marshal(coords)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/update_location", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	var resp model.StatusResponse
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RefreshISSPosition fetches the current ISS coordinates.
func (c *Client) RefreshISSPosition(ctx context.Context) (*model.ISSPosition, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/refresh_iss_position", nil)
	if err != nil {
		return nil, err
	}
	var pos model.ISSPosition
	if err := c.do(req, &pos); err != nil {
		return nil, err
	}
	return &pos, nil
}

// PageData fetches the values the server injects into the page.
func (c *Client) PageData(ctx context.Context) (*model.PageData, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/page_data", nil)
	if err != nil {
		return nil, err
	}
	var data model.PageData
	if err := c.do(req, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

func (c *Client) do(req *http.Request, dst interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp model.Response
		if json.NewDecoder(resp.Body).Decode(&errResp) == nil && errResp.Error != nil {
			return fmt.Errorf("%w: %d %s", ErrUnexpectedStatus, resp.StatusCode, *errResp.Error)
		}
		return fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode %s: %w", req.URL.Path, err)
	}
	return nil
}
