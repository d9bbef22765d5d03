package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/marcus-crane/lobby/models"
	"github.com/marcus-crane/lobby/utils"
)

// Client reads the public snapshots off the lobby API. It is what the display
// falls back on whenever the push channel can't be trusted.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewClient(baseURL, token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = utils.NewHTTPClient()
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		http:    httpClient,
	}
}

func (c *Client) GetPatients(ctx context.Context) ([]models.Patient, error) {
	var snapshot models.PatientsSnapshot
	if err := c.get(ctx, "/api/patients", &snapshot); err != nil {
		return nil, err
	}
	if snapshot.Patients == nil {
		return []models.Patient{}, nil
	}
	return snapshot.Patients, nil
}

func (c *Client) GetMedia(ctx context.Context) ([]models.MediaItem, error) {
	var snapshot models.MediaSnapshot
	if err := c.get(ctx, "/api/media", &snapshot); err != nil {
		return nil, err
	}
	if snapshot.Media == nil {
		return []models.MediaItem{}, nil
	}
	return snapshot.Media, nil
}

func (c *Client) get(ctx context.Context, path string, into any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach %s: %w", path, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return fmt.Errorf("%s returned %d: %s", path, res.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(res.Body).Decode(into); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}
