// Package client talks to the project service, the authority on project
// membership and user profiles.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"projecthub-chat/internal/config"

	"github.com/google/uuid"
)

const defaultTimeout = 5 * time.Second

// ProjectClient implements service.MembershipOracle and service.UserLookup
// over the project service's internal HTTP API.
type ProjectClient struct {
	base string
	hc   *http.Client
}

func NewProjectClient(cfg config.ProjectServiceConfig) *ProjectClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &ProjectClient{
		base: cfg.BaseURL,
		hc:   &http.Client{Timeout: timeout},
	}
}

func (c *ProjectClient) IsMember(ctx context.Context, projectID, userID uuid.UUID) (bool, error) {
	var out struct {
		Member bool `json:"member"`
	}
	url := fmt.Sprintf("%s/internal/projects/%s/members/%s", c.base, projectID, userID)
	if err := c.getJSON(ctx, url, &out); err != nil {
		return false, err
	}
	return out.Member, nil
}

func (c *ProjectClient) IsOwner(ctx context.Context, projectID, userID uuid.UUID) (bool, error) {
	var out struct {
		OwnerID uuid.UUID `json:"owner_id"`
	}
	url := fmt.Sprintf("%s/internal/projects/%s", c.base, projectID)
	if err := c.getJSON(ctx, url, &out); err != nil {
		return false, err
	}
	return out.OwnerID == userID, nil
}

func (c *ProjectClient) DisplayNames(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]string, error) {
	if len(ids) == 0 {
		return map[uuid.UUID]string{}, nil
	}
	url := c.base + "/internal/users/names?ids="
	for i, id := range ids {
		if i > 0 {
			url += ","
		}
		url += id.String()
	}
	var out struct {
		Names map[uuid.UUID]string `json:"names"`
	}
	if err := c.getJSON(ctx, url, &out); err != nil {
		return nil, err
	}
	return out.Names, nil
}

func (c *ProjectClient) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("project service request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("project service status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
