package authentik

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-authentik-portal/internal/config"
	errs "github.com/jrsteele09/go-authentik-portal/internal/errors"
)

// API paths under the provider base URL.
const (
	usersPath         = "/api/v3/core/users/"
	groupsPath        = "/api/v3/core/groups/"
	rolesPath         = "/api/v3/rbac/roles/"
	scopeMappingsPath = "/api/v3/propertymappings/provider/scope/"
)

// Client calls the provider's management API with a statically configured
// internal service token. User session tokens are never forwarded here; the
// privilege separation between the UI session and the management API is
// deliberate.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewClient(cfg config.AuthentikConfig) *Client {
	return &Client{
		baseURL:    strings.TrimRight(cfg.GetAuthentikURL(), "/"),
		token:      cfg.GetInternalToken(),
		httpClient: &http.Client{Timeout: cfg.GetUpstreamTimeout()},
	}
}

// ListUsers fetches the full user collection. Pagination over the result is
// applied client-side, see PaginateUsers.
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	return list[User](ctx, c, usersPath, "list users")
}

func (c *Client) ListGroups(ctx context.Context) ([]Group, error) {
	return list[Group](ctx, c, groupsPath, "list groups")
}

func (c *Client) ListRoles(ctx context.Context) ([]Role, error) {
	return list[Role](ctx, c, rolesPath, "list roles")
}

// ListScopeMappings tolerates an empty response body: the provider may
// legitimately return nothing, which is an empty collection, not an error.
func (c *Client) ListScopeMappings(ctx context.Context) ([]ScopeMapping, error) {
	const op = "list scope mappings"
	body, err := c.get(ctx, scopeMappingsPath, op)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return []ScopeMapping{}, nil
	}
	var envelope resultsEnvelope[ScopeMapping]
	if err := json.Unmarshal(body, &envelope); err != nil {
		return []ScopeMapping{}, nil
	}
	if envelope.Results == nil {
		return []ScopeMapping{}, nil
	}
	return envelope.Results, nil
}

// CreateScopeMapping posts a new scope mapping. Anything but 201 Created is
// an upstream failure carrying the provider's status.
func (c *Client) CreateScopeMapping(ctx context.Context, mapping ScopeMappingRequest) error {
	const op = "create scope mapping"

	payload, err := json.Marshal(mapping)
	if err != nil {
		return errs.Wrapf(err, "[authentik CreateScopeMapping] marshalling payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+scopeMappingsPath, bytes.NewReader(payload))
	if err != nil {
		return errs.Wrapf(err, "[authentik CreateScopeMapping] building request")
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errs.Upstream(op, http.StatusBadGateway, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return errs.Upstream(op, resp.StatusCode, nil)
	}
	return nil
}

func list[T any](ctx context.Context, c *Client, path, op string) ([]T, error) {
	body, err := c.get(ctx, path, op)
	if err != nil {
		return nil, err
	}
	var envelope resultsEnvelope[T]
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, errs.Upstream(op, http.StatusBadGateway, fmt.Errorf("decoding response: %w", err))
	}
	return envelope.Results, nil
}

func (c *Client) get(ctx context.Context, path, op string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, errs.Wrapf(err, "[authentik get] building request")
	}
	c.setHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errs.Upstream(op, http.StatusBadGateway, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errs.Upstream(op, resp.StatusCode, nil)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.Upstream(op, http.StatusBadGateway, err)
	}
	return body, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
}
