package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/harborline/stockroom-backend/pkg/config"
	"github.com/harborline/stockroom-backend/pkg/logger"
)

// Client talks to the Shopify Admin GraphQL API.
type Client struct {
	shopDomain  string
	accessToken string
	apiVersion  string
	httpClient  *http.Client
	logg        *logger.Logger
}

// NewClient builds a client from the Shopify config. The shop domain is
// normalized so either "shop.myshopify.com" or a full URL works.
func NewClient(cfg config.ShopifyConfig, logg *logger.Logger) (*Client, error) {
	domain := strings.TrimSuffix(
		strings.TrimPrefix(strings.TrimPrefix(cfg.ShopDomain, "https://"), "http://"),
		"/",
	)
	if domain == "" {
		return nil, fmt.Errorf("shop domain required")
	}
	if cfg.AccessToken == "" {
		return nil, fmt.Errorf("access token required")
	}
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		shopDomain:  domain,
		accessToken: cfg.AccessToken,
		apiVersion:  cfg.APIVersion,
		httpClient:  &http.Client{Timeout: timeout},
		logg:        logg,
	}, nil
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// GraphQLResponse is the raw Admin API response.
type GraphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []GraphQLError  `json:"errors,omitempty"`
}

// GraphQLError is one error entry from the Admin API.
type GraphQLError struct {
	Message string `json:"message"`
	Path    []any  `json:"path,omitempty"`
}

// Execute runs one GraphQL query or mutation against the Admin API.
func (c *Client) Execute(ctx context.Context, query string, variables map[string]any) (*GraphQLResponse, error) {
	url := fmt.Sprintf("https://%s/admin/api/%s/graphql.json", c.shopDomain, c.apiVersion)

	body, err := json.Marshal(graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Shopify-Access-Token", c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("admin api status %d: %s", resp.StatusCode, string(payload))
	}

	var decoded GraphQLResponse
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(decoded.Errors) > 0 {
		messages := make([]string, len(decoded.Errors))
		for i, gqlErr := range decoded.Errors {
			messages[i] = gqlErr.Message
		}
		return nil, fmt.Errorf("graphql errors: %s", strings.Join(messages, "; "))
	}
	return &decoded, nil
}
