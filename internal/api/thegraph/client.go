package thegraph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	httpClient "github.com/Alias1177/Rebalancer/internal/platform/http"
	"github.com/Alias1177/Rebalancer/models"
)

// DefaultGatewayURL is the public The Graph gateway
const DefaultGatewayURL = "https://gateway.thegraph.com"

const poolQuery = `query Pool($id: ID!) {
  pool(id: $id) {
    tick
    sqrtPrice
    liquidity
    volumeUSD
  }
}`

const poolDayDataQuery = `query PoolDayData($pool: String!, $days: Int!) {
  poolDayDatas(first: $days, orderBy: date, orderDirection: desc, where: {pool: $pool}) {
    date
    sqrtPrice
    liquidity
    volumeToken0
    volumeToken1
  }
}`

// Client is the subgraph GraphQL client
type Client struct {
	endpoint   string
	httpClient *httpClient.Client
	logger     zerolog.Logger
}

// ClientOptions holds options for creating a new subgraph client
type ClientOptions struct {
	GatewayURL      string
	APIKey          string
	SubgraphID      string
	RequestTimeout  time.Duration
	RequestsPerSec  int
	MaxRetries      int
	MaxRetryTimeout time.Duration
}

// Pool is the current state of a pool. Tick is null for pools that were never initialized.
type Pool struct {
	Tick      *string `json:"tick"`
	SqrtPrice string  `json:"sqrtPrice"`
	Liquidity string  `json:"liquidity"`
	VolumeUSD string  `json:"volumeUSD"`
}

// PoolDayData is one daily aggregate of a pool
type PoolDayData struct {
	Date         int64  `json:"date"`
	SqrtPrice    string `json:"sqrtPrice"`
	Liquidity    string `json:"liquidity"`
	VolumeToken0 string `json:"volumeToken0"`
	VolumeToken1 string `json:"volumeToken1"`
}

type graphQLRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

type graphQLError struct {
	Message string `json:"message"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors"`
}

// Endpoint builds the gateway URL of a subgraph
func Endpoint(gatewayURL, apiKey, subgraphID string) string {
	if gatewayURL == "" {
		gatewayURL = DefaultGatewayURL
	}
	return fmt.Sprintf("%s/api/%s/subgraphs/id/%s", strings.TrimSuffix(gatewayURL, "/"), apiKey, subgraphID)
}

// NewClient creates a new subgraph client
func NewClient(options ClientOptions, logger zerolog.Logger) *Client {
	httpOpts := httpClient.ClientOptions{
		Name:            "thegraph",
		Timeout:         options.RequestTimeout,
		RequestsPerSec:  options.RequestsPerSec,
		MaxRetries:      options.MaxRetries,
		MaxRetryTimeout: options.MaxRetryTimeout,
	}

	return &Client{
		endpoint:   Endpoint(options.GatewayURL, options.APIKey, options.SubgraphID),
		httpClient: httpClient.NewClient(httpOpts),
		logger:     logger.With().Str("component", "thegraph_client").Logger(),
	}
}

// Pool fetches the current pool state. A missing pool yields (nil, nil).
func (c *Client) Pool(ctx context.Context, poolID string) (*Pool, error) {
	var data struct {
		Pool *Pool `json:"pool"`
	}
	vars := map[string]interface{}{"id": strings.ToLower(poolID)}
	if err := c.query(ctx, poolQuery, vars, &data); err != nil {
		return nil, err
	}
	return data.Pool, nil
}

// PoolDayData fetches up to days daily aggregates, newest first
func (c *Client) PoolDayData(ctx context.Context, poolID string, days int) ([]PoolDayData, error) {
	var data struct {
		PoolDayDatas []PoolDayData `json:"poolDayDatas"`
	}
	vars := map[string]interface{}{"pool": strings.ToLower(poolID), "days": days}
	if err := c.query(ctx, poolDayDataQuery, vars, &data); err != nil {
		return nil, err
	}

	c.logger.Debug().Int("count", len(data.PoolDayDatas)).Msg("Fetched pool day data")
	return data.PoolDayDatas, nil
}

func (c *Client) query(ctx context.Context, query string, vars map[string]interface{}, out interface{}) error {
	payload, err := json.Marshal(graphQLRequest{Query: query, Variables: vars})
	if err != nil {
		return fmt.Errorf("encoding query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.DoRequest(ctx, req)
	if err != nil {
		return fmt.Errorf("%w: subgraph query: %w", models.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: reading response body: %w", models.ErrUpstreamUnavailable, err)
	}

	var envelope graphQLResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		c.logger.Error().Err(err).Str("response", string(body)).Msg("Error parsing JSON")
		return fmt.Errorf("%w: parsing JSON: %w", models.ErrMalformedData, err)
	}

	if len(envelope.Errors) > 0 {
		messages := make([]string, 0, len(envelope.Errors))
		for _, e := range envelope.Errors {
			messages = append(messages, e.Message)
		}
		c.logger.Error().Strs("errors", messages).Msg("Subgraph returned errors")
		return fmt.Errorf("%w: subgraph errors: %s", models.ErrUpstreamUnavailable, strings.Join(messages, "; "))
	}

	if len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		return fmt.Errorf("%w: response has no data", models.ErrMalformedData)
	}

	if err := json.Unmarshal(envelope.Data, out); err != nil {
		c.logger.Error().Err(err).Str("response", string(body)).Msg("Error parsing subgraph data")
		return fmt.Errorf("%w: parsing data: %w", models.ErrMalformedData, err)
	}
	return nil
}
