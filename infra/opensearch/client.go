package opensearch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mstgnz/stripeconn/infra/config"
	"github.com/mstgnz/stripeconn/infra/logger"
	"github.com/opensearch-project/opensearch-go/v2"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"
)

const (
	ExchangeIndex  = "stripeconn-exchanges"
	SystemLogIndex = "stripeconn-system-logs"
)

const exchangeMapping = `{
	"mappings": {
		"properties": {
			"request_id": {"type": "keyword"},
			"timestamp": {
				"type": "date",
				"format": "strict_date_optional_time||epoch_millis"
			},
			"processor": {"type": "keyword"},
			"operation": {"type": "keyword"},
			"amount": {"type": "long"},
			"currency": {"type": "keyword"},
			"masked_card": {"type": "keyword"},
			"transaction_id": {"type": "keyword"},
			"status": {"type": "keyword"},
			"decline_reason": {"type": "keyword"},
			"error_message": {"type": "text"},
			"duration_ms": {"type": "long"}
		}
	},
	"settings": {
		"number_of_shards": 1,
		"number_of_replicas": 0
	}
}`

const systemLogMapping = `{
	"mappings": {
		"properties": {
			"timestamp": {"type": "date"},
			"level": {"type": "keyword"},
			"service": {"type": "keyword"},
			"component": {"type": "keyword"},
			"provider": {"type": "keyword"},
			"request_id": {"type": "keyword"},
			"message": {"type": "text"},
			"error": {"type": "text"}
		}
	},
	"settings": {
		"number_of_shards": 1,
		"number_of_replicas": 0
	}
}`

// Client wraps the OpenSearch client
type Client struct {
	client *opensearch.Client
	config config.OpenSearchConfig
}

// NewClient creates a new OpenSearch client and makes sure its indices exist
func NewClient(cfg config.OpenSearchConfig) (*Client, error) {
	opensearchConfig := opensearch.Config{
		Addresses:     []string{cfg.URL},
		MaxRetries:    3,
		RetryOnStatus: []int{502, 503, 504, 429},
		RetryBackoff: func(i int) time.Duration {
			return time.Duration(i) * 100 * time.Millisecond
		},
	}

	if cfg.User != "" && cfg.Password != "" {
		opensearchConfig.Username = cfg.User
		opensearchConfig.Password = cfg.Password
	}

	client, err := opensearch.NewClient(opensearchConfig)
	if err != nil {
		return nil, err
	}

	osClient := &Client{
		client: client,
		config: cfg,
	}

	if cfg.Enabled {
		if err := osClient.setupIndices(context.Background()); err != nil {
			logger.Warn(fmt.Sprintf("failed to setup OpenSearch indices: %v", err))
		}
	}

	return osClient, nil
}

// GetClient returns the underlying OpenSearch client
func (c *Client) GetClient() *opensearch.Client {
	return c.client
}

// IsEnabled returns whether OpenSearch recording is enabled
func (c *Client) IsEnabled() bool {
	return c.config.Enabled
}

func (c *Client) setupIndices(ctx context.Context) error {
	indices := map[string]string{
		ExchangeIndex:  exchangeMapping,
		SystemLogIndex: systemLogMapping,
	}

	for name, mapping := range indices {
		exists, err := c.indexExists(ctx, name)
		if err != nil {
			return fmt.Errorf("checking index %s: %w", name, err)
		}
		if exists {
			continue
		}
		if err := c.createIndex(ctx, name, mapping); err != nil {
			return fmt.Errorf("creating index %s: %w", name, err)
		}
		logger.Info("created OpenSearch index " + name)
	}

	return nil
}

func (c *Client) indexExists(ctx context.Context, indexName string) (bool, error) {
	req := opensearchapi.IndicesExistsRequest{
		Index: []string{indexName},
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return false, err
	}
	defer res.Body.Close()

	return res.StatusCode == 200, nil
}

func (c *Client) createIndex(ctx context.Context, indexName, mapping string) error {
	req := opensearchapi.IndicesCreateRequest{
		Index: indexName,
		Body:  strings.NewReader(mapping),
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index creation error: %s", res.String())
	}

	return nil
}
