package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mstgnz/stripeconn/provider"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"
)

// ErrDisabled is returned by queries when OpenSearch recording is off
var ErrDisabled = errors.New("opensearch recording is disabled")

// Logger writes exchange records and system logs to OpenSearch
type Logger struct {
	client *Client
}

var _ provider.ExchangeRecorder = (*Logger)(nil)

// NewLogger creates a new OpenSearch logger
func NewLogger(client *Client) *Logger {
	return &Logger{
		client: client,
	}
}

// RecordExchange indexes one exchange, keyed by its request ID
func (l *Logger) RecordExchange(ctx context.Context, exchange provider.Exchange) error {
	if !l.client.IsEnabled() {
		return nil
	}

	exchangeJSON, err := json.Marshal(exchange)
	if err != nil {
		return fmt.Errorf("failed to marshal exchange: %w", err)
	}

	req := opensearchapi.IndexRequest{
		Index:      ExchangeIndex,
		DocumentID: exchange.RequestID,
		Body:       bytes.NewReader(exchangeJSON),
	}

	res, err := req.Do(ctx, l.client.GetClient())
	if err != nil {
		return fmt.Errorf("failed to index exchange: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("opensearch error: %s", res.String())
	}

	return nil
}

// ExchangesByTransaction returns every exchange recorded for a processor
// transaction ID, oldest first
func (l *Logger) ExchangesByTransaction(ctx context.Context, transactionID string) ([]provider.Exchange, error) {
	if !l.client.IsEnabled() {
		return nil, ErrDisabled
	}

	searchQuery := map[string]any{
		"query": map[string]any{
			"term": map[string]any{
				"transaction_id": transactionID,
			},
		},
		"sort": []map[string]any{
			{"timestamp": map[string]string{"order": "asc"}},
		},
		"size": 100,
	}

	queryJSON, err := json.Marshal(searchQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal query: %w", err)
	}

	req := opensearchapi.SearchRequest{
		Index: []string{ExchangeIndex},
		Body:  bytes.NewReader(queryJSON),
	}

	res, err := req.Do(ctx, l.client.GetClient())
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("opensearch search error: %s", res.String())
	}

	var searchResult struct {
		Hits struct {
			Hits []struct {
				Source provider.Exchange `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}

	if err := json.NewDecoder(res.Body).Decode(&searchResult); err != nil {
		return nil, fmt.Errorf("failed to decode search results: %w", err)
	}

	exchanges := make([]provider.Exchange, len(searchResult.Hits.Hits))
	for i, hit := range searchResult.Hits.Hits {
		exchanges[i] = hit.Source
	}

	return exchanges, nil
}

// LogSystemEvent logs a system event to OpenSearch
func (l *Logger) LogSystemEvent(ctx context.Context, log any) error {
	if !l.client.IsEnabled() {
		return nil
	}

	logJSON, err := json.Marshal(log)
	if err != nil {
		return fmt.Errorf("failed to marshal system log: %w", err)
	}

	req := opensearchapi.IndexRequest{
		Index: SystemLogIndex,
		Body:  bytes.NewReader(logJSON),
	}

	res, err := req.Do(ctx, l.client.GetClient())
	if err != nil {
		return fmt.Errorf("failed to index system log: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("opensearch system log error: %s", res.String())
	}

	return nil
}
