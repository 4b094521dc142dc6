// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"asesor/internal/catalog"
)

// ============================================================================
// ELASTICSEARCH BACKEND
// ============================================================================

// DefaultESIndex is the product index name.
const DefaultESIndex = "products"

// ES searches a product index in Elasticsearch.
type ES struct {
	client *elasticsearch.Client
	index  string
}

// NewES connects to the given addresses. An empty index falls back to
// DefaultESIndex.
func NewES(addresses []string, index string) (*ES, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: addresses})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	if index == "" {
		index = DefaultESIndex
	}
	return &ES{client: client, index: index}, nil
}

// Search translates the query and filter expression into a bool query
// with range filters, sorted by ascending price.
func (e *ES) Search(ctx context.Context, query, filters string, hitsPerPage int) (*Result, error) {
	if hitsPerPage <= 0 {
		hitsPerPage = DefaultHitsPerPage
	}

	esQuery := buildESQuery(query, ParseExpression(filters), hitsPerPage)

	var buf strings.Builder
	if err := json.NewEncoder(&buf).Encode(esQuery); err != nil {
		return nil, fmt.Errorf("%w: encode query: %v", ErrBadResponse, err)
	}

	req := esapi.SearchRequest{
		Index: []string{e.index},
		Body:  strings.NewReader(buf.String()),
	}
	res, err := req.Do(ctx, e.client)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("%w: %s", ErrBadResponse, res.String())
	}

	return decodeSearchResponse(res.Body)
}

// buildESQuery combines an optional multi_match on the text fields with
// range and term filters derived from the filter expression.
func buildESQuery(query string, f Filter, size int) map[string]any {
	boolQuery := make(map[string]any)

	if strings.TrimSpace(query) != "" {
		boolQuery["must"] = []map[string]any{
			{
				"multi_match": map[string]any{
					"query":  query,
					"fields": []string{"name^2", "brand", "processor", "key_features"},
				},
			},
		}
	}

	var filterQueries []map[string]any
	if f.PriceMax > 0 {
		filterQueries = append(filterQueries, map[string]any{
			"range": map[string]any{"price_sale": map[string]any{"lt": f.PriceMax}},
		})
	}
	if f.WeightMax > 0 {
		filterQueries = append(filterQueries, map[string]any{
			"range": map[string]any{"weight_kg": map[string]any{"lt": f.WeightMax}},
		})
	}
	if f.BatteryMin > 0 {
		filterQueries = append(filterQueries, map[string]any{
			"range": map[string]any{"battery_hours": map[string]any{"gt": f.BatteryMin}},
		})
	}
	if f.InStockOnly {
		filterQueries = append(filterQueries, map[string]any{
			"term": map[string]any{"in_stock": true},
		})
	}
	if len(filterQueries) > 0 {
		boolQuery["filter"] = filterQueries
	}

	return map[string]any{
		"query": map[string]any{"bool": boolQuery},
		"size":  size,
		"sort":  []map[string]any{{"price_sale": map[string]any{"order": "asc"}}},
	}
}

// decodeSearchResponse pulls typed products out of the hits envelope.
type esEnvelope struct {
	Hits struct {
		Total struct {
			Value int `json:"value"`
		} `json:"total"`
		Hits []struct {
			ID     string          `json:"_id"`
			Source catalog.Product `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

func decodeSearchResponse(body io.Reader) (*Result, error) {
	var envelope esEnvelope
	if err := json.NewDecoder(body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadResponse, err)
	}

	hits := make([]catalog.Product, 0, len(envelope.Hits.Hits))
	for _, hit := range envelope.Hits.Hits {
		p := hit.Source
		if p.ObjectID == "" {
			p.ObjectID = hit.ID
		}
		hits = append(hits, p)
	}
	return &Result{Hits: hits, Total: envelope.Hits.Total.Value, Source: "elasticsearch"}, nil
}
