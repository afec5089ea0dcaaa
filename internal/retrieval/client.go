// Package retrieval binds the retrieval collaborator: an HTTP client against
// the retrieval service, with an LRU response cache, and a small static
// retriever used when no service is configured.
package retrieval

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"waypoint/internal/assistant"
)

const defaultCacheSize = 512

// Client fetches scored chunks from the retrieval service. Identical queries
// with identical hints are served from an in-process LRU cache.
type Client struct {
	http    *http.Client
	baseURL string
	cache   *lru.Cache[string, *assistant.RetrievalResult]
}

// NewClient creates a retrieval client. cacheSize <= 0 selects the default.
func NewClient(baseURL string, cacheSize int) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("retrieval base URL is required")
	}
	if cacheSize <= 0 {
		cacheSize = defaultCacheSize
	}
	cache, err := lru.New[string, *assistant.RetrievalResult](cacheSize)
	if err != nil {
		return nil, err
	}
	return &Client{
		http:    &http.Client{Timeout: 15 * time.Second},
		baseURL: baseURL,
		cache:   cache,
	}, nil
}

type fetchReq struct {
	Query     string `json:"query"`
	Mode      string `json:"mode,omitempty"`
	ModelSlug string `json:"modelSlug,omitempty"`
	Archetype string `json:"archetype,omitempty"`
}

type fetchResp struct {
	Chunks        []assistant.RetrievedChunk `json:"chunks"`
	MaxScore      float64                    `json:"maxScore"`
	RerankMetrics map[string]any             `json:"rerankMetrics"`
}

func (c *Client) Fetch(ctx context.Context, query string, hints assistant.QueryHints) (*assistant.RetrievalResult, error) {
	key := cacheKey(query, hints)
	if cached, ok := c.cache.Get(key); ok {
		return cached, nil
	}

	b, _ := json.Marshal(fetchReq{
		Query:     query,
		Mode:      hints.Mode,
		ModelSlug: hints.ModelSlug,
		Archetype: hints.Archetype,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &assistant.UpstreamError{Cause: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 500 {
		return nil, &assistant.UpstreamError{Cause: fmt.Errorf("retrieval: status %s", resp.Status)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("retrieval: unexpected status %s: %s", resp.Status, string(snippet))
	}

	var out fetchResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	result := &assistant.RetrievalResult{
		Chunks:        out.Chunks,
		MaxScore:      out.MaxScore,
		RerankMetrics: out.RerankMetrics,
	}
	c.cache.Add(key, result)
	return result, nil
}

func cacheKey(query string, hints assistant.QueryHints) string {
	return strings.ToLower(strings.TrimSpace(query)) + "|" + hints.Mode + "|" + hints.ModelSlug + "|" + hints.Archetype
}
