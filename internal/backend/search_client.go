package backend

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/hertz/pkg/app/client"
	"github.com/cloudwego/hertz/pkg/network/standard"
	"github.com/cloudwego/hertz/pkg/protocol"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"go.uber.org/zap"

	"github.com/liliang-cn/smartsearch/internal/domain"
	"github.com/liliang-cn/smartsearch/internal/normalize"
)

const (
	endpointSearch = "/search"
	endpointHealth = "/health"
)

// SearchFailedMessage is returned to callers when the REST search cannot complete
const SearchFailedMessage = "Search request failed. Please try again."

// recordAPI decodes upstream records with numbers kept as json.Number so
// large numeric ids survive intact.
var recordAPI = sonic.Config{UseNumber: true}.Froze()

// upstreamSearchResponse is the raw body of POST /search
type upstreamSearchResponse struct {
	Products     []domain.UpstreamRecord `json:"products"`
	Query        string                  `json:"query"`
	TotalResults *int                    `json:"total_results"`
	SearchTime   *float64                `json:"search_time"`
	Status       string                  `json:"status"`
	Message      string                  `json:"message"`
}

// SearchClient is the one-shot REST search collaborator
type SearchClient struct {
	client  *client.Client
	baseURL string
	timeout time.Duration
	logger  *zap.Logger
}

// NewSearchClient creates a new REST search client. timeout bounds each request.
func NewSearchClient(baseURL string, timeout time.Duration, logger *zap.Logger) (*SearchClient, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	c, err := client.NewClient(
		client.WithDialTimeout(10*time.Second),
		client.WithMaxIdleConnDuration(60*time.Second),
		client.WithDialer(standard.NewDialer()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	return &SearchClient{
		client:  c,
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		logger:  logger,
	}, nil
}

func (c *SearchClient) do(ctx context.Context, req *protocol.Request, resp *protocol.Response) error {
	if c.timeout > 0 {
		return c.client.DoTimeout(ctx, req, resp, c.timeout)
	}
	return c.client.Do(ctx, req, resp)
}

// Search posts the request to the backend and normalizes the products.
// It never returns an error; failures come back as an error-status response.
func (c *SearchClient) Search(ctx context.Context, sreq domain.SearchRequest) *domain.SearchResponse {
	body, err := sonic.Marshal(sreq)
	if err != nil {
		return c.failed(sreq.Query, fmt.Errorf("failed to marshal request: %w", err))
	}

	req := protocol.AcquireRequest()
	resp := protocol.AcquireResponse()
	defer func() {
		protocol.ReleaseRequest(req)
		protocol.ReleaseResponse(resp)
	}()

	req.SetMethod(consts.MethodPost)
	req.SetRequestURI(c.baseURL + endpointSearch)
	req.Header.SetContentTypeBytes([]byte(consts.MIMEApplicationJSON))
	req.Header.Set("Accept", consts.MIMEApplicationJSON)
	req.SetBody(body)

	if err := c.do(ctx, req, resp); err != nil {
		return c.failed(sreq.Query, fmt.Errorf("search request failed: %w", err))
	}

	if status := resp.StatusCode(); status < 200 || status >= 300 {
		return c.failed(sreq.Query, fmt.Errorf("backend returned status %d", status))
	}

	var raw upstreamSearchResponse
	if err := recordAPI.Unmarshal(resp.Body(), &raw); err != nil {
		return c.failed(sreq.Query, fmt.Errorf("failed to decode response: %w", err))
	}

	query := raw.Query
	if query == "" {
		query = sreq.Query
	}
	if raw.Status == domain.SearchStatusError {
		msg := raw.Message
		if msg == "" {
			msg = SearchFailedMessage
		}
		c.logger.Warn("Backend reported search error", zap.String("query", query), zap.String("message", msg))
		return domain.ErrorSearchResponse(query, msg)
	}

	products := make([]domain.Product, 0, len(raw.Products))
	for i, rec := range raw.Products {
		products = append(products, normalize.Product(rec, i))
	}

	total := len(products)
	if raw.TotalResults != nil {
		total = *raw.TotalResults
	}

	c.logger.Debug("Search completed", zap.String("query", query), zap.Int("products", len(products)))
	return &domain.SearchResponse{
		Products:     products,
		Query:        query,
		TotalResults: total,
		SearchTime:   raw.SearchTime,
		Status:       domain.SearchStatusSuccess,
		Message:      raw.Message,
	}
}

// Health reports whether GET /health answers with a 2xx status
func (c *SearchClient) Health(ctx context.Context) bool {
	req := protocol.AcquireRequest()
	resp := protocol.AcquireResponse()
	defer func() {
		protocol.ReleaseRequest(req)
		protocol.ReleaseResponse(resp)
	}()

	req.SetMethod(consts.MethodGet)
	req.SetRequestURI(c.baseURL + endpointHealth)

	if err := c.do(ctx, req, resp); err != nil {
		c.logger.Debug("Health check failed", zap.Error(err))
		return false
	}
	status := resp.StatusCode()
	return status >= 200 && status < 300
}

func (c *SearchClient) failed(query string, err error) *domain.SearchResponse {
	c.logger.Error("Search failed", zap.String("query", query), zap.Error(err))
	return domain.ErrorSearchResponse(query, SearchFailedMessage)
}
