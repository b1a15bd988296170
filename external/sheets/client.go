// Package sheets fetches delimited table exports from the spreadsheet
// service. Access methods are tried in a fixed order and the first one
// yielding well-formed text wins; permission pages and empty bodies are
// soft failures that fall through to the next method.
package sheets

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"

	"github.com/mzawada/trainload/internal/platform/delimited"
	"github.com/mzawada/trainload/internal/platform/logging"
	"github.com/mzawada/trainload/internal/platform/resilience"
	"github.com/mzawada/trainload/internal/usecase"
)

const (
	defaultBaseURL  = "https://docs.google.com/spreadsheets/d"
	maxResponseSize = 4 << 20
)

var errSheetsTransient = crerr.New("sheets transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	ProxyBaseURL   string
	DocID          string
	Timeout        time.Duration
	MaxRetries     int
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

type Client struct {
	httpClient     *http.Client
	baseURL        string
	proxyBaseURL   string
	docID          string
	maxRetries     int
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 15 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		proxyBaseURL:   strings.TrimRight(strings.TrimSpace(cfg.ProxyBaseURL), "/"),
		docID:          strings.TrimSpace(cfg.DocID),
		maxRetries:     maxInt(cfg.MaxRetries, 0),
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
	}
}

// FetchTable returns the raw delimited text for one tab. An error is
// returned only when every access method has been exhausted on every
// retry round.
func (c *Client) FetchTable(ctx context.Context, ref usecase.TableRef) (string, error) {
	if c.docID == "" {
		return "", fmt.Errorf("sheets document id is not configured")
	}

	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "sheets circuit breaker rejected request", "state", c.breaker.State())
			return "", fmt.Errorf("%w: spreadsheet service is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	methods := c.accessMethods(ref)
	if len(methods) == 0 {
		return "", fmt.Errorf("table reference is empty")
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		for _, method := range methods {
			text, err := c.fetchText(ctx, method.url)
			if err == nil {
				c.recordCircuitResult(nil)
				return text, nil
			}
			lastErr = fmt.Errorf("%s: %w", method.name, err)
			c.logger.DebugContext(ctx, "sheets access method failed",
				"method", method.name, "gid", ref.GID, "sheet", ref.Sheet, "error", err)
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
		}

		if attempt == c.maxRetries {
			break
		}
		backoff := time.Duration(attempt+1) * time.Second
		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", ctx.Err()
		case <-timer.C:
		}
	}

	c.recordCircuitResult(lastErr)
	c.logger.WarnContext(ctx, "sheets fetch exhausted all access methods",
		"gid", ref.GID, "sheet", ref.Sheet, "error", lastErr)
	return "", fmt.Errorf("fetch table gid=%s sheet=%s: %w", ref.GID, ref.Sheet, lastErr)
}

type accessMethod struct {
	name string
	url  string
}

func (c *Client) accessMethods(ref usecase.TableRef) []accessMethod {
	methods := make([]accessMethod, 0, 4)

	if ref.GID != "" {
		methods = append(methods, accessMethod{
			name: "gid_export",
			url:  fmt.Sprintf("%s/%s/export?format=csv&gid=%s", c.baseURL, c.docID, url.QueryEscape(ref.GID)),
		})
	}
	if ref.Sheet != "" {
		methods = append(methods, accessMethod{
			name: "gviz_sheet",
			url:  fmt.Sprintf("%s/%s/gviz/tq?tqx=out:csv&sheet=%s", c.baseURL, c.docID, url.QueryEscape(ref.Sheet)),
		})
	}
	if ref.GID != "" || ref.Sheet != "" {
		methods = append(methods, accessMethod{
			name: "plain_export",
			url:  fmt.Sprintf("%s/%s/export?format=csv", c.baseURL, c.docID),
		})
	}
	if c.proxyBaseURL != "" {
		values := url.Values{}
		values.Set("id", c.docID)
		if ref.GID != "" {
			values.Set("gid", ref.GID)
		}
		if ref.Sheet != "" {
			values.Set("sheet", ref.Sheet)
		}
		methods = append(methods, accessMethod{
			name: "read_proxy",
			url:  c.proxyBaseURL + "?" + values.Encode(),
		})
	}

	return methods
}

func (c *Client) fetchText(ctx context.Context, fullURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("accept", "text/csv, text/plain")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: send request: %v", errSheetsTransient, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return "", fmt.Errorf("%w: read response body: %v", errSheetsTransient, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if isRetryableStatus(resp.StatusCode) {
			return "", fmt.Errorf("%w: status=%d", errSheetsTransient, resp.StatusCode)
		}
		return "", fmt.Errorf("status=%d", resp.StatusCode)
	}

	text := string(raw)
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("empty body")
	}
	if delimited.LooksLikeHTML(text) {
		// Permission and error pages come back as HTML with status 200.
		return "", fmt.Errorf("html payload instead of delimited text")
	}

	return text, nil
}

func (c *Client) recordCircuitResult(err error) {
	if !c.circuitEnabled || c.breaker == nil {
		return
	}
	if err == nil || !stderrors.Is(err, errSheetsTransient) {
		c.breaker.RecordSuccess()
		return
	}
	c.breaker.RecordFailure()
}

func isRetryableStatus(statusCode int) bool {
	return statusCode == http.StatusRequestTimeout ||
		statusCode == http.StatusTooManyRequests ||
		statusCode >= http.StatusInternalServerError
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
