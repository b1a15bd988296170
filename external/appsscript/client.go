// Package appsscript talks to the write collaborator that patches rows in
// the source spreadsheet.
package appsscript

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/valyala/bytebufferpool"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/mzawada/trainload/internal/platform/logging"
	"github.com/mzawada/trainload/internal/platform/resilience"
	"github.com/mzawada/trainload/internal/usecase"
)

var errAppsScriptTransient = crerr.New("appsscript transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	URL            string
	Timeout        time.Duration
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

type Client struct {
	httpClient     *http.Client
	endpoint       string
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
		httpClient.Timeout = 20 * time.Second
	}
	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient:     httpClient,
		endpoint:       strings.TrimSpace(cfg.URL),
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		circuitEnabled: breakerCfg.Enabled,
	}
}

// Submit posts one update or delete command and decodes the structured
// result. A result with OK=false is not an error at this layer: the
// collaborator answered, it just declined.
func (c *Client) Submit(ctx context.Context, cmd usecase.WriteCommand) (usecase.WriteResult, error) {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "appsscript circuit breaker rejected request", "state", c.breaker.State())
			return usecase.WriteResult{}, fmt.Errorf("%w: write collaborator is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	endpoint, err := validateHTTPBaseURL(c.endpoint)
	if err != nil {
		return usecase.WriteResult{}, crerr.Wrap(err, "invalid APPSSCRIPT_URL")
	}

	form := url.Values{}
	form.Set("action", string(cmd.Action))
	form.Set("name", cmd.Name)
	form.Set("trainingDate", cmd.TrainingDate)
	form.Set("timestamp", cmd.Timestamp)
	if cmd.Action == usecase.WriteActionUpdate {
		form.Set("minutes", strconv.FormatFloat(cmd.Minutes, 'f', -1, 64))
	}
	if cmd.Sheet != "" {
		form.Set("sheet", cmd.Sheet)
	}
	encoded := form.Encode()
	curlPreview := buildCurlPreview(endpoint, encoded)

	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.SetAttributes(
			attribute.String("appsscript.action", string(cmd.Action)),
			attribute.String("appsscript.sheet", cmd.Sheet),
			attribute.String("appsscript.request_curl_preview", curlPreview),
		)
	}
	c.logger.InfoContext(ctx, "appsscript submit",
		"action", cmd.Action, "sheet", cmd.Sheet, "curl_preview", curlPreview)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(encoded))
	if err != nil {
		return usecase.WriteResult{}, crerr.Wrap(err, "create appsscript request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		callErr := fmt.Errorf("%w: submit action=%s: %v", errAppsScriptTransient, cmd.Action, err)
		c.recordCircuitResult(callErr)
		return usecase.WriteResult{}, callErr
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		callErr := fmt.Errorf("%w: read response body: %v", errAppsScriptTransient, err)
		c.recordCircuitResult(callErr)
		return usecase.WriteResult{}, callErr
	}

	if resp.StatusCode/100 != 2 {
		if isRetryableStatus(resp.StatusCode) {
			callErr := fmt.Errorf("%w: submit action=%s status=%d body=%s",
				errAppsScriptTransient, cmd.Action, resp.StatusCode, truncateForLog(strings.TrimSpace(string(raw)), 1024))
			c.recordCircuitResult(callErr)
			return usecase.WriteResult{}, callErr
		}
		callErr := fmt.Errorf("submit action=%s status=%d body=%s",
			cmd.Action, resp.StatusCode, truncateForLog(strings.TrimSpace(string(raw)), 1024))
		c.recordCircuitResult(callErr)
		return usecase.WriteResult{}, callErr
	}

	var payload struct {
		Status  string `json:"status"`
		Message string `json:"message"`
		Sheet   string `json:"sheet"`
	}
	if err := sonic.Unmarshal(raw, &payload); err != nil {
		callErr := fmt.Errorf("decode collaborator response: %w", err)
		c.recordCircuitResult(callErr)
		return usecase.WriteResult{}, callErr
	}

	c.recordCircuitResult(nil)
	return usecase.WriteResult{
		OK:      payload.Status == "success",
		Status:  payload.Status,
		Message: payload.Message,
		Sheet:   payload.Sheet,
	}, nil
}

func validateHTTPBaseURL(raw string) (string, error) {
	candidate := strings.TrimSpace(raw)
	if candidate == "" {
		return "", crerr.New("value is empty")
	}

	parsed, err := url.Parse(candidate)
	if err != nil {
		return "", crerr.Wrapf(err, "parse %q", candidate)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", crerr.Newf("%q uses unsupported scheme=%q; expected http or https", candidate, parsed.Scheme)
	}
	if strings.TrimSpace(parsed.Host) == "" {
		return "", crerr.Newf("%q has empty host", candidate)
	}

	return strings.TrimRight(candidate, "/"), nil
}

func buildCurlPreview(endpoint, body string) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	appendPart := func(part string) {
		if buf.Len() > 0 {
			_ = buf.WriteByte(' ')
		}
		_, _ = buf.WriteString(part)
	}

	appendPart("curl")
	appendPart("-X")
	appendPart("POST")
	appendPart(shellQuote(endpoint))
	appendPart("-H")
	appendPart(shellQuote("Content-Type: application/x-www-form-urlencoded"))
	appendPart("-d")
	appendPart(shellQuote(truncateForLog(body, 1024)))

	return buf.String()
}

func shellQuote(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "'\"'\"'") + "'"
}

func truncateForLog(value string, max int) string {
	if max <= 0 || len(value) <= max {
		return value
	}
	return value[:max] + "...(truncated)"
}

func (c *Client) recordCircuitResult(err error) {
	if !c.circuitEnabled || c.breaker == nil {
		return
	}
	if err == nil || !stderrors.Is(err, errAppsScriptTransient) {
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
