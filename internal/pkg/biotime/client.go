// Package biotime talks to the biometric appliance reporting API. The
// appliance fronts punch devices and exposes paged monthly punch and
// absence reports plus the department and area reference lists.
package biotime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2/clientcredentials"

	"github.com/clockwork-hr/attendance-recon-go/internal/domain/roster"
)

// APIError is a non-2xx reply from the appliance.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("biotime: %d %s", e.StatusCode, e.Message)
}

// IsRetryable reports whether an upstream failure is worth one retry
// at a smaller page size: timeouts and 5xx replies qualify, client
// errors do not.
func IsRetryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= 500
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}

type Config struct {
	BaseURL      string
	TokenURL     string
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
}

type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a client that authenticates against the appliance
// token endpoint with OAuth2 client credentials. Token refresh is
// handled by the oauth2 transport.
func NewClient(cfg Config) *Client {
	cc := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	httpClient := cc.Client(context.Background())
	httpClient.Timeout = timeout

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    httpClient,
	}
}

type envelope struct {
	Success    bool            `json:"success"`
	Data       json.RawMessage `json:"data"`
	TotalCount int             `json:"totalCount"`
	Message    string          `json:"message"`
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out interface{}) (int, error) {
	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("appliance request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return 0, fmt.Errorf("failed to read appliance response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(string(body))
		var env envelope
		if json.Unmarshal(body, &env) == nil && env.Message != "" {
			msg = env.Message
		}
		return 0, &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return 0, fmt.Errorf("failed to decode appliance response: %w", err)
	}
	if !env.Success {
		return 0, &APIError{StatusCode: resp.StatusCode, Message: env.Message}
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return 0, fmt.Errorf("failed to decode appliance payload: %w", err)
		}
	}
	return env.TotalCount, nil
}

func pageParams(q roster.PageQuery) url.Values {
	params := url.Values{}
	params.Set("page", strconv.Itoa(q.Page))
	params.Set("page_size", strconv.Itoa(q.PageSize))
	params.Set("start_date", q.StartDate)
	params.Set("end_date", q.EndDate)
	params.Set("departments", orAll(q.Departments))
	params.Set("areas", orAll(q.Areas))
	params.Set("groups", orAll(q.Groups))
	params.Set("employees", orAll(q.Employees))
	return params
}

func orAll(v string) string {
	if v == "" {
		return "-1"
	}
	return v
}

// MonthlyPunch fetches one page of the wide monthly punch report.
func (c *Client) MonthlyPunch(ctx context.Context, q roster.PageQuery) (*roster.PunchPage, error) {
	var rows []roster.WideRow
	total, err := c.get(ctx, "/reports/monthly-punch", pageParams(q), &rows)
	if err != nil {
		return nil, err
	}
	return &roster.PunchPage{Rows: rows, TotalCount: total}, nil
}

// MonthlyAbsent fetches one page of the monthly absence report.
func (c *Client) MonthlyAbsent(ctx context.Context, q roster.PageQuery) (*roster.PunchPage, error) {
	var rows []roster.WideRow
	total, err := c.get(ctx, "/reports/monthly-absent", pageParams(q), &rows)
	if err != nil {
		return nil, err
	}
	return &roster.PunchPage{Rows: rows, TotalCount: total}, nil
}

// refItem tolerates the appliance's inconsistent field naming across
// firmware versions.
type refItem map[string]interface{}

func (r refItem) pick(keys ...string) string {
	for _, key := range keys {
		v, ok := r[key]
		if !ok || v == nil {
			continue
		}
		switch t := v.(type) {
		case string:
			if strings.TrimSpace(t) != "" {
				return strings.TrimSpace(t)
			}
		case float64:
			return strconv.FormatFloat(t, 'f', -1, 64)
		}
	}
	return ""
}

func normalizeRefItems(raw []refItem, idKeys, nameKeys []string) []roster.RefItem {
	items := make([]roster.RefItem, 0, len(raw))
	for _, r := range raw {
		item := roster.RefItem{
			ID:   r.pick(idKeys...),
			Name: r.pick(nameKeys...),
		}
		if item.ID == "" && item.Name == "" {
			continue
		}
		items = append(items, item)
	}
	return items
}

// Departments fetches the department reference list.
func (c *Client) Departments(ctx context.Context) ([]roster.RefItem, error) {
	var raw []refItem
	if _, err := c.get(ctx, "/reference/departments", nil, &raw); err != nil {
		return nil, err
	}
	return normalizeRefItems(raw,
		[]string{"id", "dept_id", "code", "dept_code"},
		[]string{"dept_name", "name", "title"},
	), nil
}

// Areas fetches the area reference list.
func (c *Client) Areas(ctx context.Context) ([]roster.RefItem, error) {
	var raw []refItem
	if _, err := c.get(ctx, "/reference/areas", nil, &raw); err != nil {
		return nil, err
	}
	return normalizeRefItems(raw,
		[]string{"id", "area_id", "code", "area_code"},
		[]string{"area_name", "name", "title"},
	), nil
}
