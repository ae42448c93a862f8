// Package ubereats talks to the group order endpoints and turns their
// responses into an ExtractedOrder.
package ubereats

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const (
	joinPath     = "/_p/api/addMemberToDraftOrderV1"
	checkoutPath = "/_p/api/getCheckoutPresentationV1"
	storePath    = "/_p/api/getStoreV1"

	DefaultTimeout = 8 * time.Second

	maxBodyBytes = 8 << 20
	userAgent    = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"
)

// checkoutPayloadTypes asks for every section the extractors read.
var checkoutPayloadTypes = []string{
	"fareBreakdown", "total", "cartItems", "orderItems", "deliveryDetails",
	"eaterInfo", "paymentProfiles", "promotion", "basketSize", "storeInfo",
}

// ProbeURLs lists endpoints that answer quickly and reveal whether a sid is
// still accepted.
func ProbeURLs(baseURL string) []string {
	base := strings.TrimRight(baseURL, "/")
	return []string{
		base + "/_p/api/getUserV1",
		base + "/_p/api/getActiveOrdersV1",
		base + "/_p/api/getDraftOrdersByEaterUuidV1",
	}
}

// StatusError is a non-200 answer from an upstream endpoint.
type StatusError struct {
	Stage string
	Code  int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s failed: %d", e.Stage, e.Code)
}

// ProviderError is a 200 response whose body reports a failure.
type ProviderError struct {
	Stage   string
	Message string
}

func (e *ProviderError) Error() string {
	if e.Message == "" {
		return e.Stage + " failed: provider reported failure"
	}
	return e.Message
}

// Client defines the provider calls the order lookup needs.
type Client interface {
	JoinDraftOrder(ctx context.Context, sid, draftOrderUUID string) (gjson.Result, error)
	GetCheckout(ctx context.Context, sid, draftOrderUUID string) (gjson.Result, error)
	GetStore(ctx context.Context, sid, storeUUID string) (gjson.Result, error)
	FetchPage(ctx context.Context, sid, link string) (string, error)
}

type client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
}

// NewClient returns an HTTP Client rooted at baseURL. Every call is bounded
// by timeout.
func NewClient(baseURL string, timeout time.Duration, httpClient *http.Client) Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient, timeout: timeout}
}

func (c *client) JoinDraftOrder(ctx context.Context, sid, draftOrderUUID string) (gjson.Result, error) {
	return c.postJSON(ctx, "join", joinPath, sid, map[string]any{
		"draftOrderUuid": draftOrderUUID,
		"nickname":       "",
	})
}

func (c *client) GetCheckout(ctx context.Context, sid, draftOrderUUID string) (gjson.Result, error) {
	res, err := c.postJSON(ctx, "checkout", checkoutPath, sid, map[string]any{
		"draftOrderUUID": draftOrderUUID,
		"payloadTypes":   checkoutPayloadTypes,
		"isGroupOrder":   true,
	})
	if err != nil {
		return res, err
	}
	if strings.EqualFold(res.Get("status").String(), "failure") {
		return res, &ProviderError{Stage: "checkout", Message: res.Get("data.message").String()}
	}
	return res, nil
}

func (c *client) GetStore(ctx context.Context, sid, storeUUID string) (gjson.Result, error) {
	return c.postJSON(ctx, "store", storePath, sid, map[string]any{"storeUuid": storeUUID})
}

// FetchPage fetches the rendered order page. Only the path and query of link
// are used; the host is always the configured base URL.
func (c *client) FetchPage(ctx context.Context, sid, link string) (string, error) {
	u, err := url.Parse(link)
	if err != nil {
		return "", fmt.Errorf("failed to parse link: %w", err)
	}
	target := c.baseURL + u.EscapedPath()
	if u.RawQuery != "" {
		target += "?" + u.RawQuery
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req, sid)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("page request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", &StatusError{Stage: "page", Code: resp.StatusCode}
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read page: %w", err)
	}
	return string(b), nil
}

func (c *client) postJSON(ctx context.Context, stage, path, sid string, body any) (gjson.Result, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("failed to encode %s request: %w", stage, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return gjson.Result{}, fmt.Errorf("failed to create %s request: %w", stage, err)
	}
	c.setHeaders(req, sid)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("%s request failed: %w", stage, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return gjson.Result{}, &StatusError{Stage: stage, Code: resp.StatusCode}
	}

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return gjson.Result{}, fmt.Errorf("failed to read %s response: %w", stage, err)
	}
	if !gjson.ValidBytes(b) {
		return gjson.Result{}, fmt.Errorf("%s response is not valid JSON", stage)
	}
	return gjson.ParseBytes(b), nil
}

func (c *client) setHeaders(req *http.Request, sid string) {
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("x-csrf-token", "x")
	if sid != "" {
		req.Header.Set("Cookie", "sid="+sid)
	}
}
