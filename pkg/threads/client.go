package threads

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"threadscli/pkg/auth"
	"threadscli/pkg/config"
	"threadscli/pkg/docid"
	errs "threadscli/pkg/errors"
	"threadscli/pkg/jsonv"
	"threadscli/pkg/logger"
	"threadscli/pkg/ratelimit"
	"threadscli/pkg/retry"
)

// maxErrorBody is how much of a failed response body is kept in an HttpError
const maxErrorBody = 200

// Client is a session against the Threads private API. It owns the
// credentials and memoizes the doc id set and the current user id; use one
// per process.
type Client struct {
	httpClient *http.Client
	baseURL    string
	mobileURL  string
	userAgent  string
	timeout    time.Duration
	pageSize   int

	creds    auth.Credentials
	docIDs   *docid.Cache
	limiter  ratelimit.Limiter
	retry    *retry.Config
	logger   logger.Logger
	deviceID string

	ids    *docid.Set
	userID string
}

// Options tunes a Client. Zero values select the defaults.
type Options struct {
	HTTPClient    *http.Client
	BaseURL       string
	MobileBaseURL string
	UserAgent     string
	// Timeout bounds each request; 0 disables it
	Timeout  time.Duration
	PageSize int
	DocIDs   *docid.Cache
	Limiter  ratelimit.Limiter
	Retry    *retry.Config
	Logger   logger.Logger
}

// NewClient creates a client. Unusable credentials are a ConfigError.
func NewClient(creds auth.Credentials, opts Options) (*Client, error) {
	if !creds.Usable() {
		return nil, errs.NewConfig(fmt.Sprintf("missing credentials: %s", strings.Join(creds.Missing(), ", ")))
	}

	log := opts.Logger
	if log == nil {
		log = logger.GetLogger()
	}
	c := &Client{
		httpClient: opts.HTTPClient,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		mobileURL:  strings.TrimRight(opts.MobileBaseURL, "/"),
		userAgent:  opts.UserAgent,
		timeout:    opts.Timeout,
		pageSize:   clampPageSize(opts.PageSize),
		creds:      creds,
		docIDs:     opts.DocIDs,
		limiter:    opts.Limiter,
		retry:      opts.Retry,
		logger:     log,
		deviceID:   uuid.NewString(),
		userID:     creds.UserID(),
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{}
	}
	if c.baseURL == "" {
		c.baseURL = BaseURL
	}
	if c.mobileURL == "" {
		c.mobileURL = MobileBaseURL
	}
	if c.userAgent == "" {
		c.userAgent = config.DefaultUserAgent
	}
	if c.limiter == nil {
		c.limiter = ratelimit.Unlimited{}
	}
	if c.retry == nil {
		c.retry = retry.DefaultConfig()
		c.retry.Logger = log
	}
	return c, nil
}

// NewDocIDCache builds the on-disk doc id cache and its discoverer from cfg
func NewDocIDCache(cfg *config.Config, log logger.Logger) (*docid.Cache, error) {
	if log == nil {
		log = logger.GetLogger()
	}
	discoverer := &docid.Discoverer{
		HTTP:        &http.Client{Timeout: cfg.Client.Timeout},
		BaseURL:     cfg.Client.BaseURL + "/",
		UserAgent:   cfg.Client.UserAgent,
		StaticHosts: cfg.Client.StaticAssetHosts,
		MaxBundles:  cfg.Client.MaxBundles,
		Logger:      log,
	}
	cachePath, err := cfg.DocIDCachePath()
	if err != nil {
		return nil, errs.NewConfig(fmt.Sprintf("cannot locate doc id cache: %v", err))
	}
	return docid.NewCache(docid.NewStore(cachePath, log), discoverer, log), nil
}

// FromConfig wires a client with the doc id cache, limiter and retry policy
// described by cfg
func FromConfig(cfg *config.Config, creds auth.Credentials, log logger.Logger) (*Client, error) {
	if log == nil {
		log = logger.GetLogger()
	}
	cache, err := NewDocIDCache(cfg, log)
	if err != nil {
		return nil, err
	}

	return NewClient(creds, Options{
		HTTPClient: &http.Client{},
		BaseURL:    cfg.Client.BaseURL,
		UserAgent:  cfg.Client.UserAgent,
		Timeout:    cfg.Client.Timeout,
		PageSize:   cfg.Pagination.PageSize,
		DocIDs:     cache,
		Limiter:    ratelimit.PerMinute(cfg.RateLimit.RequestsPerMinute),
		Retry:      retry.FromConfig(cfg.Retry, log),
		Logger:     log,
	})
}

// Credentials returns the session the client was built with
func (c *Client) Credentials() auth.Credentials {
	return c.creds
}

// DocIDs returns the doc id set, loading it on first use. force rediscovers
// even when the cached copy is fresh.
func (c *Client) DocIDs(ctx context.Context, force bool) (docid.Set, error) {
	if c.ids != nil && !force {
		return *c.ids, nil
	}
	if c.docIDs == nil {
		set := docid.FallbackSet()
		c.ids = &set
		return set, nil
	}

	set, err := c.docIDs.Get(ctx, force)
	if err != nil {
		return docid.Set{}, errs.NewTimeout(err)
	}
	c.ids = &set
	return set, nil
}

// GraphQL runs a persisted query and returns the "data" object of the response
func (c *Client) GraphQL(ctx context.Context, query docid.Query, variables map[string]any) (jsonv.Value, error) {
	ids, err := c.DocIDs(ctx, false)
	if err != nil {
		return jsonv.Value{}, err
	}

	vars, err := json.Marshal(variables)
	if err != nil {
		return jsonv.Value{}, fmt.Errorf("failed to encode variables: %w", err)
	}
	form := url.Values{}
	form.Set("doc_id", ids.ID(query))
	form.Set("variables", string(vars))
	form.Set("lsd", ids.SessionToken)
	form.Set("fb_api_caller_class", "RelayModern")
	form.Set("fb_api_req_friendly_name", docid.OperationName(query))
	form.Set("server_timestamps", "true")
	body := form.Encode()

	payload, err := c.send(ctx, string(query), func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+GraphQLEndpoint, strings.NewReader(body))
		if err != nil {
			return nil, err
		}
		c.setWebHeaders(req, ids.SessionToken)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("X-FB-Friendly-Name", docid.OperationName(query))
		return req, nil
	})
	if err != nil {
		return jsonv.Value{}, err
	}

	if data := payload.Get("data"); data.IsObject() {
		return data, nil
	}
	return payload, nil
}

// Get performs a GET against a web REST path such as CurrentUserEndpoint
func (c *Client) Get(ctx context.Context, path string) (jsonv.Value, error) {
	token := ""
	if c.ids != nil {
		token = c.ids.SessionToken
	}
	return c.send(ctx, path, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return nil, err
		}
		c.setWebHeaders(req, token)
		return req, nil
	})
}

// getMobile performs a GET against the Android app API
func (c *Client) getMobile(ctx context.Context, path string) (jsonv.Value, error) {
	return c.send(ctx, "mobile:"+path, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.mobileURL+path, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", MobileUserAgent)
		req.Header.Set("Accept", "*/*")
		req.Header.Set("Cookie", c.creds.CookieHeader())
		req.Header.Set("X-CSRFToken", c.creds.CSRFToken())
		req.Header.Set("X-IG-App-ID", MobileAppID)
		req.Header.Set("X-IG-Device-ID", c.deviceID)
		req.Header.Set("X-IG-Android-ID", "android-"+strings.ReplaceAll(c.deviceID, "-", "")[:16])
		return req, nil
	})
}

func (c *Client) setWebHeaders(req *http.Request, lsd string) {
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Cookie", c.creds.CookieHeader())
	req.Header.Set("X-CSRFToken", c.creds.CSRFToken())
	req.Header.Set("X-IG-App-ID", WebAppID)
	req.Header.Set("X-ASBD-ID", ASBDID)
	if lsd != "" {
		req.Header.Set("X-FB-LSD", lsd)
	}
	req.Header.Set("Origin", c.baseURL)
	req.Header.Set("Referer", c.baseURL+"/")
	req.Header.Set("Sec-Fetch-Site", "same-origin")
	req.Header.Set("Sec-Fetch-Mode", "cors")
	req.Header.Set("Sec-Fetch-Dest", "empty")
}

// send runs one logical call through the rate limiter and retry policy
func (c *Client) send(ctx context.Context, endpoint string, build func(context.Context) (*http.Request, error)) (jsonv.Value, error) {
	return retry.DoWithResult(ctx, func(ctx context.Context) (jsonv.Value, error) {
		if wait := c.limiter.Delay(); wait > 0 {
			logger.LogRateLimit(c.logger, endpoint, wait)
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return jsonv.Value{}, errs.NewTimeout(err)
		}
		return c.do(ctx, endpoint, build)
	}, c.retry)
}

func (c *Client) do(ctx context.Context, endpoint string, build func(context.Context) (*http.Request, error)) (jsonv.Value, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := build(ctx)
	if err != nil {
		return jsonv.Value{}, fmt.Errorf("failed to create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		err = transportError(ctx, err)
		logger.LogRequest(c.logger, req.Method, endpoint, 0, time.Since(start), err)
		return jsonv.Value{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		err = transportError(ctx, err)
		logger.LogRequest(c.logger, req.Method, endpoint, resp.StatusCode, time.Since(start), err)
		return jsonv.Value{}, err
	}

	payload, err := classify(resp.StatusCode, body)
	logger.LogRequest(c.logger, req.Method, endpoint, resp.StatusCode, time.Since(start), err)
	return payload, err
}

func transportError(ctx context.Context, err error) error {
	if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.NewTimeout(err)
	}
	return errs.NewNetwork(err)
}

// classify turns a raw response into a payload or a classified error. An
// HTML body means the session was bounced to the login page, whatever the status.
func classify(status int, body []byte) (jsonv.Value, error) {
	if looksLikeHTML(body) {
		return jsonv.Value{}, errs.NewAuth("session invalid or expired (received an HTML page)")
	}
	if status < 200 || status > 299 {
		return jsonv.Value{}, errs.NewHTTP(status, truncate(body, maxErrorBody))
	}

	payload, err := jsonv.Parse(body)
	if err != nil {
		return jsonv.Value{}, errs.NewAPI("malformed response")
	}

	if list := payload.Get("errors").Array(); len(list) > 0 {
		msgs := make([]string, 0, len(list))
		for _, e := range list {
			if m := errorMessage(e); m != "" {
				msgs = append(msgs, m)
			}
		}
		if len(msgs) == 0 {
			msgs = append(msgs, "unknown error")
		}
		return jsonv.Value{}, errs.NewAPI(strings.Join(msgs, "; "))
	}

	if st, ok := payload.Get("status").Str(); ok && st != "ok" {
		if m, ok := payload.Get("message").Str(); ok && m != "" {
			return jsonv.Value{}, errs.NewAPI(m)
		}
		return jsonv.Value{}, errs.NewAPI(st)
	}
	return payload, nil
}

func errorMessage(e jsonv.Value) string {
	if s, ok := e.Str(); ok {
		return s
	}
	for _, key := range []string{"message", "summary", "description"} {
		if s, ok := e.Get(key).Str(); ok && s != "" {
			return s
		}
	}
	return ""
}

func looksLikeHTML(body []byte) bool {
	trimmed := bytes.TrimLeft(body, " \t\r\n\ufeff")
	if len(trimmed) > 16 {
		trimmed = trimmed[:16]
	}
	lower := bytes.ToLower(trimmed)
	return bytes.HasPrefix(lower, []byte("<!doctype")) || bytes.HasPrefix(lower, []byte("<html"))
}

func truncate(body []byte, n int) string {
	s := strings.TrimSpace(string(body))
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
