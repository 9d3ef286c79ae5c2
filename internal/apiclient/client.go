package apiclient

import (
	"context"
	"encoding/json"
	"formar_portal/internal/config"
	"formar_portal/pkg/logger"
	"formar_portal/pkg/monitoring"
	"formar_portal/pkg/session"
	"formar_portal/pkg/tracing"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// API 是视图层依赖的上游调用接口
type API interface {
	Get(ctx context.Context, path string, out interface{}, opts ...Option) error
	Post(ctx context.Context, path string, body, out interface{}, opts ...Option) error
	Put(ctx context.Context, path string, body, out interface{}, opts ...Option) error
	Delete(ctx context.Context, path string, out interface{}, opts ...Option) error
}

// SessionClient 额外暴露凭据操作，仅认证流程使用
type SessionClient interface {
	API
	Mode() string
	SetToken(token string)
	ClearCredentials()
	Credentials() session.Credentials
}

type Option func(r *resty.Request)

func WithQuery(key, value string) Option {
	return func(r *resty.Request) { r.SetQueryParam(key, value) }
}

func WithHeader(key, value string) Option {
	return func(r *resty.Request) { r.SetHeader(key, value) }
}

// WithMultipartFields 以 multipart/form-data 发送，body 需为 nil
func WithMultipartFields(fields map[string]string) Option {
	return func(r *resty.Request) { r.SetMultipartFormData(fields) }
}

// WithFile 附加一个 multipart 文件
func WithFile(param, fileName string, reader io.Reader) Option {
	return func(r *resty.Request) { r.SetFileReader(param, fileName, reader) }
}

// Factory 共享底层 http.Client，为每个会话创建独立的 Client
type Factory struct {
	httpClient *http.Client
	baseURL    string
	mode       string
}

func NewFactory(cfg config.APIConfig) *Factory {
	return NewFactoryWithHTTPClient(cfg, &http.Client{
		Timeout:   cfg.Timeout,
		Transport: http.DefaultTransport.(*http.Transport).Clone(),
	})
}

func NewFactoryWithHTTPClient(cfg config.APIConfig, hc *http.Client) *Factory {
	return &Factory{
		httpClient: hc,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		mode:       cfg.AuthMode,
	}
}

func (f *Factory) Mode() string { return f.mode }

// ForSession 用会话中保存的凭据构造 Client
func (f *Factory) ForSession(creds session.Credentials) *Client {
	rc := resty.NewWithClient(f.httpClient).
		SetBaseURL(f.baseURL).
		SetHeader("Accept", "application/json")

	c := &Client{rc: rc, mode: f.mode, cookies: map[string]string{}}
	for k, v := range creds.Cookies {
		c.cookies[k] = v
	}
	c.token = creds.Token
	return c
}

// Client 单个会话的上游客户端。rc 创建后只读，token 与 cookie 在每次请求时取快照
type Client struct {
	rc   *resty.Client
	mode string

	mu      sync.Mutex
	token   string
	cookies map[string]string
	dirty   bool
}

func (c *Client) Mode() string { return c.mode }

func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token == token {
		return
	}
	c.token = token
	c.dirty = true
}

// ClearCredentials 丢弃 token 与全部 cookie
func (c *Client) ClearCredentials() {
	c.SetToken("")
	c.mu.Lock()
	if len(c.cookies) > 0 {
		c.cookies = map[string]string{}
		c.dirty = true
	}
	c.mu.Unlock()
}

func (c *Client) Credentials() session.Credentials {
	c.mu.Lock()
	defer c.mu.Unlock()
	creds := session.Credentials{Token: c.token}
	if len(c.cookies) > 0 {
		creds.Cookies = make(map[string]string, len(c.cookies))
		for k, v := range c.cookies {
			creds.Cookies[k] = v
		}
	}
	return creds
}

// Changed 报告凭据自创建以来是否变化，用于决定是否回写会话
func (c *Client) Changed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dirty
}

func (c *Client) Get(ctx context.Context, path string, out interface{}, opts ...Option) error {
	return c.Do(ctx, http.MethodGet, path, nil, out, opts...)
}

func (c *Client) Post(ctx context.Context, path string, body, out interface{}, opts ...Option) error {
	return c.Do(ctx, http.MethodPost, path, body, out, opts...)
}

func (c *Client) Put(ctx context.Context, path string, body, out interface{}, opts ...Option) error {
	return c.Do(ctx, http.MethodPut, path, body, out, opts...)
}

func (c *Client) Delete(ctx context.Context, path string, out interface{}, opts ...Option) error {
	return c.Do(ctx, http.MethodDelete, path, nil, out, opts...)
}

func (c *Client) Do(ctx context.Context, method, path string, body, out interface{}, opts ...Option) error {
	ctx, span := tracing.StartClientSpan(ctx, method, path)

	token, cookies := c.snapshot()
	req := c.rc.R().SetContext(ctx)
	if token != "" {
		req.SetAuthToken(token)
	}
	for _, ck := range cookies {
		req.SetCookie(ck)
	}
	if body != nil {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}
	for _, opt := range opts {
		opt(req)
	}

	start := time.Now()
	resp, err := req.Execute(method, path)
	elapsed := time.Since(start)

	if err != nil {
		apiErr := &APIError{Method: method, Path: path, Err: errors.Wrap(err, "upstream request")}
		monitoring.ObserveUpstream(method, 0, elapsed)
		tracing.EndClientSpan(span, 0, apiErr)
		logger.Log.Warn("upstream call failed",
			zap.String("method", method), zap.String("path", path), zap.Error(err))
		return apiErr
	}

	status := resp.StatusCode()
	monitoring.ObserveUpstream(method, status, elapsed)
	logger.Log.Debug("upstream call",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", status),
		zap.Duration("elapsed", elapsed),
	)

	c.absorbCookies(resp.Cookies())

	if resp.IsError() || status < 200 || status > 299 {
		apiErr := newStatusError(method, path, status, resp.Body())
		tracing.EndClientSpan(span, status, apiErr)
		return apiErr
	}

	tracing.EndClientSpan(span, status, nil)

	if out == nil || len(resp.Body()) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return errors.Wrapf(err, "decode %s %s", method, path)
	}
	return nil
}

func (c *Client) snapshot() (string, []*http.Cookie) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*http.Cookie, 0, len(c.cookies))
	for name, value := range c.cookies {
		out = append(out, &http.Cookie{Name: name, Value: value})
	}
	return c.token, out
}

// absorbCookies 模拟浏览器 withCredentials：保存上游下发的 cookie，过期即删除
func (c *Client) absorbCookies(cookies []*http.Cookie) {
	if len(cookies) == 0 {
		return
	}
	now := time.Now()
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ck := range cookies {
		expired := ck.MaxAge < 0 || (!ck.Expires.IsZero() && ck.Expires.Before(now))
		if expired || ck.Value == "" {
			if _, ok := c.cookies[ck.Name]; ok {
				delete(c.cookies, ck.Name)
				c.dirty = true
			}
			continue
		}
		if c.cookies[ck.Name] != ck.Value {
			c.cookies[ck.Name] = ck.Value
			c.dirty = true
		}
	}
}
