package service

import (
	"context"
	"encoding/json"
	"formar_portal/internal/apiclient"
	"formar_portal/internal/config"
	"formar_portal/pkg/session"
	"net/http"
	"sync"

	"github.com/go-resty/resty/v2"
)

type recordedCall struct {
	Method string
	Path   string
	Body   interface{}
	Query  map[string]string
	Form   map[string]string
}

// fakeAPI 按 "METHOD path?query" 或 "METHOD path" 返回预设数据或错误，未预设的路由返回 404
type fakeAPI struct {
	mu     sync.Mutex
	routes map[string]interface{}
	calls  []recordedCall
	mode    string
	token   string
	cleared int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{routes: map[string]interface{}{}, mode: config.AuthModeCookie}
}

func (f *fakeAPI) on(method, path string, resp interface{}) *fakeAPI {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes[method+" "+path] = resp
	return f
}

func statusErr(status int, message string) error {
	return &apiclient.APIError{Method: "TEST", Path: "/", Status: status, Message: message}
}

func (f *fakeAPI) do(method, path string, body, out interface{}, opts []apiclient.Option) error {
	req := resty.New().R()
	for _, opt := range opts {
		opt(req)
	}
	c := recordedCall{Method: method, Path: path, Body: body, Query: map[string]string{}, Form: map[string]string{}}
	for k := range req.QueryParam {
		c.Query[k] = req.QueryParam.Get(k)
	}
	for k := range req.FormData {
		c.Form[k] = req.FormData.Get(k)
	}

	f.mu.Lock()
	f.calls = append(f.calls, c)
	resp, ok := f.routes[method+" "+path+"?"+req.QueryParam.Encode()]
	if !ok {
		resp, ok = f.routes[method+" "+path]
	}
	f.mu.Unlock()

	if !ok {
		return statusErr(http.StatusNotFound, "")
	}
	if err, isErr := resp.(error); isErr {
		return err
	}
	if out == nil || resp == nil {
		return nil
	}
	raw, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func (f *fakeAPI) Get(_ context.Context, path string, out interface{}, opts ...apiclient.Option) error {
	return f.do(http.MethodGet, path, nil, out, opts)
}

func (f *fakeAPI) Post(_ context.Context, path string, body, out interface{}, opts ...apiclient.Option) error {
	return f.do(http.MethodPost, path, body, out, opts)
}

func (f *fakeAPI) Put(_ context.Context, path string, body, out interface{}, opts ...apiclient.Option) error {
	return f.do(http.MethodPut, path, body, out, opts)
}

func (f *fakeAPI) Delete(_ context.Context, path string, out interface{}, opts ...apiclient.Option) error {
	return f.do(http.MethodDelete, path, nil, out, opts)
}

func (f *fakeAPI) Mode() string { return f.mode }

func (f *fakeAPI) SetToken(token string) { f.token = token }

func (f *fakeAPI) ClearCredentials() {
	f.token = ""
	f.cleared++
}

func (f *fakeAPI) Credentials() session.Credentials { return session.Credentials{Token: f.token} }

// callsTo 返回匹配的调用记录
func (f *fakeAPI) callsTo(method, path string) []recordedCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []recordedCall
	for _, c := range f.calls {
		if c.Method == method && c.Path == path {
			out = append(out, c)
		}
	}
	return out
}

// bodyMap 将请求体转换为 map 方便断言
func bodyMap(v interface{}) map[string]interface{} {
	raw, _ := json.Marshal(v)
	m := map[string]interface{}{}
	json.Unmarshal(raw, &m)
	return m
}
