package app

import (
	"encoding/json"
	"formar_portal/internal/config"
	"formar_portal/internal/util"
	"formar_portal/pkg/session"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const upstreamCookie = "connect.sid"

// upstream 模拟 LMS：登录下发 cookie，/auth/check 只认可当前有效的 cookie
type upstream struct {
	srv     *httptest.Server
	role    string
	valid   atomic.Value
	checks  int32
	logouts int32
}

func newUpstream(t *testing.T, role string) *upstream {
	u := &upstream{role: role}
	u.valid.Store("abc")

	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: upstreamCookie, Value: "abc", Path: "/"})
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"role":"` + u.role + `","user":{"id":1,"nome":"Ana"}}`))
	})
	mux.HandleFunc("/auth/check", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&u.checks, 1)
		ck, err := r.Cookie(upstreamCookie)
		if err != nil || ck.Value != u.valid.Load().(string) {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"message":"Não autenticado"}`))
			return
		}
		w.Write([]byte(`{"user":{"id":1,"role":"` + u.role + `"}}`))
	})
	mux.HandleFunc("/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&u.logouts, 1)
		http.SetCookie(w, &http.Cookie{Name: upstreamCookie, Value: "", Path: "/", MaxAge: -1})
		w.Write([]byte(`{}`))
	})

	u.srv = httptest.NewServer(mux)
	t.Cleanup(u.srv.Close)
	return u
}

func testConfig(baseURL string) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Port: "0", Mode: gin.TestMode},
		API: config.APIConfig{
			BaseURL:  baseURL,
			AuthMode: config.AuthModeCookie,
			Timeout:  5 * time.Second,
		},
		Session: config.SessionConfig{
			Secret:     "test-session-secret",
			CookieName: "portal_session",
			TTL:        time.Hour,
			Store:      config.SessionStoreMemory,
		},
		Shell: config.ShellConfig{
			NotificationPoll: time.Hour,
			SearchDebounce:   10 * time.Millisecond,
			FanoutLimit:      2,
		},
		RateLimit: config.RateLimitConfig{MaxRequests: 1000, WindowMinutes: 1},
	}
}

func newTestApp(t *testing.T, role string) (*App, *upstream) {
	up := newUpstream(t, role)
	a := newApp(testConfig(up.srv.URL), nil)
	t.Cleanup(a.Shutdown)
	return a, up
}

// browser 保存门户下发的会话 cookie
type browser struct {
	app    *App
	cookie *http.Cookie
}

func (b *browser) do(method, path, body string, jsonClient bool) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if jsonClient {
		req.Header.Set("Accept", "application/json")
	}
	if b.cookie != nil {
		req.AddCookie(b.cookie)
	}

	w := httptest.NewRecorder()
	b.app.Router.ServeHTTP(w, req)

	for _, ck := range w.Result().Cookies() {
		if ck.Name == b.app.Config.Session.CookieName {
			b.cookie = ck
		}
	}
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) util.Response {
	var resp util.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestRoot_AnonymousRedirectsToLogin(t *testing.T) {
	a, up := newTestApp(t, "gestor")
	b := &browser{app: a}

	w := b.do(http.MethodGet, "/", "", false)

	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
	require.NotNil(t, b.cookie, "a fresh session cookie is issued")
	assert.True(t, b.cookie.HttpOnly)
	assert.Zero(t, atomic.LoadInt32(&up.checks), "no credentials, no upstream check")
}

func TestLogin_ThenRootFollowsRole(t *testing.T) {
	a, up := newTestApp(t, "gestor")
	b := &browser{app: a}

	w := b.do(http.MethodPost, "/login", `{"Email":"ana@formar.pt","Password":"segredo"}`, true)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "/gestor/dashboard", decode(t, w).Redirect)

	w = b.do(http.MethodGet, "/", "", false)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/gestor/dashboard", w.Header().Get("Location"))
	assert.Equal(t, int32(1), atomic.LoadInt32(&up.checks))

	w = b.do(http.MethodGet, "/auth/status", "", true)
	resp := decode(t, w)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, true, data["isAuthenticated"])
	assert.Equal(t, "gestor", data["role"])
}

func TestLogin_RotatesSessionCookie(t *testing.T) {
	a, up := newTestApp(t, "gestor")
	b := &browser{app: a}

	b.do(http.MethodGet, "/", "", false)
	require.NotNil(t, b.cookie)
	before := *b.cookie

	w := b.do(http.MethodPost, "/login", `{"Email":"ana@formar.pt","Password":"segredo"}`, true)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NotNil(t, b.cookie)
	assert.NotEqual(t, before.Value, b.cookie.Value, "login issues a new session cookie")

	// 登录前的 cookie 已失效，继续使用它只会得到匿名会话
	stale := &browser{app: a, cookie: &before}
	checks := atomic.LoadInt32(&up.checks)
	w = stale.do(http.MethodGet, "/", "", false)
	assert.Equal(t, "/login", w.Header().Get("Location"))
	assert.Equal(t, checks, atomic.LoadInt32(&up.checks))

	w = b.do(http.MethodGet, "/", "", false)
	assert.Equal(t, "/gestor/dashboard", w.Header().Get("Location"))
}

func TestLogin_UnknownRoleStaysAnonymous(t *testing.T) {
	a, _ := newTestApp(t, "admin")
	b := &browser{app: a}

	w := b.do(http.MethodPost, "/login", `{"Email":"ana@formar.pt","Password":"segredo"}`, true)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = b.do(http.MethodGet, "/perfil", "", true)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogin_InvalidBody(t *testing.T) {
	a, _ := newTestApp(t, "gestor")
	b := &browser{app: a}

	w := b.do(http.MethodPost, "/login", `{"Email":"not-an-email"}`, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProtectedRoute_UpstreamRejection(t *testing.T) {
	a, up := newTestApp(t, "formando")
	b := &browser{app: a}

	w := b.do(http.MethodPost, "/login", `{"Email":"ana@formar.pt","Password":"segredo"}`, true)
	require.Equal(t, http.StatusOK, w.Code)

	// 上游会话失效，门户缓存的角色不再可信
	up.valid.Store("revoked")

	w = b.do(http.MethodGet, "/perfil", "", true)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "/login", decode(t, w).Redirect)

	w = b.do(http.MethodGet, "/perfil", "", false)
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
}

func TestRoleRoutes_WrongRoleForbidden(t *testing.T) {
	a, _ := newTestApp(t, "formando")
	b := &browser{app: a}

	w := b.do(http.MethodPost, "/login", `{"Email":"ana@formar.pt","Password":"segredo"}`, true)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "/formando/dashboard", decode(t, w).Redirect)

	w = b.do(http.MethodGet, "/gestor/categorias", "", true)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = b.do(http.MethodGet, "/formador/dashboard", "", true)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRoleRoutes_AnonymousUnauthorized(t *testing.T) {
	a, _ := newTestApp(t, "gestor")
	b := &browser{app: a}

	w := b.do(http.MethodGet, "/gestor/dashboard", "", true)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogout_ClearsSession(t *testing.T) {
	a, up := newTestApp(t, "formador")
	b := &browser{app: a}

	w := b.do(http.MethodPost, "/login", `{"Email":"ana@formar.pt","Password":"segredo"}`, true)
	require.Equal(t, http.StatusOK, w.Code)
	loggedIn := *b.cookie

	w = b.do(http.MethodPost, "/logout", "", true)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, b.cookie)
	assert.Empty(t, b.cookie.Value, "logout expires the session cookie")
	assert.Equal(t, 0, a.Sessions.(*session.MemoryStore).Len())

	replay := &browser{app: a, cookie: &loggedIn}
	w = replay.do(http.MethodGet, "/perfil", "", true)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "/login", decode(t, w).Redirect)
	assert.Equal(t, int32(1), atomic.LoadInt32(&up.logouts))

	checks := atomic.LoadInt32(&up.checks)
	w = b.do(http.MethodGet, "/", "", false)
	assert.Equal(t, "/login", w.Header().Get("Location"))
	assert.Equal(t, checks, atomic.LoadInt32(&up.checks), "cleared session skips the upstream check")
}

func TestHealth(t *testing.T) {
	a, _ := newTestApp(t, "gestor")
	b := &browser{app: a}

	w := b.do(http.MethodGet, "/health", "", true)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, b.cookie, "health checks do not open sessions")
}

func TestReload_UpdatesShellIntervals(t *testing.T) {
	a, _ := newTestApp(t, "gestor")

	var seen *config.Config
	a.RegisterConfigCallback(func(cfg *config.Config) { seen = cfg })

	cfg := testConfig(a.Config.API.BaseURL)
	cfg.Shell.NotificationPoll = time.Minute
	a.reload(cfg)

	assert.Same(t, cfg, seen)
	assert.Same(t, cfg, a.Config)
	assert.Equal(t, time.Minute, a.services.shellHub.NotificationPoll())
}
