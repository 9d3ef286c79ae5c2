package controller

import (
	"encoding/json"
	"formar_portal/internal/apiclient"
	"formar_portal/internal/config"
	"formar_portal/internal/model"
	"formar_portal/internal/service"
	"formar_portal/internal/util"
	"formar_portal/pkg/session"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// harness 把会话、上游客户端与认证状态注入上下文，模拟门户中间件
type harness struct {
	router   *gin.Engine
	sess     *session.Session
	mu       sync.Mutex
	upstream []string
}

func newHarness(t *testing.T, auth model.Auth, mux *http.ServeMux) *harness {
	h := &harness{sess: session.New(time.Hour)}
	h.sess.SetRole(string(auth.Role))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.mu.Lock()
		h.upstream = append(h.upstream, r.Method+" "+r.URL.Path)
		h.mu.Unlock()
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)

	factory := apiclient.NewFactory(config.APIConfig{
		BaseURL:  srv.URL,
		AuthMode: config.AuthModeCookie,
		Timeout:  5 * time.Second,
	})

	h.router = gin.New()
	h.router.Use(func(c *gin.Context) {
		c.Set(util.ContextKeySession, h.sess)
		c.Set(util.ContextKeyAPI, factory.ForSession(h.sess.Credentials))
		c.Set(util.ContextKeyAuth, auth)
		c.Next()
	})
	return h
}

func (h *harness) do(method, path, body string) (*httptest.ResponseRecorder, util.Response) {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set("Accept", "application/json")

	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)

	var resp util.Response
	json.Unmarshal(w.Body.Bytes(), &resp)
	return w, resp
}

func (h *harness) calls() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.upstream...)
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write([]byte(body))
}

var formando = model.Auth{IsAuthenticated: true, Role: model.RoleFormando}

func TestRespondError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantCode  int
		wantMsg   string
		clearRole bool
	}{
		{"user error", util.BadInput("Preenche o título."), http.StatusBadRequest, "Preenche o título.", false},
		{"user error 401", util.NewUserError(http.StatusUnauthorized, "Falha no login."), http.StatusUnauthorized, "Falha no login.", true},
		{"upstream 401", &apiclient.APIError{Method: "GET", Path: "/x", Status: http.StatusUnauthorized}, http.StatusUnauthorized, util.MsgSessionExpired, true},
		{"draft op", errors.Wrap(util.ErrInvalidDraftOp, "apply"), http.StatusBadRequest, "Operação inválida.", false},
		{"index", util.ErrIndexOutOfRange, http.StatusBadRequest, "Operação inválida.", false},
		{"permission", util.ErrPermissionDenied, http.StatusForbidden, "Sem permissão para aceder a esta página.", false},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, "Erro interno do servidor.", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, formando, http.NewServeMux())
			h.router.GET("/e", func(c *gin.Context) { respondError(c, tt.err) })

			w, resp := h.do(http.MethodGet, "/e", "")

			assert.Equal(t, tt.wantCode, w.Code)
			assert.Equal(t, tt.wantMsg, resp.Message)
			if tt.clearRole {
				assert.Empty(t, h.sess.Role)
			} else {
				assert.Equal(t, string(model.RoleFormando), h.sess.Role)
			}
		})
	}
}

func TestCourseController_InvalidID(t *testing.T) {
	h := newHarness(t, formando, http.NewServeMux())
	c := NewCourseController(service.NewCourseService("http://lms.test"))
	h.router.GET("/cursos/:id", c.Detail)

	w, resp := h.do(http.MethodGet, "/cursos/abc", "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "ID inválido.", resp.Message)
	assert.Empty(t, h.calls(), "no upstream call for a malformed id")
}

func TestCourseController_RateOutOfRange(t *testing.T) {
	h := newHarness(t, formando, http.NewServeMux())
	c := NewCourseController(service.NewCourseService("http://lms.test"))
	h.router.POST("/cursos/:id/avaliar", c.Rate)

	w, resp := h.do(http.MethodPost, "/cursos/3/avaliar", `{"nota":7}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "A avaliação deve estar entre 1 e 5.", resp.Message)
	assert.Empty(t, h.calls())
}

func TestCourseController_RatingsEmptyListUsesKnownAverage(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/cursos/3/avaliacoes", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"avaliacoes":[]}`)
	})
	h := newHarness(t, formando, mux)
	c := NewCourseController(service.NewCourseService("http://lms.test"))
	h.router.GET("/cursos/:id/avaliacoes", c.Ratings)

	w, resp := h.do(http.MethodGet, "/cursos/3/avaliacoes?rating=4.5", "")
	require.Equal(t, http.StatusOK, w.Code)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, 4.5, data["media"])

	_, resp = h.do(http.MethodGet, "/cursos/3/avaliacoes?rating=NaN", "")
	data = resp.Data.(map[string]interface{})
	assert.Equal(t, float64(0), data["media"])
}

func notificationMux(t *testing.T) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/notificacoes", onlyMethod(http.MethodGet, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		writeJSON(w, http.StatusOK, `[
			{"ID_Notificacao":1,"Titulo":"Novo curso","Mensagem":"Redes","Lida":false,"Link_Acão":"/cursos/3","Data_Criacao":"2026-10-01T10:00:00Z"},
			{"ID_Notificacao":2,"Titulo":"Aviso","Mensagem":"Sala","Lida":true,"Data_Criacao":"2026-10-01T09:00:00Z"}
		]`)
	}))
	mux.HandleFunc("/notificacoes/nao-lidas", onlyMethod(http.MethodGet, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"count":1}`)
	}))
	mux.HandleFunc("/notificacoes/1/ler", onlyMethod(http.MethodPut, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{}`)
	}))
	return mux
}

// onlyMethod mirrors Go 1.22 "METHOD /path" mux patterns on older toolchains
func onlyMethod(method string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method && !(method == http.MethodGet && r.Method == http.MethodHead) {
			w.Header().Set("Allow", method)
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		h(w, r)
	}
}

func TestNotificationController_OpenFollowsLink(t *testing.T) {
	h := newHarness(t, formando, notificationMux(t))
	c := NewNotificationController(service.NewNotificationService(2), nil)
	h.router.POST("/notificacoes/:id/abrir", c.Open)

	w, resp := h.do(http.MethodPost, "/notificacoes/1/abrir", "")

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "/cursos/3", resp.Redirect)
	assert.Contains(t, h.calls(), "PUT /notificacoes/1/ler")
}

func TestNotificationController_OpenReadWithoutLink(t *testing.T) {
	h := newHarness(t, formando, notificationMux(t))
	c := NewNotificationController(service.NewNotificationService(2), nil)
	h.router.POST("/notificacoes/:id/abrir", c.Open)

	w, resp := h.do(http.MethodPost, "/notificacoes/2/abrir", "")

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Empty(t, resp.Redirect)
	for _, call := range h.calls() {
		assert.NotContains(t, call, "PUT", "already read notifications are not marked again")
	}
}

func TestNotificationController_UpstreamUnauthorized(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/notificacoes", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, `{"message":"Token inválido"}`)
	})
	h := newHarness(t, formando, mux)
	c := NewNotificationController(service.NewNotificationService(2), nil)
	h.router.GET("/notificacoes", c.List)

	w, _ := h.do(http.MethodGet, "/notificacoes", "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, h.sess.Role)
}

func TestAuthController_RootPerRole(t *testing.T) {
	tests := []struct {
		auth model.Auth
		want string
	}{
		{model.Auth{}, "/login"},
		{formando, "/formando/dashboard"},
		{model.Auth{IsAuthenticated: true, Role: model.RoleGestor}, "/gestor/dashboard"},
		{model.Auth{IsAuthenticated: true, Role: model.RoleFormador}, "/formador/dashboard"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			h := newHarness(t, tt.auth, http.NewServeMux())
			nav := service.NewNavigator()
			c := NewAuthController(service.NewAuthService(nav), nav)
			h.router.GET("/", c.Root)

			w, resp := h.do(http.MethodGet, "/", "")

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.want, resp.Redirect)
		})
	}
}

func TestAuthController_ResetPasswordRequiresEmail(t *testing.T) {
	h := newHarness(t, model.Auth{}, http.NewServeMux())
	nav := service.NewNavigator()
	c := NewAuthController(service.NewAuthService(nav), nav)
	h.router.POST("/reset-password", c.RequestPasswordReset)

	w, resp := h.do(http.MethodPost, "/reset-password", `{"email":"  "}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, util.MsgResetEmailRequired, resp.Message)
	assert.Empty(t, h.calls())
}
