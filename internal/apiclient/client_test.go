package apiclient

import (
	"context"
	"encoding/json"
	"formar_portal/internal/config"
	"formar_portal/pkg/session"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFactory(t *testing.T, srv *httptest.Server, mode string) *Factory {
	t.Helper()
	return NewFactoryWithHTTPClient(config.APIConfig{
		BaseURL:  srv.URL,
		AuthMode: mode,
		Timeout:  5 * time.Second,
	}, srv.Client())
}

func TestClient_SetTokenAppliesToLaterCalls(t *testing.T) {
	var seen atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen.Store(r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := newTestFactory(t, srv, config.AuthModeBearer).ForSession(session.Credentials{})
	require.NoError(t, client.Get(context.Background(), "/auth/check", nil))
	assert.Equal(t, "", seen.Load())

	client.SetToken("tok-1")
	require.NoError(t, client.Get(context.Background(), "/auth/check", nil))
	assert.Equal(t, "Bearer tok-1", seen.Load())
	assert.True(t, client.Changed())
	assert.Equal(t, "tok-1", client.Credentials().Token)

	client.SetToken("")
	require.NoError(t, client.Get(context.Background(), "/auth/check", nil))
	assert.Equal(t, "", seen.Load())
}

func TestClient_ConcurrentSetTokenAndCalls(t *testing.T) {
	var mu sync.Mutex
	seen := map[string]int{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen[r.Header.Get("Authorization")]++
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := newTestFactory(t, srv, config.AuthModeBearer).ForSession(session.Credentials{Token: "tok-a"})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			assert.NoError(t, client.Get(context.Background(), "/auth/check", nil))
		}()
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				client.SetToken("tok-b")
			} else {
				client.SetToken("tok-a")
			}
		}(i)
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	total := 0
	for header, n := range seen {
		assert.Contains(t, []string{"Bearer tok-a", "Bearer tok-b"}, header)
		total += n
	}
	assert.Equal(t, 8, total)
}

func TestClient_TokenIsolatedPerSession(t *testing.T) {
	var seen atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen.Store(r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	f := newTestFactory(t, srv, config.AuthModeBearer)
	a := f.ForSession(session.Credentials{})
	b := f.ForSession(session.Credentials{})

	a.SetToken("only-a")
	require.NoError(t, b.Get(context.Background(), "/x", nil))
	assert.Equal(t, "", seen.Load())
}

func TestClient_AbsorbsAndReplaysCookies(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/login":
			http.SetCookie(w, &http.Cookie{Name: "sid", Value: "s1", Path: "/"})
			w.Write([]byte(`{"role":"formando"}`))
		case "/auth/check":
			ck, err := r.Cookie("sid")
			if err != nil || ck.Value != "s1" {
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"message":"Não autenticado"}`))
				return
			}
			w.Write([]byte(`{"user":{"role":"formando"}}`))
		case "/auth/logout":
			http.SetCookie(w, &http.Cookie{Name: "sid", Value: "", Path: "/", MaxAge: -1})
			w.WriteHeader(http.StatusOK)
		}
	}))
	defer srv.Close()

	client := newTestFactory(t, srv, config.AuthModeCookie).ForSession(session.Credentials{})
	ctx := context.Background()

	err := client.Get(ctx, "/auth/check", nil)
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))
	assert.Equal(t, "Não autenticado", MessageOr(err, "fallback"))

	require.NoError(t, client.Post(ctx, "/auth/login", map[string]string{"Email": "a@b.pt"}, nil))
	assert.Equal(t, map[string]string{"sid": "s1"}, client.Credentials().Cookies)

	var out struct {
		User struct {
			Role string `json:"role"`
		} `json:"user"`
	}
	require.NoError(t, client.Get(ctx, "/auth/check", &out))
	assert.Equal(t, "formando", out.User.Role)

	require.NoError(t, client.Post(ctx, "/auth/logout", struct{}{}, nil))
	assert.True(t, client.Credentials().Empty())
}

func TestClient_RestoresCredentialsFromSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ck, err := r.Cookie("sid")
		if err != nil {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"sid": ck.Value})
	}))
	defer srv.Close()

	client := newTestFactory(t, srv, config.AuthModeCookie).
		ForSession(session.Credentials{Cookies: map[string]string{"sid": "persisted"}})

	var out map[string]string
	require.NoError(t, client.Get(context.Background(), "/formando/dashboard", &out))
	assert.Equal(t, "persisted", out["sid"])
	assert.False(t, client.Changed())
}

func TestClient_ErrorTaxonomy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/forbidden":
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"error":"Sem inscrição"}`))
		case "/missing":
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`not json`))
		}
	}))
	defer srv.Close()

	client := newTestFactory(t, srv, config.AuthModeCookie).ForSession(session.Credentials{})
	ctx := context.Background()

	err := client.Get(ctx, "/forbidden", nil)
	assert.True(t, IsForbidden(err))
	assert.Equal(t, "Sem inscrição", MessageOr(err, "x"))

	err = client.Get(ctx, "/missing", nil)
	assert.True(t, IsNotFound(err))
	assert.Equal(t, "fallback", MessageOr(err, "fallback"))

	err = client.Get(ctx, "/boom", nil)
	assert.Equal(t, http.StatusInternalServerError, StatusOf(err))
	assert.False(t, IsNetwork(err))
}

func TestClient_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	f := newTestFactory(t, srv, config.AuthModeCookie)
	srv.Close()

	err := f.ForSession(session.Credentials{}).Get(context.Background(), "/auth/check", nil)
	require.Error(t, err)
	assert.True(t, IsNetwork(err))
	assert.Equal(t, 0, StatusOf(err))
}

func TestClient_QueryAndMultipart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			require.NoError(t, r.ParseMultipartForm(1<<20))
			json.NewEncoder(w).Encode(map[string]string{"curso": r.FormValue("curso")})
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"query": r.URL.Query().Get("query")})
	}))
	defer srv.Close()

	client := newTestFactory(t, srv, config.AuthModeCookie).ForSession(session.Credentials{})
	ctx := context.Background()

	var out map[string]string
	require.NoError(t, client.Get(ctx, "/cursos/search", &out, WithQuery("query", "go lang")))
	assert.Equal(t, "go lang", out["query"])

	require.NoError(t, client.Put(ctx, "/formador/editar-curso/1/", nil, &out,
		WithMultipartFields(map[string]string{"curso": `{"Objetivos":[]}`})))
	assert.Equal(t, `{"Objetivos":[]}`, out["curso"])
}
