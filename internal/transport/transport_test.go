package transport

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/pribylovaa/go-travel-articles/internal/apierrors"
	"github.com/pribylovaa/go-travel-articles/internal/session"
	"github.com/pribylovaa/go-travel-articles/pkg/log"
	"github.com/stretchr/testify/require"
)

// Пакет тестов для internal/transport.
//
// Покрытие:
//  - токен из сессии попадает в Authorization: Bearer <token>;
//  - без токена заголовок Authorization не ставится;
//  - 401 сбрасывает сессию (память + durable-файл) и отдаёт KindAuth;
//  - 404/500 пробрасываются как KindClient/KindServer без побочных эффектов;
//  - сетевая ошибка -> KindTransport;
//  - x-request-id: из контекста или сгенерированный;
//  - 2xx декодируется в out; запись лога "http" содержит status/dur.

type capHandler struct {
	base    []slog.Attr
	lastMsg string
	lastLvl slog.Level
	attrs   map[string]any
	count   int
}

func (h *capHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *capHandler) Handle(_ context.Context, r slog.Record) error {
	out := make(map[string]any, len(h.base)+8)
	for _, a := range h.base {
		out[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		out[a.Key] = a.Value.Any()
		return true
	})
	h.count++
	h.lastMsg = r.Message
	h.lastLvl = r.Level
	h.attrs = out
	return nil
}

func (h *capHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	h.base = append(h.base, attrs...)
	return h
}

func (h *capHandler) WithGroup(string) slog.Handler { return h }

func newStore(t *testing.T) (*session.Store, string) {
	t.Helper()
	p := filepath.Join(t.TempDir(), "token")
	s, err := session.Open(p)
	require.NoError(t, err)
	return s, p
}

func newDispatcher(t *testing.T, srvURL string, sess *session.Store) *Dispatcher {
	t.Helper()
	d, err := New(srvURL, sess, Options{Logger: slog.New(&capHandler{})})
	require.NoError(t, err)
	return d
}

func TestDo_AttachesBearerToken(t *testing.T) {
	t.Parallel()

	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	sess, _ := newStore(t)
	require.NoError(t, sess.SetCredentials(nil, "abc"))

	d := newDispatcher(t, srv.URL, sess)
	require.NoError(t, d.Do(context.Background(), http.MethodGet, "/articles", nil, nil, nil))

	require.Equal(t, "Bearer abc", gotAuth)
}

func TestDo_NoTokenNoAuthorizationHeader(t *testing.T) {
	t.Parallel()

	var hasAuth bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hasAuth = r.Header["Authorization"]
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sess, _ := newStore(t)
	d := newDispatcher(t, srv.URL, sess)

	require.NoError(t, d.Do(context.Background(), http.MethodGet, "/articles", nil, nil, nil))
	require.False(t, hasAuth, "без токена Authorization не должен ставиться")
}

func TestDo_Unauthorized_ClearsSession(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"status":401,"name":"UnauthorizedError","message":"expired"}}`))
	}))
	defer srv.Close()

	sess, tokenFile := newStore(t)
	require.NoError(t, sess.SetCredentials(nil, "stale"))

	d := newDispatcher(t, srv.URL, sess)
	err := d.Do(context.Background(), http.MethodGet, "/users/me", nil, nil, nil)

	require.Error(t, err)
	require.True(t, apierrors.IsAuth(err))

	require.Equal(t, "", sess.Token(), "401 должен сбросить токен для всех запросов")
	_, statErr := os.Stat(tokenFile)
	require.ErrorIs(t, statErr, os.ErrNotExist, "durable-файл с токеном должен быть удалён")
}

func TestDo_ClientAndServerErrorsPassThrough(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/missing":
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"status":404,"name":"NotFoundError","message":"article not found"}}`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	sess, _ := newStore(t)
	require.NoError(t, sess.SetCredentials(nil, "abc"))
	d := newDispatcher(t, srv.URL, sess)

	err := d.Do(context.Background(), http.MethodGet, "/missing", nil, nil, nil)
	ae, ok := apierrors.As(err)
	require.True(t, ok)
	require.Equal(t, apierrors.KindClient, ae.Kind)
	require.Equal(t, "article not found", ae.Message)

	err = d.Do(context.Background(), http.MethodGet, "/boom", nil, nil, nil)
	ae, ok = apierrors.As(err)
	require.True(t, ok)
	require.Equal(t, apierrors.KindServer, ae.Kind)

	// Не-401 ошибки не трогают сессию.
	require.Equal(t, "abc", sess.Token())
}

func TestDo_TransportError(t *testing.T) {
	t.Parallel()

	sess, _ := newStore(t)
	// Закрытый сервер: соединение гарантированно откажет.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	srv.Close()

	d := newDispatcher(t, srv.URL, sess)
	err := d.Do(context.Background(), http.MethodGet, "/articles", nil, nil, nil)

	require.Error(t, err)
	require.True(t, apierrors.IsTransport(err))
}

func TestDo_RequestID_FromContextAndGenerated(t *testing.T) {
	t.Parallel()

	var gotRID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRID = r.Header.Get("X-Request-Id")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sess, _ := newStore(t)
	d := newDispatcher(t, srv.URL, sess)

	ctx := log.WithRequestID(context.Background(), "rid-ctx")
	require.NoError(t, d.Do(ctx, http.MethodGet, "/articles", nil, nil, nil))
	require.Equal(t, "rid-ctx", gotRID)

	require.NoError(t, d.Do(context.Background(), http.MethodGet, "/articles", nil, nil, nil))
	require.NotEmpty(t, gotRID)
	require.NotEqual(t, "rid-ctx", gotRID, "без rid в контексте генерируется новый")
}

func TestDo_DecodesBodyAndLogs(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "1", r.URL.Query().Get("pagination[page]"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"id":1,"documentId":"a1","title":"Lisbon"}]}`))
	}))
	defer srv.Close()

	sess, _ := newStore(t)
	h := &capHandler{}
	d, err := New(srv.URL, sess, Options{Logger: slog.New(h)})
	require.NoError(t, err)

	q := url.Values{}
	q.Set("pagination[page]", "1")

	var out struct {
		Data []struct {
			ID         int64  `json:"id"`
			DocumentID string `json:"documentId"`
			Title      string `json:"title"`
		} `json:"data"`
	}

	require.NoError(t, d.Do(context.Background(), http.MethodGet, "/articles", q, nil, &out))
	require.Len(t, out.Data, 1)
	require.Equal(t, "a1", out.Data[0].DocumentID)
	require.Equal(t, "Lisbon", out.Data[0].Title)

	require.Equal(t, "http", h.lastMsg)
	require.Equal(t, slog.LevelInfo, h.lastLvl)
	require.Equal(t, int64(200), toInt64(t, h.attrs["status"]))
	require.NotEmpty(t, h.attrs["request_id"])
}

func toInt64(t *testing.T, v any) int64 {
	t.Helper()
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	default:
		t.Fatalf("неожиданный тип значения: %T", v)
		return 0
	}
}
