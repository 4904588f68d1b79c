// transport — единая точка отправки запросов к REST-бэкенду CMS.
//
// Каждый исходящий вызов проходит конвейер: подстановка bearer-токена из
// сессии -> заголовки x-request-id/user-agent -> отправка -> обработка
// ответа. Конвейер гарантирует два инварианта:
//   - аутентифицированный клиент никогда не шлёт запрос без токена;
//   - 401 на любом запросе немедленно сбрасывает сессию целиком
//     (Logout), не оставляя протухший токен; сама ошибка отдаётся
//     вызывающему без ретраев и редиректов.
//
// Прочие ошибки пробрасываются без изменений в терминах
// internal/apierrors. Безопасность: токены и payload не логируются.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pribylovaa/go-travel-articles/internal/apierrors"
	"github.com/pribylovaa/go-travel-articles/internal/session"
	"github.com/pribylovaa/go-travel-articles/pkg/log"
)

const defaultUserAgent = "go-travel-articles"

// Dispatcher — диспетчер исходящих запросов. Создаётся один на процесс
// и разделяется всеми клиентами ресурсов.
type Dispatcher struct {
	base    *url.URL
	client  *http.Client
	session *session.Store
	timeout time.Duration
	ua      string
	log     *slog.Logger
}

// Options — параметры диспетчера. Нулевые значения заменяются дефолтами.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	Logger    *slog.Logger
	Client    *http.Client
}

// New создаёт диспетчер поверх базового URL API.
func New(baseURL string, sess *session.Store, opts Options) (*Dispatcher, error) {
	const op = "transport.New"

	if baseURL == "" {
		return nil, fmt.Errorf("%s: empty base url", op)
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("%s: parse base url: %w", op, err)
	}

	if opts.Client == nil {
		opts.Client = &http.Client{}
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Dispatcher{
		base:    base,
		client:  opts.Client,
		session: sess,
		timeout: opts.Timeout,
		ua:      opts.UserAgent,
		log:     opts.Logger,
	}, nil
}

// Do выполняет запрос method path?query c телом in (nil — без тела) и
// декодирует 2xx-ответ в out (nil — тело не нужно).
//
// Ошибки:
//   - *apierrors.APIError (KindTransport/KindAuth/KindClient/KindServer),
//     обёрнутая с op; 401 как побочный эффект вызывает session.Logout.
func (d *Dispatcher) Do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	const op = "transport.Do"

	ctx, rid := log.EnsureRequestID(ctx)

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	u := d.base.JoinPath(strings.TrimPrefix(path, "/"))
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", d.ua)
	req.Header.Set("X-Request-Id", rid)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	// Токен строго из сессии: durable-файл диспетчер не читает.
	if tok := d.session.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	start := time.Now()

	resp, err := d.client.Do(req)
	if err != nil {
		d.log.Error("http",
			slog.String("method", method),
			slog.String("path", path),
			slog.String("request_id", rid),
			slog.String("err", err.Error()),
		)

		return fmt.Errorf("%s: %w", op, apierrors.Transport(err))
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s: read response: %w", op, apierrors.Transport(err))
	}

	// Одна финальная запись на вызов, без payload и заголовков.
	d.log.Info("http",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("dur", time.Since(start)),
		slog.String("request_id", rid),
	)

	if resp.StatusCode == http.StatusUnauthorized {
		// Глобальный сброс сессии; навигация — забота презентационного
		// слоя, наблюдающего опустевшую сессию.
		d.session.Logout()

		return fmt.Errorf("%s: %w", op, apierrors.FromStatus(resp.StatusCode, raw, rid))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%s: %w", op, apierrors.FromStatus(resp.StatusCode, raw, rid))
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("%s: decode response: %w", op, err)
		}
	}

	return nil
}
