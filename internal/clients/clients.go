// clients агрегирует клиенты ресурсов CMS: аутентификация, статьи,
// комментарии, категории.
//
// Все клиенты ходят через один диспетчер (internal/transport) и делят
// один кэш ответов (internal/cache). Запросы кэшируются по точному
// кортежу аргументов; мутации инвалидируют затронутое пространство
// ключей, и следующее чтение реконсилируется со свежим серверным
// снимком. Пропускаемые запросы (невыполненное предусловие — нет
// аутентификации или неизвестен идентификатор) не диспетчеризуются
// вовсе и возвращают ErrSkipped.
package clients

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"github.com/pribylovaa/go-travel-articles/internal/cache"
	"github.com/pribylovaa/go-travel-articles/internal/session"
	"github.com/pribylovaa/go-travel-articles/internal/transport"
)

// ErrSkipped — запрос не выполнен из-за невыполненного предусловия.
// Отличим и от ошибки, и от "ещё не загружено": вызывающий решает сам,
// ждать ему предусловие или нет.
var ErrSkipped = errors.New("query skipped: precondition not met")

// Пространства ключей кэша. Списки живут под "<resource>?",
// одиночные сущности — под "<resource>/".
const (
	keyArticles   = "articles"
	keyComments   = "comments"
	keyCategories = "categories"
	keyMe         = "users/me"
)

type Clients struct {
	Auth       *AuthClient
	Articles   *ArticlesClient
	Comments   *CommentsClient
	Categories *CategoriesClient
}

// New создаёт клиенты ресурсов поверх общего диспетчера и общего кэша.
func New(d *transport.Dispatcher, sess *session.Store) *Clients {
	c := cache.New()

	return &Clients{
		Auth:       &AuthClient{d: d, sess: sess, cache: c},
		Articles:   &ArticlesClient{d: d, sess: sess, cache: c},
		Comments:   &CommentsClient{d: d, sess: sess, cache: c},
		Categories: &CategoriesClient{d: d, sess: sess, cache: c},
	}
}

// query — типизированное чтение через кэш: значение декодируется в свежую
// копию T, закэшированный снимок остаётся неизменяемым.
func query[T any](ctx context.Context, c *cache.Cache, key string, fetch func(ctx context.Context) (*T, error)) (*T, error) {
	raw, err := c.Do(ctx, key, func(ctx context.Context) (any, error) {
		return fetch(ctx)
	})
	if err != nil {
		return nil, err
	}

	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("clients.query: decode cached value: %w", err)
	}

	return &out, nil
}

// listKey — ключ кэша для спискового запроса: ресурс + канонизированный
// набор параметров (url.Values.Encode сортирует ключи, поэтому один и
// тот же кортеж аргументов всегда даёт один и тот же ключ).
func listKey(resource string, q url.Values) string {
	return resource + "?" + q.Encode()
}

// itemKey — ключ кэша одиночной сущности.
func itemKey(resource, documentID string) string {
	return resource + "/" + documentID
}
