package clients

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pribylovaa/go-travel-articles/internal/cache"
	"github.com/pribylovaa/go-travel-articles/internal/models"
	"github.com/pribylovaa/go-travel-articles/internal/session"
	"github.com/pribylovaa/go-travel-articles/internal/transport"
)

// ArticlesClient — чтение и мутации статей.
type ArticlesClient struct {
	d     *transport.Dispatcher
	sess  *session.Store
	cache *cache.Cache
}

// ListArticlesOptions — кортеж аргументов спискового запроса; он же
// ключ кэша. Нулевые поля не попадают в запрос.
type ListArticlesOptions struct {
	Page       int
	PageSize   int
	CategoryID string // фильтр filters[category]
	AuthorID   string // фильтр filters[user]
}

func (o ListArticlesOptions) values() url.Values {
	q := url.Values{}

	if o.Page > 0 {
		q.Set("pagination[page]", strconv.Itoa(o.Page))
	}
	if o.PageSize > 0 {
		q.Set("pagination[pageSize]", strconv.Itoa(o.PageSize))
	}
	if o.CategoryID != "" {
		q.Set("filters[category]", o.CategoryID)
	}
	if o.AuthorID != "" {
		q.Set("filters[user]", o.AuthorID)
	}

	return q
}

// List возвращает страницу статей с конвертом пагинации (кэшируется по
// точному кортежу аргументов).
func (c *ArticlesClient) List(ctx context.Context, opts ListArticlesOptions) (*models.ArticleList, error) {
	const op = "clients.Articles.List"

	q := opts.values()

	list, err := query(ctx, c.cache, listKey(keyArticles, q), func(ctx context.Context) (*models.ArticleList, error) {
		var out models.ArticleList
		if err := c.d.Do(ctx, http.MethodGet, "/articles", q, nil, &out); err != nil {
			return nil, err
		}
		return &out, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return list, nil
}

// Get возвращает статью по documentId (кэшируется). Пустой идентификатор
// не диспетчеризуется: ErrSkipped.
func (c *ArticlesClient) Get(ctx context.Context, documentID string) (*models.Article, error) {
	const op = "clients.Articles.Get"

	if documentID == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrSkipped)
	}

	resp, err := query(ctx, c.cache, itemKey(keyArticles, documentID), func(ctx context.Context) (*models.ArticleResponse, error) {
		var out models.ArticleResponse
		if err := c.d.Do(ctx, http.MethodGet, "/articles/"+documentID, nil, nil, &out); err != nil {
			return nil, err
		}
		return &out, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &resp.Data, nil
}

// Create создаёт статью и сбрасывает всё пространство ключей статей.
func (c *ArticlesClient) Create(ctx context.Context, in models.ArticleInput) (*models.Article, error) {
	const op = "clients.Articles.Create"

	if !c.sess.Authenticated() {
		return nil, fmt.Errorf("%s: %w", op, ErrSkipped)
	}

	var resp models.ArticleResponse
	if err := c.d.Do(ctx, http.MethodPost, "/articles", nil, models.ArticleRequest{Data: in}, &resp); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	c.cache.InvalidatePrefix(keyArticles)

	return &resp.Data, nil
}

// Update обновляет статью по documentId. Владение проверяет бэкенд.
func (c *ArticlesClient) Update(ctx context.Context, documentID string, in models.ArticleInput) (*models.Article, error) {
	const op = "clients.Articles.Update"

	if !c.sess.Authenticated() || documentID == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrSkipped)
	}

	var resp models.ArticleResponse
	if err := c.d.Do(ctx, http.MethodPut, "/articles/"+documentID, nil, models.ArticleRequest{Data: in}, &resp); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	c.cache.InvalidatePrefix(keyArticles)

	return &resp.Data, nil
}

// Delete удаляет статью по documentId.
func (c *ArticlesClient) Delete(ctx context.Context, documentID string) error {
	const op = "clients.Articles.Delete"

	if !c.sess.Authenticated() || documentID == "" {
		return fmt.Errorf("%s: %w", op, ErrSkipped)
	}

	if err := c.d.Do(ctx, http.MethodDelete, "/articles/"+documentID, nil, nil, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	c.cache.InvalidatePrefix(keyArticles)

	return nil
}
