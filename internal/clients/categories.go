package clients

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/pribylovaa/go-travel-articles/internal/cache"
	"github.com/pribylovaa/go-travel-articles/internal/models"
	"github.com/pribylovaa/go-travel-articles/internal/session"
	"github.com/pribylovaa/go-travel-articles/internal/transport"
)

// CategoriesClient — чтение и мутации категорий.
type CategoriesClient struct {
	d     *transport.Dispatcher
	sess  *session.Store
	cache *cache.Cache
}

// List возвращает все категории (кэшируется).
func (c *CategoriesClient) List(ctx context.Context) (*models.CategoryList, error) {
	const op = "clients.Categories.List"

	list, err := query(ctx, c.cache, listKey(keyCategories, url.Values{}), func(ctx context.Context) (*models.CategoryList, error) {
		var out models.CategoryList
		if err := c.d.Do(ctx, http.MethodGet, "/categories", nil, nil, &out); err != nil {
			return nil, err
		}
		return &out, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return list, nil
}

// Get возвращает категорию по documentId (кэшируется).
func (c *CategoriesClient) Get(ctx context.Context, documentID string) (*models.Category, error) {
	const op = "clients.Categories.Get"

	if documentID == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrSkipped)
	}

	resp, err := query(ctx, c.cache, itemKey(keyCategories, documentID), func(ctx context.Context) (*models.CategoryResponse, error) {
		var out models.CategoryResponse
		if err := c.d.Do(ctx, http.MethodGet, "/categories/"+documentID, nil, nil, &out); err != nil {
			return nil, err
		}
		return &out, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &resp.Data, nil
}

// Create создаёт категорию.
func (c *CategoriesClient) Create(ctx context.Context, in models.CategoryInput) (*models.Category, error) {
	const op = "clients.Categories.Create"

	if !c.sess.Authenticated() {
		return nil, fmt.Errorf("%s: %w", op, ErrSkipped)
	}

	var resp models.CategoryResponse
	if err := c.d.Do(ctx, http.MethodPost, "/categories", nil, models.CategoryRequest{Data: in}, &resp); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	c.cache.InvalidatePrefix(keyCategories)

	return &resp.Data, nil
}

// Update переименовывает категорию по documentId. Статьи встраивают имя
// категории, поэтому их пространство ключей тоже сбрасывается.
func (c *CategoriesClient) Update(ctx context.Context, documentID string, in models.CategoryInput) (*models.Category, error) {
	const op = "clients.Categories.Update"

	if !c.sess.Authenticated() || documentID == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrSkipped)
	}

	var resp models.CategoryResponse
	if err := c.d.Do(ctx, http.MethodPut, "/categories/"+documentID, nil, models.CategoryRequest{Data: in}, &resp); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	c.cache.InvalidatePrefix(keyCategories)
	c.cache.InvalidatePrefix(keyArticles)

	return &resp.Data, nil
}

// Delete удаляет категорию по documentId.
func (c *CategoriesClient) Delete(ctx context.Context, documentID string) error {
	const op = "clients.Categories.Delete"

	if !c.sess.Authenticated() || documentID == "" {
		return fmt.Errorf("%s: %w", op, ErrSkipped)
	}

	if err := c.d.Do(ctx, http.MethodDelete, "/categories/"+documentID, nil, nil, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	c.cache.InvalidatePrefix(keyCategories)
	c.cache.InvalidatePrefix(keyArticles)

	return nil
}
