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

// CommentsClient — чтение и мутации комментариев.
//
// Право правки/удаления чужих комментариев контролирует бэкенд; клиент
// лишь прячет элементы управления для не-владельцев.
type CommentsClient struct {
	d     *transport.Dispatcher
	sess  *session.Store
	cache *cache.Cache
}

// ListCommentsOptions — пагинация списков комментариев.
type ListCommentsOptions struct {
	Page     int
	PageSize int
}

func (o ListCommentsOptions) values() url.Values {
	q := url.Values{}

	if o.Page > 0 {
		q.Set("pagination[page]", strconv.Itoa(o.Page))
	}
	if o.PageSize > 0 {
		q.Set("pagination[pageSize]", strconv.Itoa(o.PageSize))
	}

	return q
}

// ListByArticle возвращает комментарии статьи (кэшируется). Пустой
// documentId статьи не диспетчеризуется: ErrSkipped.
func (c *CommentsClient) ListByArticle(ctx context.Context, articleDocumentID string, opts ListCommentsOptions) (*models.CommentList, error) {
	const op = "clients.Comments.ListByArticle"

	if articleDocumentID == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrSkipped)
	}

	q := opts.values()
	q.Set("filters[article]", articleDocumentID)

	list, err := query(ctx, c.cache, listKey(keyComments, q), func(ctx context.Context) (*models.CommentList, error) {
		var out models.CommentList
		if err := c.d.Do(ctx, http.MethodGet, "/comments", q, nil, &out); err != nil {
			return nil, err
		}
		return &out, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return list, nil
}

// ListByUser возвращает комментарии пользователя — лента «где я
// комментировал» в профиле. Требует аутентификации и известного id.
func (c *CommentsClient) ListByUser(ctx context.Context, userID int64, opts ListCommentsOptions) (*models.CommentList, error) {
	const op = "clients.Comments.ListByUser"

	if !c.sess.Authenticated() || userID == 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrSkipped)
	}

	q := opts.values()
	q.Set("filters[user]", strconv.FormatInt(userID, 10))

	list, err := query(ctx, c.cache, listKey(keyComments, q), func(ctx context.Context) (*models.CommentList, error) {
		var out models.CommentList
		if err := c.d.Do(ctx, http.MethodGet, "/comments", q, nil, &out); err != nil {
			return nil, err
		}
		return &out, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return list, nil
}

// Create добавляет комментарий к статье. Сбрасываются списки
// комментариев и карточки статей: карточка статьи содержит вложенные
// комментарии.
func (c *CommentsClient) Create(ctx context.Context, in models.CommentInput) (*models.Comment, error) {
	const op = "clients.Comments.Create"

	if !c.sess.Authenticated() {
		return nil, fmt.Errorf("%s: %w", op, ErrSkipped)
	}

	var resp models.CommentResponse
	if err := c.d.Do(ctx, http.MethodPost, "/comments", nil, models.CommentRequest{Data: in}, &resp); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	c.invalidate()

	return &resp.Data, nil
}

// Update правит комментарий по documentId.
func (c *CommentsClient) Update(ctx context.Context, documentID, content string) (*models.Comment, error) {
	const op = "clients.Comments.Update"

	if !c.sess.Authenticated() || documentID == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrSkipped)
	}

	in := models.CommentRequest{Data: models.CommentInput{Content: content}}

	var resp models.CommentResponse
	if err := c.d.Do(ctx, http.MethodPut, "/comments/"+documentID, nil, in, &resp); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	c.invalidate()

	return &resp.Data, nil
}

// Delete удаляет комментарий по documentId.
func (c *CommentsClient) Delete(ctx context.Context, documentID string) error {
	const op = "clients.Comments.Delete"

	if !c.sess.Authenticated() || documentID == "" {
		return fmt.Errorf("%s: %w", op, ErrSkipped)
	}

	if err := c.d.Do(ctx, http.MethodDelete, "/comments/"+documentID, nil, nil, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	c.invalidate()

	return nil
}

func (c *CommentsClient) invalidate() {
	c.cache.InvalidatePrefix(keyComments)
	// Карточки статей встраивают комментарии, поэтому тоже протухают.
	c.cache.InvalidatePrefix(keyArticles + "/")
}
