package clients

import (
	"context"
	"fmt"
	"net/http"

	"github.com/pribylovaa/go-travel-articles/internal/cache"
	"github.com/pribylovaa/go-travel-articles/internal/models"
	"github.com/pribylovaa/go-travel-articles/internal/session"
	"github.com/pribylovaa/go-travel-articles/internal/transport"
)

// AuthClient — логин и текущий пользователь.
//
// Сам клиент аутентификацию не реализует: он лишь обменивает учётные
// данные на выданный внешним сервисом токен и дальше его предъявляет.
type AuthClient struct {
	d     *transport.Dispatcher
	sess  *session.Store
	cache *cache.Cache
}

// Login обменивает identifier/password на jwt+user и целиком заменяет
// сессию. Кэш текущего пользователя сбрасывается: следующий Me читает
// свежий снимок.
func (c *AuthClient) Login(ctx context.Context, identifier, password string) (*models.UserSummary, error) {
	const op = "clients.Login"

	var resp models.LoginResponse
	in := models.LoginRequest{Identifier: identifier, Password: password}

	if err := c.d.Do(ctx, http.MethodPost, "/auth/local", nil, in, &resp); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := c.sess.SetCredentials(&resp.User, resp.JWT); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	c.cache.Invalidate(keyMe)

	return &resp.User, nil
}

// Me возвращает снимок текущего пользователя (кэшируется).
// Без аутентификации запрос не диспетчеризуется: ErrSkipped.
func (c *AuthClient) Me(ctx context.Context) (*models.UserSummary, error) {
	const op = "clients.Me"

	if !c.sess.Authenticated() {
		return nil, fmt.Errorf("%s: %w", op, ErrSkipped)
	}

	u, err := query(ctx, c.cache, keyMe, func(ctx context.Context) (*models.UserSummary, error) {
		var out models.UserSummary
		if err := c.d.Do(ctx, http.MethodGet, "/users/me", nil, nil, &out); err != nil {
			return nil, err
		}
		return &out, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return u, nil
}

// Logout сбрасывает сессию и весь кэш аутентифицированных чтений.
func (c *AuthClient) Logout() {
	c.sess.Logout()
	c.cache.InvalidatePrefix("")
}
