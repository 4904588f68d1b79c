// session — владелец текущей сессии клиента: bearer-токен и снимок
// пользователя.
//
// Источник истины — память процесса; durable-файл с токеном пишется
// только внутри SetCredentials/Logout и читается один раз в Open, чтобы
// перезапуск не требовал повторной аутентификации. Срок жизни токена
// клиент не отслеживает: токен валиден, пока бэкенд его не отверг.
package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pribylovaa/go-travel-articles/internal/models"
)

// Snapshot — согласованная пара (пользователь, токен) на момент вызова.
type Snapshot struct {
	User  *models.UserSummary
	Token string
}

// Store — единственный живой экземпляр сессии, разделяемый диспетчером
// запросов и презентационным слоем. Потокобезопасен: 401 на любом из
// конкурентных запросов сбрасывает сессию для всех.
type Store struct {
	mu        sync.RWMutex
	user      *models.UserSummary
	token     string
	tokenPath string

	subMu   sync.Mutex
	subs    map[int]func(Snapshot)
	nextSub int
}

// Open создаёт стор и восстанавливает токен из durable-файла.
// Отсутствие файла — нормальный холодный старт; прочие ошибки чтения
// поднимаются наверх.
func Open(tokenPath string) (*Store, error) {
	const op = "session.Open"

	s := &Store{
		tokenPath: tokenPath,
		subs:      make(map[int]func(Snapshot)),
	}

	raw, err := os.ReadFile(tokenPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}

		return nil, fmt.Errorf("%s: read token file: %w", op, err)
	}

	s.token = strings.TrimSpace(string(raw))

	return s, nil
}

// Token возвращает текущий bearer-токен ("" — не аутентифицирован).
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.token
}

// User возвращает снимок текущего пользователя (nil — неизвестен).
func (s *Store) User() *models.UserSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.user
}

func (s *Store) Authenticated() bool { return s.Token() != "" }

// Snapshot возвращает согласованную пару (пользователь, токен).
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Snapshot{User: s.user, Token: s.token}
}

// SetCredentials целиком заменяет сессию после успешного логина.
// Сначала персистится токен, затем мутируется память: при ошибке записи
// сессия остаётся прежней.
func (s *Store) SetCredentials(user *models.UserSummary, token string) error {
	const op = "session.SetCredentials"

	if dir := filepath.Dir(s.tokenPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("%s: mkdir: %w", op, err)
		}
	}

	if err := os.WriteFile(s.tokenPath, []byte(token), 0o600); err != nil {
		return fmt.Errorf("%s: persist token: %w", op, err)
	}

	s.mu.Lock()
	s.user = user
	s.token = token
	s.mu.Unlock()

	s.notify()

	return nil
}

// Logout целиком очищает сессию и удаляет durable-токен.
// Удаление файла best-effort: отсутствие файла не ошибка, а память
// очищается в любом случае.
func (s *Store) Logout() {
	s.mu.Lock()
	s.user = nil
	s.token = ""
	s.mu.Unlock()

	// Память уже чистая; если файл не удалился, он перечитается лишь при
	// следующем Open и будет отвергнут бэкендом.
	_ = os.Remove(s.tokenPath)

	s.notify()
}

// Subscribe регистрирует подписчика на смену сессии. Колбэк вызывается
// после каждого SetCredentials/Logout со свежим снимком; возвращённая
// функция снимает подписку.
func (s *Store) Subscribe(fn func(Snapshot)) (cancel func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) notify() {
	snap := s.Snapshot()

	s.subMu.Lock()
	fns := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}
