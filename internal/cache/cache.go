// cache — кэш ответов бэкенда, адресуемый ключом запроса.
//
// Контракт (см. клиенты ресурсов):
//   - Do возвращает закэшированное значение по ключу или выполняет fetch
//     ровно один раз на ключ даже при конкурентных вызовах (singleflight);
//     результат хранится до явной инвалидации, ошибки не кэшируются;
//   - Invalidate/InvalidatePrefix — хуки мутаций: после успешной мутации
//     клиент сбрасывает затронутое пространство ключей, и следующее
//     чтение идёт за свежим серверным снимком (кэш никогда не правится
//     спекулятивно);
//   - Subscribe — уведомления об инвалидации для подписчиков.
//
// Значения хранятся как json.RawMessage: вызывающий декодирует копию и
// не может испортить закэшированный снимок.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

type Cache struct {
	mu      sync.RWMutex
	entries map[string]json.RawMessage

	group singleflight.Group

	subMu   sync.Mutex
	subs    map[int]subscriber
	nextSub int
}

type subscriber struct {
	prefix string
	fn     func(key string)
}

func New() *Cache {
	return &Cache{
		entries: make(map[string]json.RawMessage),
		subs:    make(map[int]subscriber),
	}
}

// Get возвращает закэшированное значение и признак его наличия.
func (c *Cache) Get(key string) (json.RawMessage, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	v, ok := c.entries[key]

	return v, ok
}

// Do возвращает значение по ключу, при промахе выполняя fetch.
// Повторные вызовы с тем же ключом переиспользуют результат до
// инвалидации; конкурентные промахи по одному ключу схлопываются в один
// fetch.
func (c *Cache) Do(ctx context.Context, key string, fetch func(ctx context.Context) (any, error)) (json.RawMessage, error) {
	const op = "cache.Do"

	if v, ok := c.Get(key); ok {
		return v, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		// Пока мы ждали очередь singleflight, значение могло появиться.
		if v, ok := c.Get(key); ok {
			return v, nil
		}

		res, err := fetch(ctx)
		if err != nil {
			return nil, err
		}

		raw, err := json.Marshal(res)
		if err != nil {
			return nil, fmt.Errorf("%s: encode cached value: %w", op, err)
		}

		c.mu.Lock()
		c.entries[key] = raw
		c.mu.Unlock()

		return json.RawMessage(raw), nil
	})
	if err != nil {
		return nil, err
	}

	return v.(json.RawMessage), nil
}

// Invalidate сбрасывает перечисленные ключи.
func (c *Cache) Invalidate(keys ...string) {
	c.mu.Lock()
	for _, k := range keys {
		delete(c.entries, k)
	}
	c.mu.Unlock()

	for _, k := range keys {
		c.notify(k)
	}
}

// InvalidatePrefix сбрасывает все ключи с данным префиксом.
func (c *Cache) InvalidatePrefix(prefix string) {
	c.mu.Lock()
	var dropped []string
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
			dropped = append(dropped, k)
		}
	}
	c.mu.Unlock()

	for _, k := range dropped {
		c.notify(k)
	}
}

// Subscribe регистрирует подписчика на инвалидацию ключей с данным
// префиксом ("" — все ключи). Возвращённая функция снимает подписку.
func (c *Cache) Subscribe(prefix string, fn func(key string)) (cancel func()) {
	c.subMu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = subscriber{prefix: prefix, fn: fn}
	c.subMu.Unlock()

	return func() {
		c.subMu.Lock()
		delete(c.subs, id)
		c.subMu.Unlock()
	}
}

func (c *Cache) notify(key string) {
	c.subMu.Lock()
	fns := make([]func(string), 0, len(c.subs))
	for _, s := range c.subs {
		if s.prefix == "" || strings.HasPrefix(key, s.prefix) {
			fns = append(fns, s.fn)
		}
	}
	c.subMu.Unlock()

	for _, fn := range fns {
		fn(key)
	}
}
