// loader — инкрементальная подгрузка ленты статей.
//
// Явная машина состояний поверх кэширующего клиента статей: дискретные
// события (смена фильтра, приход страницы, сигнал "догрузить")
// переводят аккумулятор из состояния в состояние без какого-либо
// UI-цикла. Список статей накапливается страница за страницей в одну
// последовательность, уникальную по documentId и сохраняющую серверный
// порядок.
//
// Дедупликация обязательна, а не опциональна: между двумя фетчами
// апстрим-листинг может сдвинуться (другие пользователи публикуют
// статьи), и одна и та же статья способна всплыть на другой границе
// страниц.
//
// Смена фильтра инкрементирует поколение аккумулятора; ответ страницы,
// помеченный устаревшим поколением, отбрасывается целиком — залетевший
// после сброса ответ старого фильтра не смешивается с новой лентой.
package loader

import (
	"context"
	"log/slog"
	"sync"

	"github.com/pribylovaa/go-travel-articles/internal/clients"
	"github.com/pribylovaa/go-travel-articles/internal/models"
)

// Lister — контракт клиента статей, нужный лоадеру.
type Lister interface {
	List(ctx context.Context, opts clients.ListArticlesOptions) (*models.ArticleList, error)
}

type Loader struct {
	lister   Lister
	pageSize int
	log      *slog.Logger

	mu          sync.Mutex
	filter      string // documentId категории; "" — без фильтра
	generation  uint64 // инкремент на каждый сброс фильтра
	page        int    // текущая принятая страница (>= 1)
	pagination  *models.Pagination
	fetching    bool
	err         error
	accumulated []models.Article
	seen        map[string]struct{}
}

func New(lister Lister, pageSize int, log *slog.Logger) *Loader {
	if log == nil {
		log = slog.Default()
	}

	return &Loader{
		lister:   lister,
		pageSize: pageSize,
		log:      log,
		page:     1,
		seen:     make(map[string]struct{}),
	}
}

// SetFilter переключает фильтр по категории ("" — без фильтра).
// Сброс происходит до следующего фетча: аккумулятор пустеет, страница
// возвращается к 1, поколение растёт — летящий ответ старого фильтра
// будет отброшен. Повторная установка того же фильтра — no-op.
func (l *Loader) SetFilter(categoryID string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.filter == categoryID {
		return
	}

	l.filter = categoryID
	l.generation++
	l.page = 1
	l.pagination = nil
	l.err = nil
	l.accumulated = nil
	l.seen = make(map[string]struct{})
}

// LoadMore — сигнал "догрузить": явный вызов либо срабатывание
// сентинеля видимости. Разрешён только когда фетч не идёт и лента не
// исчерпана; фетчи строго последовательны, конкурентный вызов — no-op.
//
// Ошибка фетча оставляет аккумулятор и текущую страницу нетронутыми;
// повторный LoadMore повторит ту же страницу.
func (l *Loader) LoadMore(ctx context.Context) error {
	l.mu.Lock()

	if l.fetching {
		l.mu.Unlock()
		return nil
	}

	var target int
	switch {
	case l.pagination == nil:
		// Первая страница текущего фильтра (или её ретрай после ошибки).
		target = l.page
	case l.page < l.pagination.PageCount:
		target = l.page + 1
	default:
		// Исчерпание: дальнейшие сигналы — no-op.
		l.mu.Unlock()
		return nil
	}

	gen := l.generation
	opts := clients.ListArticlesOptions{
		Page:       target,
		PageSize:   l.pageSize,
		CategoryID: l.filter,
	}

	l.fetching = true
	l.mu.Unlock()

	res, err := l.lister.List(ctx, opts)

	l.mu.Lock()
	defer l.mu.Unlock()

	l.fetching = false

	if gen != l.generation {
		// Фильтр сменился, пока страница летела: ответ устарел целиком.
		l.log.Debug("stale_page_discarded",
			slog.Int("page", target),
			slog.String("filter", opts.CategoryID),
		)

		return nil
	}

	if err != nil {
		l.err = err
		return err
	}

	l.err = nil
	l.page = target
	p := res.Meta.Pagination
	l.pagination = &p

	l.merge(res.Data)

	return nil
}

// merge дописывает непросмотренные статьи, сохраняя порядок сервера
// внутри страницы и порядок страниц между собой. Страница из одних
// дубликатов не трогает аккумулятор.
func (l *Loader) merge(page []models.Article) {
	var fresh []models.Article
	for _, a := range page {
		if _, ok := l.seen[a.DocumentID]; ok {
			continue
		}
		fresh = append(fresh, a)
	}

	if len(fresh) == 0 {
		return
	}

	for _, a := range fresh {
		l.seen[a.DocumentID] = struct{}{}
	}
	l.accumulated = append(l.accumulated, fresh...)
}

// Articles возвращает копию накопленной ленты.
func (l *Loader) Articles() []models.Article {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]models.Article, len(l.accumulated))
	copy(out, l.accumulated)

	return out
}

// HasMore — остались ли непогруженные страницы. До первой загруженной
// страницы возвращает false: решение о продолжении принимает конверт
// пагинации.
func (l *Loader) HasMore() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.pagination != nil && l.page < l.pagination.PageCount
}

// Err — ошибка последнего фетча (nil после успешного).
func (l *Loader) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.err
}

func (l *Loader) Fetching() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.fetching
}

// Page — текущая принятая страница.
func (l *Loader) Page() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.page
}

// Pagination — последний конверт пагинации (nil до первой страницы).
func (l *Loader) Pagination() *models.Pagination {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.pagination == nil {
		return nil
	}

	p := *l.pagination
	return &p
}

// Filter — текущий фильтр по категории.
func (l *Loader) Filter() string {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.filter
}
