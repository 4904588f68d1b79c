// stats — презентационная агрегация для дашборда.
//
// Клиент не вычисляет производное серверное состояние: агрегаты
// считаются по одному уже полученному снимку списка статей (с вложенными
// комментариями) и живут ровно столько, сколько сам снимок.
package stats

import (
	"sort"
	"time"

	"github.com/pribylovaa/go-travel-articles/internal/models"
)

// Uncategorized — корзина для статей без категории.
const Uncategorized = "Uncategorized"

// recentLimit — длина ленты последней активности.
const recentLimit = 5

const (
	ActivityArticle = "article"
	ActivityComment = "comment"
)

// Activity — событие ленты активности: публикация статьи или
// комментарий к ней.
type Activity struct {
	Kind         string
	ArticleTitle string
	CreatedAt    time.Time
}

type ArticleStats struct {
	Total      int
	ByCategory map[string]int
}

type CommentStats struct {
	Total     int
	ByArticle map[string]int
}

type Overview struct {
	Articles ArticleStats
	Comments CommentStats
	Recent   []Activity
}

// Build считает агрегаты по снимку списка статей: распределение по
// категориям, комментарии на статью и пять последних событий.
func Build(articles []models.Article) Overview {
	ov := Overview{
		Articles: ArticleStats{ByCategory: make(map[string]int)},
		Comments: CommentStats{ByArticle: make(map[string]int)},
	}

	var activity []Activity

	for _, a := range articles {
		ov.Articles.Total++

		cat := Uncategorized
		if a.Category != nil && a.Category.Name != "" {
			cat = a.Category.Name
		}
		ov.Articles.ByCategory[cat]++

		ov.Comments.ByArticle[a.Title] = len(a.Comments)
		ov.Comments.Total += len(a.Comments)

		activity = append(activity, Activity{
			Kind:         ActivityArticle,
			ArticleTitle: a.Title,
			CreatedAt:    a.CreatedAt,
		})

		for _, cm := range a.Comments {
			if cm.CreatedAt.IsZero() {
				continue
			}
			activity = append(activity, Activity{
				Kind:         ActivityComment,
				ArticleTitle: a.Title,
				CreatedAt:    cm.CreatedAt,
			})
		}
	}

	// Свежие сверху; стабильная сортировка сохраняет серверный порядок
	// одновременных событий.
	sort.SliceStable(activity, func(i, j int) bool {
		return activity[i].CreatedAt.After(activity[j].CreatedAt)
	})

	if len(activity) > recentLimit {
		activity = activity[:recentLimit]
	}
	ov.Recent = activity

	return ov
}
