// models — типы данных CMS, как их отдаёт REST-бэкенд.
//
// Все сущности — неизменяемые снимки серверного состояния: клиент никогда
// не правит их на месте, после мутации он перечитывает данные с сервера.
// ID — внутренний числовой идентификатор; DocumentID — стабильный внешний
// идентификатор, используется в URL и как ключ дедупликации.
package models

import "time"

// UserSummary — снимок пользователя бэкенда.
type UserSummary struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Blocked   bool      `json:"blocked"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Category — категория статей.
type Category struct {
	ID         int64  `json:"id"`
	DocumentID string `json:"documentId"`
	Name       string `json:"name"`
}

// CategoryRef — ссылка на категорию внутри статьи.
type CategoryRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ArticleRef — ссылка на статью внутри комментария.
type ArticleRef struct {
	ID         int64  `json:"id"`
	DocumentID string `json:"documentId"`
	Title      string `json:"title"`
}

type Article struct {
	ID            int64        `json:"id"`
	DocumentID    string       `json:"documentId"`
	Title         string       `json:"title"`
	Description   string       `json:"description"`
	CoverImageURL string       `json:"cover_image_url"`
	Category      *CategoryRef `json:"category"`
	Comments      []Comment    `json:"comments,omitempty"`
	Locale        string       `json:"locale,omitempty"`
	PublishedAt   time.Time    `json:"publishedAt"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
}

type Comment struct {
	ID         int64        `json:"id"`
	DocumentID string       `json:"documentId"`
	Content    string       `json:"content"`
	User       *UserSummary `json:"user,omitempty"`
	Article    *ArticleRef  `json:"article,omitempty"`
	CreatedAt  time.Time    `json:"createdAt"`
	UpdatedAt  time.Time    `json:"updatedAt"`
}

// Pagination — серверный конверт пагинации, сопровождает каждый списочный
// ответ и управляет инкрементальной подгрузкой.
type Pagination struct {
	Page      int `json:"page"`
	PageSize  int `json:"pageSize"`
	PageCount int `json:"pageCount"`
	Total     int `json:"total"`
}

type Meta struct {
	Pagination Pagination `json:"pagination"`
}

type ArticleList struct {
	Data []Article `json:"data"`
	Meta Meta      `json:"meta"`
}

type CommentList struct {
	Data []Comment `json:"data"`
	Meta Meta      `json:"meta"`
}

type CategoryList struct {
	Data []Category `json:"data"`
	Meta Meta      `json:"meta"`
}

// Конверты одиночных сущностей.
type ArticleResponse struct {
	Data Article `json:"data"`
}

type CommentResponse struct {
	Data Comment `json:"data"`
}

type CategoryResponse struct {
	Data Category `json:"data"`
}

// Аутентификация.
type LoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type LoginResponse struct {
	JWT  string      `json:"jwt"`
	User UserSummary `json:"user"`
}

// Входные данные мутаций; бэкенд принимает их под ключом "data".
type ArticleInput struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	CoverImageURL string `json:"cover_image_url,omitempty"`
	Category      *int64 `json:"category,omitempty"`
}

type CommentInput struct {
	Content string `json:"content"`
	Article string `json:"article,omitempty"` // documentId статьи
}

type CategoryInput struct {
	Name string `json:"name"`
}

type ArticleRequest struct {
	Data ArticleInput `json:"data"`
}

type CommentRequest struct {
	Data CommentInput `json:"data"`
}

type CategoryRequest struct {
	Data CategoryInput `json:"data"`
}
