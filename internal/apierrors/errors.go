// apierrors стандартизирует ошибки слоя доступа к данным.
// На вход — транспортная ошибка или HTTP-ответ бэкенда, на выход —
// типизированная *APIError с классом из таксономии:
//   - KindTransport — ответ не получен (сетевая ошибка, таймаут);
//   - KindAuth — 401, влечёт глобальный сброс сессии (делает диспетчер);
//   - KindClient — прочие 4xx, с сообщением сервера;
//   - KindServer — 5xx, сообщение обезличено.
//
// "Ещё не загружено" ошибкой не является и здесь не представлено.
package apierrors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type Kind int

const (
	KindTransport Kind = iota
	KindAuth
	KindClient
	KindServer
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindAuth:
		return "auth"
	case KindClient:
		return "client"
	case KindServer:
		return "server"
	default:
		return "unknown"
	}
}

// APIError — единый формат ошибки для вызывающего кода.
// Code — короткий стабильный код для машиночитаемой обработки.
// Message — безопасное человекочитаемое описание.
// RequestID — прокидывается из X-Request-Id для трассировки.
type APIError struct {
	Kind      Kind
	Status    int // 0 для транспортных ошибок
	Code      string
	Message   string
	RequestID string

	cause error
}

func (e *APIError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s: %s (status %d)", e.Kind, e.Message, e.Status)
	}

	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *APIError) Unwrap() error { return e.cause }

// Transport оборачивает ошибку, при которой ответ не был получен.
func Transport(err error) *APIError {
	return &APIError{
		Kind:    KindTransport,
		Code:    "transport",
		Message: "request failed",
		cause:   err,
	}
}

// errorBody — конверт ошибки бэкенда: {"error": {"status", "name", "message"}}.
type errorBody struct {
	Error struct {
		Status  int    `json:"status"`
		Name    string `json:"name"`
		Message string `json:"message"`
	} `json:"error"`
}

// FromStatus конвертирует не-2xx HTTP-ответ в *APIError.
//
// Поведение:
//   - 401 -> KindAuth (сообщение сервера, если есть);
//   - прочие 4xx -> KindClient, сообщение сервера передаётся без изменений;
//   - 5xx -> KindServer, сообщение обезличено (без утечки деталей).
func FromStatus(status int, body []byte, requestID string) *APIError {
	var eb errorBody
	_ = json.Unmarshal(body, &eb)

	code := strings.ToLower(eb.Error.Name)
	msg := eb.Error.Message

	switch {
	case status == http.StatusUnauthorized:
		if msg == "" {
			msg = "authentication required"
		}
		if code == "" {
			code = "unauthorized"
		}

		return &APIError{Kind: KindAuth, Status: status, Code: code, Message: msg, RequestID: requestID}

	case status >= 400 && status < 500:
		if msg == "" {
			msg = http.StatusText(status)
		}
		if code == "" {
			code = "bad_request"
		}

		return &APIError{Kind: KindClient, Status: status, Code: code, Message: msg, RequestID: requestID}

	default:
		return &APIError{
			Kind:      KindServer,
			Status:    status,
			Code:      "internal",
			Message:   "internal server error",
			RequestID: requestID,
		}
	}
}

// As извлекает *APIError из цепочки обёрток.
func As(err error) (*APIError, bool) {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae, true
	}

	return nil, false
}

// IsAuth — ошибка аутентификации (401).
func IsAuth(err error) bool {
	ae, ok := As(err)
	return ok && ae.Kind == KindAuth
}

// IsTransport — сетевая ошибка без ответа.
func IsTransport(err error) bool {
	ae, ok := As(err)
	return ok && ae.Kind == KindTransport
}
