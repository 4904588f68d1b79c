package apierrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

// Пакет тестов для internal/apierrors.
//
// Покрытие:
//  - маппинг статусов: 401 -> KindAuth, 4xx -> KindClient, 5xx -> KindServer;
//  - декодирование серверного конверта {"error": {...}};
//  - обезличивание сообщений 5xx;
//  - Transport: Unwrap сохраняет причину;
//  - As/IsAuth/IsTransport сквозь fmt.Errorf-обёртки.

func TestFromStatus_Unauthorized(t *testing.T) {
	t.Parallel()

	body := []byte(`{"error":{"status":401,"name":"UnauthorizedError","message":"Missing or invalid credentials"}}`)

	ae := FromStatus(http.StatusUnauthorized, body, "rid-1")
	require.Equal(t, KindAuth, ae.Kind)
	require.Equal(t, http.StatusUnauthorized, ae.Status)
	require.Equal(t, "unauthorizederror", ae.Code)
	require.Equal(t, "Missing or invalid credentials", ae.Message)
	require.Equal(t, "rid-1", ae.RequestID)
}

func TestFromStatus_Unauthorized_EmptyBody(t *testing.T) {
	t.Parallel()

	ae := FromStatus(http.StatusUnauthorized, nil, "")
	require.Equal(t, KindAuth, ae.Kind)
	require.Equal(t, "unauthorized", ae.Code)
	require.Equal(t, "authentication required", ae.Message)
}

func TestFromStatus_ClientError_KeepsServerMessage(t *testing.T) {
	t.Parallel()

	body := []byte(`{"error":{"status":400,"name":"ValidationError","message":"title is required"}}`)

	ae := FromStatus(http.StatusBadRequest, body, "")
	require.Equal(t, KindClient, ae.Kind)
	require.Equal(t, "validationerror", ae.Code)
	require.Equal(t, "title is required", ae.Message, "сообщение клиентской ошибки передаётся без изменений")
}

func TestFromStatus_ClientError_FallbackToStatusText(t *testing.T) {
	t.Parallel()

	ae := FromStatus(http.StatusNotFound, []byte("not json"), "")
	require.Equal(t, KindClient, ae.Kind)
	require.Equal(t, "bad_request", ae.Code)
	require.Equal(t, http.StatusText(http.StatusNotFound), ae.Message)
}

func TestFromStatus_ServerError_GenericMessage(t *testing.T) {
	t.Parallel()

	body := []byte(`{"error":{"status":500,"name":"InternalServerError","message":"pq: connection refused"}}`)

	ae := FromStatus(http.StatusInternalServerError, body, "")
	require.Equal(t, KindServer, ae.Kind)
	require.Equal(t, "internal", ae.Code)
	require.Equal(t, "internal server error", ae.Message, "детали 5xx не должны утекать")
}

func TestTransport_UnwrapKeepsCause(t *testing.T) {
	t.Parallel()

	cause := errors.New("dial tcp: connection refused")
	ae := Transport(cause)

	require.Equal(t, KindTransport, ae.Kind)
	require.Zero(t, ae.Status)
	require.ErrorIs(t, ae, cause)
}

func TestAs_ThroughWrapping(t *testing.T) {
	t.Parallel()

	inner := FromStatus(http.StatusUnauthorized, nil, "")
	wrapped := fmt.Errorf("clients.Me: %w", inner)

	ae, ok := As(wrapped)
	require.True(t, ok)
	require.Equal(t, KindAuth, ae.Kind)

	require.True(t, IsAuth(wrapped))
	require.False(t, IsTransport(wrapped))

	terr := fmt.Errorf("transport.Do: %w", Transport(errors.New("boom")))
	require.True(t, IsTransport(terr))
	require.False(t, IsAuth(terr))
}
