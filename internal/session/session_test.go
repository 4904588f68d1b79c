package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pribylovaa/go-travel-articles/internal/models"
	"github.com/stretchr/testify/require"
)

// Пакет тестов для internal/session.
//
// Покрытие:
//  - Open на пустом каталоге -> холодный старт без токена;
//  - SetCredentials персистит токен, рестарт (повторный Open) его читает;
//  - Logout чистит память и удаляет durable-файл;
//  - повторный Logout без файла не падает;
//  - Subscribe получает снимки логина и разлогина, cancel снимает подписку;
//  - SetCredentials с недоступным каталогом не мутирует сессию.

func tokenPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "token")
}

func testUser() *models.UserSummary {
	return &models.UserSummary{ID: 7, Username: "marina", Email: "marina@example.com"}
}

func TestOpen_ColdStart(t *testing.T) {
	t.Parallel()

	s, err := Open(tokenPath(t))
	require.NoError(t, err)

	require.Equal(t, "", s.Token())
	require.Nil(t, s.User())
	require.False(t, s.Authenticated())
}

func TestSetCredentials_PersistsAndReloads(t *testing.T) {
	t.Parallel()

	p := tokenPath(t)

	s, err := Open(p)
	require.NoError(t, err)
	require.NoError(t, s.SetCredentials(testUser(), "abc"))

	require.Equal(t, "abc", s.Token())
	require.Equal(t, "marina", s.User().Username)
	require.True(t, s.Authenticated())

	raw, err := os.ReadFile(p)
	require.NoError(t, err)
	require.Equal(t, "abc", string(raw))

	// «Перезагрузка страницы»: новый стор читает токен из файла,
	// пользователь до первого /users/me неизвестен.
	s2, err := Open(p)
	require.NoError(t, err)
	require.Equal(t, "abc", s2.Token())
	require.Nil(t, s2.User())
}

func TestLogout_ClearsMemoryAndFile(t *testing.T) {
	t.Parallel()

	p := tokenPath(t)

	s, err := Open(p)
	require.NoError(t, err)
	require.NoError(t, s.SetCredentials(testUser(), "abc"))

	s.Logout()

	require.Equal(t, "", s.Token())
	require.Nil(t, s.User())

	_, err = os.Stat(p)
	require.ErrorIs(t, err, os.ErrNotExist, "durable-файл с токеном должен быть удалён")

	// Повторный Logout без файла — no-op.
	s.Logout()
	require.Equal(t, "", s.Token())
}

func TestSubscribe_NotifiedOnLoginAndLogout(t *testing.T) {
	t.Parallel()

	s, err := Open(tokenPath(t))
	require.NoError(t, err)

	var got []Snapshot
	cancel := s.Subscribe(func(sn Snapshot) { got = append(got, sn) })

	require.NoError(t, s.SetCredentials(testUser(), "abc"))
	s.Logout()

	require.Len(t, got, 2)
	require.Equal(t, "abc", got[0].Token)
	require.Equal(t, "marina", got[0].User.Username)
	require.Equal(t, "", got[1].Token)
	require.Nil(t, got[1].User)

	cancel()
	require.NoError(t, s.SetCredentials(testUser(), "def"))
	require.Len(t, got, 2, "после cancel подписчик не должен получать снимки")
}

func TestSetCredentials_PersistFailureLeavesSessionIntact(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	// Путь, по которому нельзя создать файл: занят каталогом.
	p := filepath.Join(dir, "token")
	require.NoError(t, os.MkdirAll(p, 0o700))

	s, err := Open(dir + "/absent")
	require.NoError(t, err)
	s.tokenPath = p

	require.Error(t, s.SetCredentials(testUser(), "abc"))
	require.Equal(t, "", s.Token())
	require.Nil(t, s.User())
}
