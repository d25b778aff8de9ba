package log

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestLogger(t *testing.T) (context.Context, func(), *Logger) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "log.db")
	var wg sync.WaitGroup
	logger, err := NewLogger(dbPath, &wg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, logger.Start(ctx))

	return ctx, cancel, logger
}

func TestNewLoggerCreatesDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "log.db")
	var wg sync.WaitGroup

	_, err := NewLogger(dbPath, &wg)
	require.NoError(t, err)
	require.FileExists(t, dbPath)
}

func TestNewLoggerRejectsMismatchedVersion(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "log.db")

	db, err := sql.Open("sqlite3", dbPath)
	require.NoError(t, err)
	_, err = db.Exec("PRAGMA user_version = 99")
	require.NoError(t, err)
	db.Close()

	var wg sync.WaitGroup
	_, err = NewLogger(dbPath, &wg)
	require.Error(t, err)
}

func TestSubscribeReceivesEmittedEvents(t *testing.T) {
	_, cancel, logger := newTestLogger(t)
	defer cancel()

	feed, unsub := logger.Subscribe()
	defer unsub()

	go logger.Info().Src("thumbnail").Request("info-7").Msg("hello")

	entry := <-feed
	require.Equal(t, LevelInfo, entry.Level)
	require.Equal(t, "thumbnail", entry.Src)
	require.Equal(t, "info-7", entry.Request)
	require.Equal(t, "hello", entry.Msg)
}

func TestMsgfFormatsMessage(t *testing.T) {
	_, cancel, logger := newTestLogger(t)
	defer cancel()

	feed, unsub := logger.Subscribe()
	defer unsub()

	go logger.Error().Src("waveform").Msgf("decode %s: %v", "clipA.mov", "eof")

	entry := <-feed
	require.Equal(t, LevelError, entry.Level)
	require.Equal(t, "decode clipA.mov: eof", entry.Msg)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	_, cancel, logger := newTestLogger(t)
	defer cancel()

	feed1, unsub1 := logger.Subscribe()
	defer unsub1()
	feed2, unsub2 := logger.Subscribe()
	unsub2()

	logger.Info().Msg("test")

	require.Equal(t, "test", (<-feed1).Msg)

	select {
	case _, ok := <-feed2:
		require.False(t, ok, "feed2 should be closed after unsubscribe")
	case <-time.After(50 * time.Millisecond):
		t.Fatal("feed2 was never closed")
	}
}

func TestLogToDBPersistsAndEvicts(t *testing.T) {
	ctx, cancel, logger := newTestLogger(t)
	defer cancel()

	go logger.LogToDB(ctx)
	time.Sleep(5 * time.Millisecond)

	logger.Error().Src("info").Request("req-1").Time(time.Unix(0, 1000000)).Msg("probe failed")
	time.Sleep(5 * time.Millisecond)

	logs, err := logger.Query(Query{Levels: []Level{LevelError}})
	require.NoError(t, err)
	require.Len(t, *logs, 1)
	require.Equal(t, "probe failed", (*logs)[0].Msg)
	require.Equal(t, "req-1", (*logs)[0].Request)
}

func TestPrintLogFormatsEntry(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)

	old := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = old }()

	printLog(Log{Level: LevelWarning, Src: "savepipeline", Request: "save-3", Msg: "rewrote extension"})

	w.Close()
	os.Stdout = old

	out := make([]byte, 256)
	n, _ := r.Read(out)
	require.Equal(t, "[WARNING] save-3: Savepipeline: rewrote extension\n", string(out[:n]))
}
