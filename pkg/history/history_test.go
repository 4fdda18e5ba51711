package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gemchat/pkg/chat"
	"gemchat/pkg/config"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

// fixedClock returns a clock that advances one second per call.
func fixedClock() func() time.Time {
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	n := 0
	return func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Second)
	}
}

func sampleConversation() []chat.Message {
	return []chat.Message{
		{ID: "01", Sender: chat.SenderUser, Parts: []chat.Part{
			chat.TextPart("what is this?"),
			chat.ImagePart("data:image/png;base64,iVBORw0KGgo="),
		}},
		{ID: "02", Sender: chat.SenderModel, Parts: []chat.Part{chat.TextPart("a png header")}},
	}
}

func storeContract(t *testing.T, store Store, setClock func(func() time.Time)) {
	ctx := context.Background()
	setClock(fixedClock())

	_, err := store.Load(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	items, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)

	require.NoError(t, store.Save(ctx, "a", "first", sampleConversation()))
	require.NoError(t, store.Save(ctx, "b", "second", sampleConversation()[:1]))

	got, err := store.Load(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, sampleConversation(), got)

	items, err = store.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "b", items[0].ID, "most recent first")
	assert.Equal(t, "second", items[0].Title)
	assert.True(t, items[0].UpdatedAt.After(items[1].UpdatedAt))

	// Saving again overwrites and bumps the chat to the top.
	require.NoError(t, store.Save(ctx, "a", "first renamed", sampleConversation()[:1]))
	items, err = store.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "a", items[0].ID)
	assert.Equal(t, "first renamed", items[0].Title)

	got, err = store.Load(ctx, "a")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	storeContract(t, store, func(now func() time.Time) { store.now = now })
}

func TestSQLiteStore(t *testing.T) {
	store := newTestSQLiteStore(t)
	storeContract(t, store, func(now func() time.Time) { store.now = now })
}

func TestSQLiteStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.db")
	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Save(context.Background(), "a", "kept", sampleConversation()))
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { reopened.Close() })

	got, err := reopened.Load(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, sampleConversation(), got)
}

func TestSQLiteStore_SaveNilMessages(t *testing.T) {
	store := newTestSQLiteStore(t)
	require.NoError(t, store.Save(context.Background(), "empty", "New chat", nil))

	got, err := store.Load(context.Background(), "empty")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMemoryStore_LoadReturnsCopy(t *testing.T) {
	store := NewMemoryStore()
	msgs := sampleConversation()
	require.NoError(t, store.Save(context.Background(), "a", "t", msgs))
	msgs[0].ID = "changed"

	got, err := store.Load(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, "01", got[0].ID)
}

func TestOpen(t *testing.T) {
	cfg := config.Default()

	cfg.History.Driver = config.HistoryNone
	store, err := Open(cfg)
	require.NoError(t, err)
	assert.Nil(t, store)

	cfg.History.Driver = config.HistoryMemory
	store, err = Open(cfg)
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)

	cfg.History.Driver = config.HistorySQLite
	cfg.History.Path = filepath.Join(t.TempDir(), "h.db")
	store, err = Open(cfg)
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, store)
	require.NoError(t, store.Close())

	cfg.History.Driver = "redis"
	_, err = Open(cfg)
	assert.Error(t, err)
}

func TestControllerWithSQLiteStore(t *testing.T) {
	store := newTestSQLiteStore(t)
	gw := chat.GatewayFunc(func(ctx context.Context, history []chat.Message, text string, att *chat.Attachment) (string, error) {
		return "echo: " + text, nil
	})
	ctrl := chat.NewController(gw, chat.WithStore(store))

	require.True(t, ctrl.Submit(context.Background(), "hello there", nil))
	id := ctrl.Snapshot().CurrentChatID
	require.NotEmpty(t, id)

	ctrl.NewChat()
	require.Empty(t, ctrl.Snapshot().Messages)

	items, err := ctrl.History(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "hello there", items[0].Title)

	require.NoError(t, ctrl.SelectChat(context.Background(), id))
	state := ctrl.Snapshot()
	require.Len(t, state.Messages, 2)
	assert.Equal(t, "echo: hello there", state.Messages[1].Text())
}
