package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/ebt/internal/migrations"
	"github.com/magabrotheeeer/ebt/internal/models"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	st, err := New(context.Background(), ":memory:")
	require.NoError(t, err)
	require.NoError(t, migrations.RunSQLite(st.DB))
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func createUser(t *testing.T, st *Storage, name string) int64 {
	t.Helper()
	u, err := st.CreateUser(context.Background(), models.User{
		Username:     name,
		Email:        name + "@example.com",
		PasswordHash: "hash",
		CreatedAt:    time.Now().UTC(),
	})
	require.NoError(t, err)
	return u.ID
}

func ptr[T any](v T) *T { return &v }

func TestUsers(t *testing.T) {
	st := newTestStorage(t)
	ctx := context.Background()

	id := createUser(t, st, "alice")
	assert.Positive(t, id)

	_, err := st.CreateUser(ctx, models.User{Username: "other", Email: "alice@example.com", PasswordHash: "h", CreatedAt: time.Now()})
	assert.ErrorIs(t, err, models.ErrConflict)

	u, err := st.GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, id, u.ID)
	assert.Equal(t, "alice", u.Username)

	_, err = st.GetUserByID(ctx, id+100)
	assert.ErrorIs(t, err, models.ErrNotFound)

	require.NoError(t, st.UpdateUserPassword(ctx, id, "new-hash"))
	u, err = st.GetUserByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", u.PasswordHash)

	assert.ErrorIs(t, st.UpdateUserPassword(ctx, id+100, "x"), models.ErrNotFound)
}

func TestTasksRoundTrip(t *testing.T) {
	st := newTestStorage(t)
	ctx := context.Background()
	userID := createUser(t, st, "alice")

	deadline := time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC)
	created := time.Date(2024, 5, 1, 8, 30, 0, 123, time.UTC)
	stored, err := st.InsertTask(ctx, models.Task{
		UserID:      userID,
		Title:       "Logo",
		Description: ptr("vector"),
		Deadline:    &deadline,
		Amount:      decimal.RequireFromString("150.50"),
		CreatedAt:   created,
	})
	require.NoError(t, err)
	assert.Positive(t, stored.ID)
	assert.Equal(t, "Logo", stored.Title)
	assert.Equal(t, "vector", *stored.Description)
	assert.Nil(t, stored.ImageURL)
	assert.True(t, stored.Deadline.Equal(deadline))
	assert.True(t, stored.CreatedAt.Equal(created))
	assert.True(t, stored.Amount.Equal(decimal.RequireFromString("150.5")))
	assert.False(t, stored.Completed)
	assert.Nil(t, stored.CompletedAt)
}

func TestListTasksFilterAndScope(t *testing.T) {
	st := newTestStorage(t)
	ctx := context.Background()
	alice := createUser(t, st, "alice")
	bob := createUser(t, st, "bob")
	now := time.Now().UTC()

	_, err := st.InsertTask(ctx, models.Task{UserID: alice, Title: "a1", CreatedAt: now})
	require.NoError(t, err)
	_, err = st.InsertTask(ctx, models.Task{UserID: alice, Title: "a2", Completed: true, CompletedAt: &now, CreatedAt: now})
	require.NoError(t, err)
	_, err = st.InsertTask(ctx, models.Task{UserID: bob, Title: "b1", CreatedAt: now})
	require.NoError(t, err)

	all, err := st.ListTasks(ctx, alice, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	done, err := st.ListTasks(ctx, alice, ptr(true))
	require.NoError(t, err)
	require.Len(t, done, 1)
	assert.Equal(t, "a2", done[0].Title)
	require.NotNil(t, done[0].CompletedAt)

	open, err := st.ListTasks(ctx, alice, ptr(false))
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "a1", open[0].Title)

	empty, err := st.ListTasks(ctx, bob+100, nil)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestUpdateTask(t *testing.T) {
	st := newTestStorage(t)
	ctx := context.Background()
	alice := createUser(t, st, "alice")
	bob := createUser(t, st, "bob")
	now := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)

	task, err := st.InsertTask(ctx, models.Task{UserID: alice, Title: "a", CreatedAt: now})
	require.NoError(t, err)

	updated, err := st.UpdateTask(ctx, alice, task.ID, func(tk *models.Task) error {
		tk.Title = "b"
		tk.Amount = decimal.NewFromInt(42)
		tk.Completed = true
		tk.CompletedAt = &now
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "b", updated.Title)

	list, err := st.ListTasks(ctx, alice, nil)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].Completed)
	assert.True(t, list[0].CompletedAt.Equal(now))
	assert.True(t, list[0].Amount.Equal(decimal.NewFromInt(42)))

	_, err = st.UpdateTask(ctx, bob, task.ID, func(*models.Task) error { return nil })
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = st.UpdateTask(ctx, alice, task.ID, func(*models.Task) error { return models.Invalid("bad") })
	assert.ErrorIs(t, err, models.ErrValidation)
	list, err = st.ListTasks(ctx, alice, nil)
	require.NoError(t, err)
	assert.Equal(t, "b", list[0].Title)
}

func TestDeleteTask(t *testing.T) {
	st := newTestStorage(t)
	ctx := context.Background()
	alice := createUser(t, st, "alice")
	bob := createUser(t, st, "bob")

	task, err := st.InsertTask(ctx, models.Task{UserID: alice, Title: "a", CreatedAt: time.Now()})
	require.NoError(t, err)

	_, err = st.DeleteTask(ctx, bob, task.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)

	deleted, err := st.DeleteTask(ctx, alice, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "a", deleted.Title)

	_, err = st.DeleteTask(ctx, alice, task.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestSettings(t *testing.T) {
	st := newTestStorage(t)
	ctx := context.Background()
	alice := createUser(t, st, "alice")
	bob := createUser(t, st, "bob")
	now := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)

	_, err := st.GetSettings(ctx, alice)
	assert.ErrorIs(t, err, models.ErrNotFound)

	got, err := st.UpsertSettings(ctx, alice, models.SettingsPatch{WebhookURL: ptr("https://discord.test/hook")}, now)
	require.NoError(t, err)
	require.NotNil(t, got.WebhookURL)
	assert.Nil(t, got.APIKey)
	assert.False(t, got.APIEnabled)

	got, err = st.UpsertSettings(ctx, alice, models.SettingsPatch{APIKey: ptr("ebt-key"), APIEnabled: ptr(true)}, now.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, "https://discord.test/hook", *got.WebhookURL)
	assert.Equal(t, "ebt-key", *got.APIKey)
	assert.True(t, got.APIEnabled)
	assert.True(t, got.CreatedAt.Equal(now))

	id, err := st.FindUserIDByAPIKey(ctx, "ebt-key")
	require.NoError(t, err)
	assert.Equal(t, alice, id)

	_, err = st.UpsertSettings(ctx, bob, models.SettingsPatch{APIKey: ptr("ebt-key")}, now)
	assert.ErrorIs(t, err, models.ErrConflict)

	_, err = st.UpsertSettings(ctx, alice, models.SettingsPatch{APIEnabled: ptr(false)}, now)
	require.NoError(t, err)
	_, err = st.FindUserIDByAPIKey(ctx, "ebt-key")
	assert.ErrorIs(t, err, models.ErrNotFound)

	got, err = st.UpsertSettings(ctx, alice, models.SettingsPatch{WebhookURL: ptr("")}, now)
	require.NoError(t, err)
	assert.Nil(t, got.WebhookURL)
}

func TestListDueTasks(t *testing.T) {
	st := newTestStorage(t)
	ctx := context.Background()
	alice := createUser(t, st, "alice")
	bob := createUser(t, st, "bob")
	now := time.Date(2024, 5, 10, 9, 0, 0, 0, time.UTC)
	soon := now.Add(2 * time.Hour)
	later := now.Add(72 * time.Hour)

	_, err := st.UpsertSettings(ctx, alice, models.SettingsPatch{WebhookURL: ptr("https://discord.test/a")}, now)
	require.NoError(t, err)

	_, err = st.InsertTask(ctx, models.Task{UserID: alice, Title: "due", Deadline: &soon, CreatedAt: now})
	require.NoError(t, err)
	_, err = st.InsertTask(ctx, models.Task{UserID: alice, Title: "later", Deadline: &later, CreatedAt: now})
	require.NoError(t, err)
	_, err = st.InsertTask(ctx, models.Task{UserID: alice, Title: "done", Deadline: &soon, Completed: true, CompletedAt: &now, CreatedAt: now})
	require.NoError(t, err)
	_, err = st.InsertTask(ctx, models.Task{UserID: bob, Title: "no webhook", Deadline: &soon, CreatedAt: now})
	require.NoError(t, err)

	due, err := st.ListDueTasks(ctx, now, now.Add(24*time.Hour))
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "due", due[0].Task.Title)
	assert.Equal(t, "https://discord.test/a", due[0].WebhookURL)
}
