package service_test

import (
	"context"
	"encoding/json"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/intellibotic/bot-api/internal/domain"
	"github.com/intellibotic/bot-api/internal/mirror"
	"github.com/intellibotic/bot-api/internal/repository"
	"github.com/intellibotic/bot-api/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type serviceFixture struct {
	svc       *service.BotService
	mirror    *mirror.LocalStore
	mirrorDir string
}

func setupService(t *testing.T) *serviceFixture {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Bot{}))

	dir := t.TempDir()
	store, err := mirror.NewLocalStore(dir)
	require.NoError(t, err)

	return &serviceFixture{
		svc:       service.NewBotService(repository.NewBotRepository(db), store, zap.NewNop()),
		mirror:    store,
		mirrorDir: dir,
	}
}

func (f *serviceFixture) mirrorFiles(t *testing.T) []string {
	names, err := f.mirror.List(context.Background())
	require.NoError(t, err)
	return names
}

func TestBotService_Create_WritesMirror(t *testing.T) {
	f := setupService(t)

	bot, err := f.svc.Create(context.Background(), &domain.CreateBotRequest{
		Name:   "greeter",
		Config: json.RawMessage(`{"start":"hello"}`),
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, bot.ID)
	assert.Equal(t, "greeter", bot.Name)

	path := f.mirror.Path(bot.ID, "greeter")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"start":"hello"}`, string(data))
}

func TestBotService_Create_Validation(t *testing.T) {
	f := setupService(t)

	_, err := f.svc.Create(context.Background(), &domain.CreateBotRequest{
		Config: json.RawMessage(`{}`),
	})
	assert.ErrorIs(t, err, service.ErrInvalidInput)

	_, err = f.svc.Create(context.Background(), &domain.CreateBotRequest{
		Name: "greeter",
	})
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func TestBotService_Create_DuplicateName(t *testing.T) {
	f := setupService(t)

	_, err := f.svc.Create(context.Background(), &domain.CreateBotRequest{
		Name:   "greeter",
		Config: json.RawMessage(`{}`),
	})
	require.NoError(t, err)

	_, err = f.svc.Create(context.Background(), &domain.CreateBotRequest{
		Name:   "greeter",
		Config: json.RawMessage(`{}`),
	})
	assert.ErrorIs(t, err, service.ErrConflict)

	// Only one mirror file exists
	assert.Len(t, f.mirrorFiles(t), 1)
}

func TestBotService_Get(t *testing.T) {
	f := setupService(t)

	created, err := f.svc.Create(context.Background(), &domain.CreateBotRequest{
		Name:   "greeter",
		Config: json.RawMessage(`{"start":"hello"}`),
	})
	require.NoError(t, err)

	bot, err := f.svc.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, bot.ID)
	assert.JSONEq(t, `{"start":"hello"}`, string(bot.Config))

	_, err = f.svc.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestBotService_Update_RenameMovesMirror(t *testing.T) {
	f := setupService(t)

	created, err := f.svc.Create(context.Background(), &domain.CreateBotRequest{
		Name:   "greeter",
		Config: json.RawMessage(`{"start":"hello"}`),
	})
	require.NoError(t, err)

	oldPath := f.mirror.Path(created.ID, "greeter")
	_, err = os.Stat(oldPath)
	require.NoError(t, err)

	newName := "greeter-v2"
	updated, err := f.svc.Update(context.Background(), created.ID, &domain.UpdateBotRequest{
		Name: &newName,
	})
	require.NoError(t, err)
	assert.Equal(t, "greeter-v2", updated.Name)

	// Old file is gone, new one holds the unchanged config
	_, err = os.Stat(oldPath)
	assert.True(t, os.IsNotExist(err))

	data, err := os.ReadFile(f.mirror.Path(created.ID, "greeter-v2"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"start":"hello"}`, string(data))
}

func TestBotService_Update_ConfigRefreshesMirror(t *testing.T) {
	f := setupService(t)

	created, err := f.svc.Create(context.Background(), &domain.CreateBotRequest{
		Name:   "greeter",
		Config: json.RawMessage(`{"start":"hello"}`),
	})
	require.NoError(t, err)

	_, err = f.svc.Update(context.Background(), created.ID, &domain.UpdateBotRequest{
		Config: json.RawMessage(`{"start":"hi","fallback":"sorry"}`),
	})
	require.NoError(t, err)

	data, err := os.ReadFile(f.mirror.Path(created.ID, "greeter"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"start":"hi","fallback":"sorry"}`, string(data))
}

func TestBotService_Update_RenameConflict(t *testing.T) {
	f := setupService(t)

	_, err := f.svc.Create(context.Background(), &domain.CreateBotRequest{
		Name:   "alpha",
		Config: json.RawMessage(`{}`),
	})
	require.NoError(t, err)

	beta, err := f.svc.Create(context.Background(), &domain.CreateBotRequest{
		Name:   "beta",
		Config: json.RawMessage(`{}`),
	})
	require.NoError(t, err)

	taken := "alpha"
	_, err = f.svc.Update(context.Background(), beta.ID, &domain.UpdateBotRequest{
		Name: &taken,
	})
	assert.ErrorIs(t, err, service.ErrConflict)

	// Updating a bot to its own name is not a conflict
	own := "beta"
	_, err = f.svc.Update(context.Background(), beta.ID, &domain.UpdateBotRequest{
		Name: &own,
	})
	assert.NoError(t, err)
}

func TestBotService_Update_NotFound(t *testing.T) {
	f := setupService(t)

	name := "ghost"
	_, err := f.svc.Update(context.Background(), uuid.New(), &domain.UpdateBotRequest{
		Name: &name,
	})
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestBotService_Delete_RemovesRowAndMirror(t *testing.T) {
	f := setupService(t)

	created, err := f.svc.Create(context.Background(), &domain.CreateBotRequest{
		Name:   "greeter",
		Config: json.RawMessage(`{}`),
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(context.Background(), created.ID))

	_, err = f.svc.Get(context.Background(), created.ID)
	assert.ErrorIs(t, err, service.ErrNotFound)
	assert.Empty(t, f.mirrorFiles(t))

	assert.ErrorIs(t, f.svc.Delete(context.Background(), created.ID), service.ErrNotFound)
}

func TestBotService_ExportImport_RoundTrip(t *testing.T) {
	f := setupService(t)

	created, err := f.svc.Create(context.Background(), &domain.CreateBotRequest{
		Name:        "greeter",
		Description: "says hello",
		Config:      json.RawMessage(`{"start":"hello"}`),
	})
	require.NoError(t, err)

	doc, err := f.svc.Export(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, doc.ID)
	assert.Equal(t, "greeter", doc.Name)
	assert.JSONEq(t, `{"start":"hello"}`, string(doc.Config))
	assert.NotEmpty(t, doc.CreatedAt)

	// Importing the document verbatim collides on the name
	raw, err := json.Marshal(doc)
	require.NoError(t, err)
	_, err = f.svc.Import(context.Background(), raw)
	assert.ErrorIs(t, err, service.ErrConflict)

	// Under a fresh name it becomes a new bot with a new id
	doc.Name = "greeter-copy"
	raw, err = json.Marshal(doc)
	require.NoError(t, err)

	imported, err := f.svc.Import(context.Background(), raw)
	require.NoError(t, err)
	assert.NotEqual(t, created.ID, imported.ID)
	assert.Equal(t, "greeter-copy", imported.Name)
	assert.JSONEq(t, `{"start":"hello"}`, string(imported.Config))
}

func TestBotService_Import_Validation(t *testing.T) {
	f := setupService(t)

	tests := []struct {
		name     string
		document string
	}{
		{"not json", "not json at all"},
		{"missing name", `{"config":{"start":"hello"}}`},
		{"missing config", `{"name":"greeter"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Import(context.Background(), []byte(tt.document))
			assert.ErrorIs(t, err, service.ErrInvalidInput)
		})
	}
}

func TestBotService_ReconcileMirrors(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	alpha, err := f.svc.Create(ctx, &domain.CreateBotRequest{
		Name:   "alpha",
		Config: json.RawMessage(`{"start":"a"}`),
	})
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, &domain.CreateBotRequest{
		Name:   "beta",
		Config: json.RawMessage(`{"start":"b"}`),
	})
	require.NoError(t, err)

	// Simulate drift: one mirror lost, one orphan left behind
	require.NoError(t, os.Remove(f.mirror.Path(alpha.ID, "alpha")))
	require.NoError(t, f.mirror.Write(ctx, uuid.New(), "ghost", json.RawMessage(`{}`)))

	result, err := f.svc.ReconcileMirrors(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Rewritten)
	assert.Equal(t, 1, result.Removed)

	// Converged: exactly one file per live bot, content restored
	assert.Len(t, f.mirrorFiles(t), 2)
	data, err := os.ReadFile(f.mirror.Path(alpha.ID, "alpha"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"start":"a"}`, string(data))
}
