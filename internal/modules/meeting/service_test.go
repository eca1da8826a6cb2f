package meeting

import (
	"testing"

	"github.com/HugoLiuTW/wisdow-meeting-assistant-lovable-version/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.MeetingModel{},
		&models.TranscriptVersionModel{},
		&models.ModuleVersionModel{},
		&models.ChatMessageModel{},
	))

	return NewService(db)
}

func TestTranscriptVersionSequencing(t *testing.T) {
	s := newTestService(t)

	m, err := s.Create("owner-1", "weekly sync")
	require.NoError(t, err)

	for i := 1; i <= 3; i++ {
		v, err := s.InsertTranscriptVersion("owner-1", m.ID, i, "text", "log")
		require.NoError(t, err)
		assert.Equal(t, i, v.Version)
		assert.NotEmpty(t, v.ID)
	}

	versions, err := s.ListTranscriptVersions("owner-1", m.ID)
	require.NoError(t, err)
	require.Len(t, versions, 3)
	for i, v := range versions {
		assert.Equal(t, i+1, v.Version)
	}
}

func TestTranscriptVersionConflict(t *testing.T) {
	s := newTestService(t)

	m, err := s.Create("owner-1", "standup")
	require.NoError(t, err)

	_, err = s.InsertTranscriptVersion("owner-1", m.ID, 1, "first", "")
	require.NoError(t, err)

	_, err = s.InsertTranscriptVersion("owner-1", m.ID, 1, "second", "")
	assert.ErrorIs(t, err, ErrVersionConflict)

	// The loser must not leave a row behind.
	versions, err := s.ListTranscriptVersions("owner-1", m.ID)
	require.NoError(t, err)
	assert.Len(t, versions, 1)
	assert.Equal(t, "first", versions[0].CorrectedText)
}

func TestModuleVersionsIndependentPerModule(t *testing.T) {
	s := newTestService(t)

	m, err := s.Create("owner-1", "retro")
	require.NoError(t, err)

	a1, err := s.InsertModuleVersion("owner-1", m.ID, "A", 1, "analysis a1")
	require.NoError(t, err)
	a2, err := s.InsertModuleVersion("owner-1", m.ID, "A", 2, "analysis a2")
	require.NoError(t, err)
	b1, err := s.InsertModuleVersion("owner-1", m.ID, "B", 1, "analysis b1")
	require.NoError(t, err)

	assert.Equal(t, 1, a1.Version)
	assert.Equal(t, 2, a2.Version)
	assert.Equal(t, 1, b1.Version)

	// Same (module, version) pair collides, a different module does not.
	_, err = s.InsertModuleVersion("owner-1", m.ID, "B", 1, "dup")
	assert.ErrorIs(t, err, ErrVersionConflict)

	// Each new thread starts with exactly one model message.
	require.Len(t, a1.Messages, 1)
	assert.Equal(t, models.RoleModel, a1.Messages[0].Role)
	assert.Equal(t, "analysis a1", a1.Messages[0].Content)
}

func TestChatMessageAppend(t *testing.T) {
	s := newTestService(t)

	m, err := s.Create("owner-1", "1on1")
	require.NoError(t, err)
	v, err := s.InsertModuleVersion("owner-1", m.ID, "C", 1, "initial")
	require.NoError(t, err)

	_, err = s.InsertChatMessage("owner-1", v.ID, models.RoleUser, "follow-up question")
	require.NoError(t, err)
	_, err = s.InsertChatMessage("owner-1", v.ID, models.RoleModel, "follow-up answer")
	require.NoError(t, err)

	versions, err := s.ListModuleVersions("owner-1", m.ID)
	require.NoError(t, err)
	require.Len(t, versions, 1)
	msgs := versions[0].Messages
	require.Len(t, msgs, 3)
	assert.Equal(t, models.RoleModel, msgs[0].Role)
	assert.Equal(t, models.RoleUser, msgs[1].Role)
	assert.Equal(t, "follow-up question", msgs[1].Content)
	assert.Equal(t, models.RoleModel, msgs[2].Role)
}

func TestOwnerScoping(t *testing.T) {
	s := newTestService(t)

	m, err := s.Create("owner-1", "private")
	require.NoError(t, err)

	got, err := s.GetByID("owner-2", m.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = s.InsertTranscriptVersion("owner-2", m.ID, 1, "x", "")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	_, err = s.ListModuleVersions("owner-2", m.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	v, err := s.InsertModuleVersion("owner-1", m.ID, "A", 1, "r")
	require.NoError(t, err)
	_, err = s.InsertChatMessage("owner-2", v.ID, models.RoleUser, "hi")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	assert.ErrorIs(t, s.Delete("owner-2", m.ID), gorm.ErrRecordNotFound)
}

func TestUpdateTouchesOnlyProvidedFields(t *testing.T) {
	s := newTestService(t)

	m, err := s.Create("owner-1", "planning")
	require.NoError(t, err)

	subject := "Q3 roadmap"
	_, err = s.Update("owner-1", m.ID, &UpdateMeetingDTO{Subject: &subject})
	require.NoError(t, err)

	raw := "A: hello\nB: hi"
	_, err = s.Update("owner-1", m.ID, &UpdateMeetingDTO{RawTranscript: &raw})
	require.NoError(t, err)

	got, err := s.GetByID("owner-1", m.ID)
	require.NoError(t, err)
	assert.Equal(t, "planning", got.Title)
	assert.Equal(t, "Q3 roadmap", got.Subject)
	assert.Equal(t, raw, got.RawTranscript)
}

func TestDeleteCascades(t *testing.T) {
	s := newTestService(t)

	m, err := s.Create("owner-1", "doomed")
	require.NoError(t, err)
	_, err = s.InsertTranscriptVersion("owner-1", m.ID, 1, "text", "")
	require.NoError(t, err)
	v, err := s.InsertModuleVersion("owner-1", m.ID, "E", 1, "summary")
	require.NoError(t, err)
	_, err = s.InsertChatMessage("owner-1", v.ID, models.RoleUser, "q")
	require.NoError(t, err)

	require.NoError(t, s.Delete("owner-1", m.ID))

	got, err := s.GetByID("owner-1", m.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	var count int64
	require.NoError(t, s.DB().Model(&models.TranscriptVersionModel{}).Where("meeting_id = ?", m.ID).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, s.DB().Model(&models.ModuleVersionModel{}).Where("meeting_id = ?", m.ID).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, s.DB().Model(&models.ChatMessageModel{}).Where("module_version_id = ?", v.ID).Count(&count).Error)
	assert.Zero(t, count)
}
