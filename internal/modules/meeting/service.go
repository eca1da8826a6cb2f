package meeting

import (
	"errors"
	"strings"

	"github.com/HugoLiuTW/wisdow-meeting-assistant-lovable-version/internal/models"
	"github.com/HugoLiuTW/wisdow-meeting-assistant-lovable-version/internal/pkg/pagination"
	"github.com/HugoLiuTW/wisdow-meeting-assistant-lovable-version/internal/pkg/response"
	mysqlDriver "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

// ErrVersionConflict is returned when a concurrent writer already claimed
// the same version number. The unique composite index is the guard; the
// loser surfaces this error and the user re-triggers the run.
var ErrVersionConflict = errors.New("version number already taken, please retry")

type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// DB exposes the underlying handle for transactional composition.
func (s *Service) DB() *gorm.DB { return s.db }

func (s *Service) Create(ownerID, title string) (*models.MeetingModel, error) {
	m := models.MeetingModel{
		OwnerID: ownerID,
		Title:   title,
	}
	return &m, s.db.Create(&m).Error
}

func (s *Service) List(ownerID string, q pagination.Query) ([]models.MeetingModel, response.Pagination, error) {
	tx := s.db.Model(&models.MeetingModel{}).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC")

	var meetings []models.MeetingModel
	pag, err := pagination.Paginate(tx, q, &meetings)
	return meetings, pag, err
}

// GetByID returns the meeting if it exists and belongs to ownerID.
// Unauthorized access fails closed as not-found.
func (s *Service) GetByID(ownerID, id string) (*models.MeetingModel, error) {
	var m models.MeetingModel
	if err := s.db.Where("id = ? AND owner_id = ?", id, ownerID).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

func (s *Service) Update(ownerID, id string, dto *UpdateMeetingDTO) (*models.MeetingModel, error) {
	m, err := s.GetByID(ownerID, id)
	if err != nil || m == nil {
		return m, err
	}

	updates := map[string]interface{}{}
	if dto.Title != nil {
		updates["title"] = *dto.Title
	}
	if dto.RawTranscript != nil {
		updates["raw_transcript"] = *dto.RawTranscript
	}
	if dto.Subject != nil {
		updates["subject"] = *dto.Subject
	}
	if dto.Keywords != nil {
		updates["keywords"] = *dto.Keywords
	}
	if dto.Speakers != nil {
		updates["speakers"] = *dto.Speakers
	}
	if dto.Terminology != nil {
		updates["terminology"] = *dto.Terminology
	}
	if dto.TargetLength != nil {
		updates["target_length"] = *dto.TargetLength
	}
	if len(updates) == 0 {
		return m, nil
	}

	if err := s.db.Model(m).Updates(updates).Error; err != nil {
		return nil, err
	}
	return m, nil
}

// Delete removes the meeting and cascades to all versions and messages.
func (s *Service) Delete(ownerID, id string) error {
	m, err := s.GetByID(ownerID, id)
	if err != nil {
		return err
	}
	if m == nil {
		return gorm.ErrRecordNotFound
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		var moduleVersionIDs []string
		if err := tx.Model(&models.ModuleVersionModel{}).
			Where("meeting_id = ?", id).
			Pluck("id", &moduleVersionIDs).Error; err != nil {
			return err
		}
		if len(moduleVersionIDs) > 0 {
			if err := tx.Where("module_version_id IN ?", moduleVersionIDs).
				Delete(&models.ChatMessageModel{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("meeting_id = ?", id).
			Delete(&models.ModuleVersionModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("meeting_id = ?", id).
			Delete(&models.TranscriptVersionModel{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.MeetingModel{}, "id = ?", id).Error
	})
}

// InsertTranscriptVersion persists one immutable correction snapshot under
// the caller-computed version number.
func (s *Service) InsertTranscriptVersion(ownerID, meetingID string, version int, correctedText, correctionLog string) (*models.TranscriptVersionModel, error) {
	m, err := s.GetByID(ownerID, meetingID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, gorm.ErrRecordNotFound
	}

	v := models.TranscriptVersionModel{
		MeetingID:     meetingID,
		Version:       version,
		CorrectedText: correctedText,
		CorrectionLog: correctionLog,
	}
	if err := s.db.Create(&v).Error; err != nil {
		if isDuplicateVersionError(err) {
			return nil, ErrVersionConflict
		}
		return nil, err
	}
	return &v, nil
}

// ListTranscriptVersions returns all correction snapshots ascending by version.
func (s *Service) ListTranscriptVersions(ownerID, meetingID string) ([]models.TranscriptVersionModel, error) {
	m, err := s.GetByID(ownerID, meetingID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, gorm.ErrRecordNotFound
	}

	var versions []models.TranscriptVersionModel
	err = s.db.Where("meeting_id = ?", meetingID).
		Order("version ASC").
		Find(&versions).Error
	return versions, err
}

// InsertModuleVersion creates a fresh analysis thread and its first model
// message in one transaction, so a failed message insert never leaves an
// orphaned empty thread behind.
func (s *Service) InsertModuleVersion(ownerID, meetingID, moduleID string, version int, firstResult string) (*models.ModuleVersionModel, error) {
	m, err := s.GetByID(ownerID, meetingID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, gorm.ErrRecordNotFound
	}

	v := models.ModuleVersionModel{
		MeetingID: meetingID,
		ModuleID:  moduleID,
		Version:   version,
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&v).Error; err != nil {
			return err
		}
		msg := models.ChatMessageModel{
			ModuleVersionID: v.ID,
			Role:            models.RoleModel,
			Content:         firstResult,
		}
		if err := tx.Create(&msg).Error; err != nil {
			return err
		}
		v.Messages = []models.ChatMessageModel{msg}
		return nil
	})
	if err != nil {
		if isDuplicateVersionError(err) {
			return nil, ErrVersionConflict
		}
		return nil, err
	}
	return &v, nil
}

// ListModuleVersions returns all analysis threads for a meeting with their
// messages ordered by creation time.
func (s *Service) ListModuleVersions(ownerID, meetingID string) ([]models.ModuleVersionModel, error) {
	m, err := s.GetByID(ownerID, meetingID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, gorm.ErrRecordNotFound
	}

	var versions []models.ModuleVersionModel
	err = s.db.Where("meeting_id = ?", meetingID).
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("chat_messages.created_at ASC, chat_messages.id ASC")
		}).
		Order("module_id ASC, version ASC").
		Find(&versions).Error
	return versions, err
}

// InsertChatMessage appends one turn to an existing analysis thread.
func (s *Service) InsertChatMessage(ownerID, moduleVersionID, role, content string) (*models.ChatMessageModel, error) {
	var v models.ModuleVersionModel
	if err := s.db.Where("id = ?", moduleVersionID).First(&v).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, gorm.ErrRecordNotFound
		}
		return nil, err
	}
	owner, err := s.GetByID(ownerID, v.MeetingID)
	if err != nil {
		return nil, err
	}
	if owner == nil {
		return nil, gorm.ErrRecordNotFound
	}

	msg := models.ChatMessageModel{
		ModuleVersionID: moduleVersionID,
		Role:            role,
		Content:         content,
	}
	return &msg, s.db.Create(&msg).Error
}

func isDuplicateVersionError(err error) bool {
	var mysqlErr *mysqlDriver.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate entry") ||
		strings.Contains(msg, "unique constraint failed")
}
