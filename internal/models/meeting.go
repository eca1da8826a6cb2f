package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MeetingModel is one meeting-analysis project owned by a user.
// The raw transcript is a plain mutable field; only explicit correction
// runs produce versioned snapshots (TranscriptVersionModel).
type MeetingModel struct {
	Base
	OwnerID       string `json:"-"              gorm:"index;not null"`
	Title         string `json:"title"`
	RawTranscript string `json:"raw_transcript" gorm:"type:longtext"`
	Subject       string `json:"subject"        gorm:"type:text"`
	Keywords      string `json:"keywords"       gorm:"type:text"`
	Speakers      string `json:"speakers"       gorm:"type:text"`
	Terminology   string `json:"terminology"    gorm:"type:text"`
	TargetLength  string `json:"target_length"`
}

func (MeetingModel) TableName() string { return "meetings" }

// TranscriptVersionModel is an immutable snapshot of one correction pass.
// Version numbers per meeting are contiguous ascending integers from 1;
// the composite unique index rejects a concurrent duplicate at the store.
type TranscriptVersionModel struct {
	ID            string    `json:"id"             gorm:"type:char(36);primaryKey"`
	MeetingID     string    `json:"meeting_id"     gorm:"uniqueIndex:idx_transcript_versions_meeting_version;not null"`
	Version       int       `json:"version"        gorm:"uniqueIndex:idx_transcript_versions_meeting_version;not null"`
	CorrectedText string    `json:"corrected_text" gorm:"type:longtext"`
	CorrectionLog string    `json:"correction_log" gorm:"type:text"`
	CreatedAt     time.Time `json:"created"`
}

func (TranscriptVersionModel) TableName() string { return "transcript_versions" }

func (v *TranscriptVersionModel) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.New().String()
	}
	return nil
}

// ModuleVersionModel is one analysis thread for one insight module.
// Versions are sequenced independently per (meeting, module).
type ModuleVersionModel struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	MeetingID string    `json:"meeting_id" gorm:"uniqueIndex:idx_module_versions_meeting_module_version;not null"`
	ModuleID  string    `json:"module_id"  gorm:"uniqueIndex:idx_module_versions_meeting_module_version;type:char(1);not null"`
	Version   int       `json:"version"    gorm:"uniqueIndex:idx_module_versions_meeting_module_version;not null"`
	CreatedAt time.Time `json:"created"`

	Messages []ChatMessageModel `json:"messages,omitempty" gorm:"foreignKey:ModuleVersionID"`
}

func (ModuleVersionModel) TableName() string { return "module_versions" }

func (v *ModuleVersionModel) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.New().String()
	}
	return nil
}

// Chat message roles.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// ChatMessageModel is one turn inside a module version's conversation.
// Append-only; never edited or deleted individually.
type ChatMessageModel struct {
	ID              string    `json:"id"      gorm:"type:char(36);primaryKey"`
	ModuleVersionID string    `json:"-"       gorm:"index;not null"`
	Role            string    `json:"role"    gorm:"type:varchar(8);not null"`
	Content         string    `json:"content" gorm:"type:longtext"`
	CreatedAt       time.Time `json:"created"`
}

func (ChatMessageModel) TableName() string { return "chat_messages" }

func (m *ChatMessageModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return nil
}
