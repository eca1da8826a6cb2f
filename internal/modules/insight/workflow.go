package insight

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/HugoLiuTW/wisdow-meeting-assistant-lovable-version/internal/models"
	"github.com/HugoLiuTW/wisdow-meeting-assistant-lovable-version/internal/modules/meeting"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Step is the workflow position for the selected record.
type Step int

const (
	StepInput      Step = 1
	StepCorrection Step = 2
	StepInsight    Step = 3
)

var (
	errNoRecordSelected    = errors.New("no meeting selected")
	errEmptyTranscript     = errors.New("transcript is empty, paste a transcript before running correction")
	errNoTranscriptVersion = errors.New("run a correction pass first")
	errEmptyChatInput      = errors.New("message is empty")
	errOperationInFlight   = errors.New("another operation is still running, please wait")
	errNoModuleVersion     = errors.New("run this module's analysis before chatting")
	errUnknownModule       = errors.New("unknown analysis module")
	errUnknownField        = errors.New("unknown field")
	errUnknownVersion      = errors.New("no such version")
	errInvalidStep         = errors.New("invalid step")
)

type pendingWrite struct {
	timer *time.Timer
	write func()
}

// Controller drives the three-step workflow for one client session. It
// owns a transient mirror of the selected record: edit buffers, the
// transcript-version list and the per-module version map. The mirror is
// discarded and reloaded wholesale on every record switch.
type Controller struct {
	mu      sync.Mutex
	ownerID string
	store   *meeting.Service
	gateway Gateway
	logger  *zap.Logger

	recordID      string
	titleBuf      string
	transcriptBuf string
	metaBuf       Metadata

	transcriptVersions []models.TranscriptVersionModel
	activeTranscript   int

	moduleVersions map[string][]models.ModuleVersionModel
	activeModule   map[string]int

	step     Step
	inFlight bool

	debounce time.Duration
	pending  map[string]*pendingWrite
}

func NewController(ownerID string, store *meeting.Service, gateway Gateway, debounce time.Duration, logger *zap.Logger) *Controller {
	return &Controller{
		ownerID:        ownerID,
		store:          store,
		gateway:        gateway,
		logger:         logger,
		step:           StepInput,
		moduleVersions: map[string][]models.ModuleVersionModel{},
		activeModule:   map[string]int{},
		debounce:       debounce,
		pending:        map[string]*pendingWrite{},
	}
}

// SelectRecord loads the record and all of its versions into the mirror,
// points the cursors at the latest versions and resets the step to Input.
// The reset happens regardless of how far the record progressed before.
func (c *Controller) SelectRecord(id string) error {
	record, err := c.store.GetByID(c.ownerID, id)
	if err != nil {
		return err
	}
	if record == nil {
		return gorm.ErrRecordNotFound
	}

	transcriptVersions, err := c.store.ListTranscriptVersions(c.ownerID, id)
	if err != nil {
		return err
	}
	moduleVersions, err := c.store.ListModuleVersions(c.ownerID, id)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.flushPendingLocked()

	c.recordID = record.ID
	c.titleBuf = record.Title
	c.transcriptBuf = record.RawTranscript
	c.metaBuf = MetadataFromMeeting(record)

	c.transcriptVersions = transcriptVersions
	c.activeTranscript = 1
	if n := len(transcriptVersions); n > 0 {
		c.activeTranscript = transcriptVersions[n-1].Version
	}

	c.moduleVersions = map[string][]models.ModuleVersionModel{}
	c.activeModule = map[string]int{}
	for _, v := range moduleVersions {
		c.moduleVersions[v.ModuleID] = append(c.moduleVersions[v.ModuleID], v)
	}
	for moduleID, versions := range c.moduleVersions {
		c.activeModule[moduleID] = versions[len(versions)-1].Version
	}

	c.step = StepInput
	return nil
}

// SetStep moves the navigational cursor. Correction and Insight stay
// locked until the record has at least one transcript version.
func (c *Controller) SetStep(step Step) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if step < StepInput || step > StepInsight {
		return errInvalidStep
	}
	if c.recordID == "" {
		return errNoRecordSelected
	}
	if step > StepInput && len(c.transcriptVersions) == 0 {
		return errNoTranscriptVersion
	}
	c.step = step
	return nil
}

// UpdateField edits one buffer immediately and schedules a debounced
// store write. A new edit to the same field cancels the pending write and
// reschedules, so a burst of edits produces at most one write. The write
// itself is fire and forget; failures are logged, not surfaced.
func (c *Controller) UpdateField(field, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.recordID == "" {
		return errNoRecordSelected
	}

	var dto meeting.UpdateMeetingDTO
	v := value
	switch field {
	case "title":
		c.titleBuf = v
		dto.Title = &v
	case "transcript":
		c.transcriptBuf = v
		dto.RawTranscript = &v
	case "subject":
		c.metaBuf.Subject = v
		dto.Subject = &v
	case "keywords":
		c.metaBuf.Keywords = v
		dto.Keywords = &v
	case "speakers":
		c.metaBuf.Speakers = v
		dto.Speakers = &v
	case "terminology":
		c.metaBuf.Terminology = v
		dto.Terminology = &v
	case "target_length":
		c.metaBuf.TargetLength = v
		dto.TargetLength = &v
	default:
		return errUnknownField
	}

	if prev, ok := c.pending[field]; ok {
		prev.timer.Stop()
	}

	recordID := c.recordID
	write := func() {
		if _, err := c.store.Update(c.ownerID, recordID, &dto); err != nil {
			c.logger.Warn("debounced field write failed",
				zap.String("meeting_id", recordID),
				zap.String("field", field),
				zap.Error(err))
		}
	}
	pw := &pendingWrite{write: write}
	pw.timer = time.AfterFunc(c.debounce, func() {
		c.mu.Lock()
		if c.pending[field] == pw {
			delete(c.pending, field)
		}
		c.mu.Unlock()
		write()
	})
	c.pending[field] = pw
	return nil
}

// flushPendingLocked runs every pending write synchronously. Called on
// record switch so buffered edits are not lost with the mirror.
func (c *Controller) flushPendingLocked() {
	for field, pw := range c.pending {
		if pw.timer.Stop() {
			pw.write()
		}
		delete(c.pending, field)
	}
}

// RunCorrection sends the raw transcript through the gateway and stores
// the result as the next transcript version. An empty buffer fails before
// any network call.
func (c *Controller) RunCorrection(ctx context.Context) (*models.TranscriptVersionModel, error) {
	c.mu.Lock()
	if c.recordID == "" {
		c.mu.Unlock()
		return nil, errNoRecordSelected
	}
	if c.inFlight {
		c.mu.Unlock()
		return nil, errOperationInFlight
	}
	if strings.TrimSpace(c.transcriptBuf) == "" {
		c.mu.Unlock()
		return nil, errEmptyTranscript
	}
	c.inFlight = true
	recordID := c.recordID
	systemPrompt, messages := BuildCorrectionRequest(c.metaBuf, c.transcriptBuf)
	nextVersion := len(c.transcriptVersions) + 1
	c.mu.Unlock()

	corrected, err := c.gateway.Complete(ctx, systemPrompt, messages, correctionTemperature)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inFlight = false

	if err != nil {
		return nil, err
	}

	stored, err := c.store.InsertTranscriptVersion(c.ownerID, recordID, nextVersion, corrected, "")
	if err != nil {
		return nil, err
	}
	if c.recordID == recordID {
		c.transcriptVersions = append(c.transcriptVersions, *stored)
		c.activeTranscript = stored.Version
		c.step = StepCorrection
	}
	return stored, nil
}

// RunModuleAnalysis starts a fresh analysis thread for one module against
// the active corrected transcript. It never appends to an existing thread.
func (c *Controller) RunModuleAnalysis(ctx context.Context, moduleID string) (*models.ModuleVersionModel, error) {
	spec, ok := Lookup(moduleID)
	if !ok {
		return nil, errUnknownModule
	}

	c.mu.Lock()
	if c.recordID == "" {
		c.mu.Unlock()
		return nil, errNoRecordSelected
	}
	if c.inFlight {
		c.mu.Unlock()
		return nil, errOperationInFlight
	}
	transcript, ok := c.activeTranscriptTextLocked()
	if !ok {
		c.mu.Unlock()
		return nil, errNoTranscriptVersion
	}
	c.inFlight = true
	recordID := c.recordID
	nextVersion := len(c.moduleVersions[moduleID]) + 1
	systemPrompt, messages := BuildAnalysisRequest(transcript, spec)
	c.mu.Unlock()

	result, err := c.gateway.Complete(ctx, systemPrompt, messages, analysisTemperature)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inFlight = false

	if err != nil {
		return nil, err
	}

	stored, err := c.store.InsertModuleVersion(c.ownerID, recordID, moduleID, nextVersion, result)
	if err != nil {
		return nil, err
	}
	if c.recordID == recordID {
		c.moduleVersions[moduleID] = append(c.moduleVersions[moduleID], *stored)
		c.activeModule[moduleID] = stored.Version
		c.step = StepInsight
	}
	return stored, nil
}

// SendModuleChat extends the module's active thread by one user turn and
// one model turn. The user message is kept, in memory and in the store,
// even when the gateway call fails afterwards; only the model turn is
// missing then and the user re-sends to retry.
func (c *Controller) SendModuleChat(ctx context.Context, moduleID, userText string) (*models.ChatMessageModel, error) {
	spec, ok := Lookup(moduleID)
	if !ok {
		return nil, errUnknownModule
	}

	c.mu.Lock()
	if c.recordID == "" {
		c.mu.Unlock()
		return nil, errNoRecordSelected
	}
	if strings.TrimSpace(userText) == "" {
		c.mu.Unlock()
		return nil, errEmptyChatInput
	}
	if c.inFlight {
		c.mu.Unlock()
		return nil, errOperationInFlight
	}
	transcript, ok := c.activeTranscriptTextLocked()
	if !ok {
		c.mu.Unlock()
		return nil, errNoTranscriptVersion
	}
	idx, ok := c.activeModuleIndexLocked(moduleID)
	if !ok {
		c.mu.Unlock()
		return nil, errNoModuleVersion
	}
	c.inFlight = true
	recordID := c.recordID
	thread := &c.moduleVersions[moduleID][idx]

	userMsg, err := c.store.InsertChatMessage(c.ownerID, thread.ID, models.RoleUser, userText)
	if err != nil {
		c.inFlight = false
		c.mu.Unlock()
		return nil, err
	}
	thread.Messages = append(thread.Messages, *userMsg)

	systemPrompt, messages := BuildChatRequest(transcript, spec, thread.Messages)
	threadID := thread.ID
	c.mu.Unlock()

	answer, err := c.gateway.Complete(ctx, systemPrompt, messages, analysisTemperature)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.inFlight = false

	if err != nil {
		// The optimistic user turn stays; no rollback.
		return nil, err
	}

	modelMsg, err := c.store.InsertChatMessage(c.ownerID, threadID, models.RoleModel, answer)
	if err != nil {
		return nil, err
	}
	if c.recordID == recordID {
		if idx, ok := c.activeModuleIndexLocked(moduleID); ok && c.moduleVersions[moduleID][idx].ID == threadID {
			t := &c.moduleVersions[moduleID][idx]
			t.Messages = append(t.Messages, *modelMsg)
		}
	}
	return modelMsg, nil
}

// SetActiveTranscriptVersion moves the transcript cursor. Display only,
// never persisted.
func (c *Controller) SetActiveTranscriptVersion(version int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, v := range c.transcriptVersions {
		if v.Version == version {
			c.activeTranscript = version
			return nil
		}
	}
	return errUnknownVersion
}

// SetActiveModuleVersion moves one module's thread cursor.
func (c *Controller) SetActiveModuleVersion(moduleID string, version int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, v := range c.moduleVersions[moduleID] {
		if v.Version == version {
			c.activeModule[moduleID] = version
			return nil
		}
	}
	return errUnknownVersion
}

func (c *Controller) activeTranscriptTextLocked() (string, bool) {
	for _, v := range c.transcriptVersions {
		if v.Version == c.activeTranscript {
			return v.CorrectedText, true
		}
	}
	return "", false
}

func (c *Controller) activeModuleIndexLocked(moduleID string) (int, bool) {
	active, ok := c.activeModule[moduleID]
	if !ok {
		return 0, false
	}
	for i, v := range c.moduleVersions[moduleID] {
		if v.Version == active {
			return i, true
		}
	}
	return 0, false
}

// ModuleState is one module's slice of the workflow snapshot.
type ModuleState struct {
	ID            ModuleID                     `json:"id"`
	Name          string                       `json:"name"`
	ActiveVersion int                          `json:"active_version,omitempty"`
	Versions      []models.ModuleVersionModel  `json:"versions"`
}

// State is the full workflow snapshot returned to the client.
type State struct {
	RecordID           string                           `json:"record_id"`
	Step               Step                             `json:"step"`
	Title              string                           `json:"title"`
	Transcript         string                           `json:"transcript"`
	Subject            string                           `json:"subject"`
	Keywords           string                           `json:"keywords"`
	Speakers           string                           `json:"speakers"`
	Terminology        string                           `json:"terminology"`
	TargetLength       string                           `json:"target_length"`
	TranscriptVersions []models.TranscriptVersionModel  `json:"transcript_versions"`
	ActiveTranscript   int                              `json:"active_transcript_version"`
	Modules            []ModuleState                    `json:"modules"`
	InFlight           bool                             `json:"in_flight"`
}

// Snapshot copies the mirror for rendering.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := State{
		RecordID:         c.recordID,
		Step:             c.step,
		Title:            c.titleBuf,
		Transcript:       c.transcriptBuf,
		Subject:          c.metaBuf.Subject,
		Keywords:         c.metaBuf.Keywords,
		Speakers:         c.metaBuf.Speakers,
		Terminology:      c.metaBuf.Terminology,
		TargetLength:     c.metaBuf.TargetLength,
		ActiveTranscript: c.activeTranscript,
		InFlight:         c.inFlight,
	}
	st.TranscriptVersions = append(st.TranscriptVersions, c.transcriptVersions...)
	for _, spec := range Modules() {
		ms := ModuleState{ID: spec.ID, Name: spec.Name}
		ms.Versions = append(ms.Versions, c.moduleVersions[string(spec.ID)]...)
		ms.ActiveVersion = c.activeModule[string(spec.ID)]
		st.Modules = append(st.Modules, ms)
	}
	return st
}
