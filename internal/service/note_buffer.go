package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/class-schedule-api/internal/dto"
	"github.com/noah-isme/class-schedule-api/internal/models"
	"github.com/noah-isme/class-schedule-api/pkg/calendar"
	"github.com/noah-isme/class-schedule-api/pkg/debounce"
	appErrors "github.com/noah-isme/class-schedule-api/pkg/errors"
	"github.com/noah-isme/class-schedule-api/pkg/jobs"
)

const noteJobType = "class_entry_notes"

type noteSaver interface {
	SaveNotes(ctx context.Context, req dto.SlotNotesRequest) (*models.ClassEntry, error)
}

type bufferedNote struct {
	req     dto.SlotNotesRequest
	version uint64
}

// NoteBuffer holds note edits per slot and saves only the latest text once the
// slot has been quiet for the debounce delay. Saves run on a single worker and
// are never retried; a failed note stays pending until flushed or discarded.
type NoteBuffer struct {
	saver     noteSaver
	validator *validator.Validate
	group     *debounce.Group
	queue     *jobs.Queue
	metrics   *MetricsService
	logger    *zap.Logger

	mu       sync.Mutex
	notes    map[string]bufferedNote
	failures map[string]dto.NoteFailure
	version  uint64

	// writeMu keeps the worker and Flush from saving concurrently.
	writeMu sync.Mutex
}

// NewNoteBuffer builds a buffer that commits through saver after delay.
func NewNoteBuffer(saver noteSaver, delay time.Duration, validate *validator.Validate, metrics *MetricsService, logger *zap.Logger) *NoteBuffer {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &NoteBuffer{
		saver:     saver,
		validator: validate,
		group:     debounce.New(delay),
		metrics:   metrics,
		logger:    logger,
		notes:     make(map[string]bufferedNote),
		failures:  make(map[string]dto.NoteFailure),
	}
	b.queue = jobs.NewQueue("class-entry-notes", b.handle, jobs.QueueConfig{
		Workers:    1,
		BufferSize: 64,
		Logger:     logger,
	})
	return b
}

// NoteKey identifies the slot a buffered note belongs to.
func NoteKey(slot dto.SlotRequest) string {
	return fmt.Sprintf("%s/%d-%d", slot.Date, slot.ClassTypeID, slot.Period)
}

// Start launches the save worker.
func (b *NoteBuffer) Start(ctx context.Context) {
	b.queue.Start(ctx)
}

// Buffer records the latest notes for a slot and restarts its quiet period.
func (b *NoteBuffer) Buffer(req dto.SlotNotesRequest) (string, error) {
	if err := b.validator.Struct(req); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid notes payload")
	}
	if _, err := calendar.Parse(req.Date); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status,
			fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", req.Date))
	}
	key := NoteKey(req.SlotRequest)
	b.mu.Lock()
	b.version++
	b.notes[key] = bufferedNote{req: req, version: b.version}
	b.mu.Unlock()

	if err := b.group.Trigger(key, func() { b.dispatch(key) }); err != nil {
		b.mu.Lock()
		delete(b.notes, key)
		b.mu.Unlock()
		if errors.Is(err, debounce.ErrClosed) {
			return "", appErrors.Clone(appErrors.ErrInternal, "note buffer is shutting down")
		}
		return "", appErrors.Internal(err, "failed to buffer notes")
	}
	b.reportPending()
	return key, nil
}

func (b *NoteBuffer) dispatch(key string) {
	if err := b.queue.Enqueue(jobs.Job{ID: key, Type: noteJobType}); err != nil {
		b.logger.Error("failed to enqueue note save", zap.String("key", key), zap.Error(err))
		b.recordFailure(key, err)
	}
}

func (b *NoteBuffer) handle(ctx context.Context, job jobs.Job) error {
	return b.commit(ctx, job.ID)
}

// commit saves the latest notes buffered under key. The entry is only dropped
// from the buffer when no newer edit arrived while saving.
func (b *NoteBuffer) commit(ctx context.Context, key string) error {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	b.mu.Lock()
	note, ok := b.notes[key]
	b.mu.Unlock()
	if !ok {
		return nil
	}

	_, err := b.saver.SaveNotes(ctx, note.req)
	b.metrics.RecordNoteCommit(err)
	if err != nil {
		b.recordFailure(key, err)
		return err
	}

	b.mu.Lock()
	if current, ok := b.notes[key]; ok && current.version == note.version {
		delete(b.notes, key)
	}
	delete(b.failures, key)
	b.mu.Unlock()
	b.reportPending()
	return nil
}

// Flush saves every buffered note now, skipping the quiet period.
func (b *NoteBuffer) Flush(ctx context.Context) dto.FlushNotesResponse {
	b.group.CancelAll()

	saved := 0
	for _, key := range b.keys() {
		if err := b.commit(ctx, key); err == nil {
			saved++
		}
	}
	resp := b.Status()
	return dto.FlushNotesResponse{Saved: saved, Failures: resp.Failures}
}

// Discard drops buffered notes without saving. An empty key drops everything.
func (b *NoteBuffer) Discard(key string) int {
	b.mu.Lock()
	dropped := 0
	if key == "" {
		dropped = len(b.notes)
		b.notes = make(map[string]bufferedNote)
		b.failures = make(map[string]dto.NoteFailure)
	} else if _, ok := b.notes[key]; ok {
		delete(b.notes, key)
		delete(b.failures, key)
		dropped = 1
	}
	b.mu.Unlock()

	if key == "" {
		b.group.CancelAll()
	} else {
		b.group.Cancel(key)
	}
	b.reportPending()
	return dropped
}

// Pending returns the number of unsaved notes.
func (b *NoteBuffer) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.notes)
}

// Status lists unsaved notes and the latest failure per slot.
func (b *NoteBuffer) Status() dto.PendingNotesResponse {
	keys := b.keys()
	b.mu.Lock()
	failures := make([]dto.NoteFailure, 0, len(b.failures))
	for _, f := range b.failures {
		failures = append(failures, f)
	}
	b.mu.Unlock()
	sort.Slice(failures, func(i, j int) bool { return failures[i].Key < failures[j].Key })
	return dto.PendingNotesResponse{Pending: len(keys), Keys: keys, Failures: failures}
}

// Close stops accepting edits, saves what is still buffered and stops the worker.
func (b *NoteBuffer) Close(ctx context.Context) dto.FlushNotesResponse {
	b.group.Close()
	resp := b.Flush(ctx)
	b.queue.Stop()
	return resp
}

func (b *NoteBuffer) keys() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	keys := make([]string, 0, len(b.notes))
	for k := range b.notes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (b *NoteBuffer) recordFailure(key string, err error) {
	b.mu.Lock()
	b.failures[key] = dto.NoteFailure{Key: key, Error: err.Error(), FailedAt: time.Now().UTC()}
	b.mu.Unlock()
}

func (b *NoteBuffer) reportPending() {
	b.metrics.SetPendingNotes(b.Pending())
}
