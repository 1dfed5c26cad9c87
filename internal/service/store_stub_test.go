package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/noah-isme/class-schedule-api/internal/models"
	"github.com/noah-isme/class-schedule-api/internal/repository"
	"github.com/noah-isme/class-schedule-api/pkg/calendar"
	appErrors "github.com/noah-isme/class-schedule-api/pkg/errors"
)

// entryStoreStub keeps class entries in memory under the same slot uniqueness
// rule as the class_entries table.
type entryStoreStub struct {
	mu      sync.Mutex
	rows    map[string]models.ClassEntry
	names   map[int64]string
	nextID  int
	failErr error
}

func newEntryStoreStub(entries ...models.ClassEntry) *entryStoreStub {
	s := &entryStoreStub{rows: make(map[string]models.ClassEntry), names: make(map[int64]string)}
	for _, e := range entries {
		s.put(e)
	}
	return s
}

func stubSlot(e models.ClassEntry) string {
	class := "null"
	if e.ClassTypeID != nil {
		class = fmt.Sprint(*e.ClassTypeID)
	}
	return fmt.Sprintf("%s/%s-%d", calendar.Key(e.Date), class, e.Period)
}

func (s *entryStoreStub) put(e models.ClassEntry) models.ClassEntry {
	if e.ID == "" {
		s.nextID++
		e.ID = fmt.Sprintf("entry-%d", s.nextID)
	}
	s.rows[stubSlot(e)] = e
	return e
}

func (s *entryStoreStub) sorted(match func(models.ClassEntry) bool) []models.ClassEntryDetail {
	var out []models.ClassEntryDetail
	for _, e := range s.rows {
		if !match(e) {
			continue
		}
		d := models.ClassEntryDetail{ClassEntry: e}
		if e.ClassTypeID != nil {
			if name, ok := s.names[*e.ClassTypeID]; ok {
				n := name
				d.ClassName = &n
			}
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		ki, kj := calendar.Key(out[i].Date), calendar.Key(out[j].Date)
		if ki != kj {
			return ki < kj
		}
		return out[i].Period < out[j].Period
	})
	return out
}

func inRange(d, start, end time.Time) bool {
	k := calendar.Key(d)
	return k >= calendar.Key(start) && k <= calendar.Key(end)
}

func (s *entryStoreStub) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows)
}

func (s *entryStoreStub) bySlot(date string, classID int64, period int) (models.ClassEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.rows[fmt.Sprintf("%s/%d-%d", date, classID, period)]
	return e, ok
}

func (s *entryStoreStub) ListRange(ctx context.Context, start, end time.Time) ([]models.ClassEntryDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return nil, s.failErr
	}
	return s.sorted(func(e models.ClassEntry) bool { return inRange(e.Date, start, end) }), nil
}

func (s *entryStoreStub) ListByDate(ctx context.Context, date time.Time) ([]models.ClassEntryDetail, error) {
	return s.ListRange(ctx, date, date)
}

func (s *entryStoreStub) FindByID(ctx context.Context, id string) (*models.ClassEntryDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	found := s.sorted(func(e models.ClassEntry) bool { return e.ID == id })
	if len(found) == 0 {
		return nil, sql.ErrNoRows
	}
	return &found[0], nil
}

func (s *entryStoreStub) Upsert(ctx context.Context, entry *models.ClassEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return s.failErr
	}
	if existing, ok := s.rows[stubSlot(*entry)]; ok {
		entry.ID = existing.ID
	}
	*entry = s.put(*entry)
	return nil
}

func (s *entryStoreStub) slotRow(key models.SlotKey, rangeID *string) (models.ClassEntry, bool, error) {
	date, err := calendar.Parse(key.Date)
	if err != nil {
		return models.ClassEntry{}, false, err
	}
	id := key.ClassTypeID
	probe := models.ClassEntry{ClassTypeID: &id, Date: date, Period: key.Period, SemesterRangeID: rangeID}
	existing, ok := s.rows[stubSlot(probe)]
	if ok {
		return existing, true, nil
	}
	return probe, false, nil
}

func (s *entryStoreStub) ToggleSlot(ctx context.Context, key models.SlotKey, rangeID *string) (*models.ClassEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return nil, s.failErr
	}
	row, exists, err := s.slotRow(key, rangeID)
	if err != nil {
		return nil, err
	}
	if exists {
		row.Status = !row.Status
	} else {
		row.Status = true
	}
	row = s.put(row)
	return &row, nil
}

func (s *entryStoreStub) SaveSlotNotes(ctx context.Context, key models.SlotKey, rangeID *string, notes string) (*models.ClassEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return nil, s.failErr
	}
	row, _, err := s.slotRow(key, rangeID)
	if err != nil {
		return nil, err
	}
	row.Notes = notes
	row = s.put(row)
	return &row, nil
}

func (s *entryStoreStub) update(id string, fn func(*models.ClassEntry)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return s.failErr
	}
	for k, e := range s.rows {
		if e.ID == id {
			fn(&e)
			s.rows[k] = e
			return nil
		}
	}
	return sql.ErrNoRows
}

func (s *entryStoreStub) UpdateStatus(ctx context.Context, id string, status bool) error {
	return s.update(id, func(e *models.ClassEntry) { e.Status = status })
}

func (s *entryStoreStub) UpdateNotes(ctx context.Context, id, notes string) error {
	return s.update(id, func(e *models.ClassEntry) { e.Notes = notes })
}

func (s *entryStoreStub) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, e := range s.rows {
		if e.ID == id {
			delete(s.rows, k)
			return nil
		}
	}
	return sql.ErrNoRows
}

func (s *entryStoreStub) DeleteRange(ctx context.Context, start, end time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return 0, s.failErr
	}
	var n int64
	for k, e := range s.rows {
		if inRange(e.Date, start, end) {
			delete(s.rows, k)
			n++
		}
	}
	return n, nil
}

// ReplaceRange applies all-or-nothing: a failure leaves rows untouched.
func (s *entryStoreStub) ReplaceRange(ctx context.Context, start, end time.Time, build repository.BuildEntries) (repository.ReplaceResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result repository.ReplaceResult
	for _, d := range s.sorted(func(e models.ClassEntry) bool { return inRange(e.Date, start, end) }) {
		result.Existing = append(result.Existing, d.ClassEntry)
	}
	entries, err := build(result.Existing)
	if err != nil {
		return result, err
	}
	if s.failErr != nil {
		return result, s.failErr
	}
	for k, e := range s.rows {
		if inRange(e.Date, start, end) {
			delete(s.rows, k)
			result.Deleted++
		}
	}
	for _, e := range entries {
		s.put(e)
	}
	result.Inserted = len(entries)
	return result, nil
}

type rangeStub struct {
	current *models.SemesterRange
	err     error
}

func (r *rangeStub) Current(ctx context.Context) (*models.SemesterRange, error) {
	if r.err != nil {
		return nil, r.err
	}
	if r.current == nil {
		return nil, sql.ErrNoRows
	}
	item := *r.current
	return &item, nil
}

func (r *rangeStub) List(ctx context.Context) ([]models.SemesterRange, error) {
	if r.current == nil {
		return nil, r.err
	}
	return []models.SemesterRange{*r.current}, r.err
}

func (r *rangeStub) FindByID(ctx context.Context, id string) (*models.SemesterRange, error) {
	if r.current == nil || r.current.ID != id {
		return nil, sql.ErrNoRows
	}
	item := *r.current
	return &item, nil
}

func (r *rangeStub) Create(ctx context.Context, item *models.SemesterRange) error {
	if r.err != nil {
		return r.err
	}
	item.ID = "range-1"
	stored := *item
	r.current = &stored
	return nil
}

func (r *rangeStub) Update(ctx context.Context, item *models.SemesterRange) error {
	if r.err != nil {
		return r.err
	}
	if r.current == nil || r.current.ID != item.ID {
		return sql.ErrNoRows
	}
	stored := *item
	r.current = &stored
	return nil
}

type holidayStoreStub struct {
	items   []models.Holiday
	failErr error
}

func (h *holidayStoreStub) List(ctx context.Context, filter models.HolidayFilter) ([]models.Holiday, error) {
	if h.failErr != nil {
		return nil, h.failErr
	}
	var out []models.Holiday
	for _, item := range h.items {
		if filter.Year != 0 && item.Date.Year() != filter.Year {
			continue
		}
		if filter.Month != 0 && int(item.Date.Month()) != filter.Month {
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

func (h *holidayStoreStub) ListRange(ctx context.Context, start, end time.Time) ([]models.Holiday, error) {
	if h.failErr != nil {
		return nil, h.failErr
	}
	var out []models.Holiday
	for _, item := range h.items {
		if inRange(item.Date, start, end) {
			out = append(out, item)
		}
	}
	return out, nil
}

func (h *holidayStoreStub) Upsert(ctx context.Context, holiday *models.Holiday) error {
	if h.failErr != nil {
		return h.failErr
	}
	for i, item := range h.items {
		if calendar.SameDay(item.Date, holiday.Date) {
			h.items[i].Name = holiday.Name
			holiday.ID = item.ID
			return nil
		}
	}
	holiday.ID = fmt.Sprintf("holiday-%d", len(h.items)+1)
	h.items = append(h.items, *holiday)
	return nil
}

func (h *holidayStoreStub) DeleteByDate(ctx context.Context, date time.Time) error {
	for i, item := range h.items {
		if calendar.SameDay(item.Date, date) {
			h.items = append(h.items[:i], h.items[i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

func (h *holidayStoreStub) ReplaceAll(ctx context.Context, holidays []models.Holiday) error {
	if h.failErr != nil {
		return h.failErr
	}
	h.items = append([]models.Holiday(nil), holidays...)
	return nil
}

type classTypeStoreStub struct {
	items   []models.ClassType
	failErr error
}

func (c *classTypeStoreStub) List(ctx context.Context) ([]models.ClassType, error) {
	return c.items, nil
}

func (c *classTypeStoreStub) ExistingIDs(ctx context.Context, ids []int64) (map[int64]bool, error) {
	out := make(map[int64]bool)
	for _, id := range ids {
		for _, item := range c.items {
			if item.ID == id {
				out[id] = true
			}
		}
	}
	return out, nil
}

func (c *classTypeStoreStub) FindByID(ctx context.Context, id int64) (*models.ClassType, error) {
	for _, item := range c.items {
		if item.ID == id {
			found := item
			return &found, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (c *classTypeStoreStub) Create(ctx context.Context, item *models.ClassType) error {
	if c.failErr != nil {
		return c.failErr
	}
	var maxID int64
	for _, existing := range c.items {
		if existing.ID > maxID {
			maxID = existing.ID
		}
	}
	item.ID = maxID + 1
	c.items = append(c.items, *item)
	return nil
}

func (c *classTypeStoreStub) Update(ctx context.Context, item *models.ClassType) error {
	for i := range c.items {
		if c.items[i].ID == item.ID {
			c.items[i] = *item
			return nil
		}
	}
	return sql.ErrNoRows
}

func (c *classTypeStoreStub) Delete(ctx context.Context, id int64) error {
	for i := range c.items {
		if c.items[i].ID == id {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

type templateStoreStub struct {
	slots []models.TemplateSlot
}

func (t *templateStoreStub) ListSlots(ctx context.Context) ([]models.TemplateSlot, error) {
	return t.slots, nil
}

func (t *templateStoreStub) Replace(ctx context.Context, slots []models.TemplateSlot) error {
	t.slots = slots
	return nil
}

// cacheStub is an in-memory CacheRepository storing JSON like the Redis one.
type cacheStub struct {
	mu   sync.Mutex
	data map[string][]byte
	gets int
}

func newCacheStub() *cacheStub {
	return &cacheStub{data: make(map[string][]byte)}
}

func (c *cacheStub) Get(ctx context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	raw, ok := c.data[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *cacheStub) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = raw
	return nil
}

func (c *cacheStub) DeleteByPattern(ctx context.Context, pattern string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	prefix := strings.TrimSuffix(pattern, "*")
	for k := range c.data {
		if strings.HasPrefix(k, prefix) {
			delete(c.data, k)
		}
	}
	return nil
}

func (c *cacheStub) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.data)
}
