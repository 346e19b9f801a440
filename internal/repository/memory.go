package repository

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/immxrtalbeast/axenix_meet/internal/domain"
	"github.com/samber/lo"
)

// Clock returns the current time. Memory stores accept one so tests can pin ordering.
type Clock func() time.Time

func systemClock() time.Time { return time.Now().UTC() }

type InMemoryMeetingStore struct {
	mu       sync.RWMutex
	meetings map[string]*domain.Meeting
}

func NewInMemoryMeetingStore(meetings ...*domain.Meeting) *InMemoryMeetingStore {
	s := &InMemoryMeetingStore{meetings: make(map[string]*domain.Meeting)}
	for _, m := range meetings {
		s.meetings[m.ID] = m
	}
	return s
}

// Save creates or replaces a meeting. Meeting CRUD lives outside this service;
// Save exists to seed local runs and tests.
func (s *InMemoryMeetingStore) Save(ctx context.Context, meeting *domain.Meeting) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *meeting
	s.meetings[meeting.ID] = &cp
	return nil
}

func (s *InMemoryMeetingStore) FindByID(ctx context.Context, meetingID string) (*domain.Meeting, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	meeting, ok := s.meetings[meetingID]
	if !ok {
		return nil, ErrMeetingNotFound
	}

	cp := *meeting
	return &cp, nil
}

func (s *InMemoryMeetingStore) SetInactive(ctx context.Context, meetingID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	meeting, ok := s.meetings[meetingID]
	if !ok {
		return ErrMeetingNotFound
	}
	meeting.IsActive = false
	return nil
}

type participantKey struct {
	meetingID string
	userID    string
}

type InMemoryParticipantStore struct {
	mu      sync.RWMutex
	now     Clock
	records map[participantKey]*domain.ParticipantRecord
}

func NewInMemoryParticipantStore(now Clock) *InMemoryParticipantStore {
	if now == nil {
		now = systemClock
	}
	return &InMemoryParticipantStore{
		now:     now,
		records: make(map[participantKey]*domain.ParticipantRecord),
	}
}

// UpsertJoin refreshes JoinedAt and clears LeftAt. Role is fixed by the first join.
func (s *InMemoryParticipantStore) UpsertJoin(ctx context.Context, meetingID, userID string, role domain.Role) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := participantKey{meetingID: meetingID, userID: userID}
	rec, ok := s.records[key]
	if !ok {
		rec = &domain.ParticipantRecord{MeetingID: meetingID, UserID: userID, Role: role}
		s.records[key] = rec
	}
	rec.JoinedAt = s.now()
	rec.LeftAt = nil
	return nil
}

func (s *InMemoryParticipantStore) MarkLeft(ctx context.Context, meetingID, userID string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[participantKey{meetingID: meetingID, userID: userID}]
	if !ok {
		return ErrParticipantNotFound
	}
	if rec.LeftAt == nil && !rec.JoinedAt.After(at) {
		rec.LeftAt = lo.ToPtr(at)
	}
	return nil
}

func (s *InMemoryParticipantStore) MarkAllLeft(ctx context.Context, meetingID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	closed := 0
	for key, rec := range s.records {
		if key.meetingID != meetingID || rec.LeftAt != nil {
			continue
		}
		rec.LeftAt = lo.ToPtr(now)
		closed++
	}
	return closed, nil
}

// Get returns a copy of the stored record.
func (s *InMemoryParticipantStore) Get(meetingID, userID string) (domain.ParticipantRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[participantKey{meetingID: meetingID, userID: userID}]
	if !ok {
		return domain.ParticipantRecord{}, false
	}
	return *rec, true
}

type InMemoryMessageStore struct {
	mu       sync.RWMutex
	now      Clock
	messages map[string][]*domain.Message
}

func NewInMemoryMessageStore(now Clock) *InMemoryMessageStore {
	if now == nil {
		now = systemClock
	}
	return &InMemoryMessageStore{
		now:      now,
		messages: make(map[string][]*domain.Message),
	}
}

func (s *InMemoryMessageStore) Append(ctx context.Context, meetingID string, sender domain.Identity, content string) (*domain.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	msg := domain.NewMessage(meetingID, sender, content)

	s.mu.Lock()
	defer s.mu.Unlock()

	msg.CreatedAt = s.now()
	s.messages[meetingID] = append(s.messages[meetingID], msg)

	cp := *msg
	return &cp, nil
}

func (s *InMemoryMessageStore) Recent(ctx context.Context, meetingID string, limit int) ([]*domain.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.messages[meetingID]
	if limit > 0 && len(all) > limit {
		all = all[len(all)-limit:]
	}

	out := lo.Map(all, func(m *domain.Message, _ int) *domain.Message {
		cp := *m
		return &cp
	})
	slices.SortStableFunc(out, func(a, b *domain.Message) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return out, nil
}

// Count reports how many messages the meeting holds.
func (s *InMemoryMessageStore) Count(meetingID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages[meetingID])
}
