package repository

import (
	"context"
	"errors"
	"time"

	"github.com/immxrtalbeast/axenix_meet/internal/domain"
	"github.com/immxrtalbeast/axenix_meet/internal/repository/model"
	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Models lists every table owned by the gorm stores, for AutoMigrate.
func Models() []any {
	return []any{&model.Meeting{}, &model.Participant{}, &model.Message{}}
}

type PostgresMeetingStore struct {
	db *gorm.DB
}

func NewPostgresMeetingStore(db *gorm.DB) *PostgresMeetingStore {
	return &PostgresMeetingStore{db: db}
}

func (s *PostgresMeetingStore) FindByID(ctx context.Context, meetingID string) (*domain.Meeting, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var meeting model.Meeting
	err := s.db.WithContext(ctx).First(&meeting, "id = ?", meetingID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMeetingNotFound
		}
		return nil, err
	}

	return toDomainMeeting(&meeting), nil
}

func (s *PostgresMeetingStore) SetInactive(ctx context.Context, meetingID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	res := s.db.WithContext(ctx).
		Model(&model.Meeting{}).
		Where("id = ?", meetingID).
		Update("is_active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrMeetingNotFound
	}
	return nil
}

type PostgresParticipantStore struct {
	db *gorm.DB
}

func NewPostgresParticipantStore(db *gorm.DB) *PostgresParticipantStore {
	return &PostgresParticipantStore{db: db}
}

func (s *PostgresParticipantStore) UpsertJoin(ctx context.Context, meetingID, userID string, role domain.Role) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	now := time.Now().UTC()
	rec := model.Participant{
		MeetingID: meetingID,
		UserID:    userID,
		Role:      string(role),
		JoinedAt:  now,
	}

	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "meeting_id"}, {Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"joined_at":  now,
			"left_at":    nil,
			"updated_at": now,
		}),
	}).Create(&rec).Error
}

func (s *PostgresParticipantStore) MarkLeft(ctx context.Context, meetingID, userID string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	at = at.UTC()
	res := s.db.WithContext(ctx).
		Model(&model.Participant{}).
		Where("meeting_id = ? AND user_id = ? AND left_at IS NULL AND joined_at <= ?", meetingID, userID, at).
		Update("left_at", at)
	return res.Error
}

func (s *PostgresParticipantStore) MarkAllLeft(ctx context.Context, meetingID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	res := s.db.WithContext(ctx).
		Model(&model.Participant{}).
		Where("meeting_id = ? AND left_at IS NULL", meetingID).
		Update("left_at", time.Now().UTC())
	if res.Error != nil {
		return 0, res.Error
	}
	return int(res.RowsAffected), nil
}

type PostgresMessageStore struct {
	db *gorm.DB
}

func NewPostgresMessageStore(db *gorm.DB) *PostgresMessageStore {
	return &PostgresMessageStore{db: db}
}

func (s *PostgresMessageStore) Append(ctx context.Context, meetingID string, sender domain.Identity, content string) (*domain.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	msg := domain.NewMessage(meetingID, sender, content)
	if err := s.db.WithContext(ctx).Create(toModelMessage(msg)).Error; err != nil {
		return nil, err
	}
	return msg, nil
}

func (s *PostgresMessageStore) Recent(ctx context.Context, meetingID string, limit int) ([]*domain.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var rows []model.Message
	q := s.db.WithContext(ctx).
		Where("meeting_id = ?", meetingID).
		Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}

	out := lo.Map(rows, func(m model.Message, _ int) *domain.Message {
		return toDomainMessage(&m)
	})
	return lo.Reverse(out), nil
}

func toDomainMeeting(m *model.Meeting) *domain.Meeting {
	var scheduledFor time.Time
	if m.ScheduledFor != nil {
		scheduledFor = m.ScheduledFor.UTC()
	}
	return &domain.Meeting{
		ID:           m.ID,
		HostID:       m.HostID,
		Title:        m.Title,
		IsActive:     m.IsActive,
		ScheduledFor: scheduledFor,
		CreatedAt:    m.CreatedAt.UTC(),
	}
}

func toModelMessage(m *domain.Message) *model.Message {
	return &model.Message{
		ID:         m.ID,
		MeetingID:  m.MeetingID,
		SenderID:   m.SenderID,
		SenderName: m.SenderName,
		Content:    m.Content,
		CreatedAt:  m.CreatedAt.UTC(),
	}
}

func toDomainMessage(m *model.Message) *domain.Message {
	return &domain.Message{
		ID:         m.ID,
		MeetingID:  m.MeetingID,
		SenderID:   m.SenderID,
		SenderName: m.SenderName,
		Content:    m.Content,
		CreatedAt:  m.CreatedAt.UTC(),
	}
}
