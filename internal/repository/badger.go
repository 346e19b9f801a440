package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/immxrtalbeast/axenix_meet/internal/domain"
	"github.com/samber/lo"
)

// BadgerMessageStore keeps chat messages in an embedded badger log.
//
// Keys are "msg:{len(meetingID)}:{meetingID}:{unixnano, 19 digits}:{uuid}" so a
// prefix scan walks a meeting in chronological order. The length keeps ids that
// contain ':' from sharing a prefix; the uuid separates messages written in the
// same nanosecond.
type BadgerMessageStore struct {
	db  *badger.DB
	log *slog.Logger
	now Clock
}

func NewBadgerMessageStore(db *badger.DB, log *slog.Logger, now Clock) *BadgerMessageStore {
	if now == nil {
		now = systemClock
	}
	return &BadgerMessageStore{db: db, log: log, now: now}
}

type diskMessage struct {
	ID         string `json:"id"`
	MeetingID  string `json:"meeting_id"`
	SenderID   string `json:"sender_id"`
	SenderName string `json:"sender_name"`
	Content    string `json:"content"`
	At         int64  `json:"at"`
}

func messagePrefix(meetingID string) string {
	return fmt.Sprintf("msg:%d:%s:", len(meetingID), meetingID)
}

func messageKey(m *domain.Message) []byte {
	return []byte(fmt.Sprintf("%s%019d:%s", messagePrefix(m.MeetingID), m.CreatedAt.UnixNano(), m.ID))
}

func (s *BadgerMessageStore) Append(ctx context.Context, meetingID string, sender domain.Identity, content string) (*domain.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	msg := domain.NewMessage(meetingID, sender, content)
	msg.CreatedAt = s.now()

	value, err := json.Marshal(fromDomainMessage(msg))
	if err != nil {
		return nil, err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(messageKey(msg), value)
	})
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// Recent seeks to the newest key of the meeting and walks backwards.
func (s *BadgerMessageStore) Recent(ctx context.Context, meetingID string, limit int) ([]*domain.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var values [][]byte
	err := s.db.View(func(txn *badger.Txn) error {
		prefix := []byte(messagePrefix(meetingID))
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(append(prefix, []byte("9999999999999999999")...)); it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(values) == limit {
				break
			}
			v, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			values = append(values, v)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]*domain.Message, 0, len(values))
	for _, v := range values {
		var dm diskMessage
		if err := json.Unmarshal(v, &dm); err != nil {
			return nil, err
		}
		msg, err := toDomainDiskMessage(dm)
		if err != nil {
			s.log.Warn("skipping corrupt message", slog.String("meeting_id", meetingID), slog.String("id", dm.ID))
			continue
		}
		out = append(out, msg)
	}
	return lo.Reverse(out), nil
}

func fromDomainMessage(m *domain.Message) diskMessage {
	return diskMessage{
		ID:         m.ID.String(),
		MeetingID:  m.MeetingID,
		SenderID:   m.SenderID,
		SenderName: m.SenderName,
		Content:    m.Content,
		At:         m.CreatedAt.UnixNano(),
	}
}

func toDomainDiskMessage(dm diskMessage) (*domain.Message, error) {
	id, err := uuid.Parse(dm.ID)
	if err != nil {
		return nil, err
	}
	return &domain.Message{
		ID:         id,
		MeetingID:  dm.MeetingID,
		SenderID:   dm.SenderID,
		SenderName: dm.SenderName,
		Content:    dm.Content,
		CreatedAt:  time.Unix(0, dm.At).UTC(),
	}, nil
}
