package service

import (
	"log/slog"
	"sync"
	"time"

	"github.com/immxrtalbeast/axenix_meet/internal/domain"
	"github.com/immxrtalbeast/axenix_meet/internal/hub"
	"github.com/immxrtalbeast/axenix_meet/internal/registry"
	"github.com/immxrtalbeast/axenix_meet/internal/repository"
	"github.com/immxrtalbeast/axenix_meet/internal/tasks"
	"github.com/pion/webrtc/v3"
	"github.com/samber/lo"
	"github.com/sourcegraph/conc/panics"
	"github.com/sourcegraph/conc/pool"
)

const (
	defaultHistoryLimit     = 50
	defaultMaxMessageLength = 4000
	maxFanOut               = 16
)

type Stores struct {
	Meetings     repository.MeetingStore
	Participants repository.ParticipantStore
	Messages     repository.MessageStore
}

type Options struct {
	HistoryLimit     int
	MaxMessageLength int
	ICEServers       []webrtc.ICEServer
	// Now stamps departures. It must share a time source with the participant store.
	Now func() time.Time
}

// RoomService is the room core: lifecycle, signaling relay, chat and host control
// over one shared presence registry.
type RoomService struct {
	log          *slog.Logger
	registry     *registry.Registry
	hub          *hub.Hub
	meetings     repository.MeetingStore
	participants repository.ParticipantStore
	messages     repository.MessageStore
	tasks        *tasks.Runner
	opts         Options

	// presenceMu serializes registry and group changes that must agree with each other.
	presenceMu sync.Mutex
	// ended holds meetings closed by this process; guarded by presenceMu.
	ended map[string]struct{}
}

func NewRoomService(
	log *slog.Logger,
	reg *registry.Registry,
	h *hub.Hub,
	stores Stores,
	runner *tasks.Runner,
	opts Options,
) *RoomService {
	if log == nil {
		log = slog.Default()
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = defaultHistoryLimit
	}
	if opts.MaxMessageLength <= 0 {
		opts.MaxMessageLength = defaultMaxMessageLength
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return time.Now().UTC() }
	}
	return &RoomService{
		log:          log,
		registry:     reg,
		hub:          h,
		meetings:     stores.Meetings,
		participants: stores.Participants,
		messages:     stores.Messages,
		tasks:        runner,
		opts:         opts,
		ended:        make(map[string]struct{}),
	}
}

func (s *RoomService) ActiveRooms() []RoomSummary {
	return lo.Map(s.registry.ActiveRooms(), func(id string, _ int) RoomSummary {
		return RoomSummary{MeetingID: id, Participants: s.registry.Count(id)}
	})
}

func (s *RoomService) Participants(meetingID string) []string {
	return s.registry.Members(meetingID)
}

func (s *RoomService) sessionLog(op string, sess *domain.Session, meetingID string) *slog.Logger {
	return s.log.With(
		slog.String("op", op),
		slog.String("session_id", sess.ID),
		slog.String("user_id", sess.Identity.ID),
		slog.String("meeting_id", meetingID),
	)
}

// fanOut runs fn once per session. A panic for one session is logged and does not
// stop the others.
func (s *RoomService) fanOut(log *slog.Logger, sessions []*domain.Session, fn func(*domain.Session)) {
	if len(sessions) == 0 {
		return
	}
	p := pool.New().WithMaxGoroutines(min(len(sessions), maxFanOut))
	for _, target := range sessions {
		p.Go(func() {
			var catcher panics.Catcher
			catcher.Try(func() { fn(target) })
			if rec := catcher.Recovered(); rec != nil {
				log.Error("fan-out target failed",
					slog.String("target_session_id", target.ID),
					slog.Any("panic", rec.Value),
				)
			}
		})
	}
	p.Wait()
}
