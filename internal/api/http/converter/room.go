package converter

import (
	"github.com/immxrtalbeast/axenix_meet/internal/service"
	"github.com/samber/lo"
)

type RoomResponse struct {
	MeetingID    string `json:"meeting_id"`
	Participants int    `json:"participants"`
}

type ParticipantsResponse struct {
	MeetingID    string   `json:"meeting_id"`
	Participants []string `json:"participants"`
	Count        int      `json:"count"`
}

func RoomsToApi(rooms []service.RoomSummary) []RoomResponse {
	return lo.Map(rooms, func(r service.RoomSummary, _ int) RoomResponse {
		return RoomResponse{MeetingID: r.MeetingID, Participants: r.Participants}
	})
}

func ParticipantsToApi(meetingID string, members []string) *ParticipantsResponse {
	if members == nil {
		members = []string{}
	}
	return &ParticipantsResponse{
		MeetingID:    meetingID,
		Participants: members,
		Count:        len(members),
	}
}
