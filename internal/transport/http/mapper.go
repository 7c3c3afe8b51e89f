package http

import (
	"fmt"
	"time"

	json "github.com/goccy/go-json"

	"github.com/vovakirdan/watchparty-server/internal/core"
	"github.com/vovakirdan/watchparty-server/internal/party"
	"github.com/vovakirdan/watchparty-server/internal/proto"
)

func inboundToCommand(inbound proto.Inbound) (*core.Command, *proto.Error) {
	switch inbound.Type {
	case proto.InboundTypeJoin:
		var join proto.JoinData
		if err := decodeData(inbound.Data, &join); err != nil {
			return nil, badRequest(err)
		}
		return &core.Command{
			Kind:     core.CommandJoin,
			RoomID:   join.RoomID,
			UserID:   join.UserID,
			Username: join.Username,
			VideoURL: join.VideoURL,
		}, nil
	case proto.InboundTypeLeave:
		return &core.Command{Kind: core.CommandLeave}, nil
	case proto.InboundTypePlay, proto.InboundTypePause, proto.InboundTypeSeek, proto.InboundTypeTimeUpdate:
		var data proto.PlaybackData
		if err := decodeData(inbound.Data, &data); err != nil {
			return nil, badRequest(err)
		}
		if data.CurrentTime == nil {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Detail: "currentTime is required"}
		}
		return &core.Command{Kind: playbackKinds[inbound.Type], CurrentTime: *data.CurrentTime}, nil
	case proto.InboundTypeChangeVideo:
		var data proto.ChangeVideoData
		if err := decodeData(inbound.Data, &data); err != nil {
			return nil, badRequest(err)
		}
		return &core.Command{Kind: core.CommandChangeVideo, VideoURL: data.VideoURL, Title: data.Title}, nil
	case proto.InboundTypeSendMessage:
		var data proto.SendMessageData
		if err := decodeData(inbound.Data, &data); err != nil {
			return nil, badRequest(err)
		}
		return &core.Command{Kind: core.CommandSendMessage, Text: data.Message}, nil
	default:
		return nil, &proto.Error{Code: core.ErrCodeBadRequest, Detail: fmt.Sprintf("unknown message type %q", inbound.Type)}
	}
}

var playbackKinds = map[string]core.CommandKind{
	proto.InboundTypePlay:       core.CommandPlay,
	proto.InboundTypePause:      core.CommandPause,
	proto.InboundTypeSeek:       core.CommandSeek,
	proto.InboundTypeTimeUpdate: core.CommandTimeUpdate,
}

// decodeData treats a missing data object as empty.
func decodeData(raw []byte, v any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}
	return nil
}

func badRequest(err error) *proto.Error {
	return &proto.Error{Code: core.ErrCodeBadRequest, Detail: err.Error()}
}

func errorOutbound(e *proto.Error) proto.Outbound {
	return proto.Outbound{Type: proto.OutboundTypeError, Event: proto.EventError, Data: e}
}

func millis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func participantFrom(p party.Participant) proto.Participant {
	return proto.Participant{UserID: p.UserID, Username: p.DisplayName, JoinedAt: millis(p.JoinedAt)}
}

func chatMessageFrom(m party.ChatMessage) proto.ChatMessage {
	return proto.ChatMessage{
		ID:        m.ID,
		UserID:    m.UserID,
		Username:  m.DisplayName,
		Message:   m.Text,
		Timestamp: millis(m.Timestamp),
	}
}

func roomFrom(s *party.Snapshot) proto.Room {
	participants := make([]proto.Participant, 0, len(s.Participants))
	for _, p := range s.Participants {
		participants = append(participants, participantFrom(p))
	}
	messages := make([]proto.ChatMessage, 0, len(s.Messages))
	for _, m := range s.Messages {
		messages = append(messages, chatMessageFrom(m))
	}
	return proto.Room{
		ID:           s.ID,
		Host:         s.Host,
		Participants: participants,
		CurrentVideo: s.CurrentVideo,
		CurrentTitle: s.CurrentTitle,
		CurrentTime:  s.CurrentTime,
		IsPlaying:    s.IsPlaying,
		Messages:     messages,
		CreatedAt:    millis(s.CreatedAt),
		LastActivity: millis(s.LastActivity),
	}
}

func roomInfoFrom(info party.RoomInfo) proto.RoomInfo {
	return proto.RoomInfo{
		ID:               info.ID,
		Host:             info.Host,
		ParticipantCount: info.ParticipantCount,
		CurrentVideo:     info.CurrentVideo,
		CurrentTitle:     info.CurrentTitle,
		CurrentTime:      info.CurrentTime,
		IsPlaying:        info.IsPlaying,
		MessageCount:     info.MessageCount,
		CreatedAt:        millis(info.CreatedAt),
		LastActivity:     millis(info.LastActivity),
	}
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventJoined:
		data := proto.EventJoinedData{RoomID: event.RoomID, IsHost: event.IsHost}
		if event.Room != nil {
			data.Room = roomFrom(event.Room)
		}
		return eventOutbound(proto.EventJoined, data)
	case core.EventLeft:
		return eventOutbound(proto.EventLeft, proto.EventLeftData{
			RoomID:     event.RoomID,
			RoomClosed: event.RoomClosed,
		})
	case core.EventParticipantJoined:
		return eventOutbound(proto.EventParticipantJoined, proto.EventParticipantJoinedData{
			RoomID:           event.RoomID,
			UserID:           event.Participant.UserID,
			Username:         event.Participant.DisplayName,
			JoinedAt:         millis(event.Participant.JoinedAt),
			ParticipantCount: event.ParticipantCount,
		})
	case core.EventParticipantLeft:
		return eventOutbound(proto.EventParticipantLeft, proto.EventParticipantLeftData{
			RoomID:           event.RoomID,
			UserID:           event.Participant.UserID,
			Username:         event.Participant.DisplayName,
			ParticipantCount: event.ParticipantCount,
		})
	case core.EventHostChanged:
		return eventOutbound(proto.EventHostChanged, proto.EventHostChangedData{
			RoomID:      event.RoomID,
			NewHost:     event.Participant.UserID,
			NewHostName: event.Participant.DisplayName,
		})
	case core.EventPlaySync:
		return eventOutbound(proto.EventPlaySync, syncData(event))
	case core.EventPauseSync:
		return eventOutbound(proto.EventPauseSync, syncData(event))
	case core.EventSeekSync:
		return eventOutbound(proto.EventSeekSync, syncData(event))
	case core.EventTimeSync:
		return eventOutbound(proto.EventTimeSync, proto.EventTimeSyncData{
			CurrentTime: event.CurrentTime,
			IsPlaying:   event.IsPlaying,
			TriggeredBy: event.TriggeredBy,
		})
	case core.EventVideoChanged:
		return eventOutbound(proto.EventVideoChanged, proto.EventVideoChangedData{
			VideoURL:  event.VideoURL,
			Title:     event.Title,
			ChangedBy: event.ChangedBy,
		})
	case core.EventNewMessage:
		return eventOutbound(proto.EventNewMessage, chatMessageFrom(event.Message))
	case core.EventError:
		if event.Error == nil {
			return errorOutbound(&proto.Error{Code: string(party.CodeSyncError), Detail: "unknown error"})
		}
		return errorOutbound(&proto.Error{Code: event.Error.Code, Detail: event.Error.Message})
	default:
		return proto.Outbound{Type: proto.OutboundTypeEvent}
	}
}

func eventOutbound(name string, data any) proto.Outbound {
	return proto.Outbound{Type: proto.OutboundTypeEvent, Event: name, Data: data}
}

func syncData(event *core.Event) proto.EventSyncData {
	return proto.EventSyncData{CurrentTime: event.CurrentTime, TriggeredBy: event.TriggeredBy}
}
