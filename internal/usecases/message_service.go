package usecases

import (
	"context"
	"project_sheetbot/internal/entities"
	"project_sheetbot/internal/interfaces"

	waLog "go.mau.fi/whatsmeow/util/log"
)

// DispatchState is the terminal state of one handled message.
type DispatchState string

const (
	StateIgnored      DispatchState = "ignored" // own or broadcast message
	StateUnauthorized DispatchState = "dropped_unauthorized"
	StateEmpty        DispatchState = "dropped_empty"
	StateReplied      DispatchState = "replied"
)

type DispatchResult struct {
	State   DispatchState
	Command Command
	Reply   string
	SendErr error
}

// MessageService gates, normalizes, routes and answers incoming messages.
// It keeps no per-message state and is safe for concurrent use.
type MessageService struct {
	allowLists map[string]AllowList // keyed by platform
	composer   *AnswerComposer
	log        waLog.Logger
}

func NewMessageService(allowLists map[string]AllowList, composer *AnswerComposer, log waLog.Logger) *MessageService {
	if log == nil {
		log = waLog.Noop
	}
	lists := make(map[string]AllowList, len(allowLists))
	for platform, list := range allowLists {
		lists[platform] = list
	}
	return &MessageService{
		allowLists: lists,
		composer:   composer,
		log:        log,
	}
}

// IsAllowed applies the access filter of the message's platform.
// Unknown platforms allow nobody.
func (s *MessageService) IsAllowed(platform, senderID string) bool {
	list, ok := s.allowLists[platform]
	if !ok {
		return false
	}
	return list.IsAllowed(senderID)
}

// HandleMessage runs one message to completion: at most one reply is sent
// through replier, to msg.ChatID.
func (s *MessageService) HandleMessage(ctx context.Context, msg entities.IncomingMessage, replier interfaces.Messenger) DispatchResult {
	if msg.FromMe || msg.IsBroadcast {
		return DispatchResult{State: StateIgnored}
	}

	// Group chats are gated on the participant who wrote the message, not the group.
	if !s.IsAllowed(msg.Platform, msg.SenderID) {
		s.log.Warnf("[ACCESS DENIED] %s message from %s", msg.Platform, msg.SenderID)
		return DispatchResult{State: StateUnauthorized}
	}
	s.log.Infof("[ACCESS GRANTED] %s message from %s", msg.Platform, msg.SenderID)

	text := NormalizeText(msg)
	if text == "" {
		s.log.Debugf("Empty message from %s ignored", msg.SenderID)
		return DispatchResult{State: StateEmpty}
	}
	s.log.Debugf("Received (normalized): %q", text)

	if typing, ok := replier.(interfaces.TypingNotifier); ok {
		if err := typing.SendTyping(ctx, msg.ChatID); err != nil {
			s.log.Debugf("Typing indicator to %s failed: %v", msg.ChatID, err)
		}
	}

	cmd := RouteCommand(text)
	reply := s.composer.Compose(ctx, cmd)

	result := DispatchResult{State: StateReplied, Command: cmd, Reply: reply}
	if replier != nil {
		if err := replier.SendMessage(ctx, msg.ChatID, reply); err != nil {
			s.log.Errorf("Failed to send reply to %s: %v", msg.ChatID, err)
			result.SendErr = err
		}
	}
	return result
}
