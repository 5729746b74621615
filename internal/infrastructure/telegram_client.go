package infrastructure

import (
	"context"
	"fmt"
	"project_sheetbot/internal/entities"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	waLog "go.mau.fi/whatsmeow/util/log"
)

const PlatformTelegram = "telegram"

// TelegramClient is the optional second transport. It long-polls for updates
// and feeds them into the same handler as WhatsApp.
type TelegramClient struct {
	Bot *tgbotapi.BotAPI
	log waLog.Logger
}

func NewTelegramClient(token string, log waLog.Logger) (*TelegramClient, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	return &TelegramClient{Bot: bot, log: log}, nil
}

func (t *TelegramClient) UserName() string {
	return t.Bot.Self.UserName
}

// Run polls for updates until ctx is cancelled.
func (t *TelegramClient) Run(ctx context.Context, handler MessageHandler) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := t.Bot.GetUpdatesChan(u)
	defer t.Bot.StopReceivingUpdates()

	t.log.Infof("[TG Bot] Started polling as @%s", t.Bot.Self.UserName)

	for {
		select {
		case <-ctx.Done():
			t.log.Infof("[TG Bot] Stopped polling")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			msg := t.toIncoming(update.Message)
			go func() {
				defer func() {
					if r := recover(); r != nil {
						t.log.Errorf("[TG Bot] handler panicked for %s: %v", msg.SenderID, r)
					}
				}()
				handler(ctx, msg)
			}()
		}
	}
}

// toIncoming maps a Telegram message. The sender is the author's user id;
// in private chats that equals the chat id.
func (t *TelegramClient) toIncoming(m *tgbotapi.Message) entities.IncomingMessage {
	chatID := strconv.FormatInt(m.Chat.ID, 10)
	sender := chatID
	fromMe := false
	if m.From != nil {
		sender = strconv.FormatInt(m.From.ID, 10)
		fromMe = m.From.ID == t.Bot.Self.ID
	}
	return entities.IncomingMessage{
		Platform:     PlatformTelegram,
		ChatID:       chatID,
		SenderID:     sender,
		Conversation: m.Text,
		ExtendedText: m.Caption,
		IsGroup:      m.Chat.IsGroup() || m.Chat.IsSuperGroup(),
		FromMe:       fromMe,
		IsBroadcast:  m.Chat.IsChannel(),
	}
}

// SendMessage sends plain text; replies may contain sheet data that is not valid Markdown.
func (t *TelegramClient) SendMessage(ctx context.Context, to, content string) error {
	chatID, err := strconv.ParseInt(to, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid telegram chat id %q: %w", to, err)
	}
	if _, err := t.Bot.Send(tgbotapi.NewMessage(chatID, content)); err != nil {
		return fmt.Errorf("telegram send to %d: %w", chatID, err)
	}
	return nil
}

func (t *TelegramClient) SendTyping(ctx context.Context, to string) error {
	chatID, err := strconv.ParseInt(to, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid telegram chat id %q: %w", to, err)
	}
	_, err = t.Bot.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping))
	return err
}
