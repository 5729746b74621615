package entities

type IncomingMessage struct {
	Platform     string // e.g., "whatsapp", "telegram", "web"
	ChatID       string // Reply target, stable per conversation
	SenderID     string // Author of the message; equals ChatID outside groups
	Conversation string // Plain text body
	ExtendedText string // Text field of the extended/rich representation
	IsGroup      bool
	FromMe       bool
	IsBroadcast  bool
}
