package interfaces

import "context"

type AIClient interface {
	GenerateResponse(ctx context.Context, prompt string) (string, error)
}

type Messenger interface {
	SendMessage(ctx context.Context, to, content string) error
}

// TypingNotifier is implemented by messengers that can show a "typing" state.
type TypingNotifier interface {
	SendTyping(ctx context.Context, to string) error
}

// SheetReader reads a range of cells. A nil error with no rows means the range is empty.
type SheetReader interface {
	ReadRange(ctx context.Context, sheetName, rangeSpec string) ([][]string, error)
}
