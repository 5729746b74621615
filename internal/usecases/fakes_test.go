package usecases

import (
	"context"
	"sync"
)

type fakeSheets struct {
	mu    sync.Mutex
	data  map[string][][]string
	errs  map[string]error
	calls []string
}

func (f *fakeSheets) ReadRange(ctx context.Context, sheetName, rangeSpec string) ([][]string, error) {
	key := sheetName + "!" + rangeSpec
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, key)
	if err, ok := f.errs[key]; ok {
		return nil, err
	}
	return f.data[key], nil
}

type fakeAI struct {
	reply   string
	err     error
	prompts []string
}

func (f *fakeAI) GenerateResponse(ctx context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.reply, f.err
}

type sentMessage struct {
	to      string
	content string
}

type fakeMessenger struct {
	sent   []sentMessage
	typing []string
	err    error
}

func (f *fakeMessenger) SendMessage(ctx context.Context, to, content string) error {
	f.sent = append(f.sent, sentMessage{to: to, content: content})
	return f.err
}

func (f *fakeMessenger) SendTyping(ctx context.Context, to string) error {
	f.typing = append(f.typing, to)
	return nil
}
