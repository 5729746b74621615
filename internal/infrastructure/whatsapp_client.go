package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"project_sheetbot/internal/config"
	"project_sheetbot/internal/entities"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/skip2/go-qrcode"
	"go.mau.fi/whatsmeow"
	waProto "go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	waLog "go.mau.fi/whatsmeow/util/log"
	"google.golang.org/protobuf/proto"
)

const PlatformWhatsApp = "whatsapp"

// MessageHandler receives every inbound message, each on its own goroutine.
type MessageHandler func(ctx context.Context, msg entities.IncomingMessage)

type WhatsAppClient struct {
	Client *whatsmeow.Client

	cfg     config.WhatsAppConfig
	log     waLog.Logger
	baseCtx context.Context
	handler MessageHandler

	disconnects chan DisconnectReason
	connected   atomic.Bool
	established atomic.Bool // set on every successful login, cleared by Run

	qrCode string
	qrLock sync.RWMutex
}

func NewWhatsAppClient(ctx context.Context, sessions *SessionStore, cfg config.WhatsAppConfig, log waLog.Logger) (*WhatsAppClient, error) {
	store.SetOSInfo("Sheetbot", [3]uint32{1, 0, 0})

	deviceStore, err := sessions.Container.GetFirstDevice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get device: %w", err)
	}

	client := whatsmeow.NewClient(deviceStore, log.Sub("Client"))
	// Reconnection is driven by Run so the policy stays in one place.
	client.EnableAutoReconnect = false

	w := &WhatsAppClient{
		Client:      client,
		cfg:         cfg,
		log:         log,
		baseCtx:     ctx,
		disconnects: make(chan DisconnectReason, 8),
	}
	client.AddEventHandler(w.handleEvent)
	return w, nil
}

// OnMessage registers the inbound message handler. Call it before Run.
func (w *WhatsAppClient) OnMessage(handler MessageHandler) {
	w.handler = handler
}

// Run connects and keeps the connection alive until ctx is cancelled.
// It returns ErrLoggedOut when the session is revoked and a new pairing is needed.
func (w *WhatsAppClient) Run(ctx context.Context) error {
	attempt := 0
	for {
		w.drainDisconnects()

		var reason DisconnectReason
		if err := w.connect(ctx); err != nil {
			w.log.Errorf("WhatsApp connect failed: %v", err)
			reason = ReasonConnectFailed
		} else {
			select {
			case <-ctx.Done():
				w.Disconnect()
				return nil
			case reason = <-w.disconnects:
			}
		}
		next, err := nextReconnect(reason, w.drainDisconnects(), w.established.Swap(false), attempt, w.cfg.MaxReconnectAttempts)
		if err != nil {
			w.Disconnect()
			return err
		}
		attempt = next

		backoff := reconnectBackoff(w.cfg.ReconnectBackoff, attempt)
		w.log.Warnf("WhatsApp disconnected (%s), reconnecting in %s (attempt %d)", reason, backoff, attempt)
		if w.Client.IsConnected() {
			w.Client.Disconnect()
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(backoff):
		}
	}
}

func (w *WhatsAppClient) connect(ctx context.Context) error {
	if w.Client.Store.ID != nil {
		if err := w.Client.Connect(); err != nil {
			return err
		}
		w.log.Infof("WhatsApp client connected (existing session)")
		return nil
	}

	// No ID stored, new login
	qrChan, err := w.Client.GetQRChannel(ctx)
	if err != nil {
		return fmt.Errorf("unable to get QR channel: %w", err)
	}
	if err := w.Client.Connect(); err != nil {
		return err
	}
	go w.watchPairing(qrChan)
	return nil
}

func (w *WhatsAppClient) watchPairing(qrChan <-chan whatsmeow.QRChannelItem) {
	for evt := range qrChan {
		switch evt.Event {
		case whatsmeow.QRChannelEventCode:
			w.setQR(evt.Code)
			printTerminalQR(evt.Code)
			w.log.Infof("Scan the QR code above with WhatsApp (Linked devices)")
		case whatsmeow.QRChannelSuccess.Event:
			w.setQR("")
			w.log.Infof("WhatsApp pairing succeeded")
		case whatsmeow.QRChannelTimeout.Event:
			w.setQR("")
			w.log.Warnf("QR code expired before it was scanned")
			w.signalDisconnect(ReasonConnectFailed)
		case whatsmeow.QRChannelEventError:
			w.log.Errorf("Pairing failed: %v", evt.Error)
			w.signalDisconnect(ReasonConnectFailed)
		default:
			w.log.Debugf("Login event: %s", evt.Event)
		}
	}
}

func printTerminalQR(code string) {
	qr, err := qrcode.New(code, qrcode.Low)
	if err != nil {
		fmt.Println("QR Code:", code)
		return
	}
	fmt.Println(qr.ToSmallString(false))
}

func (w *WhatsAppClient) handleEvent(evt interface{}) {
	switch v := evt.(type) {
	case *events.Message:
		w.handleMessage(v)
	case *events.Connected:
		w.connected.Store(true)
		w.established.Store(true)
		w.setQR("")
		w.log.Infof("WhatsApp connection open")
	case *events.Disconnected:
		w.connected.Store(false)
		w.signalDisconnect(ReasonConnectionLost)
	case *events.StreamReplaced:
		w.connected.Store(false)
		w.log.Warnf("WhatsApp stream replaced by another client")
		w.signalDisconnect(ReasonStreamReplaced)
	case *events.LoggedOut:
		w.connected.Store(false)
		w.log.Errorf("WhatsApp session logged out (reason %s)", v.Reason.String())
		w.signalDisconnect(ReasonLoggedOut)
	case *events.ConnectFailure:
		w.connected.Store(false)
		if v.Reason.IsLoggedOut() {
			w.log.Errorf("WhatsApp connect failure, session revoked: %s", v.Reason.String())
			w.signalDisconnect(ReasonLoggedOut)
			return
		}
		w.log.Warnf("WhatsApp connect failure: %s", v.Reason.String())
		w.signalDisconnect(ReasonConnectFailed)
	case *events.TemporaryBan:
		w.connected.Store(false)
		w.log.Errorf("WhatsApp temporary ban: %s", v.String())
		w.signalDisconnect(ReasonTemporaryBan)
	case *events.KeepAliveTimeout:
		// Half-open socket: force a fresh connection after repeated failures.
		if v.ErrorCount >= 3 && w.connected.Load() {
			w.log.Warnf("WhatsApp keep-alive failed %d times, forcing reconnect", v.ErrorCount)
			w.connected.Store(false)
			w.signalDisconnect(ReasonConnectionLost)
		}
	}
}

func (w *WhatsAppClient) signalDisconnect(reason DisconnectReason) {
	select {
	case w.disconnects <- reason:
	default:
		w.log.Debugf("Disconnect signal %s dropped, queue full", reason)
	}
}

// drainDisconnects empties the queue and reports whether a logout was in it.
func (w *WhatsAppClient) drainDisconnects() (loggedOut bool) {
	for {
		select {
		case r := <-w.disconnects:
			if r == ReasonLoggedOut {
				loggedOut = true
			}
		default:
			return loggedOut
		}
	}
}

func (w *WhatsAppClient) handleMessage(evt *events.Message) {
	if w.handler == nil {
		return
	}
	msg := w.toIncoming(evt)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				w.log.Errorf("Message handler panicked for %s: %v", msg.SenderID, r)
			}
		}()
		w.handler(w.baseCtx, msg)
	}()
}

func (w *WhatsAppClient) toIncoming(evt *events.Message) entities.IncomingMessage {
	info := evt.Info
	return entities.IncomingMessage{
		Platform:     PlatformWhatsApp,
		ChatID:       info.Chat.ToNonAD().String(),
		SenderID:     w.resolvePhoneJID(info.Sender).ToNonAD().String(),
		Conversation: evt.Message.GetConversation(),
		ExtendedText: evt.Message.GetExtendedTextMessage().GetText(),
		IsGroup:      info.IsGroup,
		FromMe:       info.IsFromMe,
		IsBroadcast:  info.Chat.Server == types.BroadcastServer,
	}
}

// resolvePhoneJID maps a linked-identity (LID) JID to the phone number JID
// when the store knows it, so allow lists can stay phone based.
func (w *WhatsAppClient) resolvePhoneJID(jid types.JID) types.JID {
	if jid.Server != types.HiddenUserServer || w.Client == nil || w.Client.Store == nil {
		return jid
	}
	alt, err := w.Client.Store.GetAltJID(w.baseCtx, jid)
	if err != nil || alt.IsEmpty() {
		return jid
	}
	w.log.Debugf("Resolved LID %s to %s", jid, alt)
	return alt
}

// ParseRecipient accepts a full JID or a bare phone number.
func ParseRecipient(to string) (types.JID, error) {
	to = strings.TrimPrefix(strings.TrimSpace(to), "+")
	if to == "" {
		return types.EmptyJID, errors.New("empty recipient")
	}
	if strings.Contains(to, "@") {
		jid, err := types.ParseJID(to)
		if err != nil {
			return types.EmptyJID, fmt.Errorf("invalid JID %q: %w", to, err)
		}
		return jid, nil
	}
	for _, r := range to {
		if r < '0' || r > '9' {
			return types.EmptyJID, fmt.Errorf("invalid number format: %q", to)
		}
	}
	return types.NewJID(to, types.DefaultUserServer), nil
}

func (w *WhatsAppClient) SendMessage(ctx context.Context, to, content string) error {
	if !w.Client.IsConnected() {
		return ErrNotConnected
	}
	jid, err := ParseRecipient(to)
	if err != nil {
		return err
	}
	_, err = w.Client.SendMessage(ctx, jid, &waProto.Message{
		Conversation: proto.String(content),
	})
	if err != nil {
		return fmt.Errorf("send to %s: %w", jid, err)
	}
	return nil
}

func (w *WhatsAppClient) SendTyping(ctx context.Context, to string) error {
	jid, err := ParseRecipient(to)
	if err != nil {
		return err
	}
	return w.Client.SendChatPresence(ctx, jid, types.ChatPresenceComposing, types.ChatPresenceMediaText)
}

func (w *WhatsAppClient) setQR(code string) {
	w.qrLock.Lock()
	w.qrCode = code
	w.qrLock.Unlock()
}

// GetQR returns the pending pairing code, or "" when none is pending.
func (w *WhatsAppClient) GetQR() string {
	w.qrLock.RLock()
	defer w.qrLock.RUnlock()
	return w.qrCode
}

func (w *WhatsAppClient) IsLoggedIn() bool {
	return w.Client.Store.ID != nil
}

// IsConnected returns true if client is connected and logged in
func (w *WhatsAppClient) IsConnected() bool {
	return w.connected.Load() && w.Client.IsConnected() && w.Client.Store.ID != nil
}

// GetPhoneNumber returns the connected phone number
func (w *WhatsAppClient) GetPhoneNumber() string {
	if w.Client.Store.ID == nil {
		return ""
	}
	return w.Client.Store.ID.User
}

func (w *WhatsAppClient) Disconnect() {
	w.connected.Store(false)
	w.Client.Disconnect()
}
