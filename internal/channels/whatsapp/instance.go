package whatsapp

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	"google.golang.org/protobuf/proto"

	"github.com/nextlevelbuilder/wamux/internal/channels"
)

// instance wraps one whatsmeow client as a channels.Instance.
type instance struct {
	secretCode string
	client     *whatsmeow.Client
	hooks      channels.Hooks

	closed atomic.Bool // suppresses hooks after an explicit Close/Logout
}

func newInstance(secretCode string, client *whatsmeow.Client, hooks channels.Hooks) *instance {
	return &instance{secretCode: secretCode, client: client, hooks: hooks}
}

// connect registers event handlers and opens the socket. When the device has
// no stored identity the QR channel is drained into OnPairingCode.
func (i *instance) connect(ctx context.Context, fresh bool) error {
	i.client.AddEventHandler(i.handleEvent)

	if fresh {
		qrChan, err := i.client.GetQRChannel(ctx)
		if err != nil {
			return fmt.Errorf("open pairing channel: %w", err)
		}
		go i.drainQR(qrChan)
	}

	if err := i.client.Connect(); err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	return nil
}

func (i *instance) drainQR(qrChan <-chan whatsmeow.QRChannelItem) {
	for item := range qrChan {
		if i.closed.Load() {
			return
		}
		if item.Event == whatsmeow.QRChannelEventCode {
			i.emitPairingCode(item.Code)
		}
		// Success and terminal events surface through the regular
		// event handler; nothing to do for them here.
	}
}

func (i *instance) handleEvent(evt interface{}) {
	if i.closed.Load() {
		return
	}

	switch v := evt.(type) {
	case *events.PairSuccess:
		i.emitCredentials(v.ID.String())

	case *events.Connected:
		if id := i.client.Store.ID; id != nil {
			i.emitCredentials(id.String())
		}
		if i.hooks.OnConnected != nil {
			i.hooks.OnConnected()
		}

	case *events.LoggedOut:
		i.emitClosed(channels.CloseLoggedOut)

	case *events.Disconnected, *events.StreamReplaced, *events.ClientOutdated:
		i.emitClosed(channels.CloseTemporary)
	}
}

func (i *instance) emitPairingCode(code string) {
	if i.hooks.OnPairingCode != nil {
		i.hooks.OnPairingCode(code)
	}
}

func (i *instance) emitCredentials(authRef string) {
	if i.hooks.OnCredentials != nil {
		i.hooks.OnCredentials(authRef)
	}
}

func (i *instance) emitClosed(reason channels.CloseReason) {
	// First close wins; whatsmeow may emit several terminal events.
	if i.closed.CompareAndSwap(false, true) {
		if i.hooks.OnClosed != nil {
			i.hooks.OnClosed(reason)
		}
	}
}

// Exists checks the canonical number against the channel's registry.
func (i *instance) Exists(ctx context.Context, number string) (bool, error) {
	resp, err := i.client.IsOnWhatsApp(ctx, []string{"+" + number})
	if err != nil {
		return false, fmt.Errorf("existence check for %s: %w", number, err)
	}
	return len(resp) > 0 && resp[0].IsIn, nil
}

// Send delivers a text or image message to the canonical number.
func (i *instance) Send(ctx context.Context, number string, p channels.Payload) error {
	jid := types.NewJID(number, types.DefaultUserServer)

	var msg *waE2E.Message
	if p.ImageData != nil {
		uploaded, err := i.client.Upload(ctx, p.ImageData, whatsmeow.MediaImage)
		if err != nil {
			return fmt.Errorf("upload image: %w", err)
		}
		msg = &waE2E.Message{ImageMessage: &waE2E.ImageMessage{
			Caption:       proto.String(p.Text),
			Mimetype:      proto.String(p.ImageMime),
			URL:           proto.String(uploaded.URL),
			DirectPath:    proto.String(uploaded.DirectPath),
			MediaKey:      uploaded.MediaKey,
			FileEncSHA256: uploaded.FileEncSHA256,
			FileSHA256:    uploaded.FileSHA256,
			FileLength:    proto.Uint64(uploaded.FileLength),
		}}
	} else {
		msg = &waE2E.Message{Conversation: proto.String(p.Text)}
	}

	if _, err := i.client.SendMessage(ctx, jid, msg); err != nil {
		return fmt.Errorf("send to %s: %w", number, err)
	}
	return nil
}

// Logout performs an authenticated logout, invalidating the stored device.
func (i *instance) Logout(ctx context.Context) error {
	i.closed.Store(true)
	return i.client.Logout(ctx)
}

// Close tears the socket down without touching the credentials.
func (i *instance) Close() {
	i.closed.Store(true)
	i.client.Disconnect()
}
