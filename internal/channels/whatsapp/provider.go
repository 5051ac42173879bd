// Package whatsapp implements the channel provider on top of whatsmeow.
// Device credentials live in a whatsmeow SQLite store container; the opaque
// auth ref handed back to the registry is the paired device JID.
package whatsapp

import (
	"context"
	"fmt"

	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/store"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	waLog "go.mau.fi/whatsmeow/util/log"

	_ "modernc.org/sqlite"

	"github.com/nextlevelbuilder/wamux/internal/channels"
)

// Provider creates whatsmeow-backed channel instances.
type Provider struct {
	container *sqlstore.Container
	log       waLog.Logger
}

// NewProvider opens (or creates) the device credential database at dbPath.
func NewProvider(ctx context.Context, dbPath string) (*Provider, error) {
	log := newLogger("whatsmeow")
	container, err := sqlstore.New(ctx, "sqlite", fmt.Sprintf("file:%s?_pragma=foreign_keys(1)", dbPath), log)
	if err != nil {
		return nil, fmt.Errorf("open device store: %w", err)
	}
	return &Provider{container: container, log: log}, nil
}

// Dial opens a live instance bound to the credentials behind authRef.
// An empty or unresolvable authRef starts a fresh pairing: the instance will
// emit pairing codes until a device scans one.
func (p *Provider) Dial(ctx context.Context, secretCode, authRef string, hooks channels.Hooks) (channels.Instance, error) {
	device, err := p.device(ctx, authRef)
	if err != nil {
		return nil, err
	}
	if device == nil {
		device = p.container.NewDevice()
	}

	client := whatsmeow.NewClient(device, p.log.Sub(secretCode))

	// The registry owns reconnect policy.
	client.EnableAutoReconnect = false

	inst := newInstance(secretCode, client, hooks)
	if err := inst.connect(ctx, device.ID == nil); err != nil {
		return nil, err
	}
	return inst, nil
}

// DropAuth deletes the device behind authRef from the credential store.
// Unknown or empty refs are a no-op.
func (p *Provider) DropAuth(ctx context.Context, authRef string) error {
	device, err := p.device(ctx, authRef)
	if err != nil || device == nil {
		return err
	}
	return device.Delete(ctx)
}

// Close releases the credential database.
func (p *Provider) Close() error {
	return p.container.Close()
}

// device resolves an auth ref to a stored device, or nil when the ref is
// empty or no longer present.
func (p *Provider) device(ctx context.Context, authRef string) (*store.Device, error) {
	if authRef == "" {
		return nil, nil
	}
	jid, err := types.ParseJID(authRef)
	if err != nil {
		return nil, nil // stale ref format, treat as absent
	}
	device, err := p.container.GetDevice(ctx, jid)
	if err != nil {
		return nil, fmt.Errorf("load device %s: %w", authRef, err)
	}
	return device, nil
}
