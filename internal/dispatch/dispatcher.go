// Package dispatch routes one outbound message: resolve the live instance
// for a secret code, pick the best phone-number candidate via the channel's
// existence check, and send.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/nextlevelbuilder/wamux/internal/channels"
	"github.com/nextlevelbuilder/wamux/internal/phone"
	"github.com/nextlevelbuilder/wamux/internal/registry"
)

const mediaFetchTimeout = 30 * time.Second

// Request is one outbound send.
type Request struct {
	SecretCode string
	Number     string
	Text       string
	ImageURL   string // optional; fetched synchronously before dispatch
}

// Result reports where the message went and what was checked on the way.
type Result struct {
	SentTo            string
	CandidatesChecked []string
}

// Dispatcher verifies candidates and sends through live instances.
type Dispatcher struct {
	registry *registry.Registry
	client   *http.Client // media downloads
}

// New creates a dispatcher over the registry.
func New(reg *registry.Registry) *Dispatcher {
	return &Dispatcher{
		registry: reg,
		client:   &http.Client{Timeout: mediaFetchTimeout},
	}
}

// Send resolves and delivers one message.
//
// Candidates are checked against the channel in resolver order; of those
// confirmed to exist, the one with the fewest digits wins (first confirmed
// breaks ties). No local message history is kept.
func (d *Dispatcher) Send(ctx context.Context, req Request) (*Result, error) {
	inst, ok := d.registry.Active(req.SecretCode)
	if !ok {
		return nil, ErrInstanceNotConnected
	}

	candidates, err := phone.Normalize(req.Number)
	if err != nil {
		return nil, err
	}

	checked := make([]string, 0, len(candidates))
	var selected string
	for _, cand := range candidates {
		checked = append(checked, cand.Number)

		exists, err := inst.Exists(ctx, cand.Number)
		if err != nil {
			slog.Warn("existence check failed", "secret_code", req.SecretCode, "candidate", cand.Number, "error", err)
			continue
		}
		if !exists {
			continue
		}
		if selected == "" || len(cand.Number) < len(selected) {
			selected = cand.Number
		}
	}

	if selected == "" {
		return nil, &RecipientNotFoundError{Checked: checked}
	}

	payload := channels.Payload{Text: req.Text}
	if req.ImageURL != "" {
		data, mime, err := d.fetchImage(ctx, req.ImageURL)
		if err != nil {
			return nil, &MediaFetchError{URL: req.ImageURL, Err: err}
		}
		payload.ImageData = data
		payload.ImageMime = mime
	}

	if err := inst.Send(ctx, selected, payload); err != nil {
		return nil, fmt.Errorf("deliver to %s: %w", selected, err)
	}

	slog.Info("message sent", "secret_code", req.SecretCode, "sent_to", selected, "candidates", len(checked), "image", req.ImageURL != "")
	return &Result{SentTo: selected, CandidatesChecked: checked}, nil
}
