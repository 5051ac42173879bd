package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nextlevelbuilder/wamux/internal/dispatch"
	"github.com/nextlevelbuilder/wamux/internal/pairing"
	"github.com/nextlevelbuilder/wamux/internal/phone"
	"github.com/nextlevelbuilder/wamux/internal/store"
	"github.com/nextlevelbuilder/wamux/pkg/protocol"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string, details interface{}) {
	writeJSON(w, status, map[string]interface{}{
		"error": protocol.ErrorShape{Code: code, Message: message, Details: details},
	})
}

// writeMappedError translates domain errors into status codes and stable
// machine-readable codes.
func writeMappedError(w http.ResponseWriter, err error) {
	var recipientErr *dispatch.RecipientNotFoundError
	var mediaErr *dispatch.MediaFetchError

	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, protocol.ErrNotFound, "secret code not found", nil)

	case errors.Is(err, dispatch.ErrInstanceNotConnected):
		writeError(w, http.StatusNotFound, protocol.ErrNotConnected,
			"instance not found or not connected; check the secret code and pairing state", nil)

	case errors.Is(err, phone.ErrNoDigits):
		writeError(w, http.StatusBadRequest, protocol.ErrInvalidNumberFormat, err.Error(), nil)

	case errors.Is(err, phone.ErrTooShort):
		writeError(w, http.StatusBadRequest, protocol.ErrNumberTooShort, err.Error(), nil)

	case errors.Is(err, phone.ErrTooLong):
		writeError(w, http.StatusBadRequest, protocol.ErrNumberTooLong, err.Error(), nil)

	case errors.As(err, &recipientErr):
		writeError(w, http.StatusNotFound, protocol.ErrRecipientNotFound,
			"recipient is not on the channel; all candidate forms were checked",
			map[string]interface{}{"checked_numbers": recipientErr.Checked})

	case errors.As(err, &mediaErr):
		writeError(w, http.StatusBadGateway, protocol.ErrMediaFetch, mediaErr.Error(), nil)

	case errors.Is(err, pairing.ErrPairingTimeout):
		writeError(w, http.StatusGatewayTimeout, protocol.ErrPairingTimeout,
			"pairing code was not generated in time; try again", nil)

	case errors.Is(err, pairing.ErrConnectionClosed):
		writeError(w, http.StatusInternalServerError, protocol.ErrConnectionClosed,
			"connection closed before pairing completed; try again", nil)

	case errors.Is(err, pairing.ErrWaitInProgress):
		writeError(w, http.StatusConflict, protocol.ErrInvalidRequest,
			"a pairing wait is already in progress for this session", nil)

	default:
		writeError(w, http.StatusInternalServerError, protocol.ErrInternal, err.Error(), nil)
	}
}
