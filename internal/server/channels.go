package server

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/fluttercommunity/android-id/internal/channel"
	"github.com/fluttercommunity/android-id/internal/logger"
)

const maxMessageSize = 64 << 10

type errorResponse struct {
	Error string `json:"error"`
}

// ChannelRegistrar exposes a BinaryMessenger over HTTP. The request body is
// an encoded method call and the response body is the reply envelope.
type ChannelRegistrar struct {
	prefix    string
	messenger channel.BinaryMessenger
}

func NewChannelRegistrar(prefix string, messenger channel.BinaryMessenger) *ChannelRegistrar {
	return &ChannelRegistrar{prefix: prefix, messenger: messenger}
}

func (c *ChannelRegistrar) RegisterRoutes(router Router) {
	group := router.Group(c.prefix)
	group.HandleFunc("POST /channels/{name}", c.sendHandler)
}

func (c *ChannelRegistrar) sendHandler(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxMessageSize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "message too large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "failed to read message"})
		return
	}

	reply, err := c.messenger.Send(r.Context(), name, body)
	if err != nil {
		status := sendErrorStatus(err)
		logger.FromContext(r.Context()).Warn().Err(err).Str("channel", name).Int("status", status).Msg("Channel send failed")
		writeJSON(w, status, errorResponse{Error: err.Error()})
		return
	}

	if len(reply) == 0 {
		w.WriteHeader(http.StatusNotImplemented)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(reply)
}

func sendErrorStatus(err error) int {
	switch {
	case errors.Is(err, channel.ErrNoHandler):
		return http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
