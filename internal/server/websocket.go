package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/fluttercommunity/android-id/internal/channel"
	"github.com/fluttercommunity/android-id/internal/logger"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10

	// maxInflight caps concurrent calls per connection; reading pauses at the cap.
	maxInflight = 16
)

// Frame statuses sent back on the socket.
const (
	StatusOK             = "ok"
	StatusNotImplemented = "not_implemented"
	StatusNoHandler      = "no_handler"
	StatusBadRequest     = "bad_request"
	StatusError          = "error"
)

// SocketRequest carries one encoded message for a channel.
type SocketRequest struct {
	ID      int64           `json:"id"`
	Channel string          `json:"channel"`
	Payload json.RawMessage `json:"payload"`
}

// SocketResponse answers the SocketRequest with the same ID. Payload is the
// reply envelope when Status is ok.
type SocketResponse struct {
	ID      int64           `json:"id"`
	Status  string          `json:"status"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// ChannelSocketRegistrar exposes a BinaryMessenger over a websocket so a
// client can keep one connection open for many calls. Requests on a
// connection are handled concurrently and may be answered out of order.
type ChannelSocketRegistrar struct {
	prefix    string
	messenger channel.BinaryMessenger
	upgrader  websocket.Upgrader
}

func NewChannelSocketRegistrar(prefix string, messenger channel.BinaryMessenger) *ChannelSocketRegistrar {
	return &ChannelSocketRegistrar{
		prefix:    prefix,
		messenger: messenger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
		},
	}
}

func (s *ChannelSocketRegistrar) RegisterRoutes(router Router) {
	group := router.Group(s.prefix)
	group.HandleFunc("GET /channels/ws", s.socketHandler)
}

func (s *ChannelSocketRegistrar) socketHandler(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("Websocket upgrade failed")
		return
	}

	sessionLog := log.With().Str("session", uuid.NewString()).Logger()
	sessionLog.Info().Str("remote_addr", r.RemoteAddr).Msg("Channel socket connected")

	sess := &socketSession{
		conn:      conn,
		messenger: s.messenger,
		log:       &sessionLog,
	}
	sess.run(r.Context())

	sessionLog.Info().Msg("Channel socket closed")
}

type socketSession struct {
	conn      *websocket.Conn
	messenger channel.BinaryMessenger
	log       *zerolog.Logger

	writeMu  sync.Mutex
	wg       sync.WaitGroup
	inflight errgroup.Group
}

func (s *socketSession) run(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	defer func() {
		cancel()
		_ = s.inflight.Wait()
		s.wg.Wait()
		_ = s.conn.Close()
	}()

	s.inflight.SetLimit(maxInflight)

	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	s.wg.Add(1)
	go s.pingLoop(ctx)

	s.readLoop(ctx)
}

func (s *socketSession) readLoop(ctx context.Context) {
	for {
		messageType, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Debug().Err(err).Msg("Channel socket read failed")
			}
			return
		}

		if messageType != websocket.TextMessage {
			s.write(SocketResponse{Status: StatusBadRequest, Error: "expected a text frame"})
			continue
		}

		var req SocketRequest
		if err := json.Unmarshal(data, &req); err != nil || req.Channel == "" {
			s.write(SocketResponse{ID: req.ID, Status: StatusBadRequest, Error: "expected {\"id\",\"channel\",\"payload\"}"})
			continue
		}

		s.inflight.Go(func() error {
			s.write(s.dispatch(ctx, req))
			return nil
		})
	}
}

func (s *socketSession) dispatch(ctx context.Context, req SocketRequest) SocketResponse {
	reply, err := s.messenger.Send(ctx, req.Channel, req.Payload)
	switch {
	case errors.Is(err, channel.ErrNoHandler):
		return SocketResponse{ID: req.ID, Status: StatusNoHandler, Error: err.Error()}
	case err != nil:
		return SocketResponse{ID: req.ID, Status: StatusError, Error: err.Error()}
	case len(reply) == 0:
		return SocketResponse{ID: req.ID, Status: StatusNotImplemented}
	default:
		return SocketResponse{ID: req.ID, Status: StatusOK, Payload: reply}
	}
}

func (s *socketSession) pingLoop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.writeMu.Lock()
			err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			s.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

func (s *socketSession) write(resp SocketResponse) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := s.conn.WriteJSON(resp); err != nil {
		s.log.Debug().Err(err).Int64("id", resp.ID).Msg("Channel socket write failed")
	}
}
