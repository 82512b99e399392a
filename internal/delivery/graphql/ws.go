package graphql

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/graphql-go/graphql"
	"github.com/rs/zerolog"
)

// Subset of the graphql-transport-ws protocol: enough for the
// board client to hold one taskChanged subscription open.
const transportWSSubprotocol = "graphql-transport-ws"

const (
	msgConnectionInit = "connection_init"
	msgConnectionAck  = "connection_ack"
	msgPing           = "ping"
	msgPong           = "pong"
	msgSubscribe      = "subscribe"
	msgNext           = "next"
	msgError          = "error"
	msgComplete       = "complete"
)

type wsMessage struct {
	ID      string          `json:"id,omitempty"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func (h *handlerImpl) HandleSubscription(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the error response.
		h.logger.Error().
			Err(err).
			Msg("failed to upgrade connection")
		return
	}

	client := &wsClient{
		logger: h.logger.With().Str("remote", conn.RemoteAddr().String()).Logger(),
		schema: h.schema,
		conn:   conn,
		subs:   make(map[string]context.CancelFunc),
	}
	client.run(c.Request.Context())
}

type wsClient struct {
	logger zerolog.Logger
	schema graphql.Schema
	conn   *websocket.Conn

	// writeMu serializes frames: subscription pumps and the read
	// loop both write to the connection.
	writeMu sync.Mutex

	mu   sync.Mutex
	subs map[string]context.CancelFunc
}

func (w *wsClient) run(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	defer func() {
		cancel()
		_ = w.conn.Close()
	}()

	w.logger.Debug().Msg("notification connection open")

	for {
		var msg wsMessage
		err := w.conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				w.logger.Warn().
					Err(err).
					Msg("notification connection dropped")
			} else {
				w.logger.Debug().Msg("notification connection closed")
			}
			return
		}

		switch msg.Type {
		case msgConnectionInit:
			w.write(wsMessage{Type: msgConnectionAck})
		case msgPing:
			w.write(wsMessage{Type: msgPong})
		case msgSubscribe:
			w.startSubscription(ctx, msg)
		case msgComplete:
			w.stopSubscription(msg.ID)
		default:
			w.logger.Warn().
				Str("type", msg.Type).
				Msg("ignoring unknown message type")
		}
	}
}

func (w *wsClient) startSubscription(ctx context.Context, msg wsMessage) {
	var req queryRequest
	err := json.Unmarshal(msg.Payload, &req)
	if err != nil {
		w.logger.Error().
			Err(err).
			Str("subscribe_id", msg.ID).
			Msg("failed to decode subscribe payload")
		w.writeError(msg.ID, errInvalidRequestBody.Error())
		return
	}

	w.mu.Lock()
	if _, exists := w.subs[msg.ID]; exists {
		w.mu.Unlock()
		w.writeError(msg.ID, "subscriber id already in use")
		return
	}
	subCtx, cancel := context.WithCancel(ctx)
	w.subs[msg.ID] = cancel
	w.mu.Unlock()

	results := graphql.Subscribe(graphql.Params{
		Schema:         w.schema,
		RequestString:  req.Query,
		OperationName:  req.OperationName,
		VariableValues: req.Variables,
		Context:        subCtx,
	})

	w.logger.Debug().
		Str("subscribe_id", msg.ID).
		Msg("started subscription")

	go func() {
		defer w.stopSubscription(msg.ID)

		for result := range results {
			payload, err := json.Marshal(result)
			if err != nil {
				w.logger.Error().
					Err(err).
					Str("subscribe_id", msg.ID).
					Msg("failed to encode result")
				continue
			}
			w.write(wsMessage{ID: msg.ID, Type: msgNext, Payload: payload})
		}

		w.write(wsMessage{ID: msg.ID, Type: msgComplete})
	}()
}

func (w *wsClient) stopSubscription(id string) {
	w.mu.Lock()
	cancel, ok := w.subs[id]
	if ok {
		delete(w.subs, id)
	}
	w.mu.Unlock()

	if ok {
		cancel()
		w.logger.Debug().
			Str("subscribe_id", id).
			Msg("stopped subscription")
	}
}

func (w *wsClient) write(msg wsMessage) {
	w.writeMu.Lock()
	defer w.writeMu.Unlock()

	err := w.conn.WriteJSON(msg)
	if err != nil {
		w.logger.Error().
			Err(err).
			Str("type", msg.Type).
			Msg("failed to write frame")
	}
}

func (w *wsClient) writeError(id, message string) {
	payload, err := json.Marshal([]gin.H{{"message": message}})
	if err != nil {
		return
	}
	w.write(wsMessage{ID: id, Type: msgError, Payload: payload})
}
