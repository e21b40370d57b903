// Package websocket serves the tourism duplex channel: clients send JSON
// frames naming an action and receive typed frames back.
package websocket

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/ecotrail/api-go/logging"
	"github.com/ecotrail/api-go/metrics"
	"github.com/ecotrail/api-go/services"
	"github.com/ecotrail/api-go/types"
	"github.com/ecotrail/api-go/utils"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

type Options struct {
	MessagesPerSecond float64
	Burst             int
	// CheckOrigin defaults to accepting every origin.
	CheckOrigin func(r *http.Request) bool
}

type Handler struct {
	dispatcher *services.Dispatcher
	upgrader   websocket.Upgrader
	limit      rate.Limit
	burst      int
}

func NewHandler(d *services.Dispatcher, opts Options) *Handler {
	checkOrigin := opts.CheckOrigin
	if checkOrigin == nil {
		checkOrigin = func(r *http.Request) bool { return true }
	}
	limit := rate.Limit(opts.MessagesPerSecond)
	if opts.MessagesPerSecond <= 0 {
		limit = rate.Inf
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}
	return &Handler{
		dispatcher: d,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
		limit: limit,
		burst: burst,
	}
}

// Client is one open connection. Its session is fixed at connect time.
type Client struct {
	ID      string
	Conn    *websocket.Conn
	Session services.Session
	writeMu sync.Mutex
	limiter *rate.Limiter
}

// SafeWriteJSON serializes writes from the concurrent command tasks.
func (cl *Client) SafeWriteJSON(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	cl.writeMu.Lock()
	defer cl.writeMu.Unlock()
	cl.Conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := cl.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return err
	}
	metrics.RecordWSMessage("out")
	return nil
}

// Serve upgrades the request. The session comes from the claims set by
// middleware.OptionalAuth; without them the client is anonymous.
func (h *Handler) Serve(c *gin.Context) {
	session := services.AnonymousSession()
	if claims := utils.GetUser(c); claims != nil {
		session = services.UserSession(claims.UserID)
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logging.Ctx(c.Request.Context()).Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := &Client{
		ID:      logging.GenerateRequestID(),
		Conn:    conn,
		Session: session,
		limiter: rate.NewLimiter(h.limit, h.burst),
	}

	ctx, cancel := context.WithCancel(logging.ContextWithConnectionID(c.Request.Context(), client.ID))
	defer cancel()

	h.run(ctx, client)
}

func (h *Handler) run(ctx context.Context, client *Client) {
	log := logging.Ctx(ctx)
	metrics.TrackWSConnection(true)
	log.Info().
		Bool("authenticated", client.Session.Authenticated).
		Uint("user_id", client.Session.UserID).
		Msg("websocket connected")

	var tasks sync.WaitGroup
	done := make(chan struct{})
	defer func() {
		close(done)
		tasks.Wait()
		client.Conn.Close()
		metrics.TrackWSConnection(false)
		log.Info().Msg("websocket disconnected")
	}()

	welcome := WelcomeFrame{Type: TypeWelcome, Message: types.MsgWelcome}
	if client.Session.Authenticated {
		id := client.Session.UserID
		welcome.UserID = &id
	}
	if err := client.SafeWriteJSON(welcome); err != nil {
		log.Warn().Err(err).Msg("failed to send welcome")
		return
	}

	client.Conn.SetReadLimit(maxMessageSize)
	client.Conn.SetReadDeadline(time.Now().Add(pongWait))
	client.Conn.SetPongHandler(func(string) error {
		return client.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	go h.keepAlive(client, done)

	for {
		msgType, raw, err := client.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				log.Warn().Err(err).Msg("websocket read error")
			}
			return
		}
		client.Conn.SetReadDeadline(time.Now().Add(pongWait))
		if msgType != websocket.TextMessage {
			continue
		}
		metrics.RecordWSMessage("in")

		if err := client.limiter.Wait(ctx); err != nil {
			return
		}

		tasks.Add(1)
		go func() {
			defer tasks.Done()
			h.handleFrame(ctx, client, raw)
		}()
	}
}

func (h *Handler) keepAlive(client *Client, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := client.Conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

// handleFrame answers one inbound frame. It never returns an error: every
// failure becomes an error frame and the connection stays open.
func (h *Handler) handleFrame(ctx context.Context, client *Client, raw []byte) {
	log := logging.Ctx(ctx)
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("frame handler panicked")
			h.send(ctx, client, errorFrame(types.MsgErrorPrefix+panicMessage(r)))
		}
	}()

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		h.send(ctx, client, errorFrame(types.MsgInvalidFormat))
		return
	}

	if env.Action == ActionPing {
		h.send(ctx, client, PongFrame{Type: TypePong})
		return
	}

	cmd, err := decodeCommand(env.Action, raw)
	if err != nil {
		log.Debug().Err(err).Str("action", env.Action).Msg("bad frame")
		h.send(ctx, client, errorFrame(services.MessageOf(err)))
		return
	}
	if cmd == nil {
		h.send(ctx, client, errorFrame(types.MsgUnknownAction))
		return
	}

	res := h.dispatcher.Dispatch(ctx, client.Session, cmd)
	h.send(ctx, client, encodeResult(cmd, res))
}

func (h *Handler) send(ctx context.Context, client *Client, frame interface{}) {
	if err := client.SafeWriteJSON(frame); err != nil {
		metrics.RecordWSMessage("dropped")
		logging.Ctx(ctx).Debug().Err(err).Msg("failed to write frame")
	}
}

func panicMessage(r interface{}) string {
	if err, ok := r.(error); ok {
		return err.Error()
	}
	if s, ok := r.(string); ok {
		return s
	}
	return "panic"
}
