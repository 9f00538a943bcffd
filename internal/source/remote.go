package source

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Faultbox/scenegl/internal/events"
	"github.com/Faultbox/scenegl/pkg/assertion"
)

// Message types exchanged with remote clients.
const (
	TypeBatch      = "batch"
	TypeAck        = "ack"
	TypeError      = "error"
	TypePicking    = "picking"
	TypeScreenshot = "screenshot"
)

// Message is the JSON envelope of the remote protocol. Clients send batch
// messages; the server answers each with ack or error and broadcasts
// picking and screenshot results.
type Message struct {
	Type       string             `json:"type"`
	Assertions []assertion.Record `json:"assertions,omitempty"`
	Accepted   int                `json:"accepted,omitempty"`
	Error      string             `json:"error,omitempty"`
	Picking    *Picking           `json:"picking,omitempty"`
	Screenshot *Screenshot        `json:"screenshot,omitempty"`
}

type Picking struct {
	Hit      bool       `json:"hit"`
	ObjectID uint32     `json:"objectId,omitempty"`
	ScreenX  int        `json:"x"`
	ScreenY  int        `json:"y"`
	World    [3]float32 `json:"world,omitempty"`
	Time     float64    `json:"time"`
}

type Screenshot struct {
	Path   string `json:"path,omitempty"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// PickingMessage converts picking feedback for broadcast.
func PickingMessage(fb events.PickingFeedback) Message {
	return Message{Type: TypePicking, Picking: &Picking{
		Hit:      fb.Hit,
		ObjectID: uint32(fb.ObjectID),
		ScreenX:  fb.ScreenX,
		ScreenY:  fb.ScreenY,
		World:    fb.World,
		Time:     fb.Time,
	}}
}

// ScreenshotMessage announces a saved screenshot.
func ScreenshotMessage(path string, width, height int) Message {
	return Message{Type: TypeScreenshot, Screenshot: &Screenshot{Path: path, Width: width, Height: height}}
}

const writeTimeout = 5 * time.Second

// Remote accepts assertion batches over websocket connections and fans
// render feedback out to every connected client.
type Remote struct {
	log      *zap.Logger
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*websocket.Conn]*sync.Mutex
}

// NewRemote creates an endpoint accepting same-origin browser connections,
// connections from the listed origins and clients that send no Origin header.
func NewRemote(log *zap.Logger, origins []string) *Remote {
	return &Remote{
		log: log,
		upgrader: websocket.Upgrader{
			CheckOrigin: originChecker(origins),
		},
		clients: make(map[*websocket.Conn]*sync.Mutex),
	}
}

// originChecker matches the Origin header against the request host and the
// allowed origins. Entries are either full origins ("http://localhost:3000")
// or bare hosts ("localhost:3000").
func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil || u.Host == "" {
			return false
		}
		if strings.EqualFold(u.Host, r.Host) {
			return true
		}
		for _, a := range allowed {
			if strings.EqualFold(a, origin) || strings.EqualFold(a, u.Host) {
				return true
			}
		}
		return false
	}
}

// Handler serves the websocket endpoint, forwarding batches to out.
func (r *Remote) Handler(out Sink) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		conn, err := r.upgrader.Upgrade(w, req, nil)
		if err != nil {
			r.log.Warn("websocket upgrade failed", zap.Error(err))
			return
		}
		r.serve(conn, out)
	})
}

// Run serves path on addr until ctx is done.
func (r *Remote) Run(ctx context.Context, addr, path string, out Sink) error {
	mux := http.NewServeMux()
	mux.Handle(path, r.Handler(out))

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("remote listen: %w", err)
	}
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
		r.closeAll()
	}()

	r.log.Info("remote endpoint listening", zap.String("addr", ln.Addr().String()), zap.String("path", path))
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("remote serve: %w", err)
	}
	return ctx.Err()
}

func (r *Remote) serve(conn *websocket.Conn, out Sink) {
	lock := &sync.Mutex{}
	r.mu.Lock()
	r.clients[conn] = lock
	r.mu.Unlock()
	r.log.Info("remote client connected", zap.String("addr", conn.RemoteAddr().String()))

	defer func() {
		r.mu.Lock()
		delete(r.clients, conn)
		r.mu.Unlock()
		conn.Close()
		r.log.Info("remote client disconnected", zap.String("addr", conn.RemoteAddr().String()))
	}()

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				r.log.Debug("remote read ended", zap.Error(err))
			}
			return
		}

		reply := r.accept(msg, out)
		if err := write(conn, lock, reply); err != nil {
			r.log.Warn("remote write failed", zap.Error(err))
			return
		}
	}
}

func (r *Remote) accept(msg Message, out Sink) Message {
	if msg.Type != TypeBatch {
		return Message{Type: TypeError, Error: fmt.Sprintf("unexpected message type %q", msg.Type)}
	}
	batch, err := assertion.Decode(msg.Assertions)
	if err != nil {
		return Message{Type: TypeError, Error: err.Error()}
	}
	if !out.Send(batch) {
		return Message{Type: TypeError, Error: "pipeline closed"}
	}
	return Message{Type: TypeAck, Accepted: len(batch)}
}

// Notify sends msg to every connected client. Clients that cannot be
// written to are dropped.
func (r *Remote) Notify(msg Message) {
	r.mu.RLock()
	var failed []*websocket.Conn
	for conn, lock := range r.clients {
		if err := write(conn, lock, msg); err != nil {
			failed = append(failed, conn)
		}
	}
	r.mu.RUnlock()

	for _, conn := range failed {
		r.log.Debug("dropping remote client", zap.String("addr", conn.RemoteAddr().String()))
		conn.Close()
	}
}

// Clients returns the number of connected clients.
func (r *Remote) Clients() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

func (r *Remote) closeAll() {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for conn, lock := range r.clients {
		lock.Lock()
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			time.Now().Add(time.Second))
		lock.Unlock()
		conn.Close()
	}
}

func write(conn *websocket.Conn, lock *sync.Mutex, msg Message) error {
	lock.Lock()
	defer lock.Unlock()
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteJSON(msg)
}

// Push dials a remote endpoint, sends batches one by one and waits for each
// acknowledgement.
func Push(ctx context.Context, url string, batches []assertion.Batch) (int, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return 0, fmt.Errorf("dial %s: %w", url, err)
	}
	defer conn.Close()

	accepted := 0
	for i, b := range batches {
		records, err := assertion.Encode(b)
		if err != nil {
			return accepted, fmt.Errorf("batch %d: %w", i, err)
		}
		if err := conn.WriteJSON(Message{Type: TypeBatch, Assertions: records}); err != nil {
			return accepted, fmt.Errorf("send batch %d: %w", i, err)
		}

		// Broadcasts may interleave with replies.
		for {
			var reply Message
			if err := conn.ReadJSON(&reply); err != nil {
				return accepted, fmt.Errorf("batch %d reply: %w", i, err)
			}
			if reply.Type == TypeAck {
				accepted += reply.Accepted
				break
			}
			if reply.Type == TypeError {
				return accepted, fmt.Errorf("batch %d rejected: %s", i, reply.Error)
			}
		}
	}

	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return accepted, nil
}
