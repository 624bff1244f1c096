package stats

import (
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/gogpu/cubefield"
)

// frameMessage is the JSON shape streamed to websocket clients.
type frameMessage struct {
	Session   string  `json:"session"`
	Frame     uint64  `json:"frame"`
	Mode      string  `json:"mode"`
	GridSize  int     `json:"gridSize"`
	Workers   int     `json:"workers"`
	Instances int     `json:"instances"`
	Recorded  bool    `json:"recorded"`
	RecordMS  float64 `json:"recordMs"`
	SubmitMS  float64 `json:"submitMs"`
	FrameMS   float64 `json:"frameMs"`
}

// Broadcaster streams frame statistics to websocket clients.
// Each run gets a fresh session id so dashboards can tell restarts apart.
//
// Slow or dead clients are dropped rather than allowed to stall Publish;
// the render loop must never wait on the network.
type Broadcaster struct {
	session string

	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*websocket.Conn]*sync.Mutex
}

// NewBroadcaster creates a broadcaster with a fresh session id.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		session: uuid.NewString(),
		upgrader: websocket.Upgrader{
			// Stats are read-only diagnostics; accept any origin.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: make(map[*websocket.Conn]*sync.Mutex),
	}
}

// Session returns the broadcaster's session id.
func (b *Broadcaster) Session() string { return b.session }

// ServeHTTP upgrades the request to a websocket and registers the client.
// The connection is held open until the client disconnects.
func (b *Broadcaster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		cubefield.Logger().Warn("stats: websocket upgrade failed", "err", err)
		return
	}

	b.mu.Lock()
	b.clients[conn] = &sync.Mutex{}
	b.mu.Unlock()

	cubefield.Logger().Info("stats: client connected", "remote", conn.RemoteAddr().String())

	// Discard inbound messages; the stream is one-way. Reading also
	// detects disconnects.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	b.mu.Lock()
	delete(b.clients, conn)
	b.mu.Unlock()
	_ = conn.Close()
}

// Publish sends one frame's stats to every connected client. It implements
// the coordinator's stats sink signature and never blocks on a client:
// write failures drop the client.
func (b *Broadcaster) Publish(fs cubefield.FrameStats) {
	b.mu.RLock()
	if len(b.clients) == 0 {
		b.mu.RUnlock()
		return
	}
	conns := make([]*websocket.Conn, 0, len(b.clients))
	locks := make([]*sync.Mutex, 0, len(b.clients))
	for conn, lock := range b.clients {
		conns = append(conns, conn)
		locks = append(locks, lock)
	}
	b.mu.RUnlock()

	msg := frameMessage{
		Session:   b.session,
		Frame:     fs.Frame,
		Mode:      fs.Mode.String(),
		GridSize:  fs.GridSize,
		Workers:   fs.Workers,
		Instances: fs.Instances,
		Recorded:  fs.Recorded,
		RecordMS:  float64(fs.RecordTime.Microseconds()) / 1000,
		SubmitMS:  float64(fs.SubmitTime.Microseconds()) / 1000,
		FrameMS:   float64(fs.FrameTime.Microseconds()) / 1000,
	}

	var dead []*websocket.Conn
	for i, conn := range conns {
		locks[i].Lock()
		err := conn.WriteJSON(msg)
		locks[i].Unlock()
		if err != nil {
			dead = append(dead, conn)
		}
	}

	if len(dead) > 0 {
		b.mu.Lock()
		for _, conn := range dead {
			delete(b.clients, conn)
			_ = conn.Close()
		}
		b.mu.Unlock()
	}
}

// ListenAndServe serves the websocket endpoint at /stats on addr.
// It blocks; run it on its own goroutine.
func (b *Broadcaster) ListenAndServe(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/stats", b)
	cubefield.Logger().Info("stats: listening", "addr", addr, "session", b.session)
	return http.ListenAndServe(addr, mux)
}
