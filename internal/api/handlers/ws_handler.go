package handlers

import (
	"context"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/yoockh/jobboard/internal/realtime"
	"github.com/yoockh/jobboard/internal/services"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
)

// WSHandler pushes realtime events to browsers so list views can refresh.
// Browsers only listen; anything they send besides control frames is ignored.
type WSHandler struct {
	apps     services.ApplicationService
	sub      realtime.Subscriber
	log      *logrus.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(apps services.ApplicationService, sub realtime.Subscriber, allowedOrigins []string, log *logrus.Logger) *WSHandler {
	return &WSHandler{
		apps: apps,
		sub:  sub,
		log:  log,
		upgrader: websocket.Upgrader{
			CheckOrigin: originChecker(allowedOrigins),
		},
	}
}

type wsConn struct {
	c  *websocket.Conn
	mu sync.Mutex
}

func (w *wsConn) write(kind int, b []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.c.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return w.c.WriteMessage(kind, b)
}

// MyApplications streams status changes of the caller's applications.
func (h *WSHandler) MyApplications(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	h.serve(c, realtime.UserChannel(userID))
}

// JobApplications streams new applications and status changes for one job.
// Only the job's owner may subscribe.
func (h *WSHandler) JobApplications(c *gin.Context) {
	u, ok := requireUser(c)
	if !ok {
		return
	}
	job, err := h.apps.ReviewableJob(c.Request.Context(), u, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	h.serve(c, realtime.JobChannel(job.ID))
}

func (h *WSHandler) serve(c *gin.Context, channels ...string) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already answered the client
		return
	}
	defer conn.Close()

	wc := &wsConn{c: conn}
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	pubsub := h.sub.Subscribe(ctx, channels...)
	defer pubsub.Close()

	// reader: keeps the deadline fresh and notices when the browser goes away
	go func() {
		defer cancel()
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(wsPongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()
	msgs := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := wc.write(websocket.PingMessage, nil); err != nil {
				return
			}
		case m, ok := <-msgs:
			if !ok {
				return
			}
			// payload is already a JSON realtime.Event
			if err := wc.write(websocket.TextMessage, []byte(m.Payload)); err != nil {
				h.log.WithError(err).WithField("channel", m.Channel).Debug("ws write failed")
				return
			}
		}
	}
}

// originChecker allows same-host requests plus the configured origins.
func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if _, ok := set[origin]; ok {
			return true
		}
		u, err := url.Parse(origin)
		return err == nil && u.Host == r.Host
	}
}
