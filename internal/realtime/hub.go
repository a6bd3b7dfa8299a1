package realtime

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"school_transport/internal/models"
)

// AllRoutes subscribes to events of every route.
const AllRoutes uint = 0

const writeTimeout = 5 * time.Second

// Upgrader configures the WebSocket connection.
var Upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Event is the message pushed to subscribers for each stored trip log.
type Event struct {
	EventID   string    `json:"event_id"`
	CardID    string    `json:"card_id"`
	StudentID *uint     `json:"student_id"`
	RouteID   *uint     `json:"route_id"`
	EventType string    `json:"event_type"`
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	GPSLat    float64   `json:"gps_lat"`
	GPSLon    float64   `json:"gps_lon"`
	Timestamp time.Time `json:"timestamp"`
}

func eventFromLog(log models.TripLog) Event {
	return Event{
		EventID:   log.EventID,
		CardID:    log.CardID,
		StudentID: log.StudentID,
		RouteID:   log.RouteID,
		EventType: log.EventType,
		Status:    log.Status,
		Message:   log.Message,
		GPSLat:    log.GPSLat,
		GPSLon:    log.GPSLon,
		Timestamp: log.Timestamp,
	}
}

type subscriber struct {
	conn *websocket.Conn
	mu   sync.Mutex // serializes writes on conn
}

func (s *subscriber) send(ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return s.conn.WriteJSON(ev)
}

// Hub fans trip events out to websocket subscribers, keyed by route id.
type Hub struct {
	clients   map[uint]map[*websocket.Conn]*subscriber
	broadcast chan Event
	done      chan struct{}
	closeOnce sync.Once
	mu        sync.Mutex
}

// NewHub creates a hub and starts its broadcast loop. Call Close to stop it.
func NewHub() *Hub {
	hub := &Hub{
		clients:   make(map[uint]map[*websocket.Conn]*subscriber),
		broadcast: make(chan Event, 100),
		done:      make(chan struct{}),
	}
	go hub.run()
	return hub
}

func (h *Hub) run() {
	for {
		select {
		case <-h.done:
			return
		case ev := <-h.broadcast:
			for _, sub := range h.targets(ev) {
				if err := sub.send(ev); err != nil {
					logrus.WithError(err).WithFields(logrus.Fields{
						"event_id": ev.EventID,
						"conn_ptr": fmt.Sprintf("%p", sub.conn),
					}).Warn("Failed to push trip event, dropping subscriber")
					h.drop(sub.conn)
				}
			}
		}
	}
}

// targets returns the subscribers of the event's route plus those watching all routes.
func (h *Hub) targets(ev Event) []*subscriber {
	h.mu.Lock()
	defer h.mu.Unlock()

	var out []*subscriber
	for _, sub := range h.clients[AllRoutes] {
		out = append(out, sub)
	}
	if ev.RouteID != nil && *ev.RouteID != AllRoutes {
		for _, sub := range h.clients[*ev.RouteID] {
			out = append(out, sub)
		}
	}
	return out
}

// Register adds conn as a subscriber for routeID.
func (h *Hub) Register(routeID uint, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[routeID]; !ok {
		h.clients[routeID] = make(map[*websocket.Conn]*subscriber)
	}
	h.clients[routeID][conn] = &subscriber{conn: conn}
	logrus.WithFields(logrus.Fields{
		"route_id": routeID,
		"conn_ptr": fmt.Sprintf("%p", conn),
	}).Info("Client subscribed to trip events")
}

// Unregister removes conn from routeID.
func (h *Hub) Unregister(routeID uint, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if clients, ok := h.clients[routeID]; ok {
		delete(clients, conn)
		if len(clients) == 0 {
			delete(h.clients, routeID)
		}
	}
	logrus.WithFields(logrus.Fields{
		"route_id": routeID,
		"conn_ptr": fmt.Sprintf("%p", conn),
	}).Info("Client unsubscribed from trip events")
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	for routeID, clients := range h.clients {
		if _, ok := clients[conn]; ok {
			delete(clients, conn)
			if len(clients) == 0 {
				delete(h.clients, routeID)
			}
		}
	}
	h.mu.Unlock()
	conn.Close()
}

// Subscribers returns how many connections are registered for routeID.
func (h *Hub) Subscribers(routeID uint) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients[routeID])
}

// Publish queues a stored trip log for broadcast. It never blocks; events are dropped when the queue is full.
func (h *Hub) Publish(log models.TripLog) {
	select {
	case h.broadcast <- eventFromLog(log):
	default:
		logrus.WithField("event_id", log.EventID).Warn("Trip event queue full, dropping event")
	}
}

// Close stops the broadcast loop.
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

// Serve upgrades the request and keeps conn subscribed to routeID until the client goes away.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, routeID uint) error {
	conn, err := Upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	h.Register(routeID, conn)
	defer h.Unregister(routeID, conn)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logrus.WithField("route_id", routeID).Info("Trip event subscriber closed the connection")
			} else {
				logrus.WithError(err).WithField("route_id", routeID).Debug("Trip event subscriber read failed")
			}
			return nil
		}
		logrus.WithField("route_id", routeID).Warn("Trip event subscriber sent unexpected message. Ignoring.")
	}
}
