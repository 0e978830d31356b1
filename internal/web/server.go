// Package web serves the strip's HTTP surface: the status page, JSON state
// and notification endpoints, and the WebSocket used by the live UI for
// both state push and command ingestion.
package web

import (
	"context"
	"encoding/json"
	"log"
	"net"
	"net/http"

	"github.com/sweeney/powerstrip/internal/core"
	"github.com/sweeney/powerstrip/internal/status"
)

// NotificationLister reads the persisted notification log.
type NotificationLister interface {
	Notifications() ([]core.Event, error)
}

// Server serves the status page, JSON endpoints, and the WebSocket.
type Server struct {
	httpServer *http.Server
	tracker    *status.Tracker
	notifs     NotificationLister
	hub        *Hub
}

// New creates a Server that reads state from the given tracker and log.
func New(addr string, tracker *status.Tracker, notifs NotificationLister, hub *Hub) *Server {
	s := &Server{tracker: tracker, notifs: notifs, hub: hub}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/index.html", s.handleIndex)
	mux.HandleFunc("/state.json", s.handleState)
	mux.HandleFunc("/notifs.json", s.handleNotifs)
	mux.HandleFunc("/ws", hub.HandleWS)

	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	return s
}

// ListenAndServe starts listening. It blocks until the server is shut down.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Serve accepts connections on the given listener. Useful for tests.
func (s *Server) Serve(ln net.Listener) error {
	return s.httpServer.Serve(ln)
}

// Shutdown closes the WebSocket clients and gracefully shuts down HTTP.
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Close()
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" && r.URL.Path != "/index.html" {
		http.NotFound(w, r)
		return
	}
	v := s.tracker.View()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	renderHTML(w, v)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	v := s.tracker.View()
	payload, err := core.EncodeState(v.Snapshot)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(payload)
}

// notifsJSON is the wire layout of the notification log.
type notifsJSON struct {
	Notifs []notifJSON `json:"notifs"`
}

type notifJSON struct {
	TS   int64  `json:"ts"`
	Text string `json:"text"`
}

func (s *Server) handleNotifs(w http.ResponseWriter, r *http.Request) {
	events, err := s.notifs.Notifications()
	if err != nil {
		log.Printf("list notifications: %v", err)
		http.Error(w, "notification log unavailable", http.StatusInternalServerError)
		return
	}

	out := notifsJSON{Notifs: make([]notifJSON, 0, len(events))}
	for _, ev := range events {
		out.Notifs = append(out.Notifs, notifJSON{TS: ev.Timestamp.Unix(), Text: ev.Text})
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}
