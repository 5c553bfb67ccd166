package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/liveslides/pkg/domain"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/oapi-codegen/runtime"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
	wsMaxMessage = 4096
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// feed merges Current-State changes and tally flushes of code. The first
// tally snapshot is skipped: handlers send the current one on connect.
func (s *Server) feed(ctx context.Context, code string) (<-chan Event, error) {
	states, err := s.cfg.Store.SubscribeDocument(ctx, domain.StateDocName(code))
	if err != nil {
		return nil, fmt.Errorf("subscribe to state: %w", err)
	}
	board, err := s.cfg.Tally.Board(code)
	if err != nil {
		return nil, err
	}
	snapshots := board.Watch(ctx)
	<-snapshots

	out := make(chan Event, 16)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for data := range states {
			select {
			case out <- Event{Name: EventState, Data: data}:
			case <-ctx.Done():
			}
		}
	}()
	go func() {
		defer wg.Done()
		for snap := range snapshots {
			data, err := json.Marshal(snap)
			if err != nil {
				continue
			}
			select {
			case out <- Event{Name: EventTally, Data: data}:
			case <-ctx.Done():
			}
		}
	}()
	go func() {
		wg.Wait()
		close(out)
	}()
	return out, nil
}

// initial returns the current state and tally of code.
func (s *Server) initial(ctx context.Context, code string) ([]Event, error) {
	board, err := s.board(ctx, code)
	if err != nil {
		return nil, err
	}
	st, err := s.cfg.Control.CurrentState(ctx, code)
	if err != nil {
		return nil, err
	}
	state, err := json.Marshal(st)
	if err != nil {
		return nil, err
	}
	snap, err := json.Marshal(board.Snapshot())
	if err != nil {
		return nil, err
	}
	return []Event{{Name: EventState, Data: state}, {Name: EventTally, Data: snap}}, nil
}

// SubscribeEvents streams state and tally changes as Server-Sent Events.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	var watch *string
	if err := runtime.BindQueryParameter("form", true, false, "watch", r.URL.Query(), &watch); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	keep := map[string]bool{EventState: true, EventTally: true}
	if watch != nil && *watch != "" {
		keep = map[string]bool{}
		for _, name := range strings.Split(*watch, ",") {
			keep[strings.TrimSpace(name)] = true
		}
	}

	code := codeParam(r)
	initial, err := s.initial(r.Context(), code)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("streaming unsupported"))
		return
	}

	events, cancel, err := s.Streams.Subscribe(code)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	defer cancel()
	defer s.cfg.Metrics.SubscriberOpened("sse")()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	for _, evt := range initial {
		if keep[evt.Name] {
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.Name, evt.Data)
		}
	}
	flusher.Flush()
	s.logger.DebugContext(r.Context(), "sse client connected", "code", code)

	for {
		select {
		case <-r.Context().Done():
			s.logger.DebugContext(r.Context(), "sse client disconnected", "code", code)
			return
		case evt, ok := <-events:
			if !ok {
				return
			}
			if !keep[evt.Name] {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.Name, evt.Data)
			flusher.Flush()
		}
	}
}

// wsMessage is the envelope pushed to WebSocket clients.
type wsMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// ServeWS relays state and tally changes to an audience client and accepts
// its responses.
func (s *Server) ServeWS(w http.ResponseWriter, r *http.Request) {
	code := domain.NormalizeCode(chi.URLParam(r, "code"))
	initial, err := s.initial(r.Context(), code)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.WarnContext(r.Context(), "websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	events, cancel, err := s.Streams.Subscribe(code)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "websocket subscribe failed", "code", code, "error", err)
		return
	}
	defer cancel()
	defer s.cfg.Metrics.SubscriberOpened("ws")()

	ctx, stop := context.WithCancel(context.WithoutCancel(r.Context()))
	defer stop()

	replies := make(chan wsMessage, 4)
	go s.readWS(ctx, stop, conn, code, replies)

	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for _, evt := range initial {
		if err := writeWS(conn, wsMessage{Event: evt.Name, Data: evt.Data}); err != nil {
			return
		}
	}

	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-events:
			if !ok {
				return
			}
			if err := writeWS(conn, wsMessage{Event: evt.Name, Data: evt.Data}); err != nil {
				return
			}
		case msg := <-replies:
			if err := writeWS(conn, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readWS publishes every response sent by the client until the connection
// fails, then calls stop.
func (s *Server) readWS(ctx context.Context, stop context.CancelFunc, conn *websocket.Conn, code string, replies chan<- wsMessage) {
	defer stop()
	conn.SetReadLimit(wsMaxMessage)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		var evt domain.ResponseEvent
		if err := conn.ReadJSON(&evt); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.WarnContext(ctx, "websocket read failed", "code", code, "error", err)
			}
			return
		}

		reply := wsMessage{Event: "ack"}
		published, err := s.publish(ctx, code, evt)
		if err != nil {
			reply.Event = "error"
			reply.Data, _ = json.Marshal(errorBody{Error: err.Error()})
		} else {
			reply.Data, _ = json.Marshal(published)
		}
		select {
		case replies <- reply:
		case <-ctx.Done():
			return
		}
	}
}

func writeWS(conn *websocket.Conn, msg wsMessage) error {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return conn.WriteJSON(msg)
}
