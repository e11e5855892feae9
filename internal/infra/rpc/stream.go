package rpc

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/okabe-dev/agentdeck/internal/domain"
	"github.com/okabe-dev/agentdeck/internal/orchestrator"
)

// PushSubscription implements orchestrator.Subscription over the
// console's websocket update feed. The server pushes (task, session)
// updates as they happen; the client derives the phase locally and
// reconnects with backoff when the socket drops, falling back to the
// poll loops only if the dial never succeeds.
type PushSubscription struct {
	wsURL     string
	token     string
	log       domain.Logger
	reconnect time.Duration

	events    chan orchestrator.Event
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// wireUpdate is one pushed update frame.
type wireUpdate struct {
	Task    *taskDTO    `json:"task,omitempty"`
	Session *sessionDTO `json:"session,omitempty"`
}

// NewPushSubscription dials the console's websocket feed and starts the
// receive loop. endpoint is the same http(s) base URL as the API
// client; the scheme is rewritten to ws(s).
func NewPushSubscription(endpoint, token string, log domain.Logger) *PushSubscription {
	ctx, cancel := context.WithCancel(context.Background())
	s := &PushSubscription{
		wsURL:     wsEndpoint(endpoint) + "/api/updates",
		token:     token,
		log:       log,
		reconnect: 5 * time.Second,
		events:    make(chan orchestrator.Event, 64),
		cancel:    cancel,
	}
	go s.run(ctx)
	return s
}

// Events returns the update channel. It is closed by Close.
func (s *PushSubscription) Events() <-chan orchestrator.Event {
	return s.events
}

// Close tears the subscription down.
func (s *PushSubscription) Close() {
	s.closeOnce.Do(s.cancel)
}

func wsEndpoint(endpoint string) string {
	u := strings.TrimSuffix(endpoint, "/")
	switch {
	case strings.HasPrefix(u, "https://"):
		return "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		return "ws://" + strings.TrimPrefix(u, "http://")
	default:
		return u
	}
}

func (s *PushSubscription) run(ctx context.Context) {
	defer close(s.events)

	for {
		if err := s.stream(ctx); err != nil && ctx.Err() == nil {
			s.log.Warn("", "stream", "websocket dropped: "+err.Error())
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(s.reconnect):
		}
	}
}

// stream holds one websocket connection open, decoding update frames
// until the connection or the context dies.
func (s *PushSubscription) stream(ctx context.Context) error {
	header := http.Header{}
	if s.token != "" {
		header.Set("Authorization", "Bearer "+s.token)
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, s.wsURL, header)
	if err != nil {
		return err
	}
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	// Unblock ReadMessage when the subscription is closed.
	go func() {
		<-ctx.Done()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		var upd wireUpdate
		if err := json.Unmarshal(data, &upd); err != nil {
			s.log.Warn("", "stream", "skipping malformed frame: "+err.Error())
			continue
		}
		s.emit(ctx, &upd)
	}
}

func (s *PushSubscription) emit(ctx context.Context, upd *wireUpdate) {
	if upd.Task == nil {
		return
	}
	task := upd.Task.toDomain()

	var session, active *domain.Session
	if upd.Session != nil {
		sess, err := upd.Session.toDomain()
		if err != nil {
			// Unknown status: drop the session part, keep the task update.
			s.log.Warn(task.Path, "stream", err.Error())
		} else {
			// Terminal sessions still ride the event (the commit-message
			// trigger needs to see completion) but do not drive the phase.
			session = sess
			if !sess.Status.IsTerminal() {
				active = sess
			}
		}
	}

	ev := orchestrator.Event{
		TaskPath: task.Path,
		Task:     task,
		Session:  session,
		Phase:    domain.DerivePhase(task, active, domain.Progress{}),
	}
	select {
	case <-ctx.Done():
	case s.events <- ev:
	default:
		// Slow consumer; drop rather than block the socket reader.
	}
}

var _ orchestrator.Subscription = (*PushSubscription)(nil)
