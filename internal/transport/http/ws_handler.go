package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"

	"adaptive-quiz-service/internal/app"
	"adaptive-quiz-service/internal/domain"
)

type WSHandler struct {
	service  *app.QuizService
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService, logger *slog.Logger) *WSHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WSHandler{
		service: service,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type eventPayload struct {
	Type   string         `json:"type"`
	Fields map[string]any `json:"fields"`
}

// ServeWS upgrades the request, starts a session from the query parameters and plays it
// over the socket: question, answer, answerResult, next question, until complete.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	userID := query.Get("userId")
	if userID == "" {
		http.Error(w, "missing userId", http.StatusBadRequest)
		return
	}
	req := app.StartRequest{
		UserID:        userID,
		UserName:      query.Get("name"),
		Level:         atoiOrZero(query.Get("level")),
		Literacy:      query.Get("literacy"),
		Category:      query.Get("category"),
		QuestionLimit: atoiOrZero(query.Get("limit")),
		PoolID:        query.Get("pool"),
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	// The session outlives a single request context only until the socket closes.
	ctx := context.WithoutCancel(r.Context())

	info, err := h.service.StartSession(ctx, req)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	events, cancel, err := h.service.Subscribe(ctx, info.ID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer cancel()

	finished := false
	defer func() {
		if !finished {
			h.service.Abandon(ctx, info.ID)
		}
	}()

	out := newOutbox(16)
	closeSignals := make(chan struct{})
	eventsDone := make(chan struct{})

	// Single writer goroutine; gorilla connections do not support concurrent writes.
	go func() {
		defer close(out.writerDone)
		for msg := range out.send {
			if err := conn.WriteJSON(msg); err != nil {
				h.logger.Warn("ws write error", "session", info.ID, "err", err)
				// Unblocks ReadJSON in the loop below.
				_ = conn.Close()
				return
			}
		}
	}()

	go func() {
		defer close(eventsDone)
		for {
			select {
			case ev, ok := <-events:
				if !ok {
					return
				}
				msg := outboundMessage[any]{Type: "event", Payload: eventPayload{Type: ev.Type, Fields: ev.Fields}}
				select {
				case out.send <- msg:
				case <-out.writerDone:
					return
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	alive := out.push(outboundMessage[any]{Type: "session", Payload: info}) &&
		h.sendQuestion(ctx, info.ID, out)

	for alive && !finished {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "answer":
			var payload answerRequest
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.SelectedIndex == nil {
				alive = out.push(errorMessage("invalid answer payload"))
				continue
			}
			res, complete, err := h.service.SubmitAnswer(ctx, info.ID, *payload.SelectedIndex)
			if err != nil {
				alive = out.push(errorMessage(err.Error()))
				continue
			}
			if alive = out.push(outboundMessage[any]{Type: "answerResult", Payload: res}); !alive {
				continue
			}
			if !complete {
				alive = h.sendQuestion(ctx, info.ID, out)
				continue
			}
			result, err := h.service.Finish(ctx, info.ID)
			if err != nil {
				alive = out.push(errorMessage(err.Error()))
				continue
			}
			finished = true
			out.push(outboundMessage[any]{Type: "complete", Payload: result})
		case "upgrade":
			state, err := h.service.UpgradeLevel(ctx, info.ID)
			if err != nil {
				alive = out.push(errorMessage(err.Error()))
				continue
			}
			alive = out.push(outboundMessage[any]{Type: "upgradeResult", Payload: state})
		case "question":
			alive = h.sendQuestion(ctx, info.ID, out)
		default:
			alive = out.push(errorMessage("unsupported message type"))
		}
	}

	close(closeSignals)
	<-eventsDone
	close(out.send)
	<-out.writerDone
}

// outbox queues messages for the writer goroutine. Once the writer has stopped, push
// reports false instead of blocking.
type outbox struct {
	send       chan outboundMessage[any]
	writerDone chan struct{}
}

func newOutbox(size int) *outbox {
	return &outbox{
		send:       make(chan outboundMessage[any], size),
		writerDone: make(chan struct{}),
	}
}

func (o *outbox) push(msg outboundMessage[any]) bool {
	select {
	case <-o.writerDone:
		return false
	default:
	}
	select {
	case o.send <- msg:
		return true
	case <-o.writerDone:
		return false
	}
}

func (h *WSHandler) sendQuestion(ctx context.Context, sessionID string, out *outbox) bool {
	q, progress, err := h.service.CurrentQuestion(ctx, sessionID)
	if errors.Is(err, domain.ErrSessionComplete) {
		return true
	}
	if err != nil {
		return out.push(errorMessage(err.Error()))
	}
	return out.push(outboundMessage[any]{Type: "question", Payload: questionResponse{Question: q, Progress: progress}})
}

func errorMessage(msg string) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: msg}}
}

func atoiOrZero(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return n
}
