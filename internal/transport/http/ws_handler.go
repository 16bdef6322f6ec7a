package http

import (
	"context"
	"encoding/json"
	"log"
	"math"
	"net/http"
	"strconv"
	"strings"

	"exam-service/internal/domain"
	"exam-service/internal/identity"
	"github.com/gorilla/websocket"
)

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	// Choice is the 1-based option number, sent as a number or a string.
	Choice json.RawMessage `json:"choice"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type questionPayload struct {
	Number  int      `json:"number"`
	Total   int      `json:"total"`
	Text    string   `json:"text"`
	Options []string `json:"options"`
	Points  int      `json:"points"`
}

// serveAttempt upgrades the request and runs one exam attempt over the socket.
func (a *API) serveAttempt(w http.ResponseWriter, r *http.Request) {
	id, ok := examID(w, r)
	if !ok {
		return
	}
	user := identity.CurrentUser(r.Context())

	conn, err := a.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	report, err := a.attempts.Take(r.Context(), id, user, NewPresenter(conn))
	if err != nil {
		log.Printf("ws attempt on exam %d ended: %v", id, err)
		return
	}
	if user != nil {
		log.Printf("ws attempt on exam %d by %s: %.1f%%", id, user.Username, report.Percentage)
	}
	_ = conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "attempt finished"))
}

// Presenter drives an exam attempt over a websocket connection. Reads and
// writes alternate strictly, so no writer goroutine is needed.
type Presenter struct {
	conn *websocket.Conn
}

func NewPresenter(conn *websocket.Conn) *Presenter {
	return &Presenter{conn: conn}
}

func (p *Presenter) RenderQuestion(_ context.Context, q domain.Question, number, total int) error {
	return p.conn.WriteJSON(outboundMessage[questionPayload]{
		Type: "question",
		Payload: questionPayload{
			Number:  number,
			Total:   total,
			Text:    q.Text,
			Options: q.Options,
			Points:  q.Points,
		},
	})
}

// AskChoice waits for the next "answer" message. Other message types yield
// an empty choice so the session re-prompts.
func (p *Presenter) AskChoice(ctx context.Context, _ int) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var msg inboundMessage
	if err := p.conn.ReadJSON(&msg); err != nil {
		return "", err
	}
	if msg.Type != "answer" {
		return "", nil
	}
	var payload answerPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return "", nil
	}
	return choiceText(payload.Choice), nil
}

// choiceText turns a choice sent as a string or a JSON number into the raw
// text the session parses. Integral numbers in any notation (1, 1.0, 2e0)
// become plain integers.
func choiceText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return strings.TrimSpace(string(raw))
	}
	if i, err := n.Int64(); err == nil {
		return strconv.FormatInt(i, 10)
	}
	if f, err := n.Float64(); err == nil && f == math.Trunc(f) && math.Abs(f) <= 1<<53 {
		return strconv.FormatInt(int64(f), 10)
	}
	return n.String()
}

func (p *Presenter) ShowError(_ context.Context, message string) error {
	return p.conn.WriteJSON(outboundMessage[errorResponse]{Type: "error", Payload: errorResponse{Message: message}})
}

func (p *Presenter) RenderResults(_ context.Context, r domain.ScoreReport) error {
	return p.conn.WriteJSON(outboundMessage[domain.ScoreReport]{Type: "results", Payload: r})
}
