package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"mlimi/internal/domain"
	"mlimi/internal/utils"
)

// Update is the slice of Telegram's webhook payload the bot cares about.
type Update struct {
	UpdateID int64 `json:"update_id"`
	Message  struct {
		MessageID int64 `json:"message_id"`
		From      struct {
			ID        int64  `json:"id"`
			FirstName string `json:"first_name"`
			IsBot     bool   `json:"is_bot"`
		} `json:"from"`
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
		Text string `json:"text"`
	} `json:"message"`
}

// Resolver answers a farmer's question with provenance.
type Resolver interface {
	Resolve(ctx context.Context, query, conversationID string) domain.Resolution
}

// Sender delivers replies back to the chat.
type Sender interface {
	SendMessage(chatID int64, text string) error
	SendTyping(chatID int64) error
}

// Handler receives Telegram webhook updates and routes them: commands get
// canned or store-backed replies, everything else goes through the resolver.
type Handler struct {
	resolver Resolver
	store    domain.AdviceRepository
	sender   Sender
}

func New(resolver Resolver, store domain.AdviceRepository, sender Sender) *Handler {
	return &Handler{resolver: resolver, store: store, sender: sender}
}

// Webhook handles POST /webhook. It always answers 200 to Telegram once the
// payload decodes; delivery problems are logged, not surfaced, so Telegram
// doesn't redeliver the same update forever.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "failed to read body", http.StatusInternalServerError)
		return
	}

	var update Update
	if err := json.Unmarshal(body, &update); err != nil {
		http.Error(w, "failed to decode update", http.StatusBadRequest)
		return
	}

	w.WriteHeader(http.StatusOK)

	msg := update.Message
	text := strings.TrimSpace(msg.Text)
	if text == "" || msg.From.IsBot {
		return
	}

	name := msg.From.FirstName
	if name == "" {
		name = "Farmer"
	}
	zap.S().Infow("received message", "from", name, "chat", msg.Chat.ID, "text", text)

	if strings.HasPrefix(text, "/") {
		h.handleCommand(r.Context(), msg.Chat.ID, text)
		return
	}
	h.handleQuestion(r.Context(), msg.Chat.ID, text)
}

func (h *Handler) handleCommand(ctx context.Context, chatID int64, text string) {
	cmd := strings.ToLower(strings.Fields(text)[0])
	// Commands may arrive as /help@BotName in groups.
	if at := strings.Index(cmd, "@"); at > 0 {
		cmd = cmd[:at]
	}

	var reply string
	switch cmd {
	case "/start":
		reply = utils.BuildWelcome()
	case "/help":
		reply = utils.BuildHelp()
	case "/about":
		reply = utils.BuildAbout()
	case "/popular":
		entries, err := h.store.Popular(ctx, 5)
		if err != nil {
			zap.S().Warnw("failed to fetch popular questions", "error", err)
			reply = "Sorry, I couldn't fetch the popular questions right now."
		} else {
			reply = utils.BuildPopular(entries)
		}
	default:
		reply = "Unknown command. Try /help to see what I can do."
	}

	h.send(chatID, reply)
}

func (h *Handler) handleQuestion(ctx context.Context, chatID int64, text string) {
	if err := h.sender.SendTyping(chatID); err != nil {
		zap.S().Debugw("failed to send typing action", "error", err)
	}

	res := h.resolver.Resolve(ctx, text, strconv.FormatInt(chatID, 10))

	reply := res.Answer
	if res.Confidence == domain.ConfidenceGenerated {
		reply += "\n\n" + utils.BuildDisclaimer()
	}
	h.send(chatID, reply)
}

func (h *Handler) send(chatID int64, text string) {
	if err := h.sender.SendMessage(chatID, text); err != nil {
		zap.S().Errorw("failed to send reply", "chat", chatID, "error", err)
	}
}
