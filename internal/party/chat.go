package party

import (
	"strings"

	"github.com/vovakirdan/watchparty-server/internal/utils"
)

// SendMessage appends a chat message to the room transcript. It reports false
// when the room does not exist or the text is blank.
func (r *Registry) SendMessage(roomID, userID, displayName, text string) (ChatMessage, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return ChatMessage{}, false
	}
	if runes := []rune(text); len(runes) > r.limits.MaxMessageLength {
		text = strings.TrimSpace(string(runes[:r.limits.MaxMessageLength]))
	}

	rm, ok := r.lookup(roomID)
	if !ok {
		return ChatMessage{}, false
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()
	if rm.closed {
		return ChatMessage{}, false
	}

	now := r.now()
	msg := ChatMessage{
		ID:          utils.NewMessageID(now),
		UserID:      userID,
		DisplayName: displayName,
		Text:        text,
		Timestamp:   now,
	}
	rm.appendMessage(msg, r.limits.MaxMessages)
	rm.lastActivity = now

	return msg, true
}
