package http

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
)

// Flash levels
const (
	LevelSuccess = "success"
	LevelInfo    = "info"
	LevelWarning = "warning"
	LevelDanger  = "danger"
)

const (
	flashCookie     = "fileshelf_flash"
	flashPendingKey = "flash_pending"
	flashMaxAge     = 60
	flashMaxText    = 512
	flashMaxCount   = 5
)

// Message is a one-shot notice shown on the next view
type Message struct {
	Level string `json:"level"`
	Text  string `json:"text"`
}

// flash queues a message for the next view. Messages added during one
// request accumulate in a single cookie.
func flash(c *gin.Context, level, text string) {
	text = truncate(text, flashMaxText)

	var pending []Message
	if v, ok := c.Get(flashPendingKey); ok {
		pending = v.([]Message)
	}
	pending = append(pending, Message{Level: level, Text: text})
	if len(pending) > flashMaxCount {
		pending = pending[len(pending)-flashMaxCount:]
	}
	c.Set(flashPendingKey, pending)

	raw, err := json.Marshal(pending)
	if err != nil {
		return
	}
	setFlashCookie(c, base64.RawURLEncoding.EncodeToString(raw), flashMaxAge)
}

// truncate cuts text to at most limit bytes on a rune boundary
func truncate(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + "..."
}

// takeFlash returns queued messages and clears them
func takeFlash(c *gin.Context) []Message {
	messages := []Message{}

	value, err := c.Cookie(flashCookie)
	if err != nil || value == "" {
		return messages
	}
	setFlashCookie(c, "", -1)

	raw, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return messages
	}
	if err := json.Unmarshal(raw, &messages); err != nil {
		return []Message{}
	}
	return messages
}

func setFlashCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(flashCookie, value, maxAge, "/", "", false, true)
}
