package handlers

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"patient-companion-server/internal/messaging"
	"patient-companion-server/internal/services"
	"patient-companion-server/internal/utils"
)

// MessagingHandler serves the messaging provider's callbacks. The provider
// expects HTTP 200 with TwiML whatever happened inside.
type MessagingHandler struct {
	media *services.MediaService
	log   *zap.Logger
}

// NewMessagingHandler creates a new messaging handler.
func NewMessagingHandler(media *services.MediaService, log *zap.Logger) *MessagingHandler {
	return &MessagingHandler{media: media, log: log}
}

// TwilioWebhook re-hosts every attachment of an inbound MMS.
func (h *MessagingHandler) TwilioWebhook(c *gin.Context) {
	defer func() {
		if r := recover(); r != nil {
			h.log.Error("mms webhook panicked", zap.String("panic", fmt.Sprintf("%v", r)))
			utils.XML(c, messaging.Reply(messaging.ReplyFailure))
		}
	}()

	if err := c.Request.ParseForm(); err != nil {
		h.log.Error("parsing mms callback", zap.Error(err))
		utils.XML(c, messaging.Reply(messaging.ReplyFailure))
		return
	}
	msg, err := messaging.ParseInbound(c.Request.PostForm)
	if err != nil {
		h.log.Error("parsing mms callback", zap.Error(err))
		utils.XML(c, messaging.Reply(messaging.ReplyFailure))
		return
	}

	h.log.Info("mms received", zap.String("from", msg.From), zap.Int("num_media", len(msg.Media)))
	if len(msg.Media) == 0 {
		utils.XML(c, messaging.ReplyFor(0, 0))
		return
	}

	res := h.media.ProcessInbound(c.Request.Context(), msg)
	if res.Uploaded == 0 {
		h.log.Warn("no media stored", zap.String("from", msg.From), zap.Int("received", res.Received))
	}
	utils.XML(c, messaging.ReplyFor(res.Received, res.Uploaded))
}

type incomingText struct {
	From string `json:"From" form:"From"`
	Body string `json:"Body" form:"Body"`
}

// IncomingText acknowledges a plain text message. JSON and form bodies are
// both accepted.
func (h *MessagingHandler) IncomingText(c *gin.Context) {
	var msg incomingText
	var err error
	if strings.HasPrefix(c.ContentType(), "application/json") {
		err = c.ShouldBindJSON(&msg)
	} else {
		err = c.ShouldBind(&msg)
	}
	if err != nil {
		h.log.Warn("unreadable incoming text", zap.Error(err))
		utils.Error(c, "Error processing text", nil)
		return
	}

	h.log.Info("incoming text", zap.String("from", msg.From), zap.Int("length", len(msg.Body)))
	utils.Success(c, "Text received", nil)
}
