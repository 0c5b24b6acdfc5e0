// Package messaging is the messaging-provider side of the agent: the MMS
// status callback form, authenticated media download and TwiML replies.
package messaging

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// MaxMedia is the most attachments the provider sends with one message.
const MaxMedia = 10

// MediaItem is one attachment announced in the callback.
type MediaItem struct {
	URL         string
	ContentType string
}

// InboundMMS is the subset of the provider's callback form we use.
type InboundMMS struct {
	From  string
	Body  string
	Media []MediaItem
}

// ParseInbound reads From, Body, NumMedia and the MediaUrl{i} /
// MediaContentType{i} pairs. NumMedia outside 0..MaxMedia is an error.
func ParseInbound(form url.Values) (*InboundMMS, error) {
	msg := &InboundMMS{
		From: strings.TrimSpace(form.Get("From")),
		Body: form.Get("Body"),
	}

	raw := strings.TrimSpace(form.Get("NumMedia"))
	if raw == "" {
		return msg, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return nil, fmt.Errorf("invalid NumMedia %q", raw)
	}
	if n > MaxMedia {
		return nil, fmt.Errorf("NumMedia %d exceeds %d", n, MaxMedia)
	}

	msg.Media = make([]MediaItem, 0, n)
	for i := 0; i < n; i++ {
		msg.Media = append(msg.Media, MediaItem{
			URL:         form.Get(fmt.Sprintf("MediaUrl%d", i)),
			ContentType: form.Get(fmt.Sprintf("MediaContentType%d", i)),
		})
	}
	return msg, nil
}
