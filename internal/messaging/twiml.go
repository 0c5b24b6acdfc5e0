package messaging

import "github.com/twilio/twilio-go/twiml"

// Reply bodies sent back to the sender of an MMS.
const (
	ReplyNoMedia      = "No image was found in your message."
	ReplyUploaded     = "Your image was uploaded successfully!"
	ReplyNoneUploaded = "We received your message, but could not process the images. Please try again."
	ReplyFailure      = "Sorry, we couldn't process your image. Please try again later."
)

// fallbackReply is served if TwiML rendering itself fails.
const fallbackReply = `<?xml version="1.0" encoding="UTF-8"?><Response><Message>` + ReplyFailure + `</Message></Response>`

// Reply renders a single-message TwiML response.
func Reply(body string) string {
	out, err := twiml.Messages([]twiml.Element{&twiml.MessagingMessage{Body: body}})
	if err != nil {
		return fallbackReply
	}
	return out
}

// ReplyFor picks the reply for an MMS with received attachments of which
// uploaded were stored.
func ReplyFor(received, uploaded int) string {
	switch {
	case received == 0:
		return Reply(ReplyNoMedia)
	case uploaded > 0:
		return Reply(ReplyUploaded)
	default:
		return Reply(ReplyNoneUploaded)
	}
}
