package domain

// BlockType identifies a Slack Block Kit block.
type BlockType string

const (
	BlockTypeContext BlockType = "context"
	BlockTypeSection BlockType = "section"
	BlockTypeVideo   BlockType = "video"
)

// TextObject is a Slack Block Kit text object.
type TextObject struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Emoji bool   `json:"emoji,omitempty"`
}

// Mrkdwn builds a mrkdwn text object.
func Mrkdwn(text string) TextObject {
	return TextObject{Type: "mrkdwn", Text: text}
}

// PlainText builds a plain_text text object.
func PlainText(text string) TextObject {
	return TextObject{Type: "plain_text", Text: text, Emoji: true}
}

// Block is one Slack Block Kit block. The populated fields depend on Type:
// context blocks carry Elements, section blocks carry Text, and video blocks
// carry VideoURL/AltText/Title/ThumbnailURL.
type Block struct {
	Type         BlockType    `json:"type"`
	Text         *TextObject  `json:"text,omitempty"`
	Elements     []TextObject `json:"elements,omitempty"`
	VideoURL     string       `json:"video_url,omitempty"`
	AltText      string       `json:"alt_text,omitempty"`
	Title        *TextObject  `json:"title,omitempty"`
	ThumbnailURL string       `json:"thumbnail_url,omitempty"`
}

// UnfurlPayload is the rendered preview for one link: an ordered sequence of
// blocks. Payloads are always rebuilt from scratch, never patched in place.
type UnfurlPayload struct {
	Blocks []Block `json:"blocks"`
}

// LinkEvent is an inbound "link shared" notification from the chat platform.
type LinkEvent struct {
	Channel   string
	MessageTS string
	Links     []string
}

// Ref returns the message coordinates for one link in the event.
func (e LinkEvent) Ref(url string) MessageRef {
	return MessageRef{
		Channel:   e.Channel,
		MessageTS: e.MessageTS,
		URL:       url,
	}
}
