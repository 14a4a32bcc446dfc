package models

// Button is a quick-reply button (the Cloud API allows at most 3 per message).
type Button struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// ListRow is one selectable row inside a list section.
type ListRow struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// ListSection groups rows within an interactive list message.
type ListSection struct {
	Title string    `json:"title"`
	Rows  []ListRow `json:"rows"`
}

// WebhookEnvelope mirrors the Meta Cloud API webhook POST body down to the
// message level. Only the fields the bot consumes are declared.
type WebhookEnvelope struct {
	Entry []struct {
		Changes []struct {
			Value struct {
				Messages []InboundMessage `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

// InboundMessage is a single user message from the webhook payload.
type InboundMessage struct {
	From string `json:"from"`
	Type string `json:"type"`
	Text struct {
		Body string `json:"body"`
	} `json:"text"`
	Interactive struct {
		Type        string `json:"type"`
		ButtonReply struct {
			ID string `json:"id"`
		} `json:"button_reply"`
		ListReply struct {
			ID string `json:"id"`
		} `json:"list_reply"`
	} `json:"interactive"`
}

// Body extracts the effective message body: the text for text messages, or
// the selected reply id for interactive messages.
func (m InboundMessage) Body() string {
	switch m.Type {
	case "text":
		return m.Text.Body
	case "interactive":
		switch m.Interactive.Type {
		case "button_reply":
			return m.Interactive.ButtonReply.ID
		case "list_reply":
			return m.Interactive.ListReply.ID
		}
	}
	return ""
}
