// Package chat holds the conversation model and the controller that owns it.
package chat

import (
	"strings"
	"time"
)

// PartKind tags the variant held by a Part.
type PartKind string

const (
	PartText  PartKind = "text"
	PartImage PartKind = "image"
)

// Part is one piece of a message: either text or an image reference.
type Part struct {
	Kind PartKind `json:"type"`
	Text string   `json:"text,omitempty"`
	URL  string   `json:"url,omitempty"` // display URL for images
}

// TextPart returns a text part.
func TextPart(text string) Part {
	return Part{Kind: PartText, Text: text}
}

// ImagePart returns an image part pointing at url.
func ImagePart(url string) Part {
	return Part{Kind: PartImage, URL: url}
}

// Sender identifies who authored a message.
type Sender string

const (
	SenderUser  Sender = "user"
	SenderModel Sender = "model"
)

// Message is a single chat turn half. Messages are never mutated once appended.
type Message struct {
	ID     string `json:"id"`
	Sender Sender `json:"sender"`
	Parts  []Part `json:"parts"`
}

// Text joins the text parts of the message.
func (m Message) Text() string {
	var texts []string
	for _, p := range m.Parts {
		if p.Kind == PartText && p.Text != "" {
			texts = append(texts, p.Text)
		}
	}
	return strings.Join(texts, "\n")
}

// Images returns the URLs of all image parts.
func (m Message) Images() []string {
	var urls []string
	for _, p := range m.Parts {
		if p.Kind == PartImage {
			urls = append(urls, p.URL)
		}
	}
	return urls
}

// ChatHistoryItem is a listing entry for a saved conversation.
type ChatHistoryItem struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	UpdatedAt time.Time `json:"updated_at"`
}

// State is a read-only snapshot of everything the presentation layer renders.
type State struct {
	Messages      []Message `json:"messages"`
	Loading       bool      `json:"loading"`
	Error         string    `json:"error,omitempty"`
	CurrentChatID string    `json:"current_chat_id,omitempty"`
	SidebarOpen   bool      `json:"sidebar_open"`
}

func cloneMessages(msgs []Message) []Message {
	if msgs == nil {
		return []Message{}
	}
	out := make([]Message, len(msgs))
	for i, m := range msgs {
		out[i] = m
		out[i].Parts = append([]Part(nil), m.Parts...)
	}
	return out
}
