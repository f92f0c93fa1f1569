// Package bridge decodes the JSON message protocol spoken between the web
// content and its native WebView host. The capture pipeline only consumes the
// image events; everything else (auth, logout, push) is handled client-side
// and ignored here.
package bridge

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// MessageType identifies a bridge message.
type MessageType string

const (
	ImageSelected MessageType = "IMAGE_SELECTED"
	ImageCaptured MessageType = "IMAGE_CAPTURED"
)

// Message is the envelope every bridge event travels in.
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
	ID      string          `json:"id,omitempty"`
}

// Decode parses a raw bridge message.
func Decode(raw []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, fmt.Errorf("bridge: decoding message: %w", err)
	}
	if msg.Type == "" {
		return nil, fmt.Errorf("bridge: message has no type")
	}
	return &msg, nil
}

// IsImageEvent reports whether the message carries a screenshot payload.
func (m *Message) IsImageEvent() bool {
	return m.Type == ImageSelected || m.Type == ImageCaptured
}

// Image is a decoded screenshot payload.
type Image struct {
	Bytes    []byte
	MIMEType string
}

// ImagePayload extracts and decodes the base64 field of an image event.
// The payload arrives data-URL prefixed ("data:image/png;base64,....") from
// the browser file picker; the native camera sends bare base64. Both are
// accepted.
func (m *Message) ImagePayload() (*Image, error) {
	if !m.IsImageEvent() {
		return nil, fmt.Errorf("bridge: %s is not an image event", m.Type)
	}

	var payload struct {
		Base64 string `json:"base64"`
	}
	if err := json.Unmarshal(m.Payload, &payload); err != nil {
		return nil, fmt.Errorf("bridge: decoding image payload: %w", err)
	}
	if payload.Base64 == "" {
		return nil, fmt.Errorf("bridge: image payload has no base64 field")
	}

	return DecodeDataURL(payload.Base64)
}

// DecodeDataURL decodes base64 image data with or without a data-URL prefix.
func DecodeDataURL(data string) (*Image, error) {
	mimeType := "image/jpeg"

	if strings.HasPrefix(data, "data:") {
		comma := strings.Index(data, ",")
		if comma == -1 {
			return nil, fmt.Errorf("bridge: malformed data URL")
		}
		header := data[len("data:"):comma]
		if semi := strings.Index(header, ";"); semi != -1 {
			header = header[:semi]
		}
		if header != "" {
			mimeType = header
		}
		data = data[comma+1:]
	}

	decoded, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("bridge: decoding base64 image: %w", err)
	}
	if len(decoded) == 0 {
		return nil, fmt.Errorf("bridge: empty image")
	}

	return &Image{Bytes: decoded, MIMEType: mimeType}, nil
}
