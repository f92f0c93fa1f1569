package bridge

import (
	"encoding/base64"
	"testing"
)

var pngBytes = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}

func TestDecode(t *testing.T) {
	raw := `{"type":"IMAGE_SELECTED","payload":{"base64":"aGk="},"id":"msg-1"}`

	msg, err := Decode([]byte(raw))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if msg.Type != ImageSelected || msg.ID != "msg-1" {
		t.Errorf("message = %+v", msg)
	}
	if !msg.IsImageEvent() {
		t.Error("IMAGE_SELECTED should be an image event")
	}
}

func TestDecode_Invalid(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", "hello"},
		{"no type", `{"payload":{}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode([]byte(tt.raw)); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestImagePayload_DataURL(t *testing.T) {
	b64 := base64.StdEncoding.EncodeToString(pngBytes)
	raw := `{"type":"IMAGE_CAPTURED","payload":{"base64":"data:image/png;base64,` + b64 + `"}}`

	msg, err := Decode([]byte(raw))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	img, err := msg.ImagePayload()
	if err != nil {
		t.Fatalf("ImagePayload failed: %v", err)
	}
	if img.MIMEType != "image/png" {
		t.Errorf("mime = %q, want image/png", img.MIMEType)
	}
	if len(img.Bytes) != len(pngBytes) {
		t.Errorf("decoded %d bytes, want %d", len(img.Bytes), len(pngBytes))
	}
}

func TestImagePayload_BareBase64DefaultsToJPEG(t *testing.T) {
	b64 := base64.StdEncoding.EncodeToString([]byte{0xff, 0xd8, 0xff})
	raw := `{"type":"IMAGE_SELECTED","payload":{"base64":"` + b64 + `"}}`

	msg, _ := Decode([]byte(raw))
	img, err := msg.ImagePayload()
	if err != nil {
		t.Fatalf("ImagePayload failed: %v", err)
	}
	if img.MIMEType != "image/jpeg" {
		t.Errorf("mime = %q, want image/jpeg default", img.MIMEType)
	}
}

func TestImagePayload_NonImageEvent(t *testing.T) {
	msg := &Message{Type: "LOGOUT"}
	if _, err := msg.ImagePayload(); err == nil {
		t.Error("expected error for non-image event")
	}
}

func TestDecodeDataURL_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"malformed data url", "data:image/png;base64"},
		{"bad base64", "data:image/png;base64,@@@@"},
		{"empty image", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeDataURL(tt.data); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}
