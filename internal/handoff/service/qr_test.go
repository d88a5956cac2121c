package service

import (
	"encoding/base64"
	"testing"
)

func TestBuildURL(t *testing.T) {
	tests := []struct {
		name, base, token, id, path, want string
	}{
		{"default", "https://app.example.com", "a.b.c", "", "", "https://app.example.com/timeclock/mobile/qr?token=a.b.c"},
		{"trailing slash", "https://app.example.com/", "a.b.c", "", "", "https://app.example.com/timeclock/mobile/qr?token=a.b.c"},
		{"id and path", "https://app.example.com", "a.b.c", "42", "/kiosk/checkin", "https://app.example.com/kiosk/checkin?id=42&token=a.b.c"},
		{"path without slash", "https://app.example.com/", "a.b.c", "42", "kiosk", "https://app.example.com/kiosk?id=42&token=a.b.c"},
		{"id only", "https://app.example.com", "a.b.c", "42", "", "https://app.example.com/timeclock/mobile/qr?token=a.b.c"},
		{"escaped id", "https://app.example.com", "a.b.c", "a b&c", "p", "https://app.example.com/p?id=a+b%26c&token=a.b.c"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BuildURL(tt.base, tt.token, tt.id, tt.path); got != tt.want {
				t.Errorf("BuildURL = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRenderPNG(t *testing.T) {
	out, err := RenderPNG("https://app.example.com/timeclock/mobile/qr?token=x", 0)
	if err != nil {
		t.Fatalf("RenderPNG: %v", err)
	}
	png, err := base64.StdEncoding.DecodeString(out)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := []byte{0x89, 'P', 'N', 'G'}
	if len(png) < 4 || string(png[:4]) != string(want) {
		t.Errorf("missing PNG signature")
	}
}
