package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
	"time"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/yuriscavalcante/rh360/internal/credential/domain"
	"github.com/yuriscavalcante/rh360/internal/security"
)

const (
	defaultQRPath  = "/timeclock/mobile/qr"
	defaultQRWidth = 300
)

// QRCode is the payload returned to a client that asked for a hand-off QR code.
type QRCode struct {
	QRCodeBase64     string `json:"qrCodeBase64"`
	URL              string `json:"url"`
	Token            string `json:"token"`
	ExpiresInMinutes int64  `json:"expiresInMinutes"`
}

// BuildURL returns the link encoded in the QR code. With both id and path it is
// {base}{/path}?id=...&token=...; otherwise {base}/timeclock/mobile/qr?token=....
func BuildURL(base, token, id, path string) string {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	id = strings.TrimSpace(id)
	path = strings.TrimSpace(path)
	if id != "" && path != "" {
		if !strings.HasPrefix(path, "/") {
			path = "/" + path
		}
		return base + path + "?id=" + url.QueryEscape(id) + "&token=" + url.QueryEscape(token)
	}
	return base + defaultQRPath + "?token=" + url.QueryEscape(token)
}

// RenderPNG encodes content as a width x width PNG QR code (error correction M) and returns it base64-encoded.
func RenderPNG(content string, width int) (string, error) {
	if width <= 0 {
		width = defaultQRWidth
	}
	png, err := qrcode.Encode(content, qrcode.Medium, width)
	if err != nil {
		return "", fmt.Errorf("rendering qr code: %w", err)
	}
	return base64.StdEncoding.EncodeToString(png), nil
}

// GenerateQR issues a hand-off credential for principalID and renders its link as a QR code.
// id and path are optional and select the link target.
func (a *Authority) GenerateQR(ctx context.Context, principalID, id, path string) (*QRCode, error) {
	lctx, cancel := a.verifier.WithLedgerTimeout(ctx)
	user, err := a.users.GetByID(lctx, principalID)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("loading principal: %w", err)
	}
	if user == nil {
		return nil, ErrPrincipalNotFound
	}
	if a.policy != nil {
		allowed, err := a.policy.AllowIssue(ctx, user, security.ClassHandoff)
		if err != nil {
			return nil, fmt.Errorf("issuance policy: %w", err)
		}
		if !allowed {
			return nil, ErrIssueDenied
		}
	}

	issued, err := a.Issue(ctx, domain.Principal{ID: user.ID, Email: user.Email, Role: user.Role})
	if err != nil {
		return nil, err
	}
	link := BuildURL(a.cfg.FrontendURL, issued.Token, id, path)
	png, err := RenderPNG(link, a.cfg.QRWidth)
	if err != nil {
		return nil, err
	}
	return &QRCode{
		QRCodeBase64:     png,
		URL:              link,
		Token:            issued.Token,
		ExpiresInMinutes: int64(a.cfg.TTL / time.Minute),
	}, nil
}
