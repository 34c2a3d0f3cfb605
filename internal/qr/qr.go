// Package qr turns UPI deep links into displayable QR images.
package qr

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"strconv"

	"github.com/skip2/go-qrcode"
)

// Renderer converts a URI payload into an image URL the client can display.
type Renderer interface {
	Render(uri string) (string, error)
}

// DefaultRemoteBase is the public QR image service.
const DefaultRemoteBase = "https://api.qrserver.com/v1/create-qr-code/"

// RemoteRenderer builds a URL on an external QR image service. It performs no I/O.
type RemoteRenderer struct {
	BaseURL string
	Size    int
}

// Render implements Renderer.
func (r RemoteRenderer) Render(uri string) (string, error) {
	if uri == "" {
		return "", fmt.Errorf("Render: empty payload")
	}
	base := r.BaseURL
	if base == "" {
		base = DefaultRemoteBase
	}
	size := r.Size
	if size <= 0 {
		size = 200
	}
	dim := strconv.Itoa(size)
	return base + "?size=" + dim + "x" + dim + "&data=" + url.QueryEscape(uri), nil
}

// LocalRenderer encodes the QR code in-process and returns a PNG data URI.
type LocalRenderer struct {
	Size  int
	Level qrcode.RecoveryLevel
}

// Render implements Renderer.
func (r LocalRenderer) Render(uri string) (string, error) {
	if uri == "" {
		return "", fmt.Errorf("Render: empty payload")
	}
	size := r.Size
	if size <= 0 {
		size = 256
	}
	png, err := qrcode.Encode(uri, r.Level, size)
	if err != nil {
		return "", fmt.Errorf("Render: encode: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

// New picks a renderer by name: "local" or anything else for remote.
func New(kind string) Renderer {
	if kind == "local" {
		return LocalRenderer{Level: qrcode.Medium}
	}
	return RemoteRenderer{}
}

var (
	_ Renderer = RemoteRenderer{}
	_ Renderer = LocalRenderer{}
)
