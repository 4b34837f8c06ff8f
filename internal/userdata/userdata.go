package userdata

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// Renderer renders one template with varying substitutions.
type Renderer struct {
	template string
}

// NewRenderer returns a renderer for template.
func NewRenderer(template string) *Renderer {
	return &Renderer{template: template}
}

// LoadRenderer reads the template at path.
func LoadRenderer(path string) (*Renderer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read user data template: %w", err)
	}
	return NewRenderer(string(data)), nil
}

// Render returns the template with subs applied.
func (r *Renderer) Render(subs map[string]*string) string {
	return Render(r.template, subs)
}

// RenderCompressed returns the gzip-compressed rendering.
func (r *Renderer) RenderCompressed(subs map[string]*string) ([]byte, error) {
	return Compress([]byte(r.Render(subs)))
}

// Render replaces every %TOKEN% occurrence for each key of subs. A nil value
// replaces the token with the empty string. Tokens are applied in sorted key
// order.
func Render(template string, subs map[string]*string) string {
	keys := make([]string, 0, len(subs))
	for k := range subs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := template
	for _, k := range keys {
		val := ""
		if v := subs[k]; v != nil {
			val = *v
		}
		out = strings.ReplaceAll(out, "%"+k+"%", val)
	}
	return out
}

// Compress gzips data.
func Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return nil, err
	}
	if _, err := zw.Write(data); err != nil {
		return nil, fmt.Errorf("failed to compress user data: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to compress user data: %w", err)
	}
	return buf.Bytes(), nil
}

// Decompress reverses Compress.
func Decompress(data []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to read compressed user data: %w", err)
	}
	defer func() { _ = zr.Close() }()
	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress user data: %w", err)
	}
	return out, nil
}

// Ptr is a convenience for building substitution maps.
func Ptr(s string) *string {
	return &s
}
