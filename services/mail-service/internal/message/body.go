package message

import (
	"encoding/base64"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/stoik/mailview/internal/models"
	"github.com/stoik/mailview/services/mail-service/internal/logger"
)

const (
	NoContent           = "No message content found."
	NoRenderableContent = "No renderable message content found."
)

var (
	// Containers mail clients wrap quoted history in.
	htmlQuoteMarker = regexp.MustCompile(`(?i)` +
		`<div[^>]*\bclass\s*=\s*["']?[^"'>]*\bgmail_quote` + // Gmail
		`|<div[^>]*\bclass\s*=\s*["']?[^"'>]*\byahoo_quoted` + // Yahoo
		`|<div[^>]*\bid\s*=\s*["']?(?:divRplyFwdMsg|appendonsend)\b` + // Outlook
		`|<blockquote[^>]*\btype\s*=\s*["']?cite\b`) // Apple Mail, Thunderbird

	// Attribution lines that start quoted history in plain text.
	textQuoteMarker = regexp.MustCompile(`(?im)` +
		`^[ \t]*On\b.*\bwrote:[ \t]*\r?$` +
		`|^[ \t]*-{2,}\s*Original Message\s*-{2,}[ \t]*\r?$`)
)

// HTMLQuoteOffset returns the byte offset of the first quoted-reply container
// in an HTML body, or -1.
func HTMLQuoteOffset(html string) int {
	if loc := htmlQuoteMarker.FindStringIndex(html); loc != nil {
		return loc[0]
	}
	return -1
}

// TextQuoteOffset returns the byte offset of the first line starting quoted
// history in a plain-text body, or -1.
func TextQuoteOffset(text string) int {
	if loc := textQuoteMarker.FindStringIndex(text); loc != nil {
		return loc[0]
	}
	return -1
}

// Render picks the body to display for a message: HTML when available,
// otherwise plain text, with quoted history cut off.
func Render(parts []*models.Part) models.RenderedBody {
	if len(parts) == 0 {
		return models.RenderedBody{Kind: models.BodyNone, Content: NoContent}
	}

	if p := FindFirstByType(parts, "text/html"); p != nil {
		content := decodePartText(p)
		if i := HTMLQuoteOffset(content); i >= 0 {
			content = content[:i]
		}
		return models.RenderedBody{Kind: models.BodyHTML, Content: content}
	}

	if p := FindFirstByType(parts, "text/plain"); p != nil {
		content := decodePartText(p)
		if i := TextQuoteOffset(content); i >= 0 {
			content = content[:i]
		}
		return models.RenderedBody{Kind: models.BodyText, Content: content}
	}

	return models.RenderedBody{Kind: models.BodyNone, Content: NoRenderableContent}
}

func decodePartText(p *models.Part) string {
	if p.Body.Data == "" {
		return ""
	}
	data, err := DecodeData(p.Body.Data)
	if err != nil {
		logger.Logger.Warn("failed to decode part body",
			zap.String("partId", p.PartID),
			zap.String("mimeType", p.MimeType),
			zap.Error(err))
		return ""
	}
	return string(data)
}

// DecodeData decodes the provider's inline body encoding. Both base64
// alphabets are accepted, with or without padding.
func DecodeData(data string) ([]byte, error) {
	s := strings.Map(func(r rune) rune {
		switch r {
		case '\r', '\n', ' ', '\t':
			return -1
		case '+':
			return '-'
		case '/':
			return '_'
		}
		return r
	}, data)
	return base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "="))
}
