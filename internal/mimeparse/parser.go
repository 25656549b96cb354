// Package mimeparse decodes raw internet messages into core.ParsedEmail.
package mimeparse

import (
	"bytes"
	"io"
	"regexp"
	"strings"

	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
	"github.com/mikey/email-fraud-detector/internal/core"
	"github.com/mikey/email-fraud-detector/internal/links"
	"github.com/mikey/email-fraud-detector/internal/utils"
	"go.uber.org/zap"
)

// maxDepth bounds the nesting of multipart containers that is walked
const maxDepth = 16

var tagPattern = regexp.MustCompile(`<[^>]+>`)

// Parser implements core.EmailParser on top of go-message
type Parser struct {
	logger *zap.Logger
	text   *utils.TextProcessor
}

// NewParser creates a new MIME parser
func NewParser(logger *zap.Logger, textProcessor *utils.TextProcessor) *Parser {
	if logger == nil {
		logger = zap.NewNop()
	}
	if textProcessor == nil {
		textProcessor = utils.NewTextProcessor(logger)
	}
	return &Parser{
		logger: logger,
		text:   textProcessor,
	}
}

type accumulator struct {
	body  strings.Builder
	links []string
}

// Parse decodes the raw message. Only a malformed envelope is an error;
// undecodable parts are skipped.
func (p *Parser) Parse(raw []byte) (*core.ParsedEmail, error) {
	entity, err := message.Read(bytes.NewReader(raw))
	if entity == nil || (err != nil && !isRecoverable(err)) {
		if err == nil {
			err = io.ErrUnexpectedEOF
		}
		return nil, &core.ParseError{Err: err}
	}

	header := mail.Header{Header: entity.Header}
	sender := senderAddress(header)

	subject, err := header.Subject()
	if err != nil {
		subject = header.Get("Subject")
	}

	acc := &accumulator{}
	if mr := entity.MultipartReader(); mr != nil {
		p.walk(mr, acc, 0)
	} else if text, ok := p.decode(entity); ok {
		acc.body.WriteString(text)
		acc.links = append(acc.links, links.Extract(text)...)
	}

	return &core.ParsedEmail{
		SenderAddress: sender,
		SenderDomain:  senderDomain(sender),
		Subject:       subject,
		Body:          strings.TrimSpace(acc.body.String()),
		Links:         links.Merge(nil, acc.links...),
		Headers:       collectHeaders(entity.Header),
	}, nil
}

// walk visits every leaf part of a multipart tree
func (p *Parser) walk(mr message.MultipartReader, acc *accumulator, depth int) {
	if depth >= maxDepth {
		p.logger.Debug("Multipart nesting too deep, ignoring remaining parts", zap.Int("depth", depth))
		return
	}

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			return
		}
		if part == nil || (err != nil && !isRecoverable(err)) {
			p.logger.Debug("Failed to read message part", zap.Error(err))
			return
		}

		if inner := part.MultipartReader(); inner != nil {
			p.walk(inner, acc, depth+1)
			continue
		}
		p.readPart(part, acc)
	}
}

// readPart appends the text of a non-attachment text part
func (p *Parser) readPart(part *message.Entity, acc *accumulator) {
	if isAttachment(part.Header) {
		return
	}

	switch mediaType(part.Header) {
	case "text/plain":
		text, ok := p.decode(part)
		if !ok || text == "" {
			return
		}
		acc.body.WriteString(text)
		acc.body.WriteString("\n")
		acc.links = append(acc.links, links.Extract(text)...)
	case "text/html":
		html, ok := p.decode(part)
		if !ok || html == "" {
			return
		}
		// Links come from the markup so href targets are kept
		acc.links = append(acc.links, links.Extract(html)...)
		acc.body.WriteString(tagPattern.ReplaceAllString(html, " "))
		acc.body.WriteString("\n")
	}
}

// decode reads the transfer- and charset-decoded payload as UTF-8 text
func (p *Parser) decode(entity *message.Entity) (string, bool) {
	data, err := io.ReadAll(entity.Body)
	if err != nil {
		p.logger.Debug("Failed to decode part payload",
			zap.String("content_type", entity.Header.Get("Content-Type")),
			zap.Error(err))
		return "", false
	}
	return p.text.SanitizeUTF8(string(data)), true
}

func isRecoverable(err error) bool {
	return message.IsUnknownCharset(err) || message.IsUnknownEncoding(err)
}

func isAttachment(h message.Header) bool {
	return strings.Contains(strings.ToLower(h.Get("Content-Disposition")), "attachment")
}

// mediaType returns the lower-cased media type, text/plain when unusable
func mediaType(h message.Header) string {
	mt, _, err := h.ContentType()
	if mt == "" || (err != nil && !strings.Contains(mt, "/")) {
		return "text/plain"
	}
	return strings.ToLower(mt)
}

// senderAddress returns the address portion of the From header
func senderAddress(h mail.Header) string {
	if addrs, err := h.AddressList("From"); err == nil && len(addrs) > 0 {
		return addrs[0].Address
	}
	return extractEmailAddress(h.Get("From"))
}

// extractEmailAddress extracts the address from headers net/mail rejects,
// such as "Name <email@example.com>" with unquoted specials in the name
func extractEmailAddress(s string) string {
	s = strings.TrimSpace(s)
	start := strings.LastIndex(s, "<")
	end := strings.LastIndex(s, ">")
	if start >= 0 && end > start {
		return strings.TrimSpace(s[start+1 : end])
	}
	if strings.Contains(s, "@") && !strings.ContainsAny(s, " \t,;") {
		return s
	}
	return ""
}

// senderDomain returns the text after the last @ of the address
func senderDomain(address string) string {
	at := strings.LastIndex(address, "@")
	if at < 0 {
		return ""
	}
	return address[at+1:]
}

// collectHeaders lists the header fields in original order as "Name: Value"
func collectHeaders(h message.Header) []string {
	headers := make([]string, 0, h.Len())
	fields := h.Fields()
	for fields.Next() {
		value, err := fields.Text()
		if err != nil {
			value = fields.Value()
		}
		if strings.TrimSpace(value) == "" {
			continue
		}
		headers = append(headers, fields.Key()+": "+value)
	}
	return headers
}
