package filter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"time"

	"github.com/emersion/go-smtp"
	"github.com/mikey/email-fraud-detector/internal/core"
	"github.com/mikey/email-fraud-detector/internal/ports"
	"go.uber.org/zap"
)

// HeaderNames are the header fields added to forwarded messages
type HeaderNames struct {
	ReportID    string
	Credibility string
	Similar     string
	Error       string
}

// DefaultHeaderNames returns the standard X-Fraud-* header names
func DefaultHeaderNames() HeaderNames {
	return HeaderNames{
		ReportID:    "X-Fraud-Report-ID",
		Credibility: "X-Fraud-Credibility",
		Similar:     "X-Fraud-Similar",
		Error:       "X-Fraud-Analysis-Error",
	}
}

// PostfixFilter implements a Postfix content filter. Every message is
// analyzed, annotated and re-injected; none are rejected.
type PostfixFilter struct {
	service         ports.MessageAnalyzer
	logger          *zap.Logger
	listenAddr      string
	server          *smtp.Server
	headers         HeaderNames
	postfixAddr     string
	postfixPort     int
	postfixEnabled  bool
	analysisTimeout time.Duration
}

// NewPostfixFilter creates a new Postfix content filter
func NewPostfixFilter(
	service ports.MessageAnalyzer,
	logger *zap.Logger,
	listenAddr string,
	headers HeaderNames,
	postfixAddr string,
	postfixPort int,
	postfixEnabled bool,
	analysisTimeout time.Duration,
) *PostfixFilter {
	defaults := DefaultHeaderNames()
	if headers.ReportID == "" {
		headers.ReportID = defaults.ReportID
	}
	if headers.Credibility == "" {
		headers.Credibility = defaults.Credibility
	}
	if headers.Similar == "" {
		headers.Similar = defaults.Similar
	}
	if headers.Error == "" {
		headers.Error = defaults.Error
	}
	if analysisTimeout <= 0 {
		analysisTimeout = 30 * time.Second
	}

	return &PostfixFilter{
		service:         service,
		logger:          logger,
		listenAddr:      listenAddr,
		headers:         headers,
		postfixAddr:     postfixAddr,
		postfixPort:     postfixPort,
		postfixEnabled:  postfixEnabled,
		analysisTimeout: analysisTimeout,
	}
}

// Start starts the Postfix filter service
func (f *PostfixFilter) Start() error {
	f.server = smtp.NewServer(&smtpBackend{filter: f})

	f.server.Addr = f.listenAddr
	f.server.Domain = "localhost"
	f.server.ReadTimeout = 30 * time.Second
	f.server.WriteTimeout = 30 * time.Second
	f.server.MaxMessageBytes = 30 * 1024 * 1024 // 30MB
	f.server.MaxRecipients = 50
	f.server.AllowInsecureAuth = true

	f.logger.Info("Postfix filter starting", zap.String("address", f.listenAddr))

	go func() {
		if err := f.server.ListenAndServe(); err != nil {
			if err != smtp.ErrServerClosed {
				f.logger.Error("SMTP server error", zap.Error(err))
			}
		}
	}()

	return nil
}

// Stop stops the Postfix filter service
func (f *PostfixFilter) Stop() error {
	if f.server != nil {
		return f.server.Close()
	}
	return nil
}

// ProcessMessage analyzes a raw message and returns its fraud report
func (f *PostfixFilter) ProcessMessage(ctx context.Context, raw []byte) (*core.FraudReport, error) {
	return f.service.Analyze(ctx, raw)
}

// Annotate analyzes raw and returns it with the fraud headers prepended. The
// original header block and body are kept byte for byte.
func (f *PostfixFilter) Annotate(ctx context.Context, raw []byte) ([]byte, *core.FraudReport) {
	ctx, cancel := context.WithTimeout(ctx, f.analysisTimeout)
	defer cancel()

	var out bytes.Buffer
	report, err := f.service.Analyze(ctx, raw)
	if err != nil {
		var parseErr *core.ParseError
		if errors.As(err, &parseErr) {
			f.logger.Warn("Passing through unparseable message", zap.Error(err))
		} else {
			f.logger.Error("Failed to analyze message", zap.Error(err))
		}
		writeHeader(&out, f.headers.Error, err.Error())
		out.Write(raw)
		return out.Bytes(), nil
	}

	writeHeader(&out, f.headers.ReportID, report.ID)
	writeHeader(&out, f.headers.Credibility, report.CredibilityPercentage)
	writeHeader(&out, f.headers.Similar, SimilarSummary(report))
	out.Write(raw)
	return out.Bytes(), report
}

// SimilarSummary describes the closest labeled sample of a report
func SimilarSummary(report *core.FraudReport) string {
	if report.SimilarityStatus != core.StatusComputed {
		return string(core.StatusUnavailable)
	}
	if len(report.Matches) == 0 {
		return "none"
	}
	top := report.Matches[0]
	label := top.Metadata.Label
	if label == "" {
		label = "unlabeled"
	}
	return fmt.Sprintf("label=%s; distance=%.4f; matches=%d", label, top.Distance, len(report.Matches))
}

// writeHeader writes one header field, folding any line breaks in value
func writeHeader(w io.Writer, name, value string) {
	value = strings.Join(strings.Fields(value), " ")
	fmt.Fprintf(w, "%s: %s\r\n", name, value)
}

// sendToPostfix sends the processed email back to Postfix on the configured port using go-smtp
func (f *PostfixFilter) sendToPostfix(sender string, recipients []string, emailData []byte) error {
	postfixAddr := net.JoinHostPort(f.postfixAddr, fmt.Sprint(f.postfixPort))

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}

	conn, err := net.DialTimeout("tcp", postfixAddr, 10*time.Second)
	if err != nil {
		return fmt.Errorf("failed to connect to Postfix: %w", err)
	}

	if err := conn.SetDeadline(time.Now().Add(30 * time.Second)); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set connection deadline: %w", err)
	}

	c := smtp.NewClient(conn)
	defer c.Close()

	if err := c.Hello(hostname); err != nil {
		return fmt.Errorf("EHLO failed: %w", err)
	}

	if err := c.Mail(sender, nil); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}

	recipientOK := false
	for _, recipient := range recipients {
		if err := c.Rcpt(recipient, nil); err != nil {
			f.logger.Warn("RCPT TO failed for recipient",
				zap.String("recipient", recipient),
				zap.Error(err))
		} else {
			recipientOK = true
		}
	}

	if !recipientOK {
		return fmt.Errorf("all recipients were rejected")
	}

	wc, err := c.Data()
	if err != nil {
		return fmt.Errorf("DATA command failed: %w", err)
	}

	if _, err := wc.Write(emailData); err != nil {
		wc.Close()
		return fmt.Errorf("failed to send email data: %w", err)
	}

	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	if err := c.Quit(); err != nil {
		// the message is already accepted
		f.logger.Warn("QUIT command failed", zap.Error(err))
	}

	return nil
}

// smtpBackend implements the go-smtp Backend interface
type smtpBackend struct {
	filter *PostfixFilter
}

// NewSession creates a new SMTP session
func (b *smtpBackend) NewSession(c *smtp.Conn) (smtp.Session, error) {
	return &smtpSession{
		filter:     b.filter,
		recipients: make([]string, 0),
	}, nil
}

// smtpSession implements the go-smtp Session interface
type smtpSession struct {
	filter     *PostfixFilter
	sender     string
	recipients []string
}

// Reset resets the session state
func (s *smtpSession) Reset() {
	s.sender = ""
	s.recipients = make([]string, 0)
}

// Mail sets the sender address
func (s *smtpSession) Mail(from string, _ *smtp.MailOptions) error {
	s.sender = from
	return nil
}

// Rcpt adds a recipient
func (s *smtpSession) Rcpt(to string, _ *smtp.RcptOptions) error {
	s.recipients = append(s.recipients, to)
	return nil
}

// Data analyzes the message and forwards the annotated copy
func (s *smtpSession) Data(r io.Reader) error {
	rawData, err := io.ReadAll(r)
	if err != nil {
		s.filter.logger.Error("Failed to read message data", zap.Error(err))
		return err
	}

	annotated, report := s.filter.Annotate(context.Background(), rawData)

	if s.filter.postfixEnabled {
		if err := s.filter.sendToPostfix(s.sender, s.recipients, annotated); err != nil {
			s.filter.logger.Error("Failed to send email back to Postfix",
				zap.Error(err),
				zap.String("sender", s.sender))
			return err
		}
	} else {
		s.filter.logger.Warn("Postfix forwarding disabled, this is likely a misconfiguration")
	}

	if report == nil {
		s.filter.logger.Info("Forwarded message without analysis", zap.String("from", s.sender))
		return nil
	}

	s.filter.logger.Info("Processed email",
		zap.String("from", s.sender),
		zap.String("report_id", report.ID),
		zap.String("sender_domain", report.Email.SenderDomain),
		zap.String("credibility", report.CredibilityPercentage),
		zap.String("similarity_status", string(report.SimilarityStatus)),
		zap.Int("matches", len(report.Matches)))

	return nil
}

// Logout handles SMTP logout
func (s *smtpSession) Logout() error {
	return nil
}
