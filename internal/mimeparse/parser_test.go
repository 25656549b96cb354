package mimeparse

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/mikey/email-fraud-detector/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

const multipartMessage = "From: \"A\" <a@sub.example.com>\r\n" +
	"To: b@example.org\r\n" +
	"Subject: Invoice overdue\r\n" +
	"MIME-Version: 1.0\r\n" +
	"Content-Type: multipart/mixed; boundary=\"XYZ\"\r\n" +
	"\r\n" +
	"--XYZ\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n" +
	"\r\n" +
	"Pay at https://pay.example/now\r\n" +
	"--XYZ\r\n" +
	"Content-Type: text/html; charset=utf-8\r\n" +
	"\r\n" +
	"<p>Visit <a href=\"https://html.example/login\">here</a></p>\r\n" +
	"--XYZ\r\n" +
	"Content-Type: text/plain\r\n" +
	"Content-Disposition: attachment; filename=\"secret.txt\"\r\n" +
	"\r\n" +
	"hidden https://attached.example/x\r\n" +
	"--XYZ--\r\n"

type ParserTestSuite struct {
	suite.Suite
	parser *Parser
}

func (s *ParserTestSuite) SetupTest() {
	s.parser = NewParser(zap.NewNop(), nil)
}

func TestParserTestSuite(t *testing.T) {
	suite.Run(t, new(ParserTestSuite))
}

func (s *ParserTestSuite) TestDisplayNameSender() {
	raw := "From: \"A\" <a@sub.example.com>\r\nSubject: hi\r\n\r\nhello\r\n"

	email, err := s.parser.Parse([]byte(raw))
	require.NoError(s.T(), err)

	assert.Equal(s.T(), "a@sub.example.com", email.SenderAddress)
	assert.Equal(s.T(), "sub.example.com", email.SenderDomain)
	assert.Equal(s.T(), "hi", email.Subject)
	assert.Equal(s.T(), "hello", email.Body)
}

func (s *ParserTestSuite) TestSinglePartLinks() {
	raw := "From: x@evil.example\r\n\r\nClick http://evil.example/x now\r\n"

	email, err := s.parser.Parse([]byte(raw))
	require.NoError(s.T(), err)

	assert.Equal(s.T(), []string{"http://evil.example/x"}, email.Links)
	assert.Equal(s.T(), "Click http://evil.example/x now", email.Body)
}

func (s *ParserTestSuite) TestMultipartSkipsAttachments() {
	email, err := s.parser.Parse([]byte(multipartMessage))
	require.NoError(s.T(), err)

	assert.Equal(s.T(), []string{"https://html.example/login", "https://pay.example/now"}, email.Links)
	assert.Contains(s.T(), email.Body, "Pay at https://pay.example/now")
	assert.Contains(s.T(), email.Body, "Visit")
	assert.NotContains(s.T(), email.Body, "hidden")
	assert.NotContains(s.T(), email.Body, "<a")
	assert.NotContains(s.T(), email.Body, "</p>")
}

func (s *ParserTestSuite) TestHeadersKeepOriginalOrder() {
	email, err := s.parser.Parse([]byte(multipartMessage))
	require.NoError(s.T(), err)

	require.GreaterOrEqual(s.T(), len(email.Headers), 3)
	assert.Equal(s.T(), `From: "A" <a@sub.example.com>`, email.Headers[0])
	assert.Equal(s.T(), "To: b@example.org", email.Headers[1])
	assert.Equal(s.T(), "Subject: Invoice overdue", email.Headers[2])
}

func (s *ParserTestSuite) TestEmptyHeaderValuesSkipped() {
	raw := "From: a@example.com\r\nX-Empty:\r\nSubject: s\r\n\r\nbody\r\n"

	email, err := s.parser.Parse([]byte(raw))
	require.NoError(s.T(), err)

	assert.Equal(s.T(), []string{"From: a@example.com", "Subject: s"}, email.Headers)
}

func (s *ParserTestSuite) TestMissingFromAndSubject() {
	email, err := s.parser.Parse([]byte("To: b@example.org\r\n\r\njust text\r\n"))
	require.NoError(s.T(), err)

	assert.Empty(s.T(), email.SenderAddress)
	assert.Empty(s.T(), email.SenderDomain)
	assert.Empty(s.T(), email.Subject)
	assert.Equal(s.T(), "just text", email.Body)
}

func (s *ParserTestSuite) TestEncodedSubjectAndBase64Body() {
	raw := "From: a@example.com\r\n" +
		"Subject: =?UTF-8?B?SGVsbG8gV29ybGQ=?=\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"Content-Transfer-Encoding: base64\r\n" +
		"\r\n" +
		"VmlzaXQgaHR0cHM6Ly9iNjQuZXhhbXBsZS9h\r\n"

	email, err := s.parser.Parse([]byte(raw))
	require.NoError(s.T(), err)

	assert.Equal(s.T(), "Hello World", email.Subject)
	assert.Equal(s.T(), "Visit https://b64.example/a", email.Body)
	assert.Equal(s.T(), []string{"https://b64.example/a"}, email.Links)
}

func (s *ParserTestSuite) TestMalformedEnvelope() {
	_, err := s.parser.Parse([]byte("this is not a header line\r\n\r\nbody\r\n"))
	require.Error(s.T(), err)

	var parseErr *core.ParseError
	assert.True(s.T(), errors.As(err, &parseErr))
}

func (s *ParserTestSuite) TestUnknownCharsetPartIsKept() {
	raw := "From: a@example.com\r\n" +
		"Content-Type: text/plain; charset=x-made-up\r\n" +
		"\r\n" +
		"plain words\r\n"

	email, err := s.parser.Parse([]byte(raw))
	require.NoError(s.T(), err)
	assert.Equal(s.T(), "plain words", email.Body)
}

func TestSenderDomainProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)
	parser := NewParser(zap.NewNop(), nil)

	properties.Property("sender domain is the text after the last @", prop.ForAll(
		func(local, domain string) bool {
			address := local + "@" + domain + ".Example.COM"
			raw := fmt.Sprintf("From: \"Someone\" <%s>\r\n\r\nbody\r\n", address)

			email, err := parser.Parse([]byte(raw))
			if err != nil {
				return false
			}
			at := strings.LastIndex(email.SenderAddress, "@")
			return email.SenderAddress == address &&
				email.SenderDomain == email.SenderAddress[at+1:]
		},
		gen.Identifier(),
		gen.Identifier().Map(strings.ToUpper),
	))

	properties.TestingRun(t)
}

func (s *ParserTestSuite) TestCorruptPartDoesNotDropSiblings() {
	raw := "From: a@bank.example\r\n" +
		"Subject: mixed\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: multipart/mixed; boundary=\"B\"\r\n" +
		"\r\n" +
		"--B\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"\r\n" +
		"good http://ok.example/a\r\n" +
		"--B\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"Content-Transfer-Encoding: base64\r\n" +
		"\r\n" +
		"!!!not base64 http://bad.example/x\r\n" +
		"--B--\r\n"

	email, err := s.parser.Parse([]byte(raw))
	require.NoError(s.T(), err)

	assert.Equal(s.T(), "good http://ok.example/a", email.Body)
	assert.Equal(s.T(), []string{"http://ok.example/a"}, email.Links)
	assert.NotContains(s.T(), email.Body, "bad.example")
}
