package notify

import (
	"context"
	"errors"
	"io"
	"net"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"github.com/mikey/form-spam-filter/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testForm() *core.Form {
	return &core.Form{
		ID:          "form-1",
		Name:        "Contact",
		NotifyEmail: "owner@example.com",
	}
}

func testSubmission() *core.Submission {
	return &core.Submission{
		ID:         "sub-1",
		FormID:     "form-1",
		RemoteAddr: "203.0.113.9",
		CreatedAt:  time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC),
		Data: core.Payload{
			"email":   "visitor@example.org",
			"message": "Hello there",
			"tags":    []any{"a", "b"},
		},
	}
}

func TestRender(t *testing.T) {
	msg := render("[Form]", testForm(), testSubmission())

	assert.Equal(t, "[Form] New submission: Contact", msg.Subject)
	assert.Contains(t, msg.Body, "Form: Contact (form-1)\n")
	assert.Contains(t, msg.Body, "Submission: sub-1\n")
	assert.Contains(t, msg.Body, "Remote address: 203.0.113.9\n")
	assert.Contains(t, msg.Body, "email: visitor@example.org\nmessage: Hello there\ntags.0: a\ntags.1: b\n")
}

func TestRender_NoPrefix(t *testing.T) {
	assert.Equal(t, "New submission: Contact", render("", testForm(), testSubmission()).Subject)
}

// recordingBackend is an in-process SMTP server that keeps delivered messages
type recordingBackend struct {
	mu       sync.Mutex
	from     string
	rcpts    []string
	data     string
	authUser string
}

func (b *recordingBackend) NewSession(c *smtp.Conn) (smtp.Session, error) {
	return &recordingSession{backend: b}, nil
}

type recordingSession struct {
	backend *recordingBackend
}

func (s *recordingSession) AuthMechanisms() []string {
	return []string{sasl.Plain}
}

func (s *recordingSession) Auth(mech string) (sasl.Server, error) {
	return sasl.NewPlainServer(func(identity, username, password string) error {
		if username != "relay" || password != "secret" {
			return errors.New("invalid credentials")
		}
		s.backend.mu.Lock()
		s.backend.authUser = username
		s.backend.mu.Unlock()
		return nil
	}), nil
}

func (s *recordingSession) Mail(from string, _ *smtp.MailOptions) error {
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()
	s.backend.from = from
	return nil
}

func (s *recordingSession) Rcpt(to string, _ *smtp.RcptOptions) error {
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()
	s.backend.rcpts = append(s.backend.rcpts, to)
	return nil
}

func (s *recordingSession) Data(r io.Reader) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()
	s.backend.data = string(b)
	return nil
}

func (s *recordingSession) Reset() {}

func (s *recordingSession) Logout() error { return nil }

func startSMTPServer(t *testing.T) (*recordingBackend, string, int) {
	t.Helper()

	backend := &recordingBackend{}
	server := smtp.NewServer(backend)
	server.Domain = "localhost"
	server.AllowInsecureAuth = true
	server.ReadTimeout = 5 * time.Second
	server.WriteTimeout = 5 * time.Second

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go server.Serve(l)
	t.Cleanup(func() { server.Close() })

	host, portStr, err := net.SplitHostPort(l.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return backend, host, port
}

func TestSMTPNotifier_Notify(t *testing.T) {
	backend, host, port := startSMTPServer(t)
	n := NewSMTPNotifier(host, port, "relay", "secret", false, 5*time.Second,
		"forms@example.net", "[Form]", zap.NewNop())

	require.NoError(t, n.Notify(context.Background(), testForm(), testSubmission()))

	backend.mu.Lock()
	defer backend.mu.Unlock()
	assert.Equal(t, "relay", backend.authUser)
	assert.Equal(t, "forms@example.net", backend.from)
	assert.Equal(t, []string{"owner@example.com"}, backend.rcpts)
	assert.Contains(t, backend.data, "Subject: [Form] New submission: Contact\r\n")
	assert.Contains(t, backend.data, "To: owner@example.com\r\n")
	assert.Contains(t, backend.data, "@example.net>\r\n")
	assert.Contains(t, backend.data, "message: Hello there\r\n")
}

func TestSMTPNotifier_SkipsFormsWithoutRecipient(t *testing.T) {
	n := NewSMTPNotifier("127.0.0.1", 1, "", "", false, time.Second, "forms@example.net", "", zap.NewNop())
	form := testForm()
	form.NotifyEmail = ""

	assert.NoError(t, n.Notify(context.Background(), form, testSubmission()))
}

func TestSMTPNotifier_ConnectionRefused(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().(*net.TCPAddr)
	l.Close()

	n := NewSMTPNotifier("127.0.0.1", addr.Port, "", "", false, time.Second, "forms@example.net", "", zap.NewNop())

	assert.Error(t, n.Notify(context.Background(), testForm(), testSubmission()))
}

type fakeSES struct {
	input *sesv2.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String("ses-msg-1")}, nil
}

func TestSESNotifier_Notify(t *testing.T) {
	client := &fakeSES{}
	n := NewSESNotifier(client, "forms@example.net", "[Form]", zap.NewNop())

	require.NoError(t, n.Notify(context.Background(), testForm(), testSubmission()))

	require.NotNil(t, client.input)
	assert.Equal(t, "forms@example.net", aws.ToString(client.input.FromEmailAddress))
	assert.Equal(t, []string{"owner@example.com"}, client.input.Destination.ToAddresses)
	assert.Equal(t, "[Form] New submission: Contact", aws.ToString(client.input.Content.Simple.Subject.Data))
	assert.Contains(t, aws.ToString(client.input.Content.Simple.Body.Text.Data), "email: visitor@example.org")
}

func TestSESNotifier_Error(t *testing.T) {
	n := NewSESNotifier(&fakeSES{err: errors.New("throttled")}, "forms@example.net", "", zap.NewNop())

	assert.ErrorContains(t, n.Notify(context.Background(), testForm(), testSubmission()), "throttled")
}

func TestSESNotifier_SkipsFormsWithoutRecipient(t *testing.T) {
	client := &fakeSES{}
	form := testForm()
	form.NotifyEmail = ""

	require.NoError(t, NewSESNotifier(client, "forms@example.net", "", zap.NewNop()).Notify(context.Background(), form, testSubmission()))
	assert.Nil(t, client.input)
}

func TestLogNotifier(t *testing.T) {
	assert.NoError(t, NewLogNotifier(zap.NewNop()).Notify(context.Background(), testForm(), testSubmission()))
}
