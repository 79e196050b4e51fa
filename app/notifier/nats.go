package notifier

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/nats-io/nats.go"
)

// JetStreamPublisher is satisfied by nats.JetStreamContext.
type JetStreamPublisher interface {
	Publish(subj string, data []byte, opts ...nats.PubOpt) (*nats.PubAck, error)
}

// NATSSender hands the OTP to an external notification service through a
// JetStream subject. The stream covering the subject is provisioned outside
// this service.
type NATSSender struct {
	js      JetStreamPublisher
	subject string
}

func NewNATSSender(js JetStreamPublisher, subject string) *NATSSender {
	return &NATSSender{js: js, subject: subject}
}

func (s *NATSSender) SendPasswordResetOtp(ctx context.Context, n OtpNotification) error {
	if s == nil || s.js == nil {
		return errors.New("nil nats sender")
	}

	data, err := json.Marshal(n)
	if err != nil {
		return err
	}

	_, err = s.js.Publish(s.subject, data, nats.Context(ctx))
	return err
}

// ConnectJetStream opens a NATS connection and its JetStream context.
func ConnectJetStream(url string, opts ...nats.Option) (*nats.Conn, nats.JetStreamContext, error) {
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, nil, err
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, nil, err
	}

	return nc, js, nil
}

// CloseJetStream drains the connection, falling back to a hard close.
func CloseJetStream(nc *nats.Conn) {
	if nc == nil {
		return
	}
	if err := nc.Drain(); err != nil {
		nc.Close()
	}
}
