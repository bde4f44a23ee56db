package infrastructure

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"
)

// CommandStreamName is the JetStream stream carrying engine commands
const CommandStreamName = "betting_commands"

// CommandHandler applies one encoded command
type CommandHandler interface {
	HandleMessage(ctx context.Context, data []byte) error
}

// NATSCommandSubscriber feeds commands from a durable JetStream consumer to the handler
type NATSCommandSubscriber struct {
	natsClient *NATSClient
	subject    string
	handler    CommandHandler
}

// NewNATSCommandSubscriber creates a new command subscriber
func NewNATSCommandSubscriber(natsClient *NATSClient, subject string, handler CommandHandler) *NATSCommandSubscriber {
	return &NATSCommandSubscriber{
		natsClient: natsClient,
		subject:    subject,
		handler:    handler,
	}
}

// Start ensures the command stream exists and begins consuming
func (s *NATSCommandSubscriber) Start(ctx context.Context) error {
	if err := s.natsClient.EnsureStream(CommandStreamName, []string{s.subject}, "Betting engine commands"); err != nil {
		return fmt.Errorf("failed to ensure command stream: %w", err)
	}

	return s.natsClient.Subscribe(s.subject, func(data []byte) error {
		log.WithFields(log.Fields{
			"subject": s.subject,
			"size":    len(data),
		}).Debug("Received command")
		return s.handler.HandleMessage(ctx, data)
	})
}
