// Package mock provides an in-memory notifier for tests.
package mock

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/kozaktomas/bird-tagger/internal/notify"
)

// Message is a published notification.
type Message struct {
	Species string
	Subject string
	Body    string
}

// Notifier records topics, subscriptions and published messages.
type Notifier struct {
	mu            sync.Mutex
	Topics        map[string]string
	Subscriptions []notify.Subscription
	Messages      []Message

	PublishError   error
	SubscribeError error
}

var _ notify.Notifier = (*Notifier)(nil)

func NewNotifier() *Notifier {
	return &Notifier{Topics: make(map[string]string)}
}

func (m *Notifier) ensure(species string) string {
	name := notify.TopicName(species)
	arn, ok := m.Topics[name]
	if !ok {
		arn = "arn:aws:sns:us-east-1:000000000000:" + name
		m.Topics[name] = arn
	}
	return arn
}

func (m *Notifier) EnsureTopic(_ context.Context, species string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ensure(species), nil
}

func (m *Notifier) Subscribe(_ context.Context, species, email string) (*notify.Subscription, error) {
	if err := notify.ValidateEmail(email); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SubscribeError != nil {
		return nil, m.SubscribeError
	}
	sub := notify.Subscription{
		Species:         strings.ToLower(strings.TrimSpace(species)),
		Email:           strings.TrimSpace(email),
		TopicARN:        m.ensure(species),
		SubscriptionARN: "pending confirmation",
	}
	m.Subscriptions = append(m.Subscriptions, sub)
	return &sub, nil
}

func (m *Notifier) Publish(_ context.Context, species, subject, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PublishError != nil {
		return fmt.Errorf("publish %s: %w", species, m.PublishError)
	}
	m.ensure(species)
	m.Messages = append(m.Messages, Message{Species: species, Subject: subject, Body: message})
	return nil
}
