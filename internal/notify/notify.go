// Package notify manages per-species SNS topics and email subscriptions.
package notify

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/kozaktomas/bird-tagger/internal/asset"
	"github.com/kozaktomas/bird-tagger/internal/constants"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Notifier publishes detection alerts and manages subscriptions.
type Notifier interface {
	// EnsureTopic creates the species topic if needed and returns its ARN.
	EnsureTopic(ctx context.Context, species string) (string, error)
	// Subscribe subscribes an email address to the species topic.
	// The subscription stays pending until the recipient confirms it.
	Subscribe(ctx context.Context, species, email string) (*Subscription, error)
	// Publish sends a message to everyone subscribed to the species topic.
	Publish(ctx context.Context, species, subject, message string) error
}

// Subscription is the result of a subscribe call.
type Subscription struct {
	Species         string `json:"species"`
	Email           string `json:"email"`
	TopicARN        string `json:"topic_arn"`
	SubscriptionARN string `json:"subscription_arn"`
}

// TopicName returns bird-<species>-notifications with the species lowercased
// and inner whitespace replaced by dashes.
func TopicName(species string) string {
	name := strings.Join(strings.Fields(strings.ToLower(species)), "-")
	return constants.TopicPrefix + name + constants.TopicSuffix
}

// DisplayName is the human-readable topic label shown in emails.
func DisplayName(species string) string {
	return cases.Title(language.English).String(strings.TrimSpace(species)) + " Bird Detections"
}

// ValidateEmail accepts a bare RFC 5322 address with a dotted domain. Display
// names are rejected; SNS confirms the address itself.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Name != "" || addr.Address != email {
		return fmt.Errorf("%w: invalid email address %q", asset.ErrValidation, email)
	}
	if _, domain, _ := strings.Cut(addr.Address, "@"); !strings.Contains(domain, ".") {
		return fmt.Errorf("%w: email domain %q is not fully qualified", asset.ErrValidation, domain)
	}
	return nil
}

// SNSNotifier implements Notifier on Amazon SNS.
type SNSNotifier struct {
	client *sns.Client
}

var _ Notifier = (*SNSNotifier)(nil)

func NewSNSNotifier(ctx context.Context, region string) (*SNSNotifier, error) {
	if region == "" {
		return nil, errors.New("SNS region is required")
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return &SNSNotifier{client: sns.NewFromConfig(cfg)}, nil
}

// EnsureTopic relies on CreateTopic being idempotent for identical attributes.
func (n *SNSNotifier) EnsureTopic(ctx context.Context, species string) (string, error) {
	if strings.TrimSpace(species) == "" {
		return "", fmt.Errorf("%w: species is required", asset.ErrValidation)
	}
	out, err := n.client.CreateTopic(ctx, &sns.CreateTopicInput{
		Name: aws.String(TopicName(species)),
		Attributes: map[string]string{
			"DisplayName": DisplayName(species),
		},
	})
	if err != nil {
		return "", fmt.Errorf("create topic %s: %w", TopicName(species), err)
	}
	return aws.ToString(out.TopicArn), nil
}

func (n *SNSNotifier) Subscribe(ctx context.Context, species, email string) (*Subscription, error) {
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	topicARN, err := n.EnsureTopic(ctx, species)
	if err != nil {
		return nil, err
	}

	out, err := n.client.Subscribe(ctx, &sns.SubscribeInput{
		TopicArn: aws.String(topicARN),
		Protocol: aws.String("email"),
		Endpoint: aws.String(strings.TrimSpace(email)),
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe %s to %s: %w", email, topicARN, err)
	}

	return &Subscription{
		Species:         strings.ToLower(strings.TrimSpace(species)),
		Email:           strings.TrimSpace(email),
		TopicARN:        topicARN,
		SubscriptionARN: aws.ToString(out.SubscriptionArn),
	}, nil
}

func (n *SNSNotifier) Publish(ctx context.Context, species, subject, message string) error {
	topicARN, err := n.EnsureTopic(ctx, species)
	if err != nil {
		return err
	}
	_, err = n.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(topicARN),
		Subject:  aws.String(subject),
		Message:  aws.String(message),
	})
	if err != nil {
		return fmt.Errorf("publish to %s: %w", topicARN, err)
	}
	return nil
}
