package notify

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

// fakeSNS answers the SNS query protocol for the three actions the notifier uses.
type fakeSNS struct {
	mu       sync.Mutex
	requests []url.Values
}

func (f *fakeSNS) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	f.mu.Lock()
	f.requests = append(f.requests, r.PostForm)
	f.mu.Unlock()

	w.Header().Set("Content-Type", "text/xml")
	const ns = `xmlns="http://sns.amazonaws.com/doc/2010-03-31/"`
	meta := `<ResponseMetadata><RequestId>req-1</RequestId></ResponseMetadata>`
	switch r.PostForm.Get("Action") {
	case "CreateTopic":
		arn := "arn:aws:sns:us-east-1:123456789012:" + r.PostForm.Get("Name")
		fmt.Fprintf(w, `<CreateTopicResponse %s><CreateTopicResult><TopicArn>%s</TopicArn></CreateTopicResult>%s</CreateTopicResponse>`, ns, arn, meta)
	case "Subscribe":
		fmt.Fprintf(w, `<SubscribeResponse %s><SubscribeResult><SubscriptionArn>pending confirmation</SubscriptionArn></SubscribeResult>%s</SubscribeResponse>`, ns, meta)
	case "Publish":
		fmt.Fprintf(w, `<PublishResponse %s><PublishResult><MessageId>msg-1</MessageId></PublishResult>%s</PublishResponse>`, ns, meta)
	default:
		http.Error(w, "unexpected action", http.StatusBadRequest)
	}
}

func (f *fakeSNS) actions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.requests))
	for i, r := range f.requests {
		out[i] = r.Get("Action")
	}
	return out
}

func newTestNotifier(t *testing.T) (*SNSNotifier, *fakeSNS) {
	t.Helper()
	fake := &fakeSNS{}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	cfg := aws.Config{
		Region:      "us-east-1",
		Credentials: aws.AnonymousCredentials{},
		HTTPClient:  srv.Client(),
	}
	client := sns.NewFromConfig(cfg, func(o *sns.Options) {
		o.BaseEndpoint = aws.String(srv.URL)
	})
	return &SNSNotifier{client: client}, fake
}

func TestSNSNotifier_EnsureTopic(t *testing.T) {
	n, fake := newTestNotifier(t)

	arn, err := n.EnsureTopic(context.Background(), "Great Tit")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if arn != "arn:aws:sns:us-east-1:123456789012:bird-great-tit-notifications" {
		t.Errorf("unexpected topic arn %s", arn)
	}

	req := fake.requests[0]
	if req.Get("Attributes.entry.1.key") != "DisplayName" || req.Get("Attributes.entry.1.value") != "Great Tit Bird Detections" {
		t.Errorf("expected display name attribute, got %v", req)
	}
}

func TestSNSNotifier_Subscribe(t *testing.T) {
	n, fake := newTestNotifier(t)

	sub, err := n.Subscribe(context.Background(), " Crow ", "birder@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sub.Species != "crow" || sub.Email != "birder@example.com" {
		t.Errorf("unexpected subscription %+v", sub)
	}
	if sub.TopicARN != "arn:aws:sns:us-east-1:123456789012:bird-crow-notifications" {
		t.Errorf("unexpected topic arn %s", sub.TopicARN)
	}
	if sub.SubscriptionARN != "pending confirmation" {
		t.Errorf("unexpected subscription arn %s", sub.SubscriptionARN)
	}

	actions := fake.actions()
	if len(actions) != 2 || actions[0] != "CreateTopic" || actions[1] != "Subscribe" {
		t.Fatalf("unexpected actions %v", actions)
	}
	req := fake.requests[1]
	if req.Get("Protocol") != "email" || req.Get("Endpoint") != "birder@example.com" {
		t.Errorf("unexpected subscribe request %v", req)
	}
}

func TestSNSNotifier_SubscribeRejectsBadEmail(t *testing.T) {
	n, fake := newTestNotifier(t)

	if _, err := n.Subscribe(context.Background(), "crow", "not-an-email"); err == nil {
		t.Fatal("expected error")
	}
	if len(fake.actions()) != 0 {
		t.Error("expected no SNS calls for an invalid email")
	}
}

func TestSNSNotifier_Publish(t *testing.T) {
	n, fake := newTestNotifier(t)

	if err := n.Publish(context.Background(), "owl", "Owl spotted", "1 Owl detected"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	actions := fake.actions()
	if len(actions) != 2 || actions[1] != "Publish" {
		t.Fatalf("unexpected actions %v", actions)
	}
	req := fake.requests[1]
	if req.Get("Subject") != "Owl spotted" || req.Get("Message") != "1 Owl detected" {
		t.Errorf("unexpected publish request %v", req)
	}
	if req.Get("TopicArn") != "arn:aws:sns:us-east-1:123456789012:bird-owl-notifications" {
		t.Errorf("unexpected topic %s", req.Get("TopicArn"))
	}
}
