package testutil

import (
	"context"
	"sync"

	"github.com/splitsub/splitsub/internal/email"
	"github.com/splitsub/splitsub/internal/types"
)

var _ email.Sender = (*FakeEmailSender)(nil)

type SentEmail struct {
	Kind     string
	To       string
	Username string
	Token    string
	PlanName string
	Cents    int64
}

// FakeEmailSender records notifications instead of sending them
type FakeEmailSender struct {
	mu   sync.Mutex
	Sent []SentEmail
}

func NewFakeEmailSender() *FakeEmailSender {
	return &FakeEmailSender{}
}

func (f *FakeEmailSender) SendVerificationCode(ctx context.Context, to, username, token string) {
	f.record(SentEmail{Kind: "verification", To: to, Username: username, Token: token})
}

func (f *FakeEmailSender) SendPasswordReset(ctx context.Context, to, username, token string) {
	f.record(SentEmail{Kind: "password_reset", To: to, Username: username, Token: token})
}

func (f *FakeEmailSender) SendPriceChangeNotice(ctx context.Context, to, planName string, perUnitCents int64, frequency types.CycleFrequency) {
	f.record(SentEmail{Kind: "price_change", To: to, PlanName: planName, Cents: perUnitCents})
}

func (f *FakeEmailSender) record(e SentEmail) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Sent = append(f.Sent, e)
}

// ByKind returns the recorded emails of one kind
func (f *FakeEmailSender) ByKind(kind string) []SentEmail {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := []SentEmail{}
	for _, e := range f.Sent {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}
