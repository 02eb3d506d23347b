package services

import (
	"context"
	"time"

	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"
)

// Notifier delivers a text message to an address (a phone number).
type Notifier interface {
	Send(ctx context.Context, to, body string) error
}

type TwilioNotifier struct {
	client *twilio.RestClient
	from   string
}

func NewTwilioNotifier(accountSid, authToken, from string) *TwilioNotifier {
	return &TwilioNotifier{
		client: twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: accountSid,
			Password: authToken,
		}),
		from: from,
	}
}

func (n *TwilioNotifier) Send(ctx context.Context, to, body string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(n.from)
	params.SetBody(body)

	_, err := n.client.Api.CreateMessage(params)
	return err
}

// LogNotifier only logs; used when no SMS provider is configured.
type LogNotifier struct {
	Log *zap.Logger
}

func (n LogNotifier) Send(ctx context.Context, to, body string) error {
	n.Log.Info("notification", zap.String("to", to), zap.String("body", body))
	return nil
}

const notifyTimeout = 10 * time.Second

// Dispatcher sends notifications in the background. Callers never wait
// for delivery. A nil Dispatcher drops everything.
type Dispatcher struct {
	notifier Notifier
	log      *zap.Logger
}

func NewDispatcher(n Notifier, log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{notifier: n, log: log}
}

func (d *Dispatcher) Dispatch(to, body string) {
	if d == nil || d.notifier == nil || to == "" {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := d.notifier.Send(ctx, to, body); err != nil {
			d.log.Warn("notification failed", zap.String("to", to), zap.Error(err))
		}
	}()
}
