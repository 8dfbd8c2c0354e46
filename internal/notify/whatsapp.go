package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"

	"portfolio-digest-bot/internal/digest"
	"portfolio-digest-bot/internal/interfaces"
	"portfolio-digest-bot/internal/types"
)

// WhatsAppParams carries the Twilio credentials and addressing for the
// messaging channel. From and To use Twilio's whatsapp:+<number> form.
type WhatsAppParams struct {
	AccountSID string
	AuthToken  string
	From       string
	To         string
}

// messageCreator is the slice of the Twilio REST client we call.
type messageCreator interface {
	CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error)
}

// WhatsApp delivers digests through Twilio's WhatsApp messaging API.
type WhatsApp struct {
	params WhatsAppParams
	api    messageCreator
}

// Compile-time interface check
var _ interfaces.Notifier = (*WhatsApp)(nil)

// NewWhatsApp validates the params and builds the Twilio REST client.
// Missing credentials are a startup error, not a DeliveryError.
func NewWhatsApp(params WhatsAppParams) (*WhatsApp, error) {
	if params.AccountSID == "" || params.AuthToken == "" {
		return nil, fmt.Errorf("whatsapp notifier requires TWILIO_ACCOUNT_SID and TWILIO_AUTH_TOKEN")
	}
	if params.From == "" || params.To == "" {
		return nil, fmt.Errorf("whatsapp notifier requires TWILIO_WHATSAPP_FROM and WHATSAPP_TO")
	}
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: params.AccountSID,
		Password: params.AuthToken,
	})
	return &WhatsApp{params: params, api: client.Api}, nil
}

func (w *WhatsApp) Deliver(ctx context.Context, d types.Digest) (types.DeliveryResult, error) {
	// The Twilio client offers no context-aware variant, so honor
	// cancellation before the call.
	if err := ctx.Err(); err != nil {
		return types.DeliveryResult{}, &types.DeliveryError{Channel: types.ChannelWhatsApp, Err: err}
	}

	msgParams := &openapi.CreateMessageParams{}
	msgParams.SetFrom(w.params.From)
	msgParams.SetTo(w.params.To)
	msgParams.SetBody(digest.Render(d))

	msg, err := w.api.CreateMessage(msgParams)
	if err != nil {
		return types.DeliveryResult{}, &types.DeliveryError{Channel: types.ChannelWhatsApp, Err: err}
	}

	res := types.DeliveryResult{Channel: types.ChannelWhatsApp, SentAt: time.Now()}
	if msg != nil && msg.Sid != nil {
		res.MessageID = *msg.Sid
	}
	return res, nil
}
