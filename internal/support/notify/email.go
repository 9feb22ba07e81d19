package notify

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"support-workers/internal/common/aws"
	"support-workers/internal/models"
)

// EmailPublisher mails support staff through SES.
type EmailPublisher struct {
	client aws.SESService
	from   string
	to     []string
}

func NewEmailPublisher(client aws.SESService, from string, to []string) *EmailPublisher {
	return &EmailPublisher{client: client, from: from, to: to}
}

func (p *EmailPublisher) Name() string { return "email" }

func (p *EmailPublisher) Publish(ctx context.Context, event models.SupportEvent) error {
	input, err := aws.PlainTextEmail(p.from, p.to, event.Subject(), renderBody(event))
	if err != nil {
		return err
	}
	_, err = p.client.SendEmail(ctx, input)
	return err
}

func renderBody(event models.SupportEvent) string {
	var b strings.Builder
	line := func(label, value string) {
		if value != "" {
			fmt.Fprintf(&b, "%s: %s\n", label, value)
		}
	}

	line("Evento", string(event.Type))
	line("Ticket", event.TicketNumber)
	line("Usuário", event.UserName)
	line("Sessão", event.SessionID)
	line("Descrição", event.Description)
	if !event.OccurredAt.IsZero() {
		line("Quando", event.OccurredAt.UTC().Format(time.RFC3339))
	}

	keys := make([]string, 0, len(event.Metadata))
	for k := range event.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		line(k, event.Metadata[k])
	}
	return b.String()
}
