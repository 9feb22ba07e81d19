package notify

import (
	"context"

	"support-workers/internal/common/aws"
	"support-workers/internal/models"
)

type SNSPublisher struct {
	client   aws.SNSService
	topicARN string
}

func NewSNSPublisher(client aws.SNSService, topicARN string) *SNSPublisher {
	return &SNSPublisher{client: client, topicARN: topicARN}
}

func (p *SNSPublisher) Name() string { return "sns" }

func (p *SNSPublisher) Publish(ctx context.Context, event models.SupportEvent) error {
	data, err := encode(event)
	if err != nil {
		return err
	}
	input, err := aws.TopicMessage(p.topicARN, event.Subject(), string(event.Type), string(data))
	if err != nil {
		return err
	}
	_, err = p.client.Publish(ctx, input)
	return err
}
