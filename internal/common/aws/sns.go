// internal/common/aws/sns.go
package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// SNSService is the part of the SNS API used to fan events out to subscribers.
type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

func NewSNSClient(ctx context.Context, region string) (*sns.Client, error) {
	cfg, err := LoadConfig(ctx, region)
	if err != nil {
		return nil, err
	}
	return sns.NewFromConfig(cfg), nil
}

// TopicMessage builds a publish request carrying the event type as a message
// attribute so subscribers can filter on it.
func TopicMessage(topicARN, subject, eventType, body string) (*sns.PublishInput, error) {
	if topicARN == "" {
		return nil, fmt.Errorf("sns topic arn is required")
	}
	input := &sns.PublishInput{
		TopicArn: aws.String(topicARN),
		Message:  aws.String(body),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"eventType": {
				DataType:    aws.String("String"),
				StringValue: aws.String(eventType),
			},
		},
	}
	// SNS rejects subjects of 100 characters or more.
	if subject != "" && len(subject) < 100 {
		input.Subject = aws.String(subject)
	}
	return input, nil
}
