// internal/common/aws/ses.go
package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// SESService is the part of the SES API used to mail support staff.
type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

func NewSESClient(ctx context.Context, region string) (*ses.Client, error) {
	cfg, err := LoadConfig(ctx, region)
	if err != nil {
		return nil, err
	}
	return ses.NewFromConfig(cfg), nil
}

// PlainTextEmail builds a text-only message from one sender to many recipients.
func PlainTextEmail(from string, to []string, subject, body string) (*ses.SendEmailInput, error) {
	if from == "" {
		return nil, fmt.Errorf("email sender is required")
	}
	if len(to) == 0 {
		return nil, fmt.Errorf("at least one email recipient is required")
	}
	return &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: append([]string(nil), to...),
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject), Charset: aws.String("UTF-8")},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(body), Charset: aws.String("UTF-8")},
			},
		},
		Source: aws.String(from),
	}, nil
}
