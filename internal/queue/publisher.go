package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// SQSSender is the subset of the SQS client the publisher uses.
type SQSSender interface {
	SendMessage(ctx context.Context, in *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// Publisher enqueues host notifications for a Consumer to dispatch.
type Publisher struct {
	client   SQSSender
	queueURL string
	timeout  time.Duration
}

func NewPublisher(client SQSSender, queueURL string) *Publisher {
	return &Publisher{client: client, queueURL: queueURL, timeout: 5 * time.Second}
}

// Publish wraps payload in an Envelope and sends it. payload must be valid JSON.
func (p *Publisher) Publish(ctx context.Context, hook string, payload []byte) error {
	body, err := json.Marshal(Envelope{Hook: hook, Payload: payload})
	if err != nil {
		return fmt.Errorf("marshal %s envelope: %w", hook, err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	_, err = p.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(p.queueURL),
		MessageBody: aws.String(string(body)),
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", hook, err)
	}
	return nil
}
