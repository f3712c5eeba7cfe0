// Package queue consumes host notifications from an SQS queue and dispatches
// them on the hook bus.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/ignite/commerce-tracker/internal/hooks"
	"github.com/ignite/commerce-tracker/internal/pkg/logger"
)

// SQSAPI is the subset of the SQS client the consumer uses.
type SQSAPI interface {
	ReceiveMessage(ctx context.Context, in *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, in *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// Envelope is the queue message body.
type Envelope struct {
	Hook    string          `json:"hook"`
	Payload json.RawMessage `json:"payload"`
}

type Consumer struct {
	sqsClient   SQSAPI
	queueURL    string
	bus         *hooks.Bus
	waitSeconds int32
	errBackoff  time.Duration
	done        chan struct{}
	stopped     chan struct{}
}

func NewConsumer(sqsClient SQSAPI, queueURL string, bus *hooks.Bus, waitSeconds int32) *Consumer {
	if waitSeconds <= 0 || waitSeconds > 20 {
		waitSeconds = 20
	}
	return &Consumer{
		sqsClient:   sqsClient,
		queueURL:    queueURL,
		bus:         bus,
		waitSeconds: waitSeconds,
		errBackoff:  5 * time.Second,
		done:        make(chan struct{}),
		stopped:     make(chan struct{}),
	}
}

func (c *Consumer) Start(ctx context.Context) {
	logger.Info("queue: SQS hook consumer started", "queue", c.queueURL)
	go c.poll(ctx)
}

// Stop ends polling and waits for the in-flight batch to finish.
func (c *Consumer) Stop() {
	close(c.done)
	<-c.stopped
}

func (c *Consumer) poll(ctx context.Context) {
	defer close(c.stopped)
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.done:
			return
		default:
		}

		out, err := c.sqsClient.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
			QueueUrl:            aws.String(c.queueURL),
			MaxNumberOfMessages: 10,
			WaitTimeSeconds:     c.waitSeconds,
		})
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Warn("queue: SQS receive error", "error", err)
			select {
			case <-time.After(c.errBackoff):
			case <-ctx.Done():
				return
			case <-c.done:
				return
			}
			continue
		}

		for _, msg := range out.Messages {
			c.handle(ctx, aws.ToString(msg.Body))
			c.deleteMessage(ctx, msg.ReceiptHandle)
		}
	}
}

// handle dispatches one message. Malformed and unknown messages are logged
// and dropped; tracking outcomes never cause redelivery.
func (c *Consumer) handle(ctx context.Context, body string) {
	var env Envelope
	if err := json.Unmarshal([]byte(body), &env); err != nil {
		logger.Warn("queue: bad message", "error", err)
		return
	}
	if err := hooks.Deliver(ctx, c.bus, env.Hook, env.Payload); err != nil {
		if errors.Is(err, hooks.ErrUnknownHook) {
			logger.Warn("queue: unknown hook", "hook", env.Hook)
			return
		}
		logger.Warn("queue: undeliverable message", "hook", env.Hook, "error", err)
	}
}

func (c *Consumer) deleteMessage(ctx context.Context, handle *string) {
	_, err := c.sqsClient.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(c.queueURL),
		ReceiptHandle: handle,
	})
	if err != nil {
		logger.Warn("queue: SQS delete error", "error", err)
	}
}
