// Package queue consumes transfer notifications pushed by external watchers.
package queue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"github.com/orris-inc/usdtpay/internal/application/payment/dto"
	paymentUsecases "github.com/orris-inc/usdtpay/internal/application/payment/usecases"
	"github.com/orris-inc/usdtpay/internal/shared/config"
	apperrors "github.com/orris-inc/usdtpay/internal/shared/errors"
	"github.com/orris-inc/usdtpay/internal/shared/goroutine"
	"github.com/orris-inc/usdtpay/internal/shared/logger"
)

const (
	maxMessagesPerReceive = 10
	longPollSeconds       = 20
	receiveErrorBackoff   = 5 * time.Second
)

// MessageClient is the subset of the SQS API the consumer uses.
type MessageClient interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// PaymentIngester credits an order from an externally reported transfer.
type PaymentIngester interface {
	Execute(ctx context.Context, cmd paymentUsecases.IngestPaymentCommand) (*dto.IngestResultDTO, error)
}

// TransferMessage is the JSON body of one queued transfer.
type TransferMessage struct {
	Chain       string      `json:"chain"`
	TxHash      string      `json:"txHash"`
	ToAddress   string      `json:"toAddress"`
	FromAddress string      `json:"fromAddress"`
	Amount      json.Number `json:"amount"`
}

// TransferConsumer long-polls an SQS queue and feeds each message to the
// ingest use case. Messages are deleted once handled or permanently invalid,
// and left for redelivery on transient failures.
type TransferConsumer struct {
	client   MessageClient
	queueURL string
	ingester PaymentIngester
	logger   logger.Interface
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	running  bool
	mu       sync.RWMutex
	backoff  time.Duration
}

// NewSQSClient builds an SQS client. Static credentials are used when both
// keys are configured, otherwise the default AWS credential chain.
func NewSQSClient(ctx context.Context, cfg *config.QueueConfig) (*sqs.Client, error) {
	opts := []func(*awsConfig.LoadOptions) error{
		awsConfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsConfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsConfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return sqs.NewFromConfig(awsCfg), nil
}

func NewTransferConsumer(client MessageClient, queueURL string, ingester PaymentIngester, logger logger.Interface) *TransferConsumer {
	return &TransferConsumer{
		client:   client,
		queueURL: queueURL,
		ingester: ingester,
		logger:   logger.With("queue_url", queueURL),
		stopChan: make(chan struct{}),
		backoff:  receiveErrorBackoff,
	}
}

// Start starts the receive loop
func (c *TransferConsumer) Start(ctx context.Context) {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return
	}
	c.running = true
	c.mu.Unlock()

	c.logger.Infow("starting transfer queue consumer")

	loopCtx, cancel := context.WithCancel(ctx)
	goroutine.Tracked(&c.wg, c.logger, "transfer-consumer-stop", func() {
		defer cancel()
		select {
		case <-c.stopChan:
		case <-loopCtx.Done():
		}
	})
	goroutine.Tracked(&c.wg, c.logger, "transfer-consumer-loop", func() {
		defer cancel()
		c.run(loopCtx)
	})
}

// Stop cancels any in-flight long poll and waits for the loop to exit
func (c *TransferConsumer) Stop() {
	c.stopOnce.Do(func() {
		c.mu.Lock()
		c.running = false
		c.mu.Unlock()

		close(c.stopChan)
		c.wg.Wait()
		c.logger.Infow("transfer queue consumer stopped")
	})
}

func (c *TransferConsumer) IsRunning() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.running
}

func (c *TransferConsumer) run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		if err := c.ReceiveOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Warnw("failed to receive messages", "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(c.backoff):
			}
		}
	}
}

// ReceiveOnce performs one long poll and handles every returned message.
func (c *TransferConsumer) ReceiveOnce(ctx context.Context) error {
	output, err := c.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(c.queueURL),
		MaxNumberOfMessages: maxMessagesPerReceive,
		WaitTimeSeconds:     longPollSeconds,
	})
	if err != nil {
		return err
	}

	if len(output.Messages) > 0 {
		c.logger.Debugw("received transfer messages", "count", len(output.Messages))
	}

	for _, message := range output.Messages {
		if !c.handle(ctx, message) {
			continue
		}
		if _, err := c.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
			QueueUrl:      aws.String(c.queueURL),
			ReceiptHandle: message.ReceiptHandle,
		}); err != nil {
			c.logger.Warnw("failed to delete message",
				"message_id", aws.ToString(message.MessageId),
				"error", err,
			)
		}
	}
	return nil
}

// handle reports whether the message is done with and can be deleted.
func (c *TransferConsumer) handle(ctx context.Context, message types.Message) bool {
	messageID := aws.ToString(message.MessageId)

	var msg TransferMessage
	dec := json.NewDecoder(bytes.NewReader([]byte(aws.ToString(message.Body))))
	dec.UseNumber()
	if err := dec.Decode(&msg); err != nil {
		c.logger.Warnw("dropping undecodable transfer message",
			"message_id", messageID,
			"error", err,
		)
		return true
	}

	cmd := paymentUsecases.IngestPaymentCommand{
		Chain:       msg.Chain,
		TxHash:      msg.TxHash,
		ToAddress:   msg.ToAddress,
		FromAddress: msg.FromAddress,
	}
	if msg.Amount != "" {
		cmd.Amount = msg.Amount
	}

	result, err := c.ingester.Execute(ctx, cmd)
	switch {
	case err == nil:
		c.logger.Infow("queued transfer credited order",
			"message_id", messageID,
			"order_no", result.MatchedOrderNo,
			"tx_hash", msg.TxHash,
		)
		return true
	case apperrors.IsValidationError(err), apperrors.IsNotFoundError(err):
		c.logger.Infow("queued transfer did not match",
			"message_id", messageID,
			"tx_hash", msg.TxHash,
			"reason", err.Error(),
		)
		return true
	default:
		c.logger.Errorw("failed to ingest queued transfer, leaving for redelivery",
			"message_id", messageID,
			"tx_hash", msg.TxHash,
			"error", err,
		)
		return false
	}
}
