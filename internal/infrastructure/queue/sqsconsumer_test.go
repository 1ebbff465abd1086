package queue

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orris-inc/usdtpay/internal/application/payment/dto"
	paymentUsecases "github.com/orris-inc/usdtpay/internal/application/payment/usecases"
	apperrors "github.com/orris-inc/usdtpay/internal/shared/errors"
	"github.com/orris-inc/usdtpay/internal/shared/logger"
)

type fakeSQS struct {
	mu       sync.Mutex
	batches  [][]types.Message
	deleted  []string
	inputs   []*sqs.ReceiveMessageInput
	recvErr  error
	received chan struct{}
}

func (f *fakeSQS) ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error) {
	f.mu.Lock()
	f.inputs = append(f.inputs, params)
	if f.recvErr != nil {
		f.mu.Unlock()
		return nil, f.recvErr
	}
	if len(f.batches) == 0 {
		f.mu.Unlock()
		if f.received != nil {
			select {
			case f.received <- struct{}{}:
			default:
			}
		}
		<-ctx.Done()
		return nil, ctx.Err()
	}
	batch := f.batches[0]
	f.batches = f.batches[1:]
	f.mu.Unlock()
	return &sqs.ReceiveMessageOutput{Messages: batch}, nil
}

func (f *fakeSQS) DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, aws.ToString(params.ReceiptHandle))
	return &sqs.DeleteMessageOutput{}, nil
}

func (f *fakeSQS) Deleted() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deleted...)
}

type fakeIngester struct {
	mu    sync.Mutex
	cmds  []paymentUsecases.IngestPaymentCommand
	errBy map[string]error
}

func (f *fakeIngester) Execute(ctx context.Context, cmd paymentUsecases.IngestPaymentCommand) (*dto.IngestResultDTO, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cmds = append(f.cmds, cmd)
	if err := f.errBy[cmd.TxHash]; err != nil {
		return nil, err
	}
	return &dto.IngestResultDTO{MatchedOrderNo: "ORD-" + cmd.TxHash, Credited: "100.00"}, nil
}

func message(handle, body string) types.Message {
	return types.Message{
		MessageId:     aws.String("id-" + handle),
		ReceiptHandle: aws.String(handle),
		Body:          aws.String(body),
	}
}

func TestTransferConsumer_ReceiveOnce(t *testing.T) {
	client := &fakeSQS{batches: [][]types.Message{{
		message("ok", `{"chain":"TRC20","txHash":"a1","toAddress":"TAddr","fromAddress":"TFrom","amount":10.37}`),
		message("nomatch", `{"chain":"TRC20","txHash":"a2","toAddress":"TAddr","amount":"10.40"}`),
		message("invalid", `{"chain":"ETH","txHash":"a3","toAddress":"x","amount":"1"}`),
		message("transient", `{"chain":"BSC","txHash":"a4","toAddress":"0xabc","amount":"2"}`),
		message("garbage", `not json`),
	}}}
	ingester := &fakeIngester{errBy: map[string]error{
		"a2": apperrors.NewNotFoundError("no live order matches the transfer"),
		"a3": apperrors.NewValidationError("invalid chain", "ETH"),
		"a4": errors.New("database is locked"),
	}}

	c := NewTransferConsumer(client, "https://sqs.example/queue", ingester, logger.NewNopLogger())
	require.NoError(t, c.ReceiveOnce(context.Background()))

	assert.ElementsMatch(t, []string{"ok", "nomatch", "invalid", "garbage"}, client.Deleted())

	require.Len(t, ingester.cmds, 4)
	first := ingester.cmds[0]
	assert.Equal(t, "TRC20", first.Chain)
	assert.Equal(t, "TFrom", first.FromAddress)
	assert.Equal(t, json.Number("10.37"), first.Amount)

	input := client.inputs[0]
	assert.Equal(t, "https://sqs.example/queue", aws.ToString(input.QueueUrl))
	assert.Equal(t, int32(10), input.MaxNumberOfMessages)
	assert.Equal(t, int32(20), input.WaitTimeSeconds)
}

func TestTransferConsumer_MissingAmountStaysNil(t *testing.T) {
	client := &fakeSQS{batches: [][]types.Message{{
		message("m", `{"chain":"TRC20","txHash":"a1","toAddress":"TAddr"}`),
	}}}
	ingester := &fakeIngester{}

	c := NewTransferConsumer(client, "q", ingester, logger.NewNopLogger())
	require.NoError(t, c.ReceiveOnce(context.Background()))

	require.Len(t, ingester.cmds, 1)
	assert.Nil(t, ingester.cmds[0].Amount)
}

func TestTransferConsumer_ReceiveError(t *testing.T) {
	client := &fakeSQS{recvErr: errors.New("throttled")}
	c := NewTransferConsumer(client, "q", &fakeIngester{}, logger.NewNopLogger())

	assert.Error(t, c.ReceiveOnce(context.Background()))
	assert.Empty(t, client.Deleted())
}

func TestTransferConsumer_StartStop(t *testing.T) {
	client := &fakeSQS{
		batches:  [][]types.Message{{message("ok", `{"chain":"TRC20","txHash":"a1","toAddress":"TAddr","amount":"1"}`)}},
		received: make(chan struct{}, 1),
	}
	c := NewTransferConsumer(client, "q", &fakeIngester{}, logger.NewNopLogger())

	c.Start(context.Background())
	assert.True(t, c.IsRunning())

	select {
	case <-client.received:
	case <-time.After(time.Second):
		t.Fatal("consumer did not reach the second long poll")
	}
	assert.Equal(t, []string{"ok"}, client.Deleted())

	done := make(chan struct{})
	go func() {
		c.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("stop did not cancel the long poll")
	}
	assert.False(t, c.IsRunning())
}
