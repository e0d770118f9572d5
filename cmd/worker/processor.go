package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/aws/aws-lambda-go/events"

	"github.com/merchantkit/agent-checkout/internal/aws"
)

// Processor consumes order-completed events: it hands the order off to
// fulfillment (currently a log line picked up downstream) and records
// CloudWatch metrics.
type Processor struct {
	metrics *aws.Metrics
}

// NewProcessor creates a worker processor with AWS clients injected.
func NewProcessor(clients *aws.AWSClients, metricsNamespace string) *Processor {
	return &Processor{
		metrics: aws.NewMetrics(clients.CloudWatch, metricsNamespace),
	}
}

// Handle receives an SQS batch event and processes each message.
func (p *Processor) Handle(ctx context.Context, ev events.SQSEvent) error {
	for _, rec := range ev.Records {
		if err := p.processMessage(ctx, rec); err != nil {
			// Return error: Lambda will retry. If failed too many times, message goes to DLQ.
			log.Printf("worker error: %v", err)
			return err
		}
	}
	return nil
}

func (p *Processor) processMessage(ctx context.Context, rec events.SQSMessage) error {
	var ev OrderEvent
	if err := json.Unmarshal([]byte(rec.Body), &ev); err != nil {
		return fmt.Errorf("invalid message body: %w", err)
	}
	if ev.OrderID == "" {
		return fmt.Errorf("order event missing order_id: %s", rec.Body)
	}

	log.Printf("[worker] order=%s session=%s total=%d %s",
		ev.OrderID, ev.SessionID, ev.TotalCents, ev.Currency)

	if err := p.metrics.RecordOrderCompleted(ctx, ev.Currency, ev.TotalCents); err != nil {
		return fmt.Errorf("record metrics for order=%s: %w", ev.OrderID, err)
	}
	return nil
}
