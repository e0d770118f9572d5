package aws

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
)

type fakeCloudWatch struct {
	inputs []*cloudwatch.PutMetricDataInput
	err    error
}

func (f *fakeCloudWatch) PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	f.inputs = append(f.inputs, params)
	if f.err != nil {
		return nil, f.err
	}
	return &cloudwatch.PutMetricDataOutput{}, nil
}

func TestMetrics_RecordOrderCompleted(t *testing.T) {
	fake := &fakeCloudWatch{}
	m := NewMetrics(fake, "AgentCheckout")

	if err := m.RecordOrderCompleted(context.Background(), "USD", 11690); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(fake.inputs) != 1 {
		t.Fatalf("expected 1 put, got %d", len(fake.inputs))
	}
	in := fake.inputs[0]
	if *in.Namespace != "AgentCheckout" {
		t.Fatalf("namespace mismatch: %s", *in.Namespace)
	}
	if len(in.MetricData) != 2 {
		t.Fatalf("expected 2 metric data, got %d", len(in.MetricData))
	}
	if *in.MetricData[0].MetricName != "OrderCompleted" || *in.MetricData[0].Value != 1.0 {
		t.Fatalf("OrderCompleted datum mismatch: %+v", in.MetricData[0])
	}
	if *in.MetricData[1].MetricName != "OrderValueCents" || *in.MetricData[1].Value != 11690 {
		t.Fatalf("OrderValueCents datum mismatch: %+v", in.MetricData[1])
	}
	dim := in.MetricData[0].Dimensions[0]
	if *dim.Name != "Currency" || *dim.Value != "USD" {
		t.Fatalf("dimension mismatch: %+v", dim)
	}
}

func TestMetrics_RecordOrderCompletedError(t *testing.T) {
	fake := &fakeCloudWatch{err: errors.New("boom")}
	m := NewMetrics(fake, "AgentCheckout")

	if err := m.RecordOrderCompleted(context.Background(), "USD", 1); err == nil {
		t.Fatal("expected error")
	}
}
