package aws

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

// Metrics emits checkout metrics to CloudWatch.
type Metrics struct {
	CW        CloudWatchAPI
	Namespace string
}

// NewMetrics returns a Metrics emitter under the given namespace.
func NewMetrics(cw CloudWatchAPI, namespace string) *Metrics {
	return &Metrics{CW: cw, Namespace: namespace}
}

// RecordOrderCompleted publishes one OrderCompleted count and the order
// value in cents, dimensioned by currency.
func (m *Metrics) RecordOrderCompleted(ctx context.Context, currency string, totalCents int64) error {
	dims := []cwtypes.Dimension{
		{Name: awsString("Currency"), Value: &currency},
	}
	count := 1.0
	value := float64(totalCents)

	_, err := m.CW.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace: &m.Namespace,
		MetricData: []cwtypes.MetricDatum{
			{
				MetricName: awsString("OrderCompleted"),
				Dimensions: dims,
				Value:      &count,
				Unit:       cwtypes.StandardUnitCount,
			},
			{
				MetricName: awsString("OrderValueCents"),
				Dimensions: dims,
				Value:      &value,
				Unit:       cwtypes.StandardUnitNone,
			},
		},
	})
	if err != nil {
		return fmt.Errorf("put metric data: %w", err)
	}
	return nil
}
