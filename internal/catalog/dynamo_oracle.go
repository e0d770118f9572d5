package catalog

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/merchantkit/agent-checkout/internal/aws"
	"github.com/merchantkit/agent-checkout/internal/checkout"
)

// DynamoOracle reads product quotes from a DynamoDB table keyed by
// product_id. The table is owned by the catalog service; this client is
// strictly read-only.
type DynamoOracle struct {
	client    aws.DynamoDBAPI
	tableName string
}

// NewDynamoOracle returns an oracle bound to tableName.
func NewDynamoOracle(client aws.DynamoDBAPI, tableName string) *DynamoOracle {
	return &DynamoOracle{client: client, tableName: tableName}
}

func (o *DynamoOracle) Lookup(ctx context.Context, productID string) (checkout.Quote, error) {
	out, err := o.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &o.tableName,
		Key: map[string]types.AttributeValue{
			"product_id": &types.AttributeValueMemberS{Value: productID},
		},
	})
	if err != nil {
		return checkout.Quote{}, fmt.Errorf("get product: %w", err)
	}
	if len(out.Item) == 0 {
		return checkout.Quote{}, fmt.Errorf("%w: %s", checkout.ErrUnknownProduct, productID)
	}
	var q checkout.Quote
	if err := attributevalue.UnmarshalMap(out.Item, &q); err != nil {
		return checkout.Quote{}, fmt.Errorf("unmarshal product: %w", err)
	}
	return q, nil
}
