package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"

	"github.com/merchantkit/agent-checkout/internal/aws"
)

// DynamoIndex stores idempotency records in a DynamoDB table with TTL
// eviction. Reservation is a conditional put on the key attribute; a
// losing writer reads back the winning record.
type DynamoIndex struct {
	client    aws.DynamoDBAPI
	tableName string
	ttlWindow time.Duration
	nowFunc   func() time.Time
}

// NewDynamoIndex returns an index bound to tableName.
// ttlWindow: how long a key stays claimable (e.g. 48*time.Hour).
func NewDynamoIndex(client aws.DynamoDBAPI, tableName string, ttlWindow time.Duration) *DynamoIndex {
	return &DynamoIndex{
		client:    client,
		tableName: tableName,
		ttlWindow: ttlWindow,
		nowFunc:   time.Now,
	}
}

func (i *DynamoIndex) Reserve(ctx context.Context, key, sessionID string) (string, bool, error) {
	now := i.nowFunc()
	rec := Record{
		IdempotencyKey: key,
		SessionID:      sessionID,
		CreatedAt:      now,
		ExpiresAt:      now.Add(i.ttlWindow).Unix(),
	}
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return "", false, fmt.Errorf("marshal record: %w", err)
	}

	_, err = i.client.PutItem(ctx, &dyn.PutItemInput{
		TableName:           &i.tableName,
		Item:                item,
		ConditionExpression: awsString("attribute_not_exists(idempotency_key)"),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "ConditionalCheckFailedException" {
			existing, getErr := i.get(ctx, key)
			if getErr != nil {
				return "", false, getErr
			}
			if existing == nil {
				// Claimed record expired between the put and the read.
				return "", false, fmt.Errorf("idempotency key %q claimed but record missing", key)
			}
			return existing.SessionID, false, nil
		}
		return "", false, fmt.Errorf("put record: %w", err)
	}
	return sessionID, true, nil
}

// Release deletes the record, conditioned on key still mapping to
// sessionID so a claim taken over by another writer is never revoked.
func (i *DynamoIndex) Release(ctx context.Context, key, sessionID string) error {
	_, err := i.client.DeleteItem(ctx, &dyn.DeleteItemInput{
		TableName: &i.tableName,
		Key: map[string]types.AttributeValue{
			"idempotency_key": &types.AttributeValueMemberS{Value: key},
		},
		ConditionExpression: awsString("session_id = :sid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":sid": &types.AttributeValueMemberS{Value: sessionID},
		},
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "ConditionalCheckFailedException" {
			// Already evicted or claimed by someone else: nothing to release.
			return nil
		}
		return fmt.Errorf("delete record: %w", err)
	}
	return nil
}

// get retrieves a record by key. Returns (nil, nil) if not found.
func (i *DynamoIndex) get(ctx context.Context, key string) (*Record, error) {
	out, err := i.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &i.tableName,
		Key: map[string]types.AttributeValue{
			"idempotency_key": &types.AttributeValueMemberS{Value: key},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get record: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var rec Record
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal record: %w", err)
	}
	return &rec, nil
}

func awsString(s string) *string { return &s }
