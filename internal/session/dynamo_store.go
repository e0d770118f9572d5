package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/merchantkit/agent-checkout/internal/aws"
	"github.com/merchantkit/agent-checkout/internal/checkout"
)

// DynamoStore persists sessions in a DynamoDB table keyed by session_id.
// Optimistic concurrency rides on a conditional expression over the
// version attribute, so a lost race surfaces as ErrVersionConflict exactly
// like the in-memory store.
type DynamoStore struct {
	client    aws.DynamoDBAPI
	tableName string
	ttlWindow time.Duration // eviction window for abandoned sessions
	nowFunc   func() time.Time
}

// NewDynamoStore returns a store bound to tableName. ttlWindow, when
// positive, stamps an expires_at epoch attribute for DynamoDB TTL eviction.
func NewDynamoStore(client aws.DynamoDBAPI, tableName string, ttlWindow time.Duration) *DynamoStore {
	return &DynamoStore{
		client:    client,
		tableName: tableName,
		ttlWindow: ttlWindow,
		nowFunc:   time.Now,
	}
}

func (s *DynamoStore) Get(ctx context.Context, id string) (*checkout.CheckoutSession, error) {
	out, err := s.client.GetItem(ctx, &dyn.GetItemInput{
		TableName: &s.tableName,
		Key: map[string]types.AttributeValue{
			"session_id": &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, checkout.ErrNotFound
	}
	var sess checkout.CheckoutSession
	if err := attributevalue.UnmarshalMap(out.Item, &sess); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &sess, nil
}

func (s *DynamoStore) Create(ctx context.Context, sess *checkout.CheckoutSession) error {
	item, err := s.marshal(sess)
	if err != nil {
		return err
	}
	_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName:           &s.tableName,
		Item:                item,
		ConditionExpression: awsString("attribute_not_exists(session_id)"),
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return checkout.ErrAlreadyExists
		}
		return fmt.Errorf("put session: %w", err)
	}
	return nil
}

func (s *DynamoStore) CompareAndSwap(ctx context.Context, sess *checkout.CheckoutSession, expectedVersion int64) error {
	item, err := s.marshal(sess)
	if err != nil {
		return err
	}
	_, err = s.client.PutItem(ctx, &dyn.PutItemInput{
		TableName:           &s.tableName,
		Item:                item,
		ConditionExpression: awsString("attribute_exists(session_id) AND version = :expected"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":expected": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", expectedVersion)},
		},
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			// Either the session was evicted or a concurrent writer won.
			if _, getErr := s.Get(ctx, sess.ID); errors.Is(getErr, checkout.ErrNotFound) {
				return checkout.ErrNotFound
			}
			return checkout.ErrVersionConflict
		}
		return fmt.Errorf("put session: %w", err)
	}
	return nil
}

func (s *DynamoStore) marshal(sess *checkout.CheckoutSession) (map[string]types.AttributeValue, error) {
	item, err := attributevalue.MarshalMap(sess)
	if err != nil {
		return nil, fmt.Errorf("marshal session: %w", err)
	}
	if s.ttlWindow > 0 {
		expires := s.nowFunc().Add(s.ttlWindow).Unix()
		item["expires_at"] = &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", expires)}
	}
	return item, nil
}

func awsString(s string) *string { return &s }
