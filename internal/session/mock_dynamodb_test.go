package session

import (
	"context"
	"errors"
	"strings"
	"sync"

	dyn "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// simpleMock is a very small in-memory mock for GetItem/PutItem used in
// unit tests. It understands the two conditional expressions the store
// issues: attribute_not_exists(session_id) and the version guard.
// NOTE: This is intentionally minimal and not production-grade.
type simpleMock struct {
	mu       sync.Mutex
	table    map[string]map[string]types.AttributeValue
	putCalls int
	getCalls int
}

func newSimpleMock() *simpleMock {
	return &simpleMock{table: map[string]map[string]types.AttributeValue{}}
}

func (m *simpleMock) key(item map[string]types.AttributeValue) (string, error) {
	attr, ok := item["session_id"]
	if !ok {
		return "", errors.New("missing session_id")
	}
	return attr.(*types.AttributeValueMemberS).Value, nil
}

func (m *simpleMock) PutItem(ctx context.Context, params *dyn.PutItemInput, optFns ...func(*dyn.Options)) (*dyn.PutItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.putCalls++

	k, err := m.key(params.Item)
	if err != nil {
		return nil, err
	}

	if params.ConditionExpression != nil {
		cond := *params.ConditionExpression
		existing, exists := m.table[k]
		switch {
		case cond == "attribute_not_exists(session_id)":
			if exists {
				return nil, &types.ConditionalCheckFailedException{}
			}
		case strings.Contains(cond, "version = :expected"):
			if !exists {
				return nil, &types.ConditionalCheckFailedException{}
			}
			expected := params.ExpressionAttributeValues[":expected"].(*types.AttributeValueMemberN).Value
			stored := existing["version"].(*types.AttributeValueMemberN).Value
			if expected != stored {
				return nil, &types.ConditionalCheckFailedException{}
			}
		default:
			return nil, errors.New("unsupported condition: " + cond)
		}
	}

	m.table[k] = params.Item
	return &dyn.PutItemOutput{}, nil
}

func (m *simpleMock) DeleteItem(ctx context.Context, params *dyn.DeleteItemInput, optFns ...func(*dyn.Options)) (*dyn.DeleteItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	attr, ok := params.Key["session_id"]
	if !ok {
		return nil, errors.New("missing session_id key")
	}
	delete(m.table, attr.(*types.AttributeValueMemberS).Value)
	return &dyn.DeleteItemOutput{}, nil
}

func (m *simpleMock) GetItem(ctx context.Context, params *dyn.GetItemInput, optFns ...func(*dyn.Options)) (*dyn.GetItemOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalls++

	attr, ok := params.Key["session_id"]
	if !ok {
		return nil, errors.New("missing session_id key")
	}
	k := attr.(*types.AttributeValueMemberS).Value
	item, ok := m.table[k]
	if !ok {
		return &dyn.GetItemOutput{}, nil
	}
	return &dyn.GetItemOutput{Item: item}, nil
}
