package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/lamnt-dev/drivebox/internal/model"
)

// DefaultTTL caps how long a crashed operation can keep a scope busy.
const DefaultTTL = 2 * time.Minute

// DynamoLocker implements Locker with DynamoDB conditional writes, so Busy
// enforcement holds across Lambda instances.
type DynamoLocker struct {
	client      *dynamodb.Client
	tableName   string
	ttlDuration time.Duration
}

// NewDynamoLocker creates a new DynamoLocker.
func NewDynamoLocker(client *dynamodb.Client, tableName string) *DynamoLocker {
	return &DynamoLocker{
		client:      client,
		tableName:   tableName,
		ttlDuration: DefaultTTL,
	}
}

// Acquire attempts to take the lock on a scope. It succeeds if no lock
// exists, the existing lock has expired, or the same owner re-acquires.
func (m *DynamoLocker) Acquire(ctx context.Context, scope, owner string) (*model.ScopeLock, error) {
	now := time.Now().Unix()
	lock := model.ScopeLock{
		Scope:     scope,
		Owner:     owner,
		ExpiresAt: now + int64(m.ttlDuration.Seconds()),
	}

	item, err := attributevalue.MarshalMap(lock)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal scope lock: %w", err)
	}

	_, err = m.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(m.tableName),
		Item:      item,
		ConditionExpression: aws.String(
			"attribute_not_exists(#s) OR expires_at < :now OR #o = :owner",
		),
		ExpressionAttributeNames: map[string]string{
			"#s": "scope",
			"#o": "owner",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":now":   &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", now)},
			":owner": &types.AttributeValueMemberS{Value: owner},
		},
	})
	if err != nil {
		var condFailed *types.ConditionalCheckFailedException
		if errors.As(err, &condFailed) {
			return nil, ErrBusy
		}
		return nil, fmt.Errorf("failed to acquire scope lock: %w", err)
	}

	return &lock, nil
}

// Heartbeat extends the lock TTL if the owner holds it.
func (m *DynamoLocker) Heartbeat(ctx context.Context, scope, owner string) (*model.ScopeLock, error) {
	expiresAt := time.Now().Unix() + int64(m.ttlDuration.Seconds())

	out, err := m.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(m.tableName),
		Key: map[string]types.AttributeValue{
			"scope": &types.AttributeValueMemberS{Value: scope},
		},
		UpdateExpression:    aws.String("SET expires_at = :expires_at"),
		ConditionExpression: aws.String("#o = :owner"),
		ExpressionAttributeNames: map[string]string{
			"#o": "owner",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":expires_at": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", expiresAt)},
			":owner":      &types.AttributeValueMemberS{Value: owner},
		},
		ReturnValues: types.ReturnValueAllNew,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to extend scope lock: %w", err)
	}

	var lock model.ScopeLock
	if err := attributevalue.UnmarshalMap(out.Attributes, &lock); err != nil {
		return nil, fmt.Errorf("failed to unmarshal scope lock: %w", err)
	}
	return &lock, nil
}

// Release removes the lock if the owner holds it.
func (m *DynamoLocker) Release(ctx context.Context, scope, owner string) error {
	_, err := m.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(m.tableName),
		Key: map[string]types.AttributeValue{
			"scope": &types.AttributeValueMemberS{Value: scope},
		},
		ConditionExpression: aws.String("#o = :owner"),
		ExpressionAttributeNames: map[string]string{
			"#o": "owner",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":owner": &types.AttributeValueMemberS{Value: owner},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to release scope lock: %w", err)
	}
	return nil
}

// Status retrieves the current lock, or nil if the scope is free.
func (m *DynamoLocker) Status(ctx context.Context, scope string) (*model.ScopeLock, error) {
	out, err := m.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(m.tableName),
		Key: map[string]types.AttributeValue{
			"scope": &types.AttributeValueMemberS{Value: scope},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get scope lock: %w", err)
	}
	if out.Item == nil {
		return nil, nil // No lock
	}

	var lock model.ScopeLock
	if err := attributevalue.UnmarshalMap(out.Item, &lock); err != nil {
		return nil, fmt.Errorf("failed to unmarshal scope lock: %w", err)
	}

	if lock.ExpiresAt < time.Now().Unix() {
		return nil, nil // Expired
	}
	return &lock, nil
}
