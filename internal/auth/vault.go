package auth

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"golang.org/x/oauth2"

	"github.com/lamnt-dev/drivebox/internal/crypto"
	"github.com/lamnt-dev/drivebox/internal/model"
)

// TokenVault stores the Drive refresh token KMS-encrypted in DynamoDB and
// hands out authenticated HTTP clients. If the DynamoDB client is nil it
// keeps tokens in memory (tests, dev mode).
type TokenVault struct {
	oauthConfig  *oauth2.Config
	dynamoClient *dynamodb.Client
	tableName    string
	encryptor    crypto.Encryptor

	// In-memory fallback
	tokens map[string]model.ServiceToken
	mu     sync.RWMutex
}

// NewTokenVault creates a new TokenVault.
// The oauthConfig should be constructed by the caller (e.g., from environment variables).
func NewTokenVault(oauthConfig *oauth2.Config, dynamoClient *dynamodb.Client, tableName string, encryptor crypto.Encryptor) *TokenVault {
	return &TokenVault{
		oauthConfig:  oauthConfig,
		dynamoClient: dynamoClient,
		tableName:    tableName,
		encryptor:    encryptor,
		tokens:       make(map[string]model.ServiceToken),
	}
}

// Config returns the OAuth2 config.
func (v *TokenVault) Config() *oauth2.Config {
	return v.oauthConfig
}

// SaveToken encrypts the refresh token and stores it.
func (v *TokenVault) SaveToken(ctx context.Context, userID string, refreshToken, baseFolderID string) error {
	if refreshToken == "" {
		return fmt.Errorf("no refresh token to save")
	}

	encrypted, err := v.encryptor.Encrypt(ctx, refreshToken)
	if err != nil {
		return fmt.Errorf("failed to encrypt refresh token: %w", err)
	}

	token := model.ServiceToken{
		UserID:                userID,
		EncryptedRefreshToken: encrypted,
		BaseFolderID:          baseFolderID,
		UpdatedAt:             time.Now().Unix(),
	}

	if v.dynamoClient == nil {
		v.mu.Lock()
		v.tokens[userID] = token
		v.mu.Unlock()
		return nil
	}

	item, err := attributevalue.MarshalMap(token)
	if err != nil {
		return fmt.Errorf("failed to marshal service token: %w", err)
	}

	_, err = v.dynamoClient.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(v.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to save token to DynamoDB: %w", err)
	}

	return nil
}

// GetToken retrieves the stored ServiceToken.
func (v *TokenVault) GetToken(ctx context.Context, userID string) (*model.ServiceToken, error) {
	if v.dynamoClient == nil {
		v.mu.RLock()
		t, ok := v.tokens[userID]
		v.mu.RUnlock()
		if !ok {
			return nil, fmt.Errorf("token not found for %q", userID)
		}
		return &t, nil
	}

	out, err := v.dynamoClient.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(v.tableName),
		Key: map[string]types.AttributeValue{
			"user_id": &types.AttributeValueMemberS{Value: userID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get item from DynamoDB: %w", err)
	}
	if out.Item == nil {
		return nil, fmt.Errorf("token not found for %q", userID)
	}

	var token model.ServiceToken
	if err := attributevalue.UnmarshalMap(out.Item, &token); err != nil {
		return nil, fmt.Errorf("failed to unmarshal service token: %w", err)
	}
	return &token, nil
}

// GetClient returns an authenticated http.Client for the user.
func (v *TokenVault) GetClient(ctx context.Context, userID string) (*http.Client, error) {
	stored, err := v.GetToken(ctx, userID)
	if err != nil {
		return nil, err
	}

	refreshToken, err := v.encryptor.Decrypt(ctx, stored.EncryptedRefreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt refresh token: %w", err)
	}

	token := &oauth2.Token{
		RefreshToken: refreshToken,
		Expiry:       time.Now().Add(-1 * time.Hour), // Force refresh
	}

	tokenSource := v.oauthConfig.TokenSource(ctx, token)

	return oauth2.NewClient(ctx, tokenSource), nil
}
