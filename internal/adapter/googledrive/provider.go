package googledrive

import (
	"context"
	"fmt"

	"github.com/lamnt-dev/drivebox/internal/adapter"
	"github.com/lamnt-dev/drivebox/internal/auth"
)

// Provider implements adapter.Provider for Google Drive.
type Provider struct {
	vault *auth.TokenVault
}

// NewProvider creates a new Google Drive provider.
func NewProvider(vault *auth.TokenVault) *Provider {
	return &Provider{vault: vault}
}

// GetStorage returns a DriveStorage authenticated for the given user ID.
func (p *Provider) GetStorage(ctx context.Context, userID string) (adapter.Storage, error) {
	var baseFolderID string
	if token, err := p.vault.GetToken(ctx, userID); err == nil {
		baseFolderID = token.BaseFolderID
	}

	client, err := p.vault.GetClient(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get authenticated client: %w", err)
	}

	storage, err := NewDriveStorage(ctx, client, baseFolderID)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive storage: %w", err)
	}

	return storage, nil
}
