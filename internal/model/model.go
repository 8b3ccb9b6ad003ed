package model

// Note represents a single timestamped notebook entry.
// Notes are created once and never mutated; they are destroyed only after
// an explicit confirmation.
type Note struct {
	ID        string `json:"id" dynamodbav:"id"`
	Content   string `json:"content" dynamodbav:"content"`
	Timestamp int64  `json:"timestamp" dynamodbav:"timestamp"` // epoch millis
}

// DriveInfo reports storage quota usage of the backing drive.
type DriveInfo struct {
	Total     int64 `json:"total"`
	Used      int64 `json:"used"`
	Remaining int64 `json:"remaining"`
}

// ScopeLock represents an in-flight operation on a listing scope.
// At most one mutation or load may run per scope; a second caller gets a
// Busy error until the lock expires or is released.
type ScopeLock struct {
	Scope     string `json:"scope" dynamodbav:"scope"`
	Owner     string `json:"owner" dynamodbav:"owner"`
	ExpiresAt int64  `json:"expires_at" dynamodbav:"expires_at"` // TTL (Unix timestamp)
}

// ServiceToken represents the Drive refresh token stored in DynamoDB.
// The refresh token is encrypted at rest with KMS.
type ServiceToken struct {
	UserID                string `json:"user_id" dynamodbav:"user_id"`
	EncryptedRefreshToken string `json:"encrypted_refresh_token" dynamodbav:"encrypted_refresh_token"`
	BaseFolderID          string `json:"base_folder_id" dynamodbav:"base_folder_id"`
	UpdatedAt             int64  `json:"updated_at" dynamodbav:"updated_at"`
}
