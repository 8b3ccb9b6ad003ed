// Package secret resolves the deploy-time secrets (Google client secret,
// JWT signing key, admin password) from SSM Parameter Store, or from plain
// environment variables when running locally.
package secret

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// Resolver looks up a secret by its parameter path.
type Resolver interface {
	GetSecret(ctx context.Context, name string) (string, error)
}

// SSMClient is the slice of *ssm.Client the SSM resolver needs.
type SSMClient interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

type ssmResolver struct {
	client SSMClient
}

// NewSSMResolver returns a Resolver reading SecureString parameters from
// SSM Parameter Store, decrypted.
func NewSSMResolver(client SSMClient) Resolver {
	return &ssmResolver{client: client}
}

func (r *ssmResolver) GetSecret(ctx context.Context, name string) (string, error) {
	out, err := r.client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("get parameter %q: %w", name, err)
	}
	if out.Parameter == nil || out.Parameter.Value == nil {
		return "", fmt.Errorf("parameter %q is empty", name)
	}
	return *out.Parameter.Value, nil
}

type envResolver struct{}

// NewEnvResolver returns a Resolver that maps parameter paths onto
// environment variables, so DEV_MODE runs without any AWS access. The
// variable name is the last path segment uppercased with hyphens turned
// into underscores: "/drivebox/jwt-secret" reads JWT_SECRET.
func NewEnvResolver() Resolver {
	return envResolver{}
}

func (envResolver) GetSecret(_ context.Context, name string) (string, error) {
	key := envKey(name)
	if v := os.Getenv(key); v != "" {
		return v, nil
	}
	return "", fmt.Errorf("%s is not set (wanted for parameter %q)", key, name)
}

func envKey(name string) string {
	seg := name
	if i := strings.LastIndex(name, "/"); i >= 0 {
		seg = name[i+1:]
	}
	return strings.ToUpper(strings.ReplaceAll(seg, "-", "_"))
}
