package store

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// NewDefaultClient builds a DynamoDB client from the ambient AWS
// configuration (environment, shared config files, instance role), with
// optional load options such as a shared-config profile. Repositories receive
// the resulting store by injection; nothing in this module holds
// package-level client state.
func NewDefaultClient(ctx context.Context, optFns ...func(*config.LoadOptions) error) (*dynamodb.Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return dynamodb.NewFromConfig(cfg), nil
}
