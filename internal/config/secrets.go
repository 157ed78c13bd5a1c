package config

import (
	"context"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// SecretsAPI is the subset of the Secrets Manager client used here.
type SecretsAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// LoadSecrets fetches prefix+name for each name. Secrets that cannot be
// read are logged and skipped; the caller decides whether that is fatal.
func LoadSecrets(ctx context.Context, client SecretsAPI, prefix string, names []string, logger *slog.Logger) map[string]string {
	found := make(map[string]string, len(names))
	for _, name := range names {
		secretID := prefix + name
		result, err := client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
			SecretId: &secretID,
		})
		if err != nil {
			logger.InfoContext(ctx, "Secret not found", "secret_id", secretID, "error", err)
			continue
		}
		if result.SecretString != nil && *result.SecretString != "" {
			found[name] = *result.SecretString
			logger.InfoContext(ctx, "Loaded secret", "secret_id", secretID)
		}
	}
	return found
}
