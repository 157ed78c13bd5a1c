package config

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	creds, err := Load(context.Background(), Options{
		Getenv: envMap(map[string]string{"SPEECH_KEY": "k", "SPEECH_REGION": "westus"}),
		Fs:     afero.NewMemMapFs(),
	}, quiet)
	require.NoError(t, err)
	assert.Equal(t, Credentials{Key: "k", Region: "westus"}, creds)
}

func TestLoadPrecedence(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, ".env", []byte("SPEECH_KEY=file-key\nSPEECH_REGION=file-region\n"), 0600))

	creds, err := Load(context.Background(), Options{
		Region: "flag-region",
		Getenv: envMap(map[string]string{"SPEECH_KEY": "env-key"}),
		Fs:     fs,
	}, quiet)
	require.NoError(t, err)
	assert.Equal(t, "env-key", creds.Key)
	assert.Equal(t, "flag-region", creds.Region)

	creds, err = Load(context.Background(), Options{Getenv: envMap(nil), Fs: fs}, quiet)
	require.NoError(t, err)
	assert.Equal(t, Credentials{Key: "file-key", Region: "file-region"}, creds)
}

func TestLoadMissing(t *testing.T) {
	fs := afero.NewMemMapFs()

	_, err := Load(context.Background(), Options{Getenv: envMap(nil), Fs: fs}, quiet)
	assert.ErrorIs(t, err, ErrMissingKey)

	_, err = Load(context.Background(), Options{Key: "k", Getenv: envMap(map[string]string{"SPEECH_REGION": ""}), Fs: fs}, quiet)
	assert.ErrorIs(t, err, ErrMissingRegion)
}

func TestLoadExplicitEnvFileMustExist(t *testing.T) {
	_, err := Load(context.Background(), Options{
		EnvFile: "custom.env",
		Getenv:  envMap(nil),
		Fs:      afero.NewMemMapFs(),
	}, quiet)
	assert.ErrorContains(t, err, "open env file custom.env")
}

type fakeSecrets struct {
	values map[string]string
	asked  []string
}

func (f *fakeSecrets) GetSecretValue(ctx context.Context, in *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	id := aws.ToString(in.SecretId)
	f.asked = append(f.asked, id)
	v, ok := f.values[id]
	if !ok {
		return nil, errors.New("ResourceNotFoundException")
	}
	return &secretsmanager.GetSecretValueOutput{SecretString: aws.String(v)}, nil
}

func TestLoadFromSecretsManager(t *testing.T) {
	secrets := &fakeSecrets{values: map[string]string{"/scriptvoice/SPEECH_KEY": "secret-key"}}

	creds, err := Load(context.Background(), Options{
		Getenv:       envMap(map[string]string{"SPEECH_REGION": "eastus"}),
		Fs:           afero.NewMemMapFs(),
		SecretPrefix: "/scriptvoice/",
		Secrets:      secrets,
	}, quiet)
	require.NoError(t, err)
	assert.Equal(t, Credentials{Key: "secret-key", Region: "eastus"}, creds)
	assert.Equal(t, []string{"/scriptvoice/SPEECH_KEY"}, secrets.asked, "only missing values are fetched")
}

func TestLoadSecretsSkipsMissing(t *testing.T) {
	secrets := &fakeSecrets{values: map[string]string{"p/A": "1"}}
	found := LoadSecrets(context.Background(), secrets, "p/", []string{"A", "B"}, quiet)
	assert.Equal(t, map[string]string{"A": "1"}, found)
}
