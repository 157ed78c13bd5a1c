package tts

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	azureEndpointTemplate = "https://%s.tts.speech.microsoft.com/cognitiveservices/v1"
	azureOutputFormat     = "audio-16khz-128kbitrate-mono-mp3"
	azureContentType      = "application/ssml+xml"

	headerSubscriptionKey = "Ocp-Apim-Subscription-Key"
	headerOutputFormat    = "X-Microsoft-OutputFormat"

	// maxErrorBody caps how much of a failed response is kept for the error.
	maxErrorBody = 4096
)

var tracer = otel.Tracer("scriptvoice/tts")

// AzureConfig configures an AzureClient. Key and Region are required.
type AzureConfig struct {
	Key    string
	Region string
	// Endpoint replaces the region-derived URL when set.
	Endpoint     string
	OutputFormat string
	UserAgent    string
	// Timeout bounds a whole exchange. Zero leaves the transport default,
	// which never times out.
	Timeout time.Duration
}

// AzureClient implements Synthesizer against the Azure Speech REST API.
type AzureClient struct {
	key          string
	region       string
	endpoint     string
	outputFormat string
	userAgent    string
	httpClient   *http.Client
}

func NewAzureClient(cfg AzureConfig) (*AzureClient, error) {
	if cfg.Key == "" {
		return nil, fmt.Errorf("speech key is required")
	}
	if cfg.Region == "" && cfg.Endpoint == "" {
		return nil, fmt.Errorf("speech region is required")
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = Endpoint(cfg.Region)
	}
	format := cfg.OutputFormat
	if format == "" {
		format = azureOutputFormat
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = "scriptvoice"
	}

	return &AzureClient{
		key:          cfg.Key,
		region:       cfg.Region,
		endpoint:     endpoint,
		outputFormat: format,
		userAgent:    ua,
		httpClient:   &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// Endpoint returns the synthesis URL for a region.
func Endpoint(region string) string {
	return fmt.Sprintf(azureEndpointTemplate, region)
}

func (c *AzureClient) Endpoint() string { return c.endpoint }

func (c *AzureClient) Synthesize(ctx context.Context, doc string, sink io.Writer) (int64, error) {
	ctx, span := tracer.Start(ctx, "tts.synthesize")
	defer span.End()
	span.SetAttributes(
		attribute.String("region", c.region),
		attribute.String("output_format", c.outputFormat),
		attribute.Int("ssml_bytes", len(doc)),
	)

	n, err := c.do(ctx, doc, sink)
	span.SetAttributes(attribute.Int64("audio_bytes", n))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "synthesis failed")
	}
	return n, err
}

func (c *AzureClient) do(ctx context.Context, doc string, sink io.Writer) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(doc))
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set(headerSubscriptionKey, c.key)
	req.Header.Set("Content-Type", azureContentType)
	req.Header.Set(headerOutputFormat, c.outputFormat)
	req.Header.Set("User-Agent", c.userAgent)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("send request: %w", err)
	}
	defer res.Body.Close()

	trace.SpanFromContext(ctx).SetAttributes(attribute.Int("http.status_code", res.StatusCode))

	if res.StatusCode < 200 || res.StatusCode > 299 {
		errBody, _ := io.ReadAll(io.LimitReader(res.Body, maxErrorBody))
		return 0, &APIError{
			StatusCode: res.StatusCode,
			Body:       strings.TrimSpace(string(errBody)),
		}
	}

	n, err := io.Copy(sink, res.Body)
	if err != nil {
		return n, fmt.Errorf("read response: %w", err)
	}
	return n, nil
}
