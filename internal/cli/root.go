package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/apresai/scriptvoice/internal/config"
	"github.com/apresai/scriptvoice/internal/observability"
	"github.com/apresai/scriptvoice/internal/pipeline"
	"github.com/apresai/scriptvoice/internal/progress"
	"github.com/apresai/scriptvoice/internal/script"
	"github.com/apresai/scriptvoice/internal/storage"
	"github.com/apresai/scriptvoice/internal/tts"
)

var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "scriptvoice [input] [output]",
	Short: "Turn an annotated text script into a single synthesized audio file",
	Long: `scriptvoice reads a text script line by line and synthesizes each line with
Azure Speech. A line starting with [voice-id] switches the voice for that line
and every line after it. The audio for all lines is written to one file.`,
	Args:         cobra.MaximumNArgs(2),
	SilenceUsage: true,
	RunE:         runSynthesize,
}

var synthesizeCmd = &cobra.Command{
	Use:          "synthesize [input] [output]",
	Short:        "Synthesize a script into an audio file",
	Args:         cobra.MaximumNArgs(2),
	SilenceUsage: true,
	RunE:         runSynthesize,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "scriptvoice %s\n", Version)
	},
}

var (
	flagInput        string
	flagOutput       string
	flagFromScript   string
	flagVoice        string
	flagVerbose      bool
	flagIncremental  bool
	flagTimeout      time.Duration
	flagSpeechKey    string
	flagSpeechRegion string
	flagEndpoint     string
	flagEnvFile      string
	flagSecretPrefix string
	flagAWSRegion    string
)

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(synthesizeCmd)
	rootCmd.AddCommand(segmentsCmd)
	rootCmd.AddCommand(listVoicesCmd)

	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging (disables the progress bar)")

	for _, cmd := range []*cobra.Command{rootCmd, synthesizeCmd} {
		f := cmd.Flags()
		f.StringVarP(&flagInput, "input", "i", "", "Script file to read, or - for stdin")
		f.StringVarP(&flagOutput, "output", "o", "", "Audio file to write (local path or s3://bucket/key)")
		f.StringVarP(&flagFromScript, "from-script", "f", "", "Synthesize segments saved by the segments command instead of a text script")
		f.StringVarP(&flagVoice, "voice", "V", script.DefaultVoice, "Voice used until the first [voice-id] directive")
		f.BoolVar(&flagIncremental, "incremental", false, "Write audio as each segment arrives; a failed run leaves partial output")
		f.DurationVar(&flagTimeout, "timeout", 0, "Per-request timeout (0 waits indefinitely)")
		f.StringVar(&flagSpeechKey, "speech-key", "", "Speech subscription key (overrides SPEECH_KEY)")
		f.StringVar(&flagSpeechRegion, "speech-region", "", "Speech service region (overrides SPEECH_REGION)")
		f.StringVar(&flagEndpoint, "endpoint", "", "Synthesis URL, replacing the region-derived one")
		f.StringVar(&flagEnvFile, "env-file", "", "dotenv file with SPEECH_KEY/SPEECH_REGION (default .env if present)")
		f.StringVar(&flagSecretPrefix, "secret-prefix", "", "Fetch missing credentials from AWS Secrets Manager under this prefix")
		f.StringVar(&flagAWSRegion, "aws-region", "", "AWS region for Secrets Manager and S3")
		_ = f.MarkHidden("endpoint")
	}
}

func Execute() error {
	return ExecuteContext(context.Background())
}

func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// resolvePaths merges positional arguments with --input/--output.
func resolvePaths(args []string) (input, output string, err error) {
	input, output = flagInput, flagOutput
	if len(args) > 0 {
		if input != "" || flagFromScript != "" {
			return "", "", fmt.Errorf("input given both as argument and flag")
		}
		input = args[0]
	}
	if len(args) > 1 {
		if output != "" {
			return "", "", fmt.Errorf("output given both as argument and --output")
		}
		output = args[1]
	}

	if flagFromScript == "" && input == "" {
		return "", "", fmt.Errorf("an input script is required (argument, --input, or --from-script)")
	}
	if flagFromScript != "" && input != "" {
		return "", "", fmt.Errorf("--input and --from-script are mutually exclusive")
	}
	if output == "" {
		return "", "", fmt.Errorf("an output path is required (argument or --output)")
	}
	return input, output, nil
}

func runSynthesize(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	input, output, err := resolvePaths(args)
	if err != nil {
		return err
	}
	if !script.IsVoiceID(flagVoice) {
		return fmt.Errorf("invalid voice %q: voice ids contain only letters, digits, '_' and '-'", flagVoice)
	}
	if flagTimeout < 0 {
		return fmt.Errorf("--timeout must not be negative")
	}

	logger := observability.InitLogger(cmd.ErrOrStderr(), flagVerbose)

	if observability.TracingEnabled() {
		tp, err := observability.InitTracer(ctx, "scriptvoice", Version)
		if err != nil {
			logger.Warn("Failed to init tracer, continuing without tracing", "error", err)
		} else {
			defer func() {
				if err := tp.Shutdown(context.Background()); err != nil {
					logger.Error("Tracer shutdown error", "error", err)
				}
			}()
		}
	}

	fs := afero.NewOsFs()
	clients := &awsClients{region: flagAWSRegion}

	cfgOpts := config.Options{
		Key:          flagSpeechKey,
		Region:       flagSpeechRegion,
		EnvFile:      flagEnvFile,
		SecretPrefix: flagSecretPrefix,
		Fs:           fs,
	}
	if flagSecretPrefix != "" {
		client, err := clients.secrets(ctx)
		if err != nil {
			return &pipeline.PipelineError{Stage: "config", Message: "failed to set up Secrets Manager", Err: err}
		}
		cfgOpts.Secrets = client
	}
	creds, err := config.Load(ctx, cfgOpts, logger)
	if errors.Is(err, config.ErrMissingRegion) && flagEndpoint != "" {
		// the region only builds the URL
		err = nil
	}
	if err != nil {
		return &pipeline.PipelineError{Stage: "config", Message: "missing speech credentials", Err: err}
	}

	synth, err := tts.NewAzureClient(tts.AzureConfig{
		Key:       creds.Key,
		Region:    creds.Region,
		Endpoint:  flagEndpoint,
		UserAgent: "scriptvoice/" + Version,
		Timeout:   flagTimeout,
	})
	if err != nil {
		return &pipeline.PipelineError{Stage: "config", Message: "failed to create speech client", Err: err}
	}

	store := &storage.Router{Local: storage.NewFileStore(fs)}
	if storage.IsRemote(output) {
		client, err := clients.s3(ctx)
		if err != nil {
			return &pipeline.PipelineError{Stage: "config", Message: "failed to set up S3", Err: err}
		}
		store.S3 = storage.NewS3Store(client, "", "")
	}

	opts := pipeline.Options{
		Input:       input,
		FromScript:  flagFromScript,
		Output:      output,
		Voice:       flagVoice,
		Incremental: flagIncremental,
		Synthesizer: synth,
		Store:       store,
		Fs:          fs,
		Stdin:       cmd.InOrStdin(),
		Logger:      logger,
	}

	// Wire up progress bar when not in verbose mode
	if !flagVerbose {
		r := progress.NewBarRenderer(cmd.OutOrStdout())
		defer r.Finish()
		opts.OnProgress = r.Handle
	}

	_, err = pipeline.Run(ctx, opts)
	return err
}

// awsClients loads the AWS config once, on first use.
type awsClients struct {
	region string
	cfg    *aws.Config
}

func (a *awsClients) load(ctx context.Context) (aws.Config, error) {
	if a.cfg == nil {
		cfg, err := config.LoadAWS(ctx, a.region)
		if err != nil {
			return aws.Config{}, err
		}
		a.cfg = &cfg
	}
	return *a.cfg, nil
}

func (a *awsClients) s3(ctx context.Context) (*s3.Client, error) {
	cfg, err := a.load(ctx)
	if err != nil {
		return nil, err
	}
	return s3.NewFromConfig(cfg), nil
}

func (a *awsClients) secrets(ctx context.Context) (*secretsmanager.Client, error) {
	cfg, err := a.load(ctx)
	if err != nil {
		return nil, err
	}
	return secretsmanager.NewFromConfig(cfg), nil
}
