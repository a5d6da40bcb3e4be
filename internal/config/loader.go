package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/quillcast/quillcast/internal/audio"
	"github.com/quillcast/quillcast/internal/recovery"
	"github.com/quillcast/quillcast/pkg/types"
)

// Load reads and parses the configuration file
// It also supports environment variable overrides with QC_ prefix
func Load(configPath string) (*types.Config, error) {
	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse YAML over the defaults so partial files stay usable
	cfg := GetDefault()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Apply environment variable overrides
	ApplyEnvOverrides(cfg)

	return cfg, nil
}

// Validate checks if the configuration is valid. Called after every
// override layer (file, environment, flags) has been applied.
func Validate(cfg *types.Config) error {
	// Validate output config
	if cfg.Output.Directory == "" {
		return fmt.Errorf("output directory is required")
	}
	if cfg.Output.Format != types.FormatMP3 && cfg.Output.Format != types.FormatWAV {
		return fmt.Errorf("invalid output format: %s (must be 'mp3' or 'wav')", cfg.Output.Format)
	}
	if cfg.Output.SilenceSeconds < 0 {
		return fmt.Errorf("invalid silence duration: %g", cfg.Output.SilenceSeconds)
	}
	if cfg.Output.SkipGap != audio.GapOmit && cfg.Output.SkipGap != audio.GapSilence {
		return fmt.Errorf("invalid skip gap policy: %s (must be 'omit' or 'silence')", cfg.Output.SkipGap)
	}

	// Validate storage adapter
	if cfg.Storage.Adapter != "local" && cfg.Storage.Adapter != "s3" {
		return fmt.Errorf("invalid storage adapter: %s (must be 'local' or 's3')", cfg.Storage.Adapter)
	}
	if cfg.Storage.Adapter == "s3" {
		if cfg.Storage.S3.Bucket == "" {
			return fmt.Errorf("s3 bucket is required")
		}
		if cfg.Storage.S3.Region == "" {
			return fmt.Errorf("s3 region is required")
		}
	}

	// Validate synthesis config
	if cfg.Synthesis.Engine == "" {
		return fmt.Errorf("synthesis engine is required")
	}
	if cfg.Synthesis.RateLimit < 0 {
		return fmt.Errorf("invalid synthesis rate limit: %g", cfg.Synthesis.RateLimit)
	}

	if _, err := recovery.ParseStrategy(cfg.OnError); err != nil {
		return fmt.Errorf("invalid on_error: %w", err)
	}

	// Validate pipeline config
	if cfg.Pipeline.UploadConcurrency <= 0 {
		cfg.Pipeline.UploadConcurrency = 4 // default
	}

	return nil
}

// ApplyEnvOverrides applies environment variable overrides
// Environment variables should be prefixed with QC_ (QuillCast)
func ApplyEnvOverrides(cfg *types.Config) {
	// Output overrides
	if val := os.Getenv("QC_OUTPUT_DIRECTORY"); val != "" {
		cfg.Output.Directory = val
	}
	if val := os.Getenv("QC_OUTPUT_FORMAT"); val != "" {
		cfg.Output.Format = val
	}
	if val := os.Getenv("QC_OUTPUT_BITRATE"); val != "" {
		cfg.Output.Bitrate = val
	}

	// Storage overrides
	if val := os.Getenv("QC_STORAGE_ADAPTER"); val != "" {
		cfg.Storage.Adapter = val
	}
	if val := os.Getenv("QC_STORAGE_LOCAL_BASE_PATH"); val != "" {
		cfg.Storage.Local.BasePath = val
	}
	if val := os.Getenv("QC_STORAGE_S3_BUCKET"); val != "" {
		cfg.Storage.S3.Bucket = val
	}
	if val := os.Getenv("QC_STORAGE_S3_REGION"); val != "" {
		cfg.Storage.S3.Region = val
	}
	if val := os.Getenv("QC_STORAGE_S3_ENDPOINT"); val != "" {
		cfg.Storage.S3.Endpoint = val
	}
	if val := os.Getenv("QC_STORAGE_S3_ACCESS_KEY_ID"); val != "" {
		cfg.Storage.S3.AccessKeyID = val
	}
	if val := os.Getenv("QC_STORAGE_S3_SECRET_ACCESS_KEY"); val != "" {
		cfg.Storage.S3.SecretAccessKey = val
	}

	// Synthesis overrides
	if val := os.Getenv("QC_SYNTHESIS_ENGINE"); val != "" {
		cfg.Synthesis.Engine = val
	}
	if val := os.Getenv("QC_SYNTHESIS_MODEL"); val != "" {
		cfg.Synthesis.Model = val
	}
	if val := os.Getenv("QC_SYNTHESIS_SPEAKER_WAV"); val != "" {
		cfg.Synthesis.SpeakerWav = val
	}
	if val := os.Getenv("QC_SYNTHESIS_LANGUAGE"); val != "" {
		cfg.Synthesis.Language = val
	}
	if val := os.Getenv("QC_SYNTHESIS_MAX_CHARS"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			cfg.Synthesis.MaxChars = n
		}
	}
	if val := os.Getenv("QC_SYNTHESIS_RATE_LIMIT"); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			cfg.Synthesis.RateLimit = f
		}
	}

	if val := os.Getenv("QC_ON_ERROR"); val != "" {
		cfg.OnError = val
	}
	if val := os.Getenv("QC_LOG_LEVEL"); val != "" {
		cfg.LogLevel = val
	}

	// Pipeline overrides
	if val := os.Getenv("QC_PIPELINE_TEMP_DIR"); val != "" {
		cfg.Pipeline.TempDir = val
	}
}

// GetDefault returns a default configuration
func GetDefault() *types.Config {
	return &types.Config{
		Output: types.OutputConfig{
			Directory:      ".",
			Format:         types.FormatMP3,
			Bitrate:        "192k",
			SilenceSeconds: 1.5,
			SkipGap:        audio.GapOmit,
			Report:         true,
		},
		Storage: types.StorageConfig{
			Adapter: "local",
		},
		Synthesis: types.SynthesisConfig{
			Engine:         "edge",
			MaxChars:       1000,
			TimeoutSeconds: 60,
		},
		Pipeline: types.PipelineConfig{
			UploadConcurrency: 4,
		},
		OnError:  "ask",
		LogLevel: "info",
	}
}
