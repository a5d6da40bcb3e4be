package types

// Config represents the overall application configuration
type Config struct {
	Output    OutputConfig    `yaml:"output" json:"output"`
	Storage   StorageConfig   `yaml:"storage" json:"storage"`
	Synthesis SynthesisConfig `yaml:"synthesis" json:"synthesis"`
	Pipeline  PipelineConfig  `yaml:"pipeline" json:"pipeline"`
	OnError   string          `yaml:"on_error" json:"on_error"`   // "ask", "skip", "edit"
	LogLevel  string          `yaml:"log_level" json:"log_level"` // "debug", "info", "warning", "error"
}

// OutputConfig holds audiobook output settings
type OutputConfig struct {
	Directory      string  `yaml:"directory" json:"directory"`
	Format         string  `yaml:"format" json:"format"`   // "mp3" or "wav"
	Bitrate        string  `yaml:"bitrate" json:"bitrate"` // ffmpeg audio bitrate, e.g. "192k"
	SilenceSeconds float64 `yaml:"silence_seconds" json:"silence_seconds"`
	SkipGap        string  `yaml:"skip_gap" json:"skip_gap"` // "omit" or "silence"
	Overwrite      bool    `yaml:"overwrite" json:"overwrite"`
	Package        bool    `yaml:"package" json:"package"` // also write a .zip bundle
	Report         bool    `yaml:"report" json:"report"`   // write report.json per book
}

// StorageConfig defines storage adapter settings
type StorageConfig struct {
	Adapter string           `yaml:"adapter" json:"adapter"` // "local" or "s3"
	Local   LocalStorageOpts `yaml:"local" json:"local"`
	S3      S3StorageOpts    `yaml:"s3" json:"s3"`
}

// LocalStorageOpts configures the local filesystem adapter
type LocalStorageOpts struct {
	BasePath string `yaml:"base_path" json:"base_path"` // empty: use output.directory
}

// S3StorageOpts configures the S3-compatible adapter
type S3StorageOpts struct {
	Endpoint        string `yaml:"endpoint" json:"endpoint"`
	Region          string `yaml:"region" json:"region"`
	Bucket          string `yaml:"bucket" json:"bucket"`
	Prefix          string `yaml:"prefix" json:"prefix"`
	AccessKeyID     string `yaml:"access_key_id" json:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key" json:"secret_access_key"`
	UsePathStyle    bool   `yaml:"use_path_style" json:"use_path_style"`
}

// SynthesisConfig configures the synthesis engine for a run
type SynthesisConfig struct {
	Engine         string            `yaml:"engine" json:"engine"`
	Model          string            `yaml:"model" json:"model"` // model or voice name, engine-specific
	SpeakerWav     string            `yaml:"speaker_wav" json:"speaker_wav"`
	Language       string            `yaml:"language" json:"language"`
	MaxChars       int               `yaml:"max_chars" json:"max_chars"` // per-segment text limit
	RateLimit      float64           `yaml:"rate_limit" json:"rate_limit"` // requests per second, 0 = unlimited
	TimeoutSeconds int               `yaml:"timeout_seconds" json:"timeout_seconds"`
	Options        map[string]string `yaml:"options" json:"options"` // engine-specific options
}

// Voice builds the immutable per-run voice configuration.
func (s SynthesisConfig) Voice() VoiceConfig {
	return VoiceConfig{
		Model:      s.Model,
		SpeakerWav: s.SpeakerWav,
		Language:   s.Language,
	}
}

// PipelineConfig holds pipeline-level settings
type PipelineConfig struct {
	TempDir           string `yaml:"temp_dir" json:"temp_dir"` // staging area, empty: system temp
	UploadConcurrency int    `yaml:"upload_concurrency" json:"upload_concurrency"`
}
