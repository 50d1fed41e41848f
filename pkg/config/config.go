package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Prefix は環境変数の接頭辞です（例: ZORAGEN_GENERATOR）。
const Prefix = "zoragen"

// Generator の種類です。
const (
	GeneratorPlaceholder = "placeholder"
	GeneratorGemini      = "gemini"
)

// Settings はキット全体の設定を保持します。
type Settings struct {
	Generator    string `envconfig:"GENERATOR" default:"placeholder" validate:"oneof=placeholder gemini"`
	GeminiModel  string `envconfig:"GEMINI_MODEL" default:"gemini-2.5-flash-image" validate:"required_if=Generator gemini"`
	AspectRatio  string `envconfig:"ASPECT_RATIO" default:"1:1"`
	SystemPrompt string `envconfig:"SYSTEM_PROMPT" default:""`
	Seed         *int64 `envconfig:"SEED"`

	PlaceholderDelay time.Duration `envconfig:"PLACEHOLDER_DELAY" default:"3s" validate:"gte=0s"`
	PlaceholderSize  int           `envconfig:"PLACEHOLDER_SIZE" default:"512" validate:"gt=0"`

	GenerationTimeout time.Duration `envconfig:"GENERATION_TIMEOUT" default:"2m" validate:"gte=0s"`
	GalleryCapacity   int           `envconfig:"GALLERY_CAPACITY" default:"0" validate:"gte=0"`

	CompressSource     bool  `envconfig:"COMPRESS_SOURCE" default:"false"`
	CompressOutput     bool  `envconfig:"COMPRESS_OUTPUT" default:"false"`
	CompressionQuality int   `envconfig:"COMPRESSION_QUALITY" default:"75" validate:"gte=1,lte=100"`
	MaxSourceBytes     int64 `envconfig:"MAX_SOURCE_BYTES" default:"10485760" validate:"gt=0"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load は環境変数から設定を読み込みます。
// envFiles を指定した場合は、先に godotenv でそれらを環境へ読み込みます（既存の値は上書きしません）。
func Load(envFiles ...string) (*Settings, error) {
	if len(envFiles) > 0 {
		if err := godotenv.Load(envFiles...); err != nil {
			return nil, fmt.Errorf("failed to load env files: %w", err)
		}
	}

	var s Settings
	if err := envconfig.Process(Prefix, &s); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate は値の範囲を検証します。
func (s *Settings) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
