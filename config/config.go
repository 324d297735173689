package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// DefaultMaxFileSize is the largest upload accepted unless configured otherwise.
const DefaultMaxFileSize = 100 << 20

// envBindings maps configuration keys onto the plain environment variables
// the service has always been deployed with.
var envBindings = map[string]string{
	"server.port":                 "PORT",
	"media.cloudinary.cloud_name": "CLOUD_NAME",
	"media.cloudinary.api_key":    "API_KEY",
	"media.cloudinary.api_secret": "API_SECRET",
	"records.mongo.uri":           "MONGO_URI",
	"records.mongo.database":      "MONGO_DATABASE",
}

func (c *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterValidation("abspath", ValidateAbsPath)
	validate.RegisterValidation("pathpattern", ValidatePathPattern)
	validate.RegisterValidation("identifier", ValidateIdentifier)

	if err := validate.Struct(c); err != nil {
		return err
	}

	return nil
}

// LoadConfig reads the optional YAML file, layers the environment on top and
// validates the result. An empty file name loads from defaults and environment only.
func LoadConfig(file string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("CLOUDSHELF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, err
		}
	}

	if strings.TrimSpace(file) != "" {
		v.SetConfigFile(file)
		v.SetConfigType("yaml")

		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("debug", false)

	v.SetDefault("server.address", "0.0.0.0")
	v.SetDefault("server.port", 3001)
	v.SetDefault("server.scratch_dir", filepath.Join(os.TempDir(), "cloudshelf"))
	v.SetDefault("server.limits.max_file_size", DefaultMaxFileSize)
	v.SetDefault("server.limits.max_multipart_mem", 32<<20)
	v.SetDefault("server.cors.allowed_origins", []string{"*"})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("media.strategy", "cloudinary")

	v.SetDefault("records.strategy", "mongo")
	v.SetDefault("records.mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("records.mongo.database", "cloudshelf")
	v.SetDefault("records.mongo.image_collection", "images")
	v.SetDefault("records.mongo.video_collection", "videos")
}
