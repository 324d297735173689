package config

type Config struct {
	Debug   bool    `mapstructure:"debug"`
	Server  Server  `mapstructure:"server"`
	Log     Log     `mapstructure:"log"`
	Media   Media   `mapstructure:"media"`
	Records Records `mapstructure:"records"`
}

type Server struct {
	Address    string       `mapstructure:"address" validate:"omitempty,hostname|ip"`
	Port       int          `mapstructure:"port" validate:"min=0,max=65535"`
	ScratchDir string       `mapstructure:"scratch_dir" validate:"required,abspath"`
	Limits     ServerLimits `mapstructure:"limits"`
	Cors       Cors         `mapstructure:"cors"`
}

type ServerLimits struct {
	MaxFileSize     uint `mapstructure:"max_file_size" validate:"required"`
	MaxMultipartMem uint `mapstructure:"max_multipart_mem" validate:"required"`
}

type Cors struct {
	AllowedOrigins []string `mapstructure:"allowed_origins" validate:"required,min=1"`
}

type Log struct {
	Level  string `mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"omitempty,oneof=json console"`
}

type Media struct {
	Strategy   string                   `mapstructure:"strategy" validate:"required"`
	Cloudinary *CloudinaryMediaStrategy `mapstructure:"cloudinary" validate:"required_if=Strategy cloudinary"`
	S3         *S3MediaStrategy         `mapstructure:"s3" validate:"required_if=Strategy s3"`
	Filesystem *FilesystemMediaStrategy `mapstructure:"filesystem" validate:"required_if=Strategy filesystem"`
}

// CloudinaryMediaStrategy holds the hosted account credentials. They are
// normally supplied through CLOUD_NAME, API_KEY and API_SECRET.
type CloudinaryMediaStrategy struct {
	CloudName string `mapstructure:"cloud_name" validate:"required"`
	ApiKey    string `mapstructure:"api_key" validate:"required"`
	ApiSecret string `mapstructure:"api_secret" validate:"required"`
	Folder    string `mapstructure:"folder"`
}

type S3MediaStrategy struct {
	AccessKeyId    string `mapstructure:"access_key_id" validate:"required"`
	SecretKeyId    string `mapstructure:"secret_key_id" validate:"required"`
	Region         string `mapstructure:"region"`
	Bucket         string `mapstructure:"bucket" validate:"required"`
	Endpoint       string `mapstructure:"endpoint"`
	PublicUrl      string `mapstructure:"public_url" validate:"omitempty,url"`
	Prefix         string `mapstructure:"prefix"`
	ForcePathStyle bool   `mapstructure:"force_path_style"`
	DisableSSL     bool   `mapstructure:"disable_ssl"`
}

type FilesystemMediaStrategy struct {
	Path        string `mapstructure:"path" validate:"required,abspath"`
	PublicUrl   string `mapstructure:"public_url" validate:"required,url"`
	PathPattern string `mapstructure:"path_pattern" validate:"pathpattern"`
}

type Records struct {
	Strategy string               `mapstructure:"strategy" validate:"required"`
	Mongo    *MongoRecordStrategy `mapstructure:"mongo" validate:"required_if=Strategy mongo"`
	SQL      *SQLRecordStrategy   `mapstructure:"sql" validate:"required_if=Strategy sql"`
	D1       *D1RecordStrategy    `mapstructure:"d1" validate:"required_if=Strategy d1"`
}

type MongoRecordStrategy struct {
	URI             string `mapstructure:"uri" validate:"required"`
	Database        string `mapstructure:"database" validate:"required"`
	ImageCollection string `mapstructure:"image_collection" validate:"required"`
	VideoCollection string `mapstructure:"video_collection" validate:"required"`
}

type SQLRecordStrategy struct {
	Driver      string  `mapstructure:"driver" validate:"required,oneof=postgres mysql sqlite"`
	DSN         string  `mapstructure:"dsn" validate:"required"`
	TablePrefix *string `mapstructure:"table_prefix" validate:"omitempty,identifier"`
}

// D1RecordStrategy points at a Cloudflare D1 database reached over the HTTP API.
type D1RecordStrategy struct {
	AccountID   string  `mapstructure:"account_id" validate:"required"`
	DatabaseID  string  `mapstructure:"database_id" validate:"required"`
	APIToken    string  `mapstructure:"api_token" validate:"required"`
	Endpoint    string  `mapstructure:"endpoint" validate:"omitempty,url"`
	TablePrefix *string `mapstructure:"table_prefix" validate:"omitempty,identifier"`
}
