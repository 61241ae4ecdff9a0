package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dpetrovs/trimirror/internal/flagx"
	"github.com/dpetrovs/trimirror/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON unmarshalling.
// It uses timex.Duration for interval fields, which allows parsing both
// string values such as "30s" and integer nanoseconds.
//
// This struct is an intermediate DTO (Data Transfer Object) used only for
// reading JSON configuration files. After unmarshalling, its fields are
// copied into the runtime Config struct which uses time.Duration.
type JsonConfig struct {
	DatabaseDSN    string         `json:"database_dsn"`
	BackendTimeout timex.Duration `json:"backend_timeout"`
	MasterKey      string         `json:"master_key"`
	KeySalt        string         `json:"key_salt"`

	S3AccessKey string `json:"s3_access_key"`
	S3SecretKey string `json:"s3_secret_key"`
	S3Bucket    string `json:"s3_bucket"`
	S3Region    string `json:"s3_region"`
	S3Endpoint  string `json:"s3_endpoint"`

	AzureAccountName string `json:"azure_account_name"`
	AzureAccountKey  string `json:"azure_account_key"`
	AzureServiceURL  string `json:"azure_service_url"`
	AzureContainer   string `json:"azure_container"`

	GCSBucket    string `json:"gcs_bucket"`
	GCSProjectID string `json:"gcs_project_id"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance.
//
// The lookup order for the JSON file path is:
//
//	The -c or -config command-line flags.
//	If it is not set, no JSON file is loaded.
//
// If the file path is found, parseJson attempts to read and unmarshal it
// into a JsonConfig. The resulting values are copied into the target Config.
// If the file cannot be read or contains invalid JSON, the function panics.
//
// The caller is expected to merge these values with defaults, environment
// variables, and command-line flags as part of the full configuration process.
func parseJson(config *Config) {

	// try flags
	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	config.DatabaseDSN = c.DatabaseDSN
	config.BackendTimeout = time.Duration(c.BackendTimeout.Duration)
	config.MasterKey = c.MasterKey
	config.KeySalt = c.KeySalt
	config.S3AccessKey = c.S3AccessKey
	config.S3SecretKey = c.S3SecretKey
	config.S3Bucket = c.S3Bucket
	config.S3Region = c.S3Region
	config.S3Endpoint = c.S3Endpoint
	config.AzureAccountName = c.AzureAccountName
	config.AzureAccountKey = c.AzureAccountKey
	config.AzureServiceURL = c.AzureServiceURL
	config.AzureContainer = c.AzureContainer
	config.GCSBucket = c.GCSBucket
	config.GCSProjectID = c.GCSProjectID
}
