package config

import (
	"flag"
	"os"
	"time"

	"github.com/dpetrovs/trimirror/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-d string   PostgreSQL DSN
//	-t int      per-backend write timeout, seconds
//	-u string   S3 access key
//	-p string   S3 secret key
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 endpoint (e.g., "http://127.0.0.1:9000/")
//	-an string  Azure storage account name
//	-ak string  Azure storage account key
//	-au string  Azure blob service URL
//	-ac string  Azure container name
//	-gb string  GCS bucket name
//	-gp string  GCS project id
//
// Notes:
//   - The function first filters os.Args to only the flags it recognizes using
//     flagx.FilterArgs, avoiding collisions with other components.
//   - The timeout flag is accepted as an integer in seconds and then converted
//     to a time.Duration value.
//   - The master key is deliberately not a flag; it would show up in process
//     listings. Use TRIMIRROR_MASTER_KEY or the JSON file instead.
func parseFlags(config *Config) {
	// Filter args to include only the flags handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{
		"-d", "-t", "-u", "-p", "-b", "-g", "-e",
		"-an", "-ak", "-au", "-ac", "-gb", "-gp",
	})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")

	backendTimeout := fs.Int("t", int(config.BackendTimeout.Seconds()), "backend write timeout (in seconds)")

	fs.StringVar(&config.S3AccessKey, "u", config.S3AccessKey, "S3 access key")
	fs.StringVar(&config.S3SecretKey, "p", config.S3SecretKey, "S3 secret key")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3Endpoint, "e", config.S3Endpoint, "S3 endpoint")

	fs.StringVar(&config.AzureAccountName, "an", config.AzureAccountName, "Azure account name")
	fs.StringVar(&config.AzureAccountKey, "ak", config.AzureAccountKey, "Azure account key")
	fs.StringVar(&config.AzureServiceURL, "au", config.AzureServiceURL, "Azure blob service URL")
	fs.StringVar(&config.AzureContainer, "ac", config.AzureContainer, "Azure container")

	fs.StringVar(&config.GCSBucket, "gb", config.GCSBucket, "GCS bucket")
	fs.StringVar(&config.GCSProjectID, "gp", config.GCSProjectID, "GCS project id")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.BackendTimeout = time.Duration(*backendTimeout) * time.Second
}
