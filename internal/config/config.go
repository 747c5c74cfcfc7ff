// Package config reads runtime settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/EvalVis/chesscorner/internal/blob"
	"github.com/EvalVis/chesscorner/internal/puzzle"
)

// Environment variable names.
const (
	EnvEasyMin     = "CHESSCORNER_EASY_MIN_RATING"
	EnvEasyMax     = "CHESSCORNER_EASY_MAX_RATING"
	EnvMediumMin   = "CHESSCORNER_MEDIUM_MIN_RATING"
	EnvMediumMax   = "CHESSCORNER_MEDIUM_MAX_RATING"
	EnvHardMin     = "CHESSCORNER_HARD_MIN_RATING"
	EnvHardMax     = "CHESSCORNER_HARD_MAX_RATING"
	EnvBlobDriver  = "CHESSCORNER_BLOB_DRIVER"
	EnvFSRoot      = "CHESSCORNER_BLOB_FS_ROOT"
	EnvS3Bucket    = "CHESSCORNER_BLOB_S3_BUCKET"
	EnvS3Region    = "CHESSCORNER_BLOB_S3_REGION"
	EnvS3Endpoint  = "CHESSCORNER_BLOB_S3_ENDPOINT"
	EnvS3PathStyle = "CHESSCORNER_BLOB_S3_PATH_STYLE"
	EnvSQLitePath  = "CHESSCORNER_BLOB_SQLITE_PATH"
	EnvPostgresDSN = "CHESSCORNER_BLOB_POSTGRES_DSN"
	EnvHTTPBase    = "CHESSCORNER_BLOB_HTTP_BASE"
	EnvDatasetKey  = "CHESSCORNER_DATASET_KEY"
	EnvRulesPrefix = "CHESSCORNER_RULES_PREFIX"
)

// HardMaxSentinel as the hard band maximum means no upper bound.
const HardMaxSentinel = 9999

// Defaults for values that are not band limits.
const (
	DefaultFSRoot      = "./public"
	DefaultSQLitePath  = "chesscorner.db"
	DefaultRulesPrefix = "custom_rules"
)

// Config is the resolved runtime configuration.
type Config struct {
	Bands       puzzle.Bands
	Blob        blob.Options
	DatasetKey  string
	RulesPrefix string
}

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment
// without overriding variables that are already set. A missing file is not an
// error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// FromEnv is Load over os.Getenv.
func FromEnv() (Config, error) { return Load(os.Getenv) }

// Load resolves configuration through getenv. Band limits that are unset,
// unparseable or zero take their defaults; bands are not checked for tiling.
func Load(getenv func(string) string) (Config, error) {
	def := puzzle.DefaultBands()
	hardMax := intOr(getenv(EnvHardMax), HardMaxSentinel)
	if hardMax == HardMaxSentinel {
		hardMax = puzzle.Unbounded
	}
	cfg := Config{
		Bands: puzzle.Bands{
			Easy:   puzzle.Range{Min: intOr(getenv(EnvEasyMin), def.Easy.Min), Max: intOr(getenv(EnvEasyMax), def.Easy.Max)},
			Medium: puzzle.Range{Min: intOr(getenv(EnvMediumMin), def.Medium.Min), Max: intOr(getenv(EnvMediumMax), def.Medium.Max)},
			Hard:   puzzle.Range{Min: intOr(getenv(EnvHardMin), def.Hard.Min), Max: hardMax},
		},
		DatasetKey:  stringOr(getenv(EnvDatasetKey), puzzle.DefaultDatasetKey),
		RulesPrefix: strings.Trim(stringOr(getenv(EnvRulesPrefix), DefaultRulesPrefix), "/"),
	}

	driver := blob.Driver(strings.ToLower(stringOr(getenv(EnvBlobDriver), string(blob.DriverFilesystem))))
	opts, err := BlobOptions(driver, getenv)
	if err != nil {
		return Config{}, err
	}
	cfg.Blob = opts
	return cfg, nil
}

// BlobOptions resolves the settings of driver through getenv.
func BlobOptions(driver blob.Driver, getenv func(string) string) (blob.Options, error) {
	opts := blob.Options{Driver: driver}
	switch driver {
	case blob.DriverFilesystem:
		opts.FSRoot = stringOr(getenv(EnvFSRoot), DefaultFSRoot)
	case blob.DriverS3:
		opts.S3 = blob.S3Config{
			Bucket:    getenv(EnvS3Bucket),
			Region:    getenv(EnvS3Region),
			Endpoint:  getenv(EnvS3Endpoint),
			PathStyle: strings.EqualFold(getenv(EnvS3PathStyle), "true"),
		}
		if opts.S3.Bucket == "" {
			return blob.Options{}, fmt.Errorf("%s required for s3 driver", EnvS3Bucket)
		}
	case blob.DriverMemory:
	case blob.DriverSQLite:
		opts.SQLitePath = stringOr(getenv(EnvSQLitePath), DefaultSQLitePath)
	case blob.DriverPostgres:
		opts.PostgresDSN = getenv(EnvPostgresDSN)
		if opts.PostgresDSN == "" {
			return blob.Options{}, fmt.Errorf("%s required for postgres driver", EnvPostgresDSN)
		}
	case blob.DriverHTTP:
		opts.HTTPBase = getenv(EnvHTTPBase)
		if opts.HTTPBase == "" {
			return blob.Options{}, fmt.Errorf("%s required for http driver", EnvHTTPBase)
		}
	default:
		return blob.Options{}, fmt.Errorf("unknown blob driver %q", driver)
	}
	return opts, nil
}

func intOr(raw string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n == 0 {
		return fallback
	}
	return n
}

func stringOr(raw, fallback string) string {
	if v := strings.TrimSpace(raw); v != "" {
		return v
	}
	return fallback
}
