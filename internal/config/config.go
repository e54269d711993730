package config

import (
	_ "embed"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

type Config struct {
	Engine   EngineConfig
	Roster   RosterConfig
	Embedder EmbedderConfig
	Database DatabaseConfig
	MariaDB  MariaDBConfig
	Defaults DefaultsConfig
}

type EngineConfig struct {
	Dim          int    // embedding dimension, defaults to 128
	DetectorMode string // initial detector mode: "fast" or "accurate"
	UseIndex     bool   // build an approximate NN index over store snapshots
}

type RosterConfig struct {
	StudentsFile  string // path to the students JSON file
	EncodingsFile string // path to the encodings JSON file
}

type EmbedderConfig struct {
	URL     string // detect-and-embed service, defaults to http://localhost:8000
	Timeout int    // request timeout in seconds (default 30)
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL
	MaxOpenConns int    // maximum open connections (default 25)
	MaxIdleConns int    // maximum idle connections (default 5)
}

type MariaDBConfig struct {
	DSN string // optional MariaDB DSN for exporting attendance to an existing school database
}

// DefaultsConfig mirrors the embedded defaults.yaml: quality assessment
// parameters and the initial thresholds used before the first calibration.
type DefaultsConfig struct {
	Quality struct {
		MinFaceSize   int     `yaml:"min_face_size"`
		MaxFaceSize   int     `yaml:"max_face_size"`
		BlurThreshold float64 `yaml:"blur_threshold"`
		BrightnessMin float64 `yaml:"brightness_min"`
		BrightnessMax float64 `yaml:"brightness_max"`
		Weights       struct {
			Size        float64 `yaml:"size"`
			Blur        float64 `yaml:"blur"`
			Brightness  float64 `yaml:"brightness"`
			Orientation float64 `yaml:"orientation"`
		} `yaml:"weights"`
	} `yaml:"quality"`
	Thresholds struct {
		Distance   float64 `yaml:"distance"`
		Confidence float64 `yaml:"confidence"`
		Quality    float64 `yaml:"quality"`
	} `yaml:"thresholds"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envBool reads an environment variable as a boolean flag.
func envBool(key string, defaultVal bool) bool {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	return defaultVal
}

// envString reads an environment variable with a fallback.
func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

func Load() *Config {
	var defaults DefaultsConfig
	if err := yaml.Unmarshal(defaultsYAML, &defaults); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded defaults.yaml: " + err.Error())
	}

	return &Config{
		Engine: EngineConfig{
			Dim:          envInt("EMBEDDING_DIM", 128),
			DetectorMode: envString("DETECTOR_MODE", "fast"),
			UseIndex:     envBool("USE_HNSW_INDEX", false),
		},
		Roster: RosterConfig{
			StudentsFile:  envString("ROSTER_STUDENTS_FILE", "json_data/students.json"),
			EncodingsFile: envString("ROSTER_ENCODINGS_FILE", "json_data/encodings.json"),
		},
		Embedder: EmbedderConfig{
			URL:     envString("EMBEDDER_URL", "http://localhost:8000"),
			Timeout: envInt("EMBEDDER_TIMEOUT", 30),
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		MariaDB: MariaDBConfig{
			DSN: os.Getenv("MARIADB_DSN"),
		},
		Defaults: defaults,
	}
}
