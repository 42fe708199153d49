package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/mind-engage/mindengage-grades/internal/grading"
)

// DefaultPath is loaded when no config path is given and the file exists.
const DefaultPath = "config.yaml"

// SourceFile names the config file in configuration errors.
const SourceFile = "config_file"

// File is the on-disk configuration, YAML or JSON.
type File struct {
	Canvas      CanvasSection  `yaml:"canvas" json:"canvas"`
	Exclusions  Exclusions     `yaml:"exclusions" json:"exclusions"`
	Weights     WeightsSection `yaml:"weights" json:"weights"`
	FinalPolicy PolicySection  `yaml:"final_policy" json:"final_policy"`
	Cache       CacheSection   `yaml:"cache,omitempty" json:"cache,omitempty"`
	Serve       ServeSection   `yaml:"serve,omitempty" json:"serve,omitempty"`
}

type CanvasSection struct {
	BaseURL string `yaml:"base_url,omitempty" json:"base_url,omitempty" validate:"omitempty,url"`
	Token   string `yaml:"token,omitempty" json:"token,omitempty"`
}

type Exclusions struct {
	IDs          IDList   `yaml:"ids" json:"ids"`
	NameContains []string `yaml:"name_contains" json:"name_contains"`
}

type WeightsSection struct {
	Default    Weights            `yaml:"default,omitempty" json:"default,omitempty" validate:"omitempty,dive,gte=0"`
	ByCourseID map[string]Weights `yaml:"by_course_id,omitempty" json:"by_course_id,omitempty" validate:"omitempty,dive,keys,numeric,endkeys,dive,gte=0"`
}

type PolicySection struct {
	Default    string            `yaml:"default,omitempty" json:"default,omitempty" validate:"omitempty,oneof=ignore_all missing_zero_upcoming_ignore all_zero"`
	ByCourseID map[string]string `yaml:"by_course_id,omitempty" json:"by_course_id,omitempty" validate:"omitempty,dive,keys,numeric,endkeys,oneof=ignore_all missing_zero_upcoming_ignore all_zero"`
}

type CacheSection struct {
	Driver string `yaml:"driver,omitempty" json:"driver,omitempty" validate:"omitempty,oneof=none sqlite postgres redis"`
	DSN    string `yaml:"dsn,omitempty" json:"dsn,omitempty"`
	TTL    string `yaml:"ttl,omitempty" json:"ttl,omitempty"`
}

type ServeSection struct {
	Addr          string   `yaml:"addr,omitempty" json:"addr,omitempty" validate:"omitempty,hostname_port"`
	HMACSecret    string   `yaml:"hmac_secret,omitempty" json:"hmac_secret,omitempty" validate:"omitempty,min=16"`
	AdminUser     string   `yaml:"admin_user,omitempty" json:"admin_user,omitempty"`
	AdminPassHash string   `yaml:"admin_pass_hash,omitempty" json:"admin_pass_hash,omitempty"`
	Refresh       string   `yaml:"refresh,omitempty" json:"refresh,omitempty"`
	CORSOrigins   []string `yaml:"cors_origins,omitempty" json:"cors_origins,omitempty"`
	ExportDir     string   `yaml:"export_dir,omitempty" json:"export_dir,omitempty"`
}

var validate = validator.New()

// Discover returns explicit when set, otherwise DefaultPath if it exists, otherwise "".
func Discover(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if _, err := os.Stat(DefaultPath); err == nil {
		return DefaultPath
	}
	return ""
}

// Load reads and validates a config file. An empty path yields an empty File.
func Load(path string) (*File, error) {
	f := &File{}
	if path == "" {
		return f, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := decode(path, b, f); err != nil {
		return nil, &grading.ConfigurationError{Source: SourceFile, Value: path, Reason: err.Error()}
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// Validate checks field formats and policy values.
func (f *File) Validate() error {
	if err := validate.Struct(f); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return &grading.ConfigurationError{
				Source: SourceFile,
				Value:  fmt.Sprintf("%s=%v", fe.Namespace(), fe.Value()),
				Reason: "failed " + fe.Tag() + " check",
			}
		}
		return &grading.ConfigurationError{Source: SourceFile, Reason: err.Error()}
	}
	if f.Cache.TTL != "" {
		if d, err := time.ParseDuration(f.Cache.TTL); err != nil || d <= 0 {
			return &grading.ConfigurationError{Source: SourceFile, Value: "cache.ttl=" + f.Cache.TTL, Reason: "not a positive duration"}
		}
	}
	return nil
}

// Save writes f as YAML, creating parent directories. The file holds a token
// so it is written 0600.
func Save(path string, f *File) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, buf.Bytes(), 0o600)
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yml" || ext == ".yaml"
}

func decode(path string, b []byte, out any) error {
	if len(bytes.TrimSpace(b)) == 0 {
		return nil
	}
	if isYAML(path) {
		return yaml.Unmarshal(b, out)
	}
	return json.Unmarshal(b, out)
}

// WeightsFor returns the per-course and default weight maps for courseID.
func (f *File) WeightsFor(courseID int64) (course, def map[string]float64) {
	return f.Weights.ByCourseID[strconv.FormatInt(courseID, 10)], f.Weights.Default
}

// PolicyFor returns the per-course and default policy names for courseID.
func (f *File) PolicyFor(courseID int64) (course, def string) {
	return f.FinalPolicy.ByCourseID[strconv.FormatInt(courseID, 10)], f.FinalPolicy.Default
}

// CacheTTL returns the configured TTL or def.
func (f *File) CacheTTL(def time.Duration) time.Duration {
	if d, err := time.ParseDuration(f.Cache.TTL); err == nil && d > 0 {
		return d
	}
	return def
}

// Credentials resolves the Canvas base URL and token: flag, then file, then environment.
func Credentials(flagBase, flagToken string, f *File, env Config) (base, token string) {
	return firstNonEmpty(flagBase, f.Canvas.BaseURL, env.CanvasBaseURL),
		firstNonEmpty(flagToken, f.Canvas.Token, env.CanvasToken)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
