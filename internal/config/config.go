package config

import (
	"errors"
	"fmt"
	"hash/fnv"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Config holds the settings of the controller and its client.
type Config struct {
	// ServerAddress is the gRPC listen address of house-server and the target of house-ctl.
	ServerAddress string `yaml:"server_addr"`
	// Timeout bounds network operations and RPC calls.
	Timeout time.Duration `yaml:"timeout"`
	// LogLevel is the minimum zap level name.
	LogLevel string `yaml:"log_level,omitempty"`
	// LogFormat is "console" or "json".
	LogFormat string `yaml:"log_format,omitempty"`
	// Users may call the API. No users means authentication is disabled.
	Users []User `yaml:"users,omitempty"`
	// Houses are controlled by the server.
	Houses []House `yaml:"houses,omitempty"`
	// History configures the periodic state recorder.
	History History `yaml:"history"`
	// MQTT configures the state publisher.
	MQTT MQTT `yaml:"mqtt"`
	// Report configures the light usage report.
	Report Report `yaml:"report"`
}

// User is an API credential.
type User struct {
	Name     string `yaml:"name"`
	Password string `yaml:"password"`
}

// House describes one controlled house and its initial settings.
type House struct {
	// Name identifies the house in the API, history and reports.
	Name string `yaml:"name"`
	// Address is the hub TCP address. Empty runs the house detached, in memory.
	Address string `yaml:"address,omitempty"`
	// PollInterval is how often readings are pulled from the hub.
	PollInterval time.Duration `yaml:"poll_interval,omitempty"`
	// TargetTemp is the initial target temperature in Fahrenheit.
	TargetTemp int `yaml:"target_temp,omitempty"`
	// AlarmDelay is the grace period of the alarm in seconds.
	AlarmDelay int `yaml:"alarm_delay,omitempty"`
	// AlarmPasscode disarms the alarm.
	AlarmPasscode string `yaml:"alarm_passcode,omitempty"`
	// LockPasscode operates the electronic lock.
	LockPasscode string `yaml:"lock_passcode,omitempty"`
	// NightStart and NightEnd bound the night lock window as HHMM.
	NightStart int `yaml:"night_start,omitempty"`
	NightEnd   int `yaml:"night_end,omitempty"`
	// GroupExperiment selects the report format.
	GroupExperiment string `yaml:"group_experiment,omitempty"`
}

// History configures the recorder. MongoURI wins over File when both are set.
type History struct {
	Interval        time.Duration `yaml:"interval,omitempty"`
	File            string        `yaml:"file,omitempty"`
	MongoURI        string        `yaml:"mongo_uri,omitempty"`
	MongoDatabase   string        `yaml:"mongo_database,omitempty"`
	MongoCollection string        `yaml:"mongo_collection,omitempty"`
}

// MQTT configures the publisher. An empty Broker disables publishing.
type MQTT struct {
	Broker    string `yaml:"broker,omitempty"`
	ClientID  string `yaml:"client_id,omitempty"`
	TopicRoot string `yaml:"topic_root,omitempty"`
}

// Report configures the light usage report. S3Bucket, when set, replaces the directory sink.
type Report struct {
	Interval  time.Duration `yaml:"interval,omitempty"`
	Directory string        `yaml:"directory,omitempty"`
	S3Bucket  string        `yaml:"s3_bucket,omitempty"`
	S3Prefix  string        `yaml:"s3_prefix,omitempty"`
}

const (
	// DefaultConfigFilename is the settings file used when no path is given.
	DefaultConfigFilename = "smart-home-settings.yaml"
	// DefaultTimeout bounds network operations.
	DefaultTimeout = 5 * time.Second
	// DefaultPollInterval is the hub polling period.
	DefaultPollInterval = 5 * time.Second
	// DefaultTargetTemp is the initial target temperature.
	DefaultTargetTemp = 72
	// MinTargetTemp and MaxTargetTemp bound the accepted target temperature.
	MinTargetTemp = 50
	MaxTargetTemp = 80
	// DefaultAlarmDelay is the alarm grace period in seconds.
	DefaultAlarmDelay = 30
	// DefaultHistoryInterval is the recording period.
	DefaultHistoryInterval = time.Minute
	// DefaultHistoryFile is the file backend path.
	DefaultHistoryFile = "smart-home-history.jsonl"
	// DefaultMongoDatabase and DefaultMongoCollection name the Mongo backend location.
	DefaultMongoDatabase   = "smarthome"
	DefaultMongoCollection = "history"
	// DefaultTopicRoot prefixes every MQTT topic.
	DefaultTopicRoot = "smarthome"
	// DefaultReportInterval is the report period.
	DefaultReportInterval = 24 * time.Hour
	// DefaultReportDirectory receives report files.
	DefaultReportDirectory = "/tmp"
	// DefaultFilePermissions restricts the settings file.
	DefaultFilePermissions = 0o600
)

var (
	// ErrConfigIsNotSet is returned when a nil configuration is provided.
	ErrConfigIsNotSet = errors.New("configuration is not set")
	// ErrServerAddressRequired is returned when the server address is missing.
	ErrServerAddressRequired = errors.New("server address must be provided")
	// ErrHouseNameRequired is returned for a house without a name.
	ErrHouseNameRequired = errors.New("house name must be provided")
	// ErrDuplicateHouse is returned when two houses share a name.
	ErrDuplicateHouse = errors.New("duplicate house name")
	// ErrTargetOutOfRange is returned for a target temperature outside the accepted range.
	ErrTargetOutOfRange = errors.New("target temperature out of range")
	// ErrInvalidClockTime is returned for a night window bound that is not a valid HHMM.
	ErrInvalidClockTime = errors.New("invalid HHMM time")
	// ErrUserNameRequired is returned for a credential without a name.
	ErrUserNameRequired = errors.New("user name must be provided")
)

// Load reads and validates the settings at path.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save validates cfg and writes it to path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return ErrConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks cfg and fills defaults in place.
func Validate(cfg *Config) error {
	if cfg == nil {
		return ErrConfigIsNotSet
	}

	if cfg.ServerAddress == "" {
		return ErrServerAddressRequired
	}

	if _, err := net.ResolveTCPAddr("tcp", cfg.ServerAddress); err != nil {
		return fmt.Errorf("invalid server address: %w", err)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	for i, u := range cfg.Users {
		if u.Name == "" {
			return fmt.Errorf("user #%d: %w", i+1, ErrUserNameRequired)
		}
	}

	seen := make(map[string]struct{}, len(cfg.Houses))

	for i := range cfg.Houses {
		h := &cfg.Houses[i]

		if err := validateHouse(h); err != nil {
			return fmt.Errorf("house #%d: %w", i+1, err)
		}

		if _, ok := seen[h.Name]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateHouse, h.Name)
		}

		seen[h.Name] = struct{}{}
	}

	fillHistory(&cfg.History)
	fillMQTT(&cfg.MQTT)
	fillReport(&cfg.Report)

	return nil
}

func validateHouse(h *House) error {
	if h.Name == "" {
		return ErrHouseNameRequired
	}

	if h.Address != "" {
		if _, err := net.ResolveTCPAddr("tcp", h.Address); err != nil {
			return fmt.Errorf("invalid hub address: %w", err)
		}
	}

	if h.PollInterval <= 0 {
		h.PollInterval = DefaultPollInterval
	}

	if h.TargetTemp == 0 {
		h.TargetTemp = DefaultTargetTemp
	}

	if h.TargetTemp < MinTargetTemp || h.TargetTemp > MaxTargetTemp {
		return fmt.Errorf("%w: %d not in %d..%d", ErrTargetOutOfRange, h.TargetTemp, MinTargetTemp, MaxTargetTemp)
	}

	if h.AlarmDelay <= 0 {
		h.AlarmDelay = DefaultAlarmDelay
	}

	for _, t := range []int{h.NightStart, h.NightEnd} {
		if !ValidClockTime(t) {
			return fmt.Errorf("%w: %d", ErrInvalidClockTime, t)
		}
	}

	if h.GroupExperiment == "" {
		h.GroupExperiment = DefaultGroup(h.Name)
	}

	return nil
}

func fillHistory(h *History) {
	if h.Interval <= 0 {
		h.Interval = DefaultHistoryInterval
	}

	if h.MongoURI == "" && h.File == "" {
		h.File = DefaultHistoryFile
	}

	if h.MongoDatabase == "" {
		h.MongoDatabase = DefaultMongoDatabase
	}

	if h.MongoCollection == "" {
		h.MongoCollection = DefaultMongoCollection
	}
}

func fillMQTT(m *MQTT) {
	if m.TopicRoot == "" {
		m.TopicRoot = DefaultTopicRoot
	}

	if m.Broker != "" && m.ClientID == "" {
		m.ClientID = "house-server-" + uuid.NewString()
	}
}

func fillReport(r *Report) {
	if r.Interval <= 0 {
		r.Interval = DefaultReportInterval
	}

	if r.Directory == "" {
		r.Directory = DefaultReportDirectory
	}
}

// ValidClockTime reports whether t is a valid HHMM time of day.
func ValidClockTime(t int) bool {
	return t >= 0 && t/100 < 24 && t%100 < 60
}

// DefaultGroup assigns a house to experiment group "1" or "2" from its name.
func DefaultGroup(name string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(name))

	return strconv.Itoa(int(h.Sum32()%2) + 1)
}

// House returns the settings of the named house.
func (c *Config) House(name string) (House, bool) {
	for _, h := range c.Houses {
		if h.Name == name {
			return h, true
		}
	}

	return House{}, false
}
