package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestValidate checks required fields and format validations.
func TestValidate(t *testing.T) {
	t.Parallel()

	require.ErrorIs(t, Validate(nil), ErrConfigIsNotSet)
	require.ErrorIs(t, Validate(new(Config)), ErrServerAddressRequired)
	require.Error(t, Validate(&Config{ServerAddress: "bad:address"}))

	cases := []struct {
		name  string
		house House
		err   error
	}{
		{"no name", House{}, ErrHouseNameRequired},
		{"too cold", House{Name: "a", TargetTemp: 40}, ErrTargetOutOfRange},
		{"too hot", House{Name: "a", TargetTemp: 81}, ErrTargetOutOfRange},
		{"bad night start", House{Name: "a", NightStart: 2460}, ErrInvalidClockTime},
		{"bad night end", House{Name: "a", NightEnd: 2400}, ErrInvalidClockTime},
	}

	for _, tc := range cases {
		cfg := &Config{ServerAddress: "127.0.0.1:0", Houses: []House{tc.house}}
		require.ErrorIs(t, Validate(cfg), tc.err, tc.name)
	}

	cfg := &Config{
		ServerAddress: "127.0.0.1:0",
		Houses:        []House{{Name: "a"}, {Name: "a"}},
	}
	require.ErrorIs(t, Validate(cfg), ErrDuplicateHouse)

	cfg = &Config{
		ServerAddress: "127.0.0.1:0",
		Users:         []User{{Password: "x"}},
	}
	require.ErrorIs(t, Validate(cfg), ErrUserNameRequired)
}

// TestValidateDefaults fills every optional setting.
func TestValidateDefaults(t *testing.T) {
	t.Parallel()

	cfg := &Config{
		ServerAddress: "127.0.0.1:50051",
		Houses:        []House{{Name: "lakeside", NightStart: 2200, NightEnd: 600}},
		MQTT:          MQTT{Broker: "tcp://127.0.0.1:1883"},
	}

	require.NoError(t, Validate(cfg))
	require.Equal(t, DefaultTimeout, cfg.Timeout)

	h := cfg.Houses[0]
	require.Equal(t, DefaultPollInterval, h.PollInterval)
	require.Equal(t, DefaultTargetTemp, h.TargetTemp)
	require.Equal(t, DefaultAlarmDelay, h.AlarmDelay)
	require.Equal(t, DefaultGroup("lakeside"), h.GroupExperiment)

	require.Equal(t, DefaultHistoryInterval, cfg.History.Interval)
	require.Equal(t, DefaultHistoryFile, cfg.History.File)
	require.Equal(t, DefaultTopicRoot, cfg.MQTT.TopicRoot)
	require.Contains(t, cfg.MQTT.ClientID, "house-server-")
	require.Equal(t, 24*time.Hour, cfg.Report.Interval)
	require.Equal(t, DefaultReportDirectory, cfg.Report.Directory)

	got, ok := cfg.House("lakeside")
	require.True(t, ok)
	require.Equal(t, 2200, got.NightStart)

	_, ok = cfg.House("nowhere")
	require.False(t, ok)
}

func TestDefaultGroup(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"a", "b", "lakeside", "downtown", ""} {
		g := DefaultGroup(name)
		require.Contains(t, []string{"1", "2"}, g)
		require.Equal(t, g, DefaultGroup(name))
	}
}

func TestValidClockTime(t *testing.T) {
	t.Parallel()

	for _, v := range []int{0, 600, 2359, 1230} {
		require.True(t, ValidClockTime(v), v)
	}

	for _, v := range []int{-1, 2400, 1260, 9999} {
		require.False(t, ValidClockTime(v), v)
	}
}

// TestSaveLoadRoundtrip persists settings and loads them back.
func TestSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "settings.yaml")

	cfg := &Config{
		ServerAddress: "127.0.0.1:50051",
		Users:         []User{{Name: "admin", Password: "secret"}},
		Houses: []House{{
			Name:          "lakeside",
			Address:       "127.0.0.1:9000",
			AlarmPasscode: "1234",
			LockPasscode:  "4321",
			NightStart:    2200,
			NightEnd:      600,
		}},
		Report: Report{S3Bucket: "reports", S3Prefix: "daily/"},
	}

	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg, loaded)

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(DefaultFilePermissions), info.Mode().Perm())
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
