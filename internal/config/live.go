// Package config turns viper settings into the watch list, the default
// topics and the message catalog.
package config

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/tcec-chess/livefeed/internal/watch"
	"github.com/tcec-chess/livefeed/pkg/constants"
	"github.com/tcec-chess/livefeed/pkg/errors"
)

// Viper keys.
const (
	KeyLivePrefix   = "live_prefix"
	KeyLiveLog      = "live_log"
	KeyLivePGN      = "live_pgn"
	KeyFasts        = "fasts"
	KeySlows        = "slows"
	KeyChangeLogs   = "change_logs"
	KeyWatches      = "watches"
	KeyIntervalLog  = "interval_log"
	KeyIntervalPGN  = "interval_pgn"
	KeyIntervalFast = "interval_fast"
	KeyIntervalSlow = "interval_slow"
	KeySentinel     = "pgn_sentinel"
	KeySubscribes   = "subscribes"
	KeyCatalogFile  = "catalog_file"
	KeyNotify       = "fsnotify"
)

// DefaultFasts are the snapshot files rewritten every few seconds.
var DefaultFasts = []string{"data.json", "data1.json", "liveeval.json", "liveeval1.json"}

// DefaultSlows are the snapshot files rewritten a few times per game.
var DefaultSlows = []string{
	"banner.txt",
	"crash.json",
	"crosstable.json",
	"enginerating.json",
	"Eventcrosstable.json",
	"gamelist.json",
	"liveengineeval.json",
	"schedule.json",
	"tournament.json",
}

// SetDefaults registers the default of every live key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyLivePrefix, "./")
	v.SetDefault(KeyLiveLog, "live.log")
	v.SetDefault(KeyLivePGN, "live.pgn")
	v.SetDefault(KeyFasts, DefaultFasts)
	v.SetDefault(KeySlows, DefaultSlows)
	v.SetDefault(KeyChangeLogs, []string{})
	v.SetDefault(KeyIntervalLog, constants.IntervalLog)
	v.SetDefault(KeyIntervalPGN, constants.IntervalPGN)
	v.SetDefault(KeyIntervalFast, constants.IntervalFast)
	v.SetDefault(KeyIntervalSlow, constants.IntervalSlow)
	v.SetDefault(KeySentinel, "*")
	v.SetDefault(KeySubscribes, []string{})
	v.SetDefault(KeyCatalogFile, "")
	v.SetDefault(KeyNotify, false)
}

// WatchEntry is an extra watched file declared under the watches key.
type WatchEntry struct {
	File     string        `mapstructure:"file" yaml:"file"`
	Class    string        `mapstructure:"class" yaml:"class"`
	Interval time.Duration `mapstructure:"interval" yaml:"interval"`
	Topic    string        `mapstructure:"topic" yaml:"topic"`
}

// Live is the broadcast configuration.
type Live struct {
	Prefix     string
	Log        string
	PGN        string
	Fasts      []string
	Slows      []string
	ChangeLogs []string
	Extra      []WatchEntry

	IntervalLog  time.Duration
	IntervalPGN  time.Duration
	IntervalFast time.Duration
	IntervalSlow time.Duration

	Sentinel    string
	Subscribes  []string
	CatalogFile string
	Notify      bool
}

// Load reads the live configuration from v. Defaults must already be set.
func Load(v *viper.Viper) (*Live, error) {
	l := &Live{
		Prefix:       v.GetString(KeyLivePrefix),
		Log:          strings.TrimSpace(v.GetString(KeyLiveLog)),
		PGN:          strings.TrimSpace(v.GetString(KeyLivePGN)),
		Fasts:        List(v.GetStringSlice(KeyFasts)),
		Slows:        List(v.GetStringSlice(KeySlows)),
		ChangeLogs:   List(v.GetStringSlice(KeyChangeLogs)),
		IntervalLog:  v.GetDuration(KeyIntervalLog),
		IntervalPGN:  v.GetDuration(KeyIntervalPGN),
		IntervalFast: v.GetDuration(KeyIntervalFast),
		IntervalSlow: v.GetDuration(KeyIntervalSlow),
		Sentinel:     v.GetString(KeySentinel),
		Subscribes:   List(v.GetStringSlice(KeySubscribes)),
		CatalogFile:  v.GetString(KeyCatalogFile),
		Notify:       v.GetBool(KeyNotify),
	}
	if v.IsSet(KeyWatches) {
		if err := v.UnmarshalKey(KeyWatches, &l.Extra); err != nil {
			return nil, errors.NewConfigError(KeyWatches, "invalid watch list", err)
		}
	}
	for name, d := range map[string]time.Duration{
		KeyIntervalLog:  l.IntervalLog,
		KeyIntervalPGN:  l.IntervalPGN,
		KeyIntervalFast: l.IntervalFast,
		KeyIntervalSlow: l.IntervalSlow,
	} {
		if d <= 0 {
			return nil, errors.NewValidationError(name, d, "interval must be positive")
		}
	}
	return l, nil
}

// Specs returns the watch list: the transcript, the game record, the fast
// and slow snapshots, the change logs and then any extra entries. An empty
// live_log or live_pgn disables that file.
func (l *Live) Specs() ([]watch.Spec, error) {
	var specs []watch.Spec
	add := func(name string, class watch.Class, interval time.Duration, topic string) {
		specs = append(specs, watch.Spec{
			Filename: l.path(name),
			Class:    class,
			Interval: interval,
			Topic:    topic,
		})
	}

	if l.Log != "" {
		add(l.Log, watch.ClassTranscript, l.IntervalLog, "")
	}
	if l.PGN != "" {
		add(l.PGN, watch.ClassGameRecord, l.IntervalPGN, "")
	}
	for _, name := range l.Fasts {
		add(name, watch.ClassSnapshot, l.IntervalFast, "")
	}
	for _, name := range l.Slows {
		add(name, watch.ClassSnapshot, l.IntervalSlow, "")
	}
	for _, name := range l.ChangeLogs {
		add(name, watch.ClassChangeLog, l.IntervalSlow, "")
	}
	for i, e := range l.Extra {
		if strings.TrimSpace(e.File) == "" {
			return nil, errors.NewValidationError("watches.file", i, "watch entry has no file")
		}
		class, err := watch.ParseClass(e.Class)
		if err != nil {
			return nil, errors.WrapValidation("watches.class", err)
		}
		interval := e.Interval
		if interval <= 0 {
			interval = l.IntervalSlow
		}
		add(e.File, class, interval, e.Topic)
	}
	return specs, nil
}

// path resolves a configured file name against the live prefix.
func (l *Live) path(name string) string {
	if filepath.IsAbs(name) || l.Prefix == "" {
		return filepath.Clean(name)
	}
	return filepath.Join(l.Prefix, name)
}

// List trims the entries of a configured list and splits comma separated
// values, so "a.json,b.json" from an environment variable reads as two names.
func List(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		for part := range strings.SplitSeq(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
