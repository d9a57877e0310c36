// Package config provides centralized management for application settings, defaults, and the Viper-based configuration engine.
package config

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"text/template"

	"github.com/hlsrip-cli/hlsrip/color"
	"github.com/hlsrip-cli/hlsrip/constant"
	"github.com/hlsrip-cli/hlsrip/key"
	"github.com/hlsrip-cli/hlsrip/style"
	"github.com/samber/lo"
	"github.com/spf13/viper"
)

// Field represents a configuration field definition.
type Field struct {
	Key         string
	Value       any
	Description string
	// Options, when set, lists the only accepted values.
	Options     []string
}

// Pretty returns a colored string representation of the field for display.
func (f *Field) Pretty() string {
	var b strings.Builder
	lo.Must0(prettyTemplate.Execute(&b, f))
	return b.String()
}

// Env returns the environment variable name for this field.
func (f *Field) Env() string {
	env := strings.ToUpper(EnvKeyReplacer.Replace(f.Key))
	prefix := strings.ToUpper(constant.App + "_")
	if strings.HasPrefix(env, prefix) {
		return env
	}
	return prefix + env
}

// MarshalJSON customizes JSON output to include current and default values.
func (f *Field) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Key         string `json:"key"`
		Value       any    `json:"value"`
		Default     any    `json:"default"`
		Description string   `json:"description"`
		Type        string   `json:"type"`
		Options     []string `json:"options,omitempty"`
	}{
		Key:         f.Key,
		Value:       viper.Get(f.Key),
		Default:     f.Value,
		Description: f.Description,
		Type:        f.typeName(),
		Options:     f.Options,
	})
}

// typeName returns the string representation of the field's underlying value type.
func (f *Field) typeName() string {
	switch f.Value.(type) {
	case string:
		return "string"
	case int:
		return "int"
	case bool:
		return "bool"
	case []string:
		return "[]string"
	case []int:
		return "[]int"
	default:
		return "unknown"
	}
}

// Default holds the map of all configuration fields.
var Default = make(map[string]Field)

// EnvExposed holds keys that are bound to environment variables.
var EnvExposed []string

func init() {
	// register validates and adds a new configuration field to the global registry.
	register := func(k string, v any, desc string, options ...string) {
		if _, exists := Default[k]; exists {
			panic("Duplicate config key: " + k)
		}
		f := Field{Key: k, Value: v, Description: desc, Options: options}
		Default[k] = f
		EnvExposed = append(EnvExposed, k)
	}

	register(key.GrabOutputDir, "./ts_parts", "Base directory for per-session segment folders")
	register(key.GrabConcurrency, 6, "Number of segments fetched in parallel.\nKeep it modest to avoid rate limiting")
	register(key.GrabRetries, 3, "Attempts per segment before it is recorded as failed")
	register(key.GrabBackoffMillis, 500, "Base delay of the exponential retry backoff, in milliseconds")
	register(key.GrabTimeout, 1800, "Upper bound for a whole run, in seconds. 0 disables it")
	register(key.GrabDetectWindow, 25, "Seconds to wait for a manifest observation")
	register(key.GrabSegmentTimeout, 60, "Per-request timeout for a single segment, in seconds")
	register(key.GrabTransport, "http", "Segment transport.\nAvailable options are: http (native), curl (external)", "http", "curl")
	register(key.GrabMaxSegments, 100000, "Largest segment range a run accepts.\nDetected spreads above it are rejected")
	register(key.AssembleRemuxer, "auto", "Remux backend.\nAvailable options are: auto, ffmpeg, concat", "auto", "ffmpeg", "concat")
	register(key.AssembleFFmpeg, "ffmpeg", "Path or name of the ffmpeg executable")
	register(key.AssembleCurl, "curl", "Path or name of the curl executable used by the curl transport")
	register(key.NetworkFingerprint, false, "Use a Chrome TLS fingerprint for manifest and segment requests")
	register(key.AuthCacheLifetime, 72, "Hours a cached session stays valid")
	register(key.AuthLoginURL, "", "Login page opened in the browser for interactive sessions.\nDefaults to the target page")
	register(key.HistorySave, true, "Record finished runs in the history registry")
	register(key.IconsVariant, "plain", "Icons variant.\nAvailable options are: emoji, kaomoji, plain, squares, nerd (nerd-font required)", "emoji", "kaomoji", "plain", "squares", "nerd")
	register(key.LogsWrite, false, "Write logs")
	register(key.LogsLevel, "info", "Available options are: (from less to most verbose)\npanic, fatal, error, warn, info, debug, trace", "panic", "fatal", "error", "warn", "info", "debug", "trace")
	register(key.LogsJson, false, "Use json format for logs")
	register(key.CliColored, true, "Enable colored CLI output")
	register(key.CliVersionCheck, true, "Enable automatic version check")
	register(key.CliProgress, true, "Show an animated progress view while segments download")
}

var prettyTemplate = lo.Must(template.New("pretty").Funcs(template.FuncMap{
	"faint":    style.Faint,
	"bold":     style.Bold,
	"purple":   style.Fg(color.Purple),
	"blue":     style.Fg(color.Blue),
	"cyan":     style.Fg(color.Cyan),
	"value":    func(k string) any { return viper.Get(k) },
	"typename": func(v any) string { return reflect.TypeOf(v).String() },
	"hl": func(v any) string {
		switch value := v.(type) {
		case bool:
			b := strconv.FormatBool(value)
			if value {
				return style.Fg(color.Green)(b)
			}
			return style.Fg(color.Red)(b)
		case string:
			return style.Fg(color.Yellow)(value)
		default:
			return fmt.Sprint(value)
		}
	},
}).Parse(`{{ faint .Description }}
{{ blue "Key:" }}     {{ purple .Key }}
{{ blue "Env:" }}     {{ .Env }}
{{ blue "Value:" }}   {{ hl (value .Key) }}
{{ blue "Default:" }} {{ hl (.Value) }}
{{ blue "Type:" }}    {{ typename .Value }}`))
