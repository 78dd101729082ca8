package logging

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fatih/color"
)

// Level is a logging verbosity. Higher values are more verbose.
type Level int

const (
	Error Level = iota - 2
	Warn
	Info
	Debug

	// MaxLevel is the highest numeric level accepted by parseLevel.
	MaxLevel Level = 9
)

// levelSpec bundles everything level.go needs to know about one named
// level: the aliases accepted on LOGLEVEL, the one-letter prefix, and the
// color its prefix prints in.
type levelSpec struct {
	level   Level
	aliases []string
	letter  byte
	color   *color.Color
}

var levelSpecs = []levelSpec{
	{Error, []string{"E", "ERROR"}, 'E', color.New(color.FgRed, color.Bold)},
	{Warn, []string{"W", "WARN"}, 'W', color.New(color.FgYellow, color.Bold)},
	{Info, []string{"I", "INFO"}, 'I', color.New(color.FgGreen, color.Bold)},
	{Debug, []string{"D", "DEBUG"}, 'D', color.New(color.FgCyan, color.Bold)},
}

func findSpec(l Level) (levelSpec, bool) {
	for _, s := range levelSpecs {
		if s.level == l {
			return s, true
		}
	}
	return levelSpec{}, false
}

// ParseLevel is the exported form of parseLevel, for callers (e.g. a
// --log-level flag) that need to validate and apply a level string
// themselves instead of going through the LOGLEVEL environment variable.
func ParseLevel(s string) (Level, error) {
	return parseLevel(s)
}

// parseLevel accepts a level name/abbreviation ("debug", "W"), the literal
// "trace"/"T" (aliasing MaxLevel), or a bare integer in [Error, MaxLevel].
func parseLevel(s string) (Level, error) {
	upper := strings.ToUpper(s)
	if upper == "T" || upper == "TRACE" {
		return MaxLevel, nil
	}
	for _, spec := range levelSpecs {
		for _, alias := range spec.aliases {
			if alias == upper {
				return spec.level, nil
			}
		}
	}

	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid logging level %q", s)
	}
	level := Level(n)
	if level < Error || level > MaxLevel {
		return 0, fmt.Errorf("logging level %q out of range [%d,%d]", s, Error, MaxLevel)
	}
	return level, nil
}

func (l Level) String() string {
	if spec, ok := findSpec(l); ok {
		return strings.Title(strings.ToLower(spec.aliases[1]))
	}
	if l > Debug {
		return fmt.Sprintf("Trace(%d)", l)
	}
	return fmt.Sprintf("Level(%d)", l)
}

// letter is the single-character level tag printed in each log line.
func (l Level) letter() byte {
	if spec, ok := findSpec(l); ok {
		return spec.letter
	}
	if l > Debug {
		return byte('0' + l) // numeric trace level, 2..9
	}
	return '?'
}

// paint renders s in this level's color, or returns s unchanged for a
// level with no assigned color (anything past Debug).
func (l Level) paint(s string) string {
	if spec, ok := findSpec(l); ok {
		return spec.color.Sprint(s)
	}
	return s
}
