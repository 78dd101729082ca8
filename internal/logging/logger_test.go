package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := DefaultLogger.WithTag("test")
	log.SetLevel(Warn)
	log.SetDestination(&buf)

	log.Debug("should not appear")
	assert.Empty(t, buf.String())

	log.Warn("should appear: %d", 42)
	assert.Contains(t, buf.String(), "should appear: 42")
	assert.True(t, strings.Contains(buf.String(), "/test"))
	assert.True(t, strings.Contains(buf.String(), "logger_test.go:"))
}

func TestSetTagLevel(t *testing.T) {
	var buf bytes.Buffer
	SetTagLevel("quiet-tag", Error)
	log := DefaultLogger.WithTag("quiet-tag")
	log.SetDestination(&buf)

	log.Warn("should not appear")
	assert.Empty(t, buf.String())

	log.Error("should appear")
	assert.Contains(t, buf.String(), "should appear")
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"error": Error,
		"E":     Error,
		"warn":  Warn,
		"INFO":  Info,
		"debug": Debug,
		"trace": MaxLevel,
		"3":     Level(3),
	}
	for s, want := range cases {
		got, err := parseLevel(s)
		assert.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := parseLevel("bogus")
	assert.Error(t, err)
}
