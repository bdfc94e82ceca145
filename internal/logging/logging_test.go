package logging

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevelRecognizesNames(t *testing.T) {
	cases := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		"warn":    zerolog.WarnLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"":        zerolog.InfoLevel,
		"bogus":   zerolog.InfoLevel,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewReturnsLoggerAtRequestedLevel(t *testing.T) {
	log := New("debug", false)
	if log.GetLevel() != zerolog.DebugLevel {
		t.Fatalf("GetLevel() = %v, want DebugLevel", log.GetLevel())
	}
}
