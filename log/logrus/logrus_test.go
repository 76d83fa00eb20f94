package logrus_test

import (
	"testing"

	jsconfig "github.com/goliatone/go-jsconfig"
	jslogrus "github.com/goliatone/go-jsconfig/log/logrus"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func TestLoggerWarnsOnToleratedReinit(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	rt := jsconfig.New(jsconfig.WithLogger(jslogrus.New(logger)), jsconfig.WithStrictMode(false))
	if err := rt.Init(nil); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := rt.Init(jsconfig.Defaults().With(jsconfig.WithMaxDepth(9))); err != nil {
		t.Fatalf("second init must be tolerated without strict mode: %v", err)
	}

	entry := hook.LastEntry()
	if entry == nil || entry.Level != logrus.WarnLevel {
		t.Fatalf("expected warn entry, got %+v", entry)
	}
	if entry.Data["component"] != "jsconfig" || entry.Data["strict"] != false {
		t.Fatalf("unexpected fields %v", entry.Data)
	}
}

func TestLoggerLevels(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	l := jslogrus.New(logger)

	l.Debug("d", nil)
	l.Info("i", jsconfig.Fields{"k": 1})
	l.Warn("w", nil)
	l.Error("e", nil)

	entries := hook.AllEntries()
	want := []logrus.Level{logrus.DebugLevel, logrus.InfoLevel, logrus.WarnLevel, logrus.ErrorLevel}
	if len(entries) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(entries))
	}
	for i, level := range want {
		if entries[i].Level != level {
			t.Fatalf("entry %d: expected %s, got %s", i, level, entries[i].Level)
		}
	}
	if entries[1].Data["k"] != 1 {
		t.Fatalf("expected field passthrough, got %v", entries[1].Data)
	}
}
