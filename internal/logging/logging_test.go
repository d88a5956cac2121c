package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestConfigure_LevelAndJSON(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() {
		SetOutput(os.Stderr)
		Configure("info", "text")
	})

	Configure("warn", "json")
	if Log().GetLevel() != logrus.WarnLevel {
		t.Errorf("level = %s, want warn", Log().GetLevel())
	}

	Log().Info("dropped")
	Log().WithField("component", "test").Warn("kept")

	var entry map[string]interface{}
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("output is not a single JSON entry: %v (%q)", err, buf.String())
	}
	if entry["msg"] != "kept" {
		t.Errorf("msg = %v, want %q", entry["msg"], "kept")
	}
	if entry["component"] != "test" {
		t.Errorf("component = %v, want %q", entry["component"], "test")
	}
}

func TestConfigure_UnknownLevelKeepsCurrent(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() { SetOutput(os.Stderr) })

	Configure("debug", "text")
	Configure("loud", "text")
	if Log().GetLevel() != logrus.DebugLevel {
		t.Errorf("level = %s, want debug", Log().GetLevel())
	}
	Configure("info", "text")
}
