package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestInitWith_JSON(t *testing.T) {
	var buf bytes.Buffer
	InitWith("debug", "json", &buf)

	WithComponent("test").WithField("tiles", 3).Debug("placed")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Expected JSON log line, got %q: %v", buf.String(), err)
	}
	if entry["component"] != "test" {
		t.Errorf("Expected component field, got %v", entry["component"])
	}
	if entry["msg"] != "placed" {
		t.Errorf("Expected msg 'placed', got %v", entry["msg"])
	}
}

func TestInitWith_InvalidLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	InitWith("chatty", "text", &buf)

	if Log.GetLevel() != logrus.InfoLevel {
		t.Errorf("Expected info level, got %s", Log.GetLevel())
	}

	Log.Debug("hidden")
	Log.Info("shown")
	if strings.Contains(buf.String(), "hidden") {
		t.Error("Debug message should be filtered at info level")
	}
	if !strings.Contains(buf.String(), "shown") {
		t.Error("Info message should be written")
	}
}
