package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithLevels(t *testing.T) {
	for level, want := range map[string]logrus.Level{
		"debug": logrus.DebugLevel,
		"warn":  logrus.WarnLevel,
		"error": logrus.ErrorLevel,
		"":      logrus.InfoLevel,
		"bogus": logrus.InfoLevel,
	} {
		l := NewWith("local", level, &bytes.Buffer{})
		assert.Equal(t, want, l.Logger.GetLevel(), level)
	}
}

func TestJSONOutsideLocal(t *testing.T) {
	var buf bytes.Buffer
	l := NewWith("production", "info", &buf)
	l.WithError(errors.New("boom")).Info("load failed")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "boom", line["error"])
	assert.Equal(t, "load failed", line["msg"])
}

func TestWithRequest(t *testing.T) {
	var buf bytes.Buffer
	l := NewWith("production", "info", &buf)

	r := httptest.NewRequest("GET", "/map.svg", nil)
	r.Header.Set(RequestIDHeader, "abc-123")
	l.WithRequest(r).Info("served")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "abc-123", line["req_id"])
	assert.Equal(t, "/map.svg", line["path"])

	fresh := httptest.NewRequest("GET", "/", nil)
	assert.Len(t, RequestID(fresh), 36)
	assert.Same(t, l.Entry, l.WithError(nil))
}
