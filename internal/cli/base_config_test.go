package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBaseConfigAsArgs(t *testing.T) {
	config := BaseConfig{
		AdbPort:            10,
		ConnectionPoolSize: 20,
		LogLevel:           "warn",
		CacheTtl:           30 * time.Second,
		ServeDebug:         true,
		Serial:             "EMULATOR-5554",
		Timeout:            5 * time.Second,
		ChunkLogInterval:   100,
	}

	expectedArgs := []string{
		"--port=10",
		"--pool=20",
		"--log=warn",
		"--cachettl=30s",
		"--debug",
		"--no-verbose",
		"--serial=EMULATOR-5554",
		"--timeout=5s",
		"--chunk-log-interval=100",
	}

	assert.Equal(t, expectedArgs, config.AsArgs())
}

func TestFormatBoolFlag(t *testing.T) {
	assert.Equal(t, "--debug", formatFlag("debug", true))
	assert.Equal(t, "--no-debug", formatFlag("debug", false))
}
