package logger_test

import (
	"bytes"
	"encoding/json"
	"sync"
	"testing"

	"openclaw/internal/logger"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	log, err := logger.NewWithWriter(&buf, "prod", "info")
	require.NoError(t, err)

	log.Debug().Msg("hidden")
	log.Info().Str("reminder_id", "r1").Msg("reminder delivered")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "reminder delivered", entry["message"])
	assert.Equal(t, "r1", entry["reminder_id"])
	assert.Equal(t, "info", entry["level"])
	assert.Contains(t, entry, "timestamp")
}

func TestNewWithWriter_Errors(t *testing.T) {
	_, err := logger.NewWithWriter(&bytes.Buffer{}, "prod", "loud")
	assert.Error(t, err)

	_, err = logger.NewWithWriter(&bytes.Buffer{}, "staging", "info")
	assert.Error(t, err)
}

func TestNewWithWriter_EmptyLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	log, err := logger.NewWithWriter(&buf, "dev", "")
	require.NoError(t, err)

	log.Debug().Msg("hidden")
	assert.Zero(t, buf.Len())
}

func TestNewWithWriter_ConcurrentConstruction(t *testing.T) {
	// Arrange
	assert.Equal(t, "timestamp", zerolog.TimestampFieldName)
	bufs := make([]bytes.Buffer, 8)

	// Act
	var wg sync.WaitGroup
	for i := range bufs {
		wg.Add(1)
		go func(buf *bytes.Buffer) {
			defer wg.Done()
			log, err := logger.NewWithWriter(buf, "prod", "info")
			if assert.NoError(t, err) {
				log.Info().Msg("cycle finished")
			}
		}(&bufs[i])
	}
	wg.Wait()

	// Assert
	for i := range bufs {
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(bufs[i].Bytes(), &entry))
		assert.Contains(t, entry, "timestamp")
	}
}
