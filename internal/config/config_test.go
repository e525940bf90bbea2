package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetEnvFallbacks(t *testing.T) {
	t.Setenv("SWAPLEDGER_STR", "value")
	t.Setenv("SWAPLEDGER_INT", "42")
	t.Setenv("SWAPLEDGER_BAD_INT", "forty-two")
	t.Setenv("SWAPLEDGER_DUR", "90s")
	t.Setenv("SWAPLEDGER_EMPTY", "")

	assert.Equal(t, "value", GetEnv("SWAPLEDGER_STR", "default"))
	assert.Equal(t, "default", GetEnv("SWAPLEDGER_EMPTY", "default"))
	assert.Equal(t, "default", GetEnv("SWAPLEDGER_MISSING", "default"))

	assert.Equal(t, 42, GetIntEnv("SWAPLEDGER_INT", 7))
	assert.Equal(t, 7, GetIntEnv("SWAPLEDGER_BAD_INT", 7))

	assert.Equal(t, 90*time.Second, GetDurationEnv("SWAPLEDGER_DUR", time.Minute))
	assert.Equal(t, time.Minute, GetDurationEnv("SWAPLEDGER_MISSING", time.Minute))
}

func TestGetListEnv(t *testing.T) {
	t.Setenv("SWAPLEDGER_BROKERS", " kafka-1:9092, ,kafka-2:9092 ")
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, GetListEnv("SWAPLEDGER_BROKERS"))
	assert.Nil(t, GetListEnv("SWAPLEDGER_NONE"))
}
