package config

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCSV(t *testing.T) {
	assert.Nil(t, CSV(""))
	assert.Equal(t, []string{"a:9092", "b:9092"}, CSV(" a:9092, ,b:9092 "))
}

func TestEnvDefaults(t *testing.T) {
	t.Setenv("EASYSTORE_TEST_STR", "")
	t.Setenv("EASYSTORE_TEST_INT", "nope")
	assert.Equal(t, "def", EnvDefault("EASYSTORE_TEST_STR", "def"))
	assert.Equal(t, 7, EnvIntDefault("EASYSTORE_TEST_INT", 7))

	t.Setenv("EASYSTORE_TEST_INT", "9090")
	assert.Equal(t, 9090, EnvIntDefault("EASYSTORE_TEST_INT", 7))
}

func TestLoad(t *testing.T) {
	t.Setenv("STORE_DRIVER", "mongo")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("SERVER_PORT", "")

	cfg := Load()
	assert.Equal(t, "mongo", cfg.StoreDriver)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 8080, cfg.ServerPort)
}

func TestWarnIfEmpty(t *testing.T) {
	missing := WarnIfEmpty(map[string]string{"A": "", "B": "x", "C": ""})
	sort.Strings(missing)
	assert.Equal(t, []string{"A", "C"}, missing)
}
