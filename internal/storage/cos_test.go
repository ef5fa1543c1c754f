package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perf-attribution/pkg/config"
)

func validCOSConfig() *COSConfig {
	return &COSConfig{
		Bucket:    "results-1250000000",
		Region:    "ap-guangzhou",
		SecretID:  "id",
		SecretKey: "key",
	}
}

func TestNewCOSStoreDefaults(t *testing.T) {
	s, err := NewCOSStore(validCOSConfig())
	require.NoError(t, err)

	assert.Equal(t,
		"https://results-1250000000.cos.ap-guangzhou.myqcloud.com/cold_start/run-1/round-1/result.json",
		s.URL(ResultKey("cold_start", 1, 1)))
}

func TestNewCOSStoreCustomDomainScheme(t *testing.T) {
	cfg := validCOSConfig()
	cfg.Domain = "internal.example.com"
	cfg.Scheme = "http"

	s, err := NewCOSStore(cfg)
	require.NoError(t, err)
	assert.Equal(t,
		"http://results-1250000000.cos.ap-guangzhou.internal.example.com/k",
		s.URL("k"))
}

func TestNewCOSStoreValidation(t *testing.T) {
	cfg := validCOSConfig()
	cfg.Bucket = ""
	_, err := NewCOSStore(cfg)
	assert.Error(t, err)

	cfg = validCOSConfig()
	cfg.SecretKey = ""
	_, err = NewCOSStore(cfg)
	assert.Error(t, err)
}

func TestNewSelectsCOS(t *testing.T) {
	s, err := New(&config.StorageConfig{
		Type:      "cos",
		Bucket:    "b-1250000000",
		Region:    "ap-guangzhou",
		SecretID:  "id",
		SecretKey: "key",
	})
	require.NoError(t, err)
	_, ok := s.(*COSStore)
	assert.True(t, ok)
}
