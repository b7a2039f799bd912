package cache

import (
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"

	"github.com/jonathan/resume-analyzer/internal/types"
)

func TestKey_Deterministic(t *testing.T) {
	doc := types.RawDocument{Text: "Jane Doe\npython", PageCount: 1, Source: "a.pdf"}
	k1 := Key(doc, "v1")
	k2 := Key(doc, "v1")

	assert.Equal(t, k1, k2)
	assert.True(t, strings.HasPrefix(k1, KeyPrefix))
	assert.Len(t, strings.TrimPrefix(k1, KeyPrefix), 64)
}

func TestKey_IgnoresSource(t *testing.T) {
	a := types.RawDocument{Text: "same", PageCount: 1, Source: "a.pdf"}
	b := types.RawDocument{Text: "same", PageCount: 1, Source: "b.docx"}
	assert.Equal(t, Key(a, ""), Key(b, ""))
}

func TestKey_VariesWithInputs(t *testing.T) {
	base := types.RawDocument{Text: "text", PageCount: 1}
	keys := map[string]bool{
		Key(base, "v1"): true,
		Key(types.RawDocument{Text: "text", PageCount: 2}, "v1"): true,
		Key(types.RawDocument{Text: "other", PageCount: 1}, "v1"): true,
		Key(base, "v2"): true,
	}
	assert.Len(t, keys, 4)
}

func TestKey_SeparatesTextFromPageCount(t *testing.T) {
	a := types.RawDocument{Text: "x1", PageCount: 2}
	b := types.RawDocument{Text: "x", PageCount: 12}
	assert.NotEqual(t, Key(a, ""), Key(b, ""))
}

func TestNewWithClient_DefaultTTL(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:0"})
	defer client.Close()

	assert.Equal(t, DefaultTTL, NewWithClient(client, 0).TTL())
	assert.Equal(t, time.Minute, NewWithClient(client, time.Minute).TTL())
}
