package models

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGenerateOrderID(t *testing.T) {
	pattern := regexp.MustCompile(`^ORD-\d{8}-[A-Z0-9]{6}$`)

	id := GenerateOrderID()
	assert.Regexp(t, pattern, id)
	assert.Contains(t, id, time.Now().Format("20060102"))
}

func TestGenerateOrderIDIsRandomized(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		seen[GenerateOrderID()] = true
	}
	// 100 draws over a 36^6 space should essentially never collide.
	assert.Greater(t, len(seen), 95)
}
