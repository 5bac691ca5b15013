package main

import (
	"strings"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/assert"
)

func TestEmailIsTaggedPerProfile(t *testing.T) {
	faker := gofakeit.New(42)

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		addr := email(faker, "patient", i)
		assert.True(t, strings.HasPrefix(addr, "patient."), addr)
		assert.Contains(t, addr, "@")
		assert.False(t, seen[addr], "duplicate %s", addr)
		seen[addr] = true
	}
}
