package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/l1jgo/rpgcore/internal/movement"
)

func TestFeedKeys(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	keys := movement.NewKeyState()

	feedKeys(strings.NewReader("+up\n+Space\n\n-up\n+f13\njump\n+left\n"), keys, zap.New(core))
	assert.False(t, keys.Pressed(movement.KeyUp))
	assert.True(t, keys.Pressed(movement.KeySpace))
	assert.True(t, keys.Pressed(movement.KeyLeft))
	assert.Equal(t, 2, logs.FilterMessage("無效的按鍵指令").Len())

	feedKeys(strings.NewReader("0\n"), keys, zap.NewNop())
	assert.False(t, keys.Pressed(movement.KeySpace))
	assert.False(t, keys.Pressed(movement.KeyLeft))
}
