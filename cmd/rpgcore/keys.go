package main

import (
	"bufio"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/l1jgo/rpgcore/internal/movement"
)

// feedKeys reads key commands from r, one per line: "+up" presses a key,
// "-up" releases it and "0" releases every key. It returns at EOF.
func feedKeys(r io.Reader, keys *movement.KeyState, log *zap.Logger) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if line == "0" {
			keys.ReleaseAll()
			continue
		}
		press := line[0] == '+'
		if !press && line[0] != '-' {
			log.Warn("無效的按鍵指令", zap.String("line", line))
			continue
		}
		k, err := movement.ParseKey(line[1:])
		if err != nil {
			log.Warn("無效的按鍵指令", zap.String("line", line), zap.Error(err))
			continue
		}
		if press {
			keys.Press(k)
		} else {
			keys.Release(k)
		}
	}
}
