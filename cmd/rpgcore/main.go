package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/l1jgo/rpgcore/internal/config"
	"github.com/l1jgo/rpgcore/internal/core/event"
	coresys "github.com/l1jgo/rpgcore/internal/core/system"
	"github.com/l1jgo/rpgcore/internal/entity"
	"github.com/l1jgo/rpgcore/internal/mapload"
	"github.com/l1jgo/rpgcore/internal/persist"
	"github.com/l1jgo/rpgcore/internal/scripting"
	"github.com/l1jgo/rpgcore/internal/system"
	"github.com/l1jgo/rpgcore/internal/world"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(start string) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m              rpgcore  v0.1.0              \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m        移動與事件模擬核心 · Go            \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1m起始地圖:\033[0m %s\n\n", start)
}

// displayWidth counts CJK runes as two columns.
func displayWidth(s string) int {
	w := 0
	for _, r := range s {
		if r > 0x7F {
			w += 2
		} else {
			w++
		}
	}
	return w
}

func printSection(title string) {
	lineLen := max(46-displayWidth(title)-1, 3)
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := max(42-displayWidth(label)-len(numStr), 3)
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main loop ─────────────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfgPath := "config/rpgcore.toml"
	if p := os.Getenv("RPGCORE_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.Maps.Start)

	// 3. Map state store
	printSection("狀態儲存")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := openStore(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("state store: %w", err)
	}
	defer store.Close()
	printOK(fmt.Sprintf("後端 %s 就緒", cfg.State.Backend))
	fmt.Println()

	// 4. World, scripting and the event systems
	printSection("引擎")
	ws := world.NewState(cfg.Movement.Seed, cfg.Movement.Magnetic)

	luaEngine, err := scripting.NewEngine(cfg.Scripting.Dir, log)
	if err != nil {
		return fmt.Errorf("lua engine: %w", err)
	}
	defer luaEngine.Close()
	printOK("Lua 腳本載入完成")

	bus := event.NewBus()
	scripts := system.NewScriptQueue(luaEngine, log)
	trigger := system.NewEventTrigger(ws, scripts, bus, log)
	luaEngine.Bind(trigger)
	trigger.SetFrozen(cfg.Engine.FreezeOnStart)

	builder := mapload.NewBuilder(ws, entity.NewFactory(luaEngine, log), store,
		cfg.Maps.Dir, cfg.State.Suffix, log)
	var loader mapload.Loader
	if cfg.Maps.Async {
		loader = mapload.NewAsync(builder, log)
	} else {
		loader = mapload.NewSync(builder)
	}

	transition := system.NewMapTransitionSystem(ws, loader, bus, log)
	saver := system.NewPersistenceSystem(ws, loader, bus, log, cfg.State.AutosaveTicks)

	runner := coresys.NewRunner()
	runner.Register(system.NewEventDispatchSystem(bus))
	runner.Register(trigger)
	runner.Register(scripts)
	runner.Register(saver)
	runner.Register(transition)

	// 5. First map
	m, err := transition.Change(cfg.Maps.Start)
	if err != nil {
		loader.Dispose()
		return fmt.Errorf("load start map: %w", err)
	}
	printStat("地圖事件", m.Len())
	printStat("多邊形", len(m.Polygons()))
	printStat("全域事件", ws.GlobalEvents())
	fmt.Println()

	// 6. Frame loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(shutdownCh)

	printSection("模擬就緒")
	printReady(fmt.Sprintf("遊戲迴圈啟動 (tick: %s)", cfg.Engine.TickRate))
	printReady("按鍵指令: +up / -up / +space / 0")
	fmt.Println()

	// stdin reads cannot be cancelled; the goroutine ends with the process
	go feedKeys(os.Stdin, ws.Keys(), log)

	loopCtx, stop := context.WithCancel(context.Background())
	defer stop()
	g, gctx := errgroup.WithContext(loopCtx)
	g.Go(func() error {
		select {
		case sig := <-shutdownCh:
			log.Info("收到關閉信號", zap.String("signal", sig.String()))
			stop()
		case <-gctx.Done():
		}
		return nil
	})
	g.Go(func() error {
		defer stop()
		ticker := time.NewTicker(cfg.Engine.TickRate)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				runner.Tick(cfg.Engine.TickRate)
			case <-gctx.Done():
				return nil
			}
		}
	})
	loopErr := g.Wait()

	// 7. Shutdown: the frame loop has exited, so the map is ours again
	saver.SaveNow()
	flush(loader, log)
	loader.Dispose()
	if a, ok := loader.(*mapload.Async); ok {
		<-a.Done()
	}
	log.Info("模擬已停止", zap.Uint64("frames", runner.Frames()))
	return loopErr
}

// openStore builds the map-state store selected by [state].backend.
func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (persist.Store, error) {
	timeout := cfg.State.SaveTimeout
	if timeout <= 0 {
		timeout = persist.DefaultTimeout
	}
	switch cfg.State.Backend {
	case config.BackendPostgres:
		return persist.NewPGStore(ctx, cfg.Database, timeout, log)
	case config.BackendRedis:
		client, err := persist.DialRedis(ctx, cfg.Redis.Addr, cfg.Redis.DB)
		if err != nil {
			return nil, err
		}
		return persist.NewRedisStore(client, cfg.Redis.KeyPrefix, timeout, log), nil
	default:
		return persist.NewFileStore(filepath.Clean(cfg.State.Dir), log)
	}
}

// flush waits for a pending store job. EndLoadMap returns once the loader
// is idle; with no load started it reports ErrNoLoad.
func flush(l mapload.Loader, log *zap.Logger) {
	if _, err := l.EndLoadMap(); err != nil && !errors.Is(err, mapload.ErrNoLoad) {
		log.Warn("等待存檔失敗", zap.Error(err))
	}
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
