package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/halcyongames/sentinel/internal/core/behavior"
	"github.com/halcyongames/sentinel/internal/core/observability/log"
	"github.com/halcyongames/sentinel/internal/server"
	"github.com/halcyongames/sentinel/internal/sim"
)

func main() {
	var (
		addr       = flag.String("addr", ":8090", "debug server listen address")
		agents     = flag.Int("agents", 4, "number of simulated agents")
		tick       = flag.Duration("tick", 33*time.Millisecond, "agent tick interval")
		presetPath = flag.String("presets", "", "optional preset file (json or yaml)")
		debugLog   = flag.Bool("debug", false, "enable debug logging")
	)
	flag.Parse()

	level := log.LevelInfo
	if *debugLog {
		level = log.LevelDebug
	}
	logger := log.New(level)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := behavior.NewManager(logger, nil)

	var extra map[string]*behavior.Definition
	if *presetPath != "" {
		file, err := behavior.LoadPresetFile(*presetPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "loading presets:", err)
			os.Exit(1)
		}
		extra = make(map[string]*behavior.Definition, len(file.Presets))
		for _, p := range file.Presets {
			extra[p.Name] = p.Tree
		}
	}

	roles := []behavior.Role{
		behavior.RoleAssault,
		behavior.RoleDefender,
		behavior.RoleSupport,
		behavior.RoleSniper,
	}
	world := sim.NewWorld(manager.Bus())
	for i := 0; i < *agents; i++ {
		id := fmt.Sprintf("agent-%d", i+1)
		engine := behavior.NewEngine(behavior.Config{
			AgentID:  id,
			Role:     roles[i%len(roles)],
			TickRate: *tick,
			Logger:   logger,
			World:    world.Spawn(id),
		})
		if err := manager.AddAgent(engine, extra); err != nil {
			fmt.Fprintln(os.Stderr, "adding agent:", err)
			os.Exit(1)
		}
	}

	if err := manager.StartAll(); err != nil {
		fmt.Fprintln(os.Stderr, "starting agents:", err)
		os.Exit(1)
	}
	manager.StartAutoUpdate(ctx, *tick)
	world.Run(ctx)

	debugSrv := server.NewDebugServer(manager, logger, *addr)
	if err := debugSrv.Start(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "starting debug server:", err)
		os.Exit(1)
	}

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	<-stopCh

	cancel()
	manager.StopAll()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := debugSrv.Stop(shutdownCtx); err != nil {
		fmt.Fprintln(os.Stderr, "stopping debug server:", err)
	}
}
