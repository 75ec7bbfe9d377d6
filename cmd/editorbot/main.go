package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"voxeledit.ai/internal/config"
	"voxeledit.ai/internal/editor"
	"voxeledit.ai/internal/editor/scene"
	"voxeledit.ai/internal/editor/terrain"
	"voxeledit.ai/internal/sim/input"
	"voxeledit.ai/internal/transport/ws"
)

const defaultScript = "activate:terrain,tile:1,move_forward*2,expand_selection_right*2,insertion,wait*3," +
	"activate:actor,select:2,move_right*4,rotate_selection_right,insertion,wait*3"

func main() {
	var (
		url        = flag.String("url", "ws://localhost:8090/v1/ws", "relay ws url")
		name       = flag.String("name", "editorbot", "client name")
		configPath = flag.String("config", "./configs/editor.yaml", "editor config path")
		script     = flag.String("script", defaultScript, "comma-separated step list")
		stepTicks  = flag.Int("step_ticks", 4, "ticks between script steps")
		linger     = flag.Duration("linger", 2*time.Second, "keep syncing after the script ends")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[editorbot] ", log.LstdFlags|log.Lmicroseconds)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	steps, err := parseScript(*script)
	if err != nil {
		logger.Fatalf("script: %v", err)
	}
	if *stepTicks <= 0 {
		*stepTicks = 1
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	dialCtx, dialCancel := context.WithTimeout(ctx, 5*time.Second)
	link, err := ws.Dial(dialCtx, *url, *name)
	dialCancel()
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer link.Close()

	welcome := link.Welcome()
	opts := cfg.EditorOptions(logger)
	opts.Tile = mgl32.Vec3(welcome.TileDimensions)
	tickRate := welcome.TickRateHz
	if tickRate <= 0 {
		tickRate = cfg.TickRateHz
	}

	s := scene.NewHeadless()
	e := editor.New(welcome.ClientID, editor.Deps{
		Scene:    s,
		Registry: cfg.Registry(),
		Map:      terrain.NewMap(cfg.MapBounds()),
	}, opts)
	cam := editor.NewLookCamera(mgl32.Vec3{0, 0, 1})
	if err := e.AddClient(welcome.ClientID, cam); err != nil {
		logger.Fatalf("add local client: %v", err)
	}
	logger.Printf("connected client=%d tick_rate=%dHz steps=%d", welcome.ClientID, tickRate, len(steps))

	b := &bot{e: e, in: input.NewState(), cam: cam, logger: logger, steps: steps}

	dt := time.Second / time.Duration(tickRate)
	ticker := time.NewTicker(dt)
	defer ticker.Stop()

	var tick uint64
	var lingerUntil time.Time
	for {
		select {
		case <-ctx.Done():
			summarize(logger, e)
			return
		case raw, ok := <-link.Recv():
			if !ok {
				logger.Printf("link closed: %v", link.Err())
				summarize(logger, e)
				return
			}
			b.receive(raw)
			continue
		case <-ticker.C:
		}

		tick++
		if tick%uint64(*stepTicks) == 0 {
			b.next()
		}
		b.in.Advance(dt)
		e.Tick(b.in)
		b.release()

		for _, msg := range e.Outbound() {
			if err := link.Send(msg); err != nil {
				logger.Printf("send %T: %v", msg, err)
			}
		}

		if b.done() {
			if lingerUntil.IsZero() {
				lingerUntil = time.Now().Add(*linger)
			}
			if time.Now().After(lingerUntil) {
				summarize(logger, e)
				return
			}
		}
	}
}

func summarize(logger *log.Logger, e *editor.Engine) {
	id := e.LocalClient()
	for _, k := range []editor.Kind{editor.KindTerrain, editor.KindActor} {
		if v, ok := e.Volume(id, k); ok {
			logger.Printf("volume %s origin=%v dims=%v active=%t", k, v.Origin.ToArray(), v.Dimensions.ToArray(), v.Active)
		}
	}
	_, pending := e.Pending(id)
	logger.Printf("tiles=%d actors=%d pending=%t", e.Map().Count(), e.Actors().Len(), pending)
}
