// cmd/motiond/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"

	"github.com/abiosoft/ishell"
	"github.com/caarlos0/env/v6"
	log "github.com/sirupsen/logrus"

	"github.com/axisworks/motiond/internal/cia402"
	"github.com/axisworks/motiond/internal/config"
	"github.com/axisworks/motiond/internal/eni"
	"github.com/axisworks/motiond/internal/export"
	expmodbus "github.com/axisworks/motiond/internal/export/modbus"
	"github.com/axisworks/motiond/internal/fieldbus"
	"github.com/axisworks/motiond/internal/fieldbus/igh"
	"github.com/axisworks/motiond/internal/fieldbus/sim"
	"github.com/axisworks/motiond/internal/httpapi"
	"github.com/axisworks/motiond/internal/journal"
	"github.com/axisworks/motiond/internal/motion"
	"github.com/axisworks/motiond/internal/telemetry"
)

type envConfig struct {
	Config   string `env:"MOTIOND_CONFIG"`
	HTTPAddr string `env:"MOTIOND_HTTP_ADDR"`
	Debug    bool   `env:"MOTIOND_DEBUG" envDefault:"0"`
	Sim      bool   `env:"MOTIOND_SIM" envDefault:"0"`
}

func main() {
	cfgPath := flag.String("config", "", "configuration file")
	simFlag := flag.Bool("sim", false, "run against the built-in simulator")
	console := flag.Bool("console", false, "start the interactive operator shell")
	flag.Parse()

	var envc envConfig
	if err := env.Parse(&envc); err != nil {
		log.Fatalf("environment parse failed: %v", err)
	}

	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	if envc.Debug {
		log.SetLevel(log.DebugLevel)
	}

	// --------------------
	// Load + validate config
	// --------------------

	if *cfgPath == "" {
		*cfgPath = envc.Config
	}

	cfg := &config.Config{}
	if *cfgPath != "" {
		var err error
		cfg, err = config.Load(*cfgPath)
		if err != nil {
			log.Fatalf("config load failed: %v", err)
		}
	}

	if err := config.Validate(cfg); err != nil {
		log.Fatalf("config validation failed: %v", err)
	}
	config.Normalize(cfg)

	if *simFlag || envc.Sim {
		cfg.Controller.Simulate = true
	}
	if envc.HTTPAddr != "" {
		cfg.HTTP.Addr = envc.HTTPAddr
	}

	// --------------------
	// Resolve axes
	// --------------------

	var (
		axes []eni.AxisConfig
		err  error
	)
	if cfg.Controller.Descriptor != "" {
		axes, err = eni.ResolveFile(cfg.Controller.Descriptor)
		if err != nil {
			log.Fatalf("descriptor resolve failed: %v", err)
		}
	} else {
		axes = eni.DefaultAxes(cfg.Controller.Axes)
	}

	// --------------------
	// Open the master
	// --------------------

	var master fieldbus.Master
	if cfg.Controller.Simulate {
		log.Info("running against the built-in simulator")
		master = sim.New(sim.Config{PositionSlew: cfg.Controller.SimSlew})
	} else {
		master, err = igh.Open(cfg.Controller.MasterIndex)
		if err != nil {
			log.Fatalf("master open failed: %v", err)
		}
	}

	// --------------------
	// Journal (optional)
	// --------------------

	var jnl *journal.Journal
	if cfg.Journal.Path != "" {
		jnl, err = journal.Open(cfg.Journal.Path)
		if err != nil {
			log.Fatalf("journal open failed: %v", err)
		}
		defer jnl.Close()
	}

	// --------------------
	// Build the controller
	// --------------------

	mode, ok := cia402.ParseMode(cfg.Controller.Mode)
	if !ok {
		log.Fatalf("unknown mode %q", cfg.Controller.Mode)
	}

	opts := motion.Options{
		CyclePeriod:  cfg.Controller.CyclePeriod(),
		Mode:         mode,
		WarmupCycles: cfg.Controller.Warmup(),
		BarrierDelay: cfg.Controller.BarrierDelay(),
		MaxDelta:     cfg.Controller.MaxDeltaPerCycle,
	}
	if jnl != nil {
		opts.Notify = func(e motion.Event) {
			jnl.Record(journal.Event{
				Kind:   e.Kind,
				Axis:   e.Axis,
				Cycle:  e.Cycle,
				Detail: e.Detail,
			})
		}
	}

	ctrl, err := motion.Build(master, axes, opts)
	if err != nil {
		log.Fatalf("controller build failed: %v", err)
	}
	defer ctrl.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup

	// --------------------
	// Cycle engine
	// --------------------

	wg.Add(1)
	go func() {
		defer wg.Done()
		ctrl.Run(ctx)
	}()

	if jnl != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			jnl.Run(ctx)
		}()
	}

	// --------------------
	// Register export (optional)
	// --------------------

	if cfg.Export.Endpoint != "" {
		cli, err := expmodbus.New(expmodbus.Config{
			Endpoint: cfg.Export.Endpoint,
			Timeout:  cfg.Export.Timeout(),
		})
		if err != nil {
			log.Fatalf("export client failed: %v", err)
		}
		defer cli.Close()

		exp, err := export.New(export.Plan{
			UnitID:   cfg.Export.UnitID,
			BaseAddr: cfg.Export.BaseAddr,
		}, cli)
		if err != nil {
			log.Fatalf("export plan failed: %v", err)
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			exp.Run(ctx, cfg.Export.Interval(), ctrl.Snapshot)
		}()
	}

	// --------------------
	// Telemetry (optional)
	// --------------------

	if cfg.Telemetry.Broker != "" {
		pub, err := telemetry.New(telemetry.Config{
			Broker:   cfg.Telemetry.Broker,
			ClientID: cfg.Telemetry.ClientID,
			Topic:    cfg.Telemetry.Topic,
		})
		if err != nil {
			log.Fatalf("telemetry connect failed: %v", err)
		}
		defer pub.Close()

		wg.Add(1)
		go func() {
			defer wg.Done()
			pub.Run(ctx, cfg.Telemetry.Interval(), ctrl.Snapshot)
		}()
	}

	// --------------------
	// HTTP surface
	// --------------------

	httpCfg := httpapi.Config{
		Addr:           cfg.HTTP.Addr,
		StreamInterval: cfg.HTTP.StreamInterval(),
		Shutdown:       stop,
	}
	if cfg.HTTP.Auth.Enabled() {
		httpCfg.Auth = &httpapi.AuthConfig{
			User:         cfg.HTTP.Auth.User,
			PasswordHash: cfg.HTTP.Auth.PasswordHash,
			Secret:       []byte(cfg.HTTP.Auth.Secret),
		}
	}
	var events httpapi.EventSource
	if jnl != nil {
		events = jnl
	}

	srv, err := httpapi.New(httpCfg, ctrl, events)
	if err != nil {
		log.Fatalf("http server failed: %v", err)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := srv.Run(ctx); err != nil {
			log.Errorf("http server: %v", err)
		}
	}()

	// --------------------
	// Operator shell (optional)
	// --------------------

	if *console {
		go runConsole(ctrl, stop)
	}

	log.WithFields(log.Fields{
		"axes": ctrl.AxisCount(),
		"addr": cfg.HTTP.Addr,
	}).Info("motiond up")

	wg.Wait()
	log.Info("motiond stopped")
}

// runConsole serves the interactive shell. Commands act on the
// controller directly and share the process with the daemon.
func runConsole(ctrl *motion.Controller, stop func()) {
	shell := ishell.New()
	shell.Println("motiond operator shell")

	shell.AddCmd(&ishell.Cmd{
		Name: "run",
		Help: "run <forward|reverse> <step>",
		Func: func(c *ishell.Context) {
			if len(c.Args) != 2 {
				c.Err(errors.New("usage: run <forward|reverse> <step>"))
				return
			}
			var dir int
			switch c.Args[0] {
			case "forward":
				dir = 1
			case "reverse":
				dir = -1
			default:
				c.Err(fmt.Errorf("unknown direction %q", c.Args[0]))
				return
			}
			step, err := strconv.Atoi(c.Args[1])
			if err != nil {
				c.Err(fmt.Errorf("bad step %q", c.Args[1]))
				return
			}
			cmd := ctrl.SetCommand(true, dir, int32(step))
			c.Printf("running dir=%d step=%d\n", cmd.Direction, cmd.Step)
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "stop",
		Help: "halt motion, axes hold position",
		Func: func(c *ishell.Context) {
			ctrl.Stop()
			c.Println("stopped")
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "status",
		Help: "one line per axis",
		Func: func(c *ishell.Context) {
			s := ctrl.Snapshot()
			c.Printf("cycle %d run=%v dir=%d step=%d armed=%v fired=%v\n",
				s.Cycle, s.Command.Run, s.Command.Direction, s.Command.Step,
				s.Barrier.Armed, s.Barrier.Fired)
			for i, a := range s.Axes {
				c.Printf("axis %d: %-20s tgt=%-10d act=%-10d err=%#04x\n",
					i, a.State, a.Target, a.Actual, a.ErrorCode)
			}
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "diag",
		Help: "full diagnostics as JSON",
		Func: func(c *ishell.Context) {
			buf, err := json.MarshalIndent(ctrl.Snapshot(), "", "  ")
			if err != nil {
				c.Err(err)
				return
			}
			c.Println(string(buf))
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "quit",
		Help: "stop the daemon",
		Func: func(c *ishell.Context) {
			stop()
			shell.Stop()
		},
	})

	shell.Start()
}
