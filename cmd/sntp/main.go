package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/gammazero/workerpool"
	"github.com/mengzhuo/sntp"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

var (
	fc       = flag.String("c", "", "yaml or toml config file")
	fv       = flag.Int("v", 0, "ntp version 3 or 4")
	fstrict  = flag.Bool("strict", false, "reject replies whose version differs")
	ftimeout = flag.Duration("timeout", 0, "send and receive timeout")
	fset     = flag.Bool("set", false, "adjust the system clock")
	fforce   = flag.Bool("force", false, "step the clock when the offset is too large to slew")
	fmetric  = flag.String("metric", "", "prometheus metrics listen address")
	fdebug   = flag.Bool("debug", false, "development logging")
	fworkers = flag.Int("workers", 8, "concurrent queries")
)

type sample struct {
	server string
	resp   *sntp.Response
	err    error
}

func main() {
	flag.Parse()
	os.Exit(run())
}

// run returns the process exit code.
func run() int {
	var log *zap.Logger
	if *fdebug {
		log, _ = zap.NewDevelopment()
	} else {
		log, _ = zap.NewProduction()
	}
	defer log.Sync()
	sntp.SetLogger(log)

	cfg := sntp.DefaultConfig()
	if *fc != "" {
		var err error
		if cfg, err = sntp.NewConfigFromFile(*fc); err != nil {
			log.Error("load config", zap.Error(err))
			return 1
		}
	}
	overrideConfig(cfg)

	servers := lo.Uniq(lo.Compact(cfg.Servers))
	if len(servers) == 0 {
		fmt.Fprintln(os.Stderr, "usage: sntp [flags] server...")
		flag.PrintDefaults()
		return 2
	}

	var metrics *sntp.Metrics
	if cfg.Metric != "" {
		var err error
		if metrics, err = sntp.NewMetrics(nil, cfg.GeoDB); err != nil {
			log.Error("metrics", zap.Error(err))
			return 1
		}
		defer metrics.Close()
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		log.Info("listen metric", zap.String("addr", cfg.Metric))
		go func() {
			if err := http.ListenAndServe(cfg.Metric, mux); err != nil {
				log.Error("metric listener", zap.Error(err))
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	samples := query(ctx, servers, cfg.Options(metrics), *fworkers)
	for _, s := range samples {
		if s.err != nil {
			fmt.Printf("%s: %v\n", s.server, s.err)
			continue
		}
		fmt.Printf("%s: %s\n", s.server, s.resp)
	}

	best, ok := lo.Find(samples, func(s sample) bool { return s.err == nil })
	if !ok {
		log.Error("no server answered")
		return 1
	}
	if !cfg.SetClock {
		return 0
	}

	offset := best.resp.Timing.ClockOffset.Duration()
	log.Info("adjust clock", zap.String("server", best.server), zap.Duration("offset", offset))
	if err := sntp.AdjustClock(offset, best.resp.Server.Leap, cfg.ForceUpdate); err != nil {
		if errors.Is(err, sntp.ErrOffsetTooLarge) {
			log.Error("offset too large, rerun with -force to step", zap.Duration("offset", offset))
		}
		log.Error("adjust clock", zap.Error(err))
		return 1
	}
	return 0
}

func overrideConfig(cfg *sntp.Config) {
	if flag.NArg() > 0 {
		cfg.Servers = flag.Args()
	}
	if *fv != 0 {
		cfg.Version = *fv
	}
	if *ftimeout > 0 {
		cfg.SendTimeout = sntp.Duration(*ftimeout)
		cfg.ReceiveTimeout = sntp.Duration(*ftimeout)
	}
	cfg.Strict = cfg.Strict || *fstrict
	cfg.SetClock = cfg.SetClock || *fset
	cfg.ForceUpdate = cfg.ForceUpdate || *fforce
	if *fmetric != "" {
		cfg.Metric = *fmetric
	}
}

// query asks every server once. Samples keep the order of servers.
func query(ctx context.Context, servers []string, opts []sntp.Option, workers int) []sample {
	samples := make([]sample, len(servers))
	wp := workerpool.New(max(workers, 1))
	for i, server := range servers {
		wp.Submit(func() {
			samples[i].server = server
			c, err := sntp.NewClient(server, opts...)
			if err != nil {
				samples[i].err = err
				return
			}
			qctx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			samples[i].resp, samples[i].err = c.QueryContext(qctx)
		})
	}
	wp.StopWait()
	return samples
}
