package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"

	"github.com/Septrum101/linodeDdns/config"
	"github.com/Septrum101/linodeDdns/controller"
)

func main() {
	config.ShowVersion()

	printVersion := flag.Bool("version", false, "show version")
	configPath := flag.String("c", "", "config file path")
	interval := flag.Int("s", 0, "seconds to sleep between updates, 0 runs once")
	dryRun := flag.Bool("dry-run", false, "log planned changes without applying them")
	flag.Parse()
	if *printVersion {
		return
	}

	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	// init config
	getConfig, err := config.GetConfig(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "s":
			getConfig.Set("interval", *interval)
		case "dry-run":
			getConfig.Set("dryrun", *dryRun)
		}
	})
	c, err := config.Unmarshal(getConfig)
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// run once
	if c.Interval == 0 && c.Cron == "" {
		s, err := controller.New(c)
		if err != nil {
			log.Fatal(err)
		}
		err = s.Run(ctx)
		s.Close()
		if err != nil {
			log.Fatal(err)
		}
		return
	}

	// start service
	r := &runner{parent: ctx, errc: make(chan error, 1)}
	if err := r.start(c); err != nil {
		log.Fatal(err)
	}

	// hot reload configure
	var mu sync.Mutex
	lastTime := time.Now()
	getConfig.OnConfigChange(func(e fsnotify.Event) {
		mu.Lock()
		defer mu.Unlock()

		if time.Now().After(lastTime.Add(time.Second * 3)) {
			log.Println("Config file changed:", e.Name)
			newConf, err := config.Unmarshal(getConfig)
			if err != nil {
				log.Errorf("Reload skipped, keep running the previous config: %v", err)
				return
			}
			// release server resource
			r.stop()

			// create server
			if err := r.start(newConf); err != nil {
				select {
				case r.errc <- err:
				default:
				}
			}
		}
		lastTime = time.Now()
	})
	getConfig.WatchConfig()

	select {
	case <-ctx.Done():
		r.stop()
	case err := <-r.errc:
		r.stop()
		log.Fatal(err)
	}
}

// runner owns the running service so a config reload can swap it.
type runner struct {
	sync.Mutex
	parent context.Context
	cancel context.CancelFunc
	svc    *controller.Service
	errc   chan error
}

func (r *runner) start(c *config.Config) error {
	s, err := controller.New(c)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(r.parent)

	r.Lock()
	r.svc, r.cancel = s, cancel
	r.Unlock()

	go func() {
		if err := s.Run(ctx); err != nil {
			select {
			case r.errc <- err:
			default:
			}
		}
	}()
	return nil
}

func (r *runner) stop() {
	r.Lock()
	defer r.Unlock()
	if r.cancel == nil {
		return
	}
	r.cancel()
	r.svc.Close()
	r.cancel, r.svc = nil, nil
}
