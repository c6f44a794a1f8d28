package controller

import (
	"context"
	"fmt"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"github.com/Septrum101/linodeDdns/app/reconcile"
	"github.com/Septrum101/linodeDdns/config"
)

const notifyWorkers = 4

func New(c *config.Config, opts ...Option) (*Service, error) {
	s := &Service{conf: c}
	for _, opt := range opts {
		opt(s)
	}

	// init log level
	if l, err := log.ParseLevel(c.LogLevel); err != nil {
		return nil, &config.ConfigError{Key: "LogLevel", Err: err}
	} else {
		log.SetLevel(l)
		fmt.Printf("Log level: %s  (Provider: %s)\n", c.LogLevel, c.DDNS.Provider)
	}

	rc := buildReconcileConfig(c)
	s.name = rc.Name()

	if s.client == nil {
		client, err := buildClient(c)
		if err != nil {
			return nil, err
		}
		s.client = client
	}
	if s.resolver == nil {
		resolver, err := buildResolver(c)
		if err != nil {
			return nil, err
		}
		s.resolver = resolver
	}
	if s.notifier == nil {
		s.notifier = buildNotifier(c)
	}
	if s.notifier != nil {
		pool, err := ants.NewPool(notifyWorkers, ants.WithNonblocking(true))
		if err != nil {
			return nil, err
		}
		s.pool = pool
	}

	s.reconciler = reconcile.New(s.client, s.resolver, rc)
	return s, nil
}

// Run reconciles once, then keeps going on the configured cron schedule or
// interval. Without either it returns the result of the single cycle.
// A cancelled ctx ends the loop without error.
func (s *Service) Run(ctx context.Context) error {
	s.serveMetrics()

	switch {
	case s.conf.Cron != "":
		return s.runCron(ctx)
	case s.conf.Interval > 0:
		return s.runInterval(ctx)
	default:
		return s.task(ctx)
	}
}

// runInterval sleeps Interval after the end of every cycle, so cycles never
// overlap and a slow cycle delays the next one.
func (s *Service) runInterval(ctx context.Context) error {
	interval := time.Second * time.Duration(s.conf.Interval)
	log.Warnf("%s Started, interval %s", config.AppName, interval)

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-timer.C:
		}

		if err := s.task(ctx); err != nil && s.fatal(ctx, err) {
			return err
		}
		timer.Reset(interval)
	}
}

func (s *Service) runCron(ctx context.Context) error {
	errc := make(chan error, 1)

	s.Lock()
	s.cron = cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(log.StandardLogger()))))
	_, err := s.cron.AddFunc(s.conf.Cron, func() {
		if err := s.task(ctx); err != nil && s.fatal(ctx, err) {
			select {
			case errc <- err:
			default:
			}
		}
	})
	s.Unlock()
	if err != nil {
		return &config.ConfigError{Key: "Cron", Err: err}
	}

	// On start, do once check
	if err := s.task(ctx); err != nil && s.fatal(ctx, err) {
		return err
	}

	s.cron.Start()
	log.Warnf("%s Started, schedule %q", config.AppName, s.conf.Cron)
	defer func() { <-s.cron.Stop().Done() }()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errc:
		return err
	}
}

// fatal decides whether a cycle error ends a continuous run. An unknown
// domain always does, other errors only when ContinueOnError is off.
func (s *Service) fatal(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	return reconcile.IsDomainNotFound(err) || !s.conf.ContinueOnError
}

func (s *Service) task(ctx context.Context) error {
	if !s.cronRunning.CompareAndSwap(false, true) {
		log.Warnf("[%s] Previous cycle still running, skip", s.name)
		return nil
	}
	defer s.cronRunning.Store(false)

	start := time.Now()
	res, err := s.reconciler.Reconcile(ctx)
	observeCycle(time.Since(start), res, err)

	if res != nil {
		s.notify(res.Applied)
	}
	if err != nil {
		s.healthy.Store(false)
		log.Errorf("[%s] Cycle failed: %v", s.name, err)
		return err
	}
	s.healthy.Store(true)
	return nil
}

// notify pushes every applied create and update without blocking the cycle.
func (s *Service) notify(ops []reconcile.Operation) {
	if s.notifier == nil || s.pool == nil {
		return
	}

	for _, op := range ops {
		if op.Action == reconcile.Delete {
			continue
		}
		content := "Successful " + op.String()
		if err := s.pool.Submit(func() {
			if err := s.notifier.Webhook(s.name, content); err != nil {
				log.Errorf("[%s] Notify failed: %v", s.name, err)
			}
		}); err != nil {
			log.Warnf("[%s] Notify dropped: %v", s.name, err)
		}
	}
}

func (s *Service) Close() {
	s.Lock()
	defer s.Unlock()
	if s.closed {
		return
	}
	s.closed = true

	log.Infoln(config.AppName, "Closing..")
	if s.cron != nil {
		entry := s.cron.Entries()
		for i := range entry {
			s.cron.Remove(entry[i].ID)
		}
		<-s.cron.Stop().Done()
	}
	if s.metrics != nil {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
		defer cancel()
		if err := s.metrics.Shutdown(ctx); err != nil {
			log.Warnf("Metrics server shutdown: %v", err)
		}
	}
	if s.pool != nil {
		if err := s.pool.ReleaseTimeout(time.Second * 5); err != nil {
			log.Warnf("Notify pool release: %v", err)
		}
	}
}
