package controller

import (
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/panjf2000/ants/v2"
	"github.com/robfig/cron/v3"

	"github.com/Septrum101/linodeDdns/app/reconcile"
	"github.com/Septrum101/linodeDdns/common/ddns"
	"github.com/Septrum101/linodeDdns/common/notify"
	"github.com/Septrum101/linodeDdns/config"
)

type Service struct {
	sync.Mutex
	conf        *config.Config
	name        string
	client      ddns.Client
	resolver    reconcile.Resolver
	reconciler  *reconcile.Reconciler
	notifier    notify.Notify
	pool        *ants.Pool
	cron        *cron.Cron
	cronRunning atomic.Bool
	healthy     atomic.Bool
	metrics     *http.Server
	closed      bool
}

// Option replaces a component New would otherwise build from the config.
type Option func(s *Service)

func WithClient(client ddns.Client) Option {
	return func(s *Service) { s.client = client }
}

func WithResolver(resolver reconcile.Resolver) Option {
	return func(s *Service) { s.resolver = resolver }
}

func WithNotifier(notifier notify.Notify) Option {
	return func(s *Service) { s.notifier = notifier }
}
