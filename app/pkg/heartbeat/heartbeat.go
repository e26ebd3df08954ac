package heartbeat

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dnsx2k/hmsbase/app/pkg/client"
	"github.com/dnsx2k/hmsbase/app/pkg/listener"
	"go.uber.org/zap"
)

// HeartBeater - keeps names of clients which answered ping recently
type HeartBeater interface {
	Beat(name string)
	Alive() []string
	Listener() listener.Listener
	Run(ctx context.Context)
}

type srvContext struct {
	expiry        map[string]time.Time
	mutex         sync.Mutex
	logger        *zap.Logger
	clientTTL     time.Duration
	checkInterval time.Duration
	now           func() time.Time
}

func New(logger *zap.Logger, clientTTL, checkInterval time.Duration) HeartBeater {
	return &srvContext{
		expiry:        make(map[string]time.Time),
		logger:        logger,
		clientTTL:     clientTTL,
		checkInterval: checkInterval,
		now:           time.Now,
	}
}

func (srv *srvContext) Beat(name string) {
	srv.mutex.Lock()
	defer srv.mutex.Unlock()

	if _, ok := srv.expiry[name]; !ok {
		srv.logger.Info("client alive", zap.String("name", name))
	}
	srv.expiry[name] = srv.now().Add(srv.clientTTL)
}

func (srv *srvContext) Alive() []string {
	srv.mutex.Lock()
	defer srv.mutex.Unlock()

	now := srv.now()
	names := make([]string, 0, len(srv.expiry))
	for name, expiry := range srv.expiry {
		if !now.After(expiry) {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	return names
}

// Listener - records name of every ping answer, meant to be wrapped with listener.Topic
func (srv *srvContext) Listener() listener.Listener {
	return func(_ context.Context, _ string, msg listener.Message) error {
		payload, err := msg.Payload()
		if err != nil {
			return err
		}
		if payload["type"] != client.PingTypeAnswer {
			return nil
		}
		name, ok := payload["name"].(string)
		if !ok || name == "" {
			return nil
		}
		srv.Beat(name)
		return nil
	}
}

// Run - evicts expired clients every check interval until ctx is done
func (srv *srvContext) Run(ctx context.Context) {
	ticker := time.NewTicker(srv.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			srv.check()
		}
	}
}

func (srv *srvContext) check() {
	srv.mutex.Lock()
	defer srv.mutex.Unlock()

	now := srv.now()
	for name, expiry := range srv.expiry {
		if now.After(expiry) {
			delete(srv.expiry, name)
			srv.logger.Info("client expired", zap.String("name", name))
		}
	}
}
