// Package natsfab implements the broadcast fabric over NATS core subjects.
// Unlike the Redis fabric it subscribes per room: the first local join opens
// the room's subject, the last local leave closes it.
package natsfab

import (
	"context"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"chat-gateway/internal/fabric"
	"chat-gateway/internal/logger"
	"chat-gateway/internal/models"
)

const subjectPrefix = "chat.room."

type Fabric struct {
	nc  *nats.Conn
	reg *fabric.Registry

	mu   sync.Mutex
	subs map[string]*nats.Subscription
}

func New(natsURL string) (*Fabric, error) {
	opts := []nats.Option{
		nats.Name("chat-gateway"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(500 * time.Millisecond),
		nats.ReconnectJitter(100*time.Millisecond, 500*time.Millisecond),
		nats.Timeout(3 * time.Second),
	}

	nc, err := nats.Connect(natsURL, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "connect to NATS")
	}

	logger.Info("[NATS] Connected to NATS", zap.String("url", natsURL))

	return &Fabric{
		nc:   nc,
		reg:  fabric.NewRegistry(),
		subs: make(map[string]*nats.Subscription),
	}, nil
}

func (f *Fabric) Join(_ context.Context, group string, h fabric.Handle) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.reg.Register(group, h)

	if _, ok := f.subs[group]; ok {
		return nil
	}

	sub, err := f.nc.Subscribe(subjectPrefix+group, func(m *nats.Msg) {
		f.reg.Broadcast(group, m.Data)
	})
	if err != nil {
		f.reg.Unregister(group, h)
		return errors.Wrapf(err, "subscribe %s", subjectPrefix+group)
	}

	f.subs[group] = sub
	logger.Debug("[NATS] Subscribed", zap.String("subject", subjectPrefix+group))
	return nil
}

func (f *Fabric) Leave(_ context.Context, group string, h fabric.Handle) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.reg.Unregister(group, h)

	if f.reg.Count(group) > 0 {
		return nil
	}
	sub, ok := f.subs[group]
	if !ok {
		return nil
	}
	delete(f.subs, group)

	if err := sub.Unsubscribe(); err != nil {
		logger.Error("[NATS] Unsubscribe failed", zap.String("group", group), zap.Error(err))
	}
	return nil
}

func (f *Fabric) Publish(_ context.Context, group string, event models.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "marshal event")
	}
	if err := f.nc.Publish(subjectPrefix+group, payload); err != nil {
		return errors.Wrapf(err, "publish to %s", subjectPrefix+group)
	}
	return nil
}

func (f *Fabric) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for group, sub := range f.subs {
		if err := sub.Unsubscribe(); err != nil {
			logger.Error("[NATS] Unsubscribe failed", zap.String("group", group), zap.Error(err))
		}
	}
	f.subs = make(map[string]*nats.Subscription)
	f.nc.Close()
	return nil
}
