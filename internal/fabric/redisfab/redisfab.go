// Package redisfab implements the broadcast fabric over Redis pub/sub so the
// gateway can be scaled horizontally: every instance subscribes to all room
// channels and relays to its locally-joined handles.
package redisfab

import (
	"context"
	"strings"

	"github.com/go-redis/redis/v8"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"chat-gateway/internal/fabric"
	"chat-gateway/internal/logger"
	"chat-gateway/internal/models"
)

const channelPrefix = "room:"

type Fabric struct {
	rdb    *redis.Client
	reg    *fabric.Registry
	ctx    context.Context
	cancel context.CancelFunc
}

func New(redisURL string) (*Fabric, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, errors.Wrap(err, "parse Redis URL")
	}

	rdb := redis.NewClient(opt)
	ctx, cancel := context.WithCancel(context.Background())

	if err := rdb.Ping(ctx).Err(); err != nil {
		cancel()
		return nil, errors.Wrap(err, "connect to Redis")
	}

	logger.Info("[REDIS] Connected to Redis")

	f := &Fabric{
		rdb:    rdb,
		reg:    fabric.NewRegistry(),
		ctx:    ctx,
		cancel: cancel,
	}

	go f.subscribeLoop()

	return f, nil
}

func (f *Fabric) Join(_ context.Context, group string, h fabric.Handle) error {
	f.reg.Register(group, h)
	return nil
}

func (f *Fabric) Leave(_ context.Context, group string, h fabric.Handle) error {
	f.reg.Unregister(group, h)
	return nil
}

func (f *Fabric) Publish(ctx context.Context, group string, event models.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "marshal event")
	}

	channel := channelPrefix + group
	if err := f.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		return errors.Wrapf(err, "publish to %s", channel)
	}
	return nil
}

func (f *Fabric) Close() error {
	f.cancel()
	return f.rdb.Close()
}

// subscribeLoop bridges Redis pub/sub into the local registry. A pattern
// subscription covers every room so joins and leaves stay purely local.
func (f *Fabric) subscribeLoop() {
	pubsub := f.rdb.PSubscribe(f.ctx, channelPrefix+"*")
	defer pubsub.Close()

	// Wait for subscription confirmation
	if _, err := pubsub.Receive(f.ctx); err != nil {
		logger.Error("[REDIS] Failed to receive subscription confirmation", zap.Error(err))
		return
	}

	logger.Info("[REDIS] Subscribed to Redis pub/sub", zap.String("pattern", channelPrefix+"*"))

	ch := pubsub.Channel()

	for msg := range ch {
		room := strings.TrimPrefix(msg.Channel, channelPrefix)
		f.reg.Broadcast(room, []byte(msg.Payload))
	}

	logger.Info("[REDIS] Redis pub/sub channel closed")
}
