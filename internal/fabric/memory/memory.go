// Package memory provides an in-process fabric for single-node deployments
// and tests.
package memory

import (
	"context"

	"github.com/goccy/go-json"
	"github.com/pkg/errors"

	"chat-gateway/internal/fabric"
	"chat-gateway/internal/models"
)

type Fabric struct {
	reg *fabric.Registry
}

func New() *Fabric {
	return &Fabric{reg: fabric.NewRegistry()}
}

func (f *Fabric) Join(_ context.Context, group string, h fabric.Handle) error {
	f.reg.Register(group, h)
	return nil
}

func (f *Fabric) Leave(_ context.Context, group string, h fabric.Handle) error {
	f.reg.Unregister(group, h)
	return nil
}

func (f *Fabric) Publish(_ context.Context, group string, event models.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return errors.Wrap(err, "marshal event")
	}
	f.reg.Broadcast(group, payload)
	return nil
}

func (f *Fabric) Close() error { return nil }

// Joined reports whether the handle is a member of the group. Test hook.
func (f *Fabric) Joined(group string, h fabric.Handle) bool {
	return f.reg.Contains(group, h)
}

// Members returns the group's current local membership count. Test hook.
func (f *Fabric) Members(group string) int {
	return f.reg.Count(group)
}
