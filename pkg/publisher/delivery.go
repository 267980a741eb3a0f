package publisher

import (
	"github.com/bft-labs/bootbus/pkg/event"
	"github.com/bft-labs/bootbus/pkg/multicast"
)

// Delivery is a path events can take to reach listeners.
type Delivery interface {
	// Name identifies the path in logs.
	Name() string

	// Deliver hands e to the listeners reachable through this path.
	Deliver(e *event.Event) error
}

const (
	// DeliveryMulticaster names the bootstrap multicaster path.
	DeliveryMulticaster = "multicaster"
	// DeliveryContainer names the container publish path.
	DeliveryContainer = "container"
)

type multicasterDelivery struct {
	m *multicast.Multicaster
}

func (d multicasterDelivery) Name() string                 { return DeliveryMulticaster }
func (d multicasterDelivery) Deliver(e *event.Event) error { return d.m.Multicast(e) }

type containerDelivery struct {
	c event.Container
}

func (d containerDelivery) Name() string                 { return DeliveryContainer }
func (d containerDelivery) Deliver(e *event.Event) error { return d.c.Publish(e) }
