// Package container provides the reference container that takes over event
// delivery after the bootstrap phases.
//
// A [Generic] container owns its own multicaster, created when the container
// is refreshed. Events published before that are buffered and replayed once
// the multicaster exists, so nothing published during bootstrap is lost:
//
//	c := container.NewGeneric("orders", container.WithLogger(logger))
//	c.AddListener(l)
//	_ = c.Publish(e)           // buffered
//	err := c.Refresh(ctx)      // replays e, then publishes container-refreshed
//	defer c.Close()            // publishes container-closed
package container
