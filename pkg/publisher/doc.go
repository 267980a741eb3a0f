// Package publisher broadcasts lifecycle phases to application listeners
// before and after the container exists.
//
// Until the container is loaded, a [Publisher] delivers through a private
// multicaster whose listener set is refreshed from the application before
// each phase. When the container is loaded the listeners are attached to it
// and delivery is handed off: started and ready travel through the
// container's own publish mechanism.
//
// Failure is the one phase that can go either way. An active container
// publishes the failed event itself; otherwise the private multicaster is
// used, after harvesting any listeners already attached to the inactive
// container, and with a logging error handler so one failing listener cannot
// hide the failure from the rest.
package publisher
