// Package publisher implements the publish/subscribe control core.
//
// Three pieces cooperate through a single Shutdown value:
//
//   - Listener handles inbound messages on the control topic and trips
//     Shutdown when the payload is exactly "stop".
//   - Loop publishes one waveform sample per interval until Shutdown is
//     tripped or its context is cancelled.
//   - Shutdown is a write-once flag with a channel that closes when it trips,
//     so the loop's wait between samples ends immediately.
//
// The Listener runs on the MQTT delivery goroutine and the Loop on the caller's
// goroutine; Shutdown is the only state they share.
//
// # Usage
//
//	shutdown := publisher.NewShutdown()
//	listener := publisher.NewListener(shutdown, logger)
//	if err := session.Subscribe(cfg.Topics.Subscribe, listener.Handle); err != nil {
//	    return err
//	}
//	loop := publisher.NewLoop(session, shutdown, publisher.LoopOptions{
//	    Topic:    cfg.Topics.Publish,
//	    Interval: cfg.GetInterval(),
//	    Logger:   logger,
//	})
//	err := loop.Run(ctx)
package publisher
