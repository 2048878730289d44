/*
Package log provides structured logging for the cutover tool using zerolog.

Call Init once at startup, then create child loggers scoped to a component,
fleet, or run:

	log.Init(log.Config{Level: log.InfoLevel, JSONOutput: true})

	logger := log.WithComponent("cutover")
	logger.Info().Str("fleet", "web-green").Msg("attaching endpoints")

Console output (the default) is human readable; JSON output is intended for
pipeline log collection.
*/
package log
