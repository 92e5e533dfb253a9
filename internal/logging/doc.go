// Package logging is the printf-style logger used across the photo catalog:
// Debug, Info, Warn, Error and Fatal, plus Printf for access lines that
// must always be written.
//
// Output goes through zerolog to stderr. Before [Configure] runs, the level
// comes from LOG_LEVEL (DEBUG=true forces debug) so that configuration
// loading itself can log. Configure applies log.level and, when log.file is
// set, adds a lumberjack-rotated file next to the console.
package logging
