// Package logging provides the leveled, printf-style logger used across the
// preview generator.
//
// Levels, from most to least verbose:
//   - DEBUG: builder selection, cache hits, converter calls
//   - INFO: startup, configuration, generated artifacts
//   - WARN: recoverable problems (skipped builders, cache write failures)
//   - ERROR: failed generations and HTTP handler errors
//
// The level comes from the LOG_LEVEL environment variable; DEBUG=true forces
// debug output. SetLevel overrides both.
package logging
