package core

// Logger is the application-wide logging contract. Implementations may ship
// entries to an error tracker in addition to stdout.
type Logger interface {
	// Enable toggles shipping to the external tracker; stdout output stays on.
	Enable(enabled bool)

	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
