package core

// Logger is any structured logger.
// args are alternating key/value pairs, ex: logger.Error("copying design", "design_id", id, "err", err)
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
