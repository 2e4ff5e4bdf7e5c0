package core

// Logger is implemented by every logging sink of the app.
// args are extra values to report along with msg (errors, maps, principals).
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
