package strapi

import (
	"fmt"

	"github.com/rs/zerolog"
)

// zerologLogger adapts a zerolog.Logger to Logger
type zerologLogger struct {
	log zerolog.Logger
}

// NewZerologLogger returns a Logger writing through log. Key/value pairs become
// event fields; error values are logged with AnErr.
func NewZerologLogger(log zerolog.Logger) Logger {
	return &zerologLogger{log: log}
}

func (l *zerologLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.write(l.log.Debug(), msg, keysAndValues)
}

func (l *zerologLogger) Info(msg string, keysAndValues ...interface{}) {
	l.write(l.log.Info(), msg, keysAndValues)
}

func (l *zerologLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.write(l.log.Warn(), msg, keysAndValues)
}

func (l *zerologLogger) Error(msg string, keysAndValues ...interface{}) {
	l.write(l.log.Error(), msg, keysAndValues)
}

func (l *zerologLogger) write(event *zerolog.Event, msg string, keysAndValues []interface{}) {
	// disabled levels return a nil event
	if event == nil {
		return
	}

	for i := 0; i < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprint(keysAndValues[i])
		}

		if i+1 >= len(keysAndValues) {
			event = event.Str(key, "(MISSING)")
			break
		}

		switch v := keysAndValues[i+1].(type) {
		case error:
			event = event.AnErr(key, v)
		default:
			event = event.Interface(key, v)
		}
	}

	event.Msg(msg)
}
