package main

import "github.com/rs/zerolog"

// zerologShim adapts a zerolog.Logger to bootloader.Logger, so the library
// layer never imports zerolog directly.
type zerologShim struct {
	log zerolog.Logger
}

func newZerologShim(log zerolog.Logger) *zerologShim {
	return &zerologShim{log: log}
}

func (z *zerologShim) Debug(msg string, keysAndValues ...interface{}) {
	z.event(z.log.Debug(), msg, keysAndValues...)
}

func (z *zerologShim) Info(msg string, keysAndValues ...interface{}) {
	z.event(z.log.Info(), msg, keysAndValues...)
}

func (z *zerologShim) Error(msg string, keysAndValues ...interface{}) {
	z.event(z.log.Error(), msg, keysAndValues...)
}

// event attaches keysAndValues (alternating key, value) to e and logs msg.
func (z *zerologShim) event(e *zerolog.Event, msg string, keysAndValues ...interface{}) {
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		e = e.Interface(key, keysAndValues[i+1])
	}
	e.Msg(msg)
}
