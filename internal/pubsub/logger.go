package pubsub

import (
	"github.com/FraktalSoftwares/alerta-veiculos-sub000/internal/logger"
	"github.com/ThreeDotsLabs/watermill"
)

// LoggerAdapter routes watermill logs into the service logger
type LoggerAdapter struct {
	logger *logger.Logger
	fields watermill.LogFields
}

func NewLoggerAdapter(l *logger.Logger) watermill.LoggerAdapter {
	return &LoggerAdapter{logger: l}
}

func (a *LoggerAdapter) keyvals(fields watermill.LogFields) []interface{} {
	merged := a.fields.Add(fields)
	out := make([]interface{}, 0, len(merged)*2)
	for k, v := range merged {
		out = append(out, k, v)
	}
	return out
}

func (a *LoggerAdapter) Error(msg string, err error, fields watermill.LogFields) {
	a.logger.Errorw(msg, append(a.keyvals(fields), "error", err)...)
}

func (a *LoggerAdapter) Info(msg string, fields watermill.LogFields) {
	a.logger.Infow(msg, a.keyvals(fields)...)
}

func (a *LoggerAdapter) Debug(msg string, fields watermill.LogFields) {
	a.logger.Debugw(msg, a.keyvals(fields)...)
}

// Trace is folded into debug
func (a *LoggerAdapter) Trace(msg string, fields watermill.LogFields) {
	a.logger.Debugw(msg, a.keyvals(fields)...)
}

func (a *LoggerAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &LoggerAdapter{logger: a.logger, fields: a.fields.Add(fields)}
}
