// Package logger is a trivial backend plugin that just logs the args
// it is given.  Handy as a sink when developing pipelines.
//
// Effects: info, debug.  The result echoes the args, so a named log
// step can still be referenced by later steps.
package logger

import (
	"context"
	"encoding/json"
	"log"

	"github.com/Comcast/deeds/core"
)

type Logger struct {
	// Debug enables the "debug" effect's output.  The effect
	// succeeds either way.
	Debug bool

	// Logger, if nil, means the stdlib default logger.
	Logger *log.Logger
}

// Plugin exposes the effects under the given namespace.
func (l *Logger) Plugin(namespace string) *core.Plugin {
	return &core.Plugin{
		Namespace: namespace,
		Effects: map[string]core.Handler{
			"info": func(ctx context.Context, args map[string]interface{}, c *core.Ctx) (interface{}, error) {
				l.emit("info", args)
				return args, nil
			},
			"debug": func(ctx context.Context, args map[string]interface{}, c *core.Ctx) (interface{}, error) {
				if l.Debug {
					l.emit("debug", args)
				}
				return args, nil
			},
		},
	}
}

func (l *Logger) emit(level string, args map[string]interface{}) {
	js, err := json.Marshal(&args)
	if err != nil {
		js = []byte(`{"error":"unmarshalable args"}`)
	}
	if l.Logger != nil {
		l.Logger.Printf("%s %s", level, js)
		return
	}
	log.Printf("%s %s", level, js)
}
