package postgres

import (
	"fmt"
	"strings"

	"github.com/airenas/go-app/pkg/goapp"
	"github.com/rs/zerolog"
)

type gooseLogAdapter struct {
}

func newGooseLoggerAdapter() *gooseLogAdapter {
	return &gooseLogAdapter{}
}

// Fatalf implements goose.Logger
func (l *gooseLogAdapter) Fatalf(format string, v ...interface{}) {
	goapp.Log.WithLevel(zerolog.FatalLevel).Msg(msg(format, v...))
}

// Printf implements goose.Logger
func (l *gooseLogAdapter) Printf(format string, v ...interface{}) {
	goapp.Log.Info().Msg(msg(format, v...))
}

func msg(format string, v ...interface{}) string {
	return strings.TrimSpace(fmt.Sprintf(format, v...))
}
