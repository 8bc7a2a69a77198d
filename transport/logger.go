package transport

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"

	"github.com/jonwraymond/telemetryclient/observe"
)

// restyLogger routes resty's internal log output through an observe.Logger.
type restyLogger struct {
	logger observe.Logger
}

func (l restyLogger) Errorf(format string, v ...any) {
	l.logger.Error(context.Background(), fmt.Sprintf(format, v...), observe.Field{Key: "component", Value: "resty"})
}

func (l restyLogger) Warnf(format string, v ...any) {
	l.logger.Warn(context.Background(), fmt.Sprintf(format, v...), observe.Field{Key: "component", Value: "resty"})
}

func (l restyLogger) Debugf(format string, v ...any) {
	l.logger.Debug(context.Background(), fmt.Sprintf(format, v...), observe.Field{Key: "component", Value: "resty"})
}

var _ resty.Logger = restyLogger{}
