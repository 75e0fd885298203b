package awsauth

import (
	"fmt"

	"github.com/aws/smithy-go/logging"
	"github.com/hashicorp/go-hclog"
)

// NewSDKLogger adapts an hclog.Logger to the smithy logging interface so
// AWS SDK diagnostics land in the same structured log stream as everything
// else.
func NewSDKLogger(logger hclog.Logger) logging.Logger {
	return sdkLogger{logger: logger}
}

type sdkLogger struct {
	logger hclog.Logger
}

func (l sdkLogger) Logf(classification logging.Classification, format string, v ...interface{}) {
	switch classification {
	case logging.Warn:
		l.logger.Warn(fmt.Sprintf(format, v...))
	default:
		l.logger.Debug(fmt.Sprintf(format, v...))
	}
}
