// Package logger holds the process-wide zap logger.
package logger

import "go.uber.org/zap"

var Log *zap.Logger = zap.NewNop()

func Init(production bool) {
	if production {
		Log = zap.Must(zap.NewProduction())
		return
	}
	Log = zap.Must(zap.NewDevelopment())
}

func Sugar() *zap.SugaredLogger {
	return Log.Sugar()
}
