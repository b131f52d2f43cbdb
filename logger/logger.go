package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log is shared by all packages. It discards everything until Init is called.
var Log = zap.NewNop()

// Init replaces Log with a console logger writing to stderr at the given level.
func Init(level zapcore.Level) error {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.DisableStacktrace = true
	cfg.EncoderConfig.TimeKey = ""

	log, err := cfg.Build()
	if err != nil {
		return err
	}
	Log = log
	return nil
}

func Sync() {
	_ = Log.Sync()
}
