package config

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var logLevels = map[string]zapcore.Level{
	"debug":   zapcore.DebugLevel,
	"info":    zapcore.InfoLevel,
	"warn":    zapcore.WarnLevel,
	"warning": zapcore.WarnLevel,
	"error":   zapcore.ErrorLevel,
}

// NewLogger собирает zap-логгер корпорации. Уровень debug включает
// цветной человекочитаемый вывод для локальной отладки, остальные
// уровни пишут production-JSON с ISO8601-временем.
func NewLogger(cfg LogConfig) (*zap.Logger, error) {
	level := logLevel(cfg.Level)

	var zcfg zap.Config
	if level == zapcore.DebugLevel {
		zcfg = zap.NewDevelopmentConfig()
		zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		zcfg = zap.NewProductionConfig()
		zcfg.EncoderConfig.TimeKey = "timestamp"
		zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.EncoderConfig.CallerKey = "caller"
	zcfg.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	return zcfg.Build()
}

// logLevel разбирает уровень из LOG_LEVEL, неизвестные значения дают info.
func logLevel(value string) zapcore.Level {
	if lvl, ok := logLevels[strings.ToLower(value)]; ok {
		return lvl
	}
	return zapcore.InfoLevel
}
