package logger

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger - интерфейс для логирования
type Logger interface {
	Debug(msg string, fields ...map[string]interface{})
	Info(msg string, fields ...map[string]interface{})
	Warn(msg string, fields ...map[string]interface{})
	Error(msg string, err error, fields ...map[string]interface{})
	Fatal(msg string, err error, fields ...map[string]interface{})
	With(key string, value interface{}) Logger
}

// ZeroLogger - реализация логгера на основе zerolog
type ZeroLogger struct {
	logger zerolog.Logger
}

// NewLogger создает новый экземпляр логгера.
// В production-режиме пишет JSON, иначе - консольный вывод для разработки.
func NewLogger(level string, isJSON bool) *ZeroLogger {
	logLevel, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		logLevel = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(logLevel)
	zerolog.TimeFieldFormat = time.RFC3339

	var out = zerolog.New(os.Stdout)
	if !isJSON {
		out = zerolog.New(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: "2006-01-02 15:04:05",
		})
	}

	return &ZeroLogger{
		logger: out.With().Timestamp().Logger(),
	}
}

// applyFields добавляет все переданные наборы полей к событию
func applyFields(event *zerolog.Event, fields []map[string]interface{}) *zerolog.Event {
	for _, set := range fields {
		for k, v := range set {
			event = event.Interface(k, v)
		}
	}
	return event
}

// Debug логирует отладочное сообщение
func (l *ZeroLogger) Debug(msg string, fields ...map[string]interface{}) {
	applyFields(l.logger.Debug(), fields).Msg(msg)
}

// Info логирует информационное сообщение
func (l *ZeroLogger) Info(msg string, fields ...map[string]interface{}) {
	applyFields(l.logger.Info(), fields).Msg(msg)
}

// Warn логирует предупреждение
func (l *ZeroLogger) Warn(msg string, fields ...map[string]interface{}) {
	applyFields(l.logger.Warn(), fields).Msg(msg)
}

// Error логирует ошибку
func (l *ZeroLogger) Error(msg string, err error, fields ...map[string]interface{}) {
	event := l.logger.Error()
	if err != nil {
		event = event.Err(err)
	}
	applyFields(event, fields).Msg(msg)
}

// Fatal логирует критическую ошибку и завершает программу
func (l *ZeroLogger) Fatal(msg string, err error, fields ...map[string]interface{}) {
	event := l.logger.Fatal()
	if err != nil {
		event = event.Err(err)
	}
	applyFields(event, fields).Msg(msg)
}

// With добавляет постоянное поле к логгеру
func (l *ZeroLogger) With(key string, value interface{}) Logger {
	return &ZeroLogger{
		logger: l.logger.With().Interface(key, value).Logger(),
	}
}
