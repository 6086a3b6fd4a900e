package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/datazip-inc/tap-hubspot/constants"
	"github.com/datazip-inc/tap-hubspot/utils"
	"github.com/goccy/go-json"
	"github.com/google/renameio/v2"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"
)

// stdout carries Singer messages only, so every log line goes to stderr
var logger = zerolog.New(os.Stderr).With().Timestamp().Logger()

// Info writes record into os.Stderr with log level INFO
func Info(v ...interface{}) {
	if len(v) == 1 {
		logger.Info().Interface("message", v[0]).Send()
	} else {
		logger.Info().Msg(fmt.Sprint(v...))
	}
}

// Infof writes record into os.Stderr with log level INFO
func Infof(format string, v ...interface{}) {
	logger.Info().Msgf(format, v...)
}

// Debug writes record into os.Stderr with log level DEBUG
func Debug(v ...interface{}) {
	logger.Debug().Msg(fmt.Sprint(v...))
}

// Debugf writes record into os.Stderr with log level DEBUG
func Debugf(format string, v ...interface{}) {
	logger.Debug().Msgf(format, v...)
}

// Error writes record into os.Stderr with log level ERROR
func Error(v ...interface{}) {
	logger.Error().Msg(fmt.Sprint(v...))
}

// Errorf writes record into os.Stderr with log level ERROR
func Errorf(format string, v ...interface{}) {
	logger.Error().Msgf(format, v...)
}

// Fatal writes record into os.Stderr with log level FATAL and exits
func Fatal(v ...interface{}) {
	logger.WithLevel(zerolog.FatalLevel).Msg(fmt.Sprint(v...))
	os.Exit(1)
}

// Fatalf writes record into os.Stderr with log level FATAL and exits
func Fatalf(format string, v ...interface{}) {
	logger.WithLevel(zerolog.FatalLevel).Msgf(format, v...)
	os.Exit(1)
}

// Warn writes record into os.Stderr with log level WARN
func Warn(v ...interface{}) {
	logger.Warn().Msg(fmt.Sprint(v...))
}

// Warnf writes record into os.Stderr with log level WARN
func Warnf(format string, v ...interface{}) {
	logger.Warn().Msgf(format, v...)
}

// With returns a child logger carrying the given field, used to tag stream and run ids
func With(key string, value any) zerolog.Logger {
	return logger.With().Interface(key, value).Logger()
}

// FileLogger atomically writes content as JSON into filePath/fileName+fileExtension
func FileLogger(content any, filePath string, fileName, fileExtension string) error {
	contentBytes, err := json.Marshal(content)
	if err != nil {
		return fmt.Errorf("failed to marshal content: %s", err)
	}

	if err := os.MkdirAll(filePath, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %s", filePath, err)
	}

	fullPath := filepath.Join(filePath, fileName+fileExtension)
	if err := renameio.WriteFile(fullPath, contentBytes, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %s", fullPath, err)
	}

	return nil
}

// LogArtifact persists content into the artifacts folder when one is configured
func LogArtifact(content any, name string) {
	folder := viper.GetString(constants.ArtifactsFolder)
	if folder == "" {
		return
	}

	if err := FileLogger(content, folder, name, ".json"); err != nil {
		Errorf("failed to write %s artifact: %s", name, err)
	}
}

// Init configures the global logger from the LOG_LEVEL and LOG_FOLDER viper keys
func Init() {
	level, err := zerolog.ParseLevel(strings.ToLower(viper.GetString(constants.LogLevel)))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	zerolog.TimestampFunc = func() time.Time {
		return time.Now().UTC()
	}

	writers := []io.Writer{newConsoleWriter(os.Stderr)}
	if folder := viper.GetString(constants.LogFolder); folder != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   filepath.Join(folder, constants.TapName+"_"+utils.TimestampedFileName("log")),
			MaxSize:    100, // megabytes
			MaxBackups: 5,
			MaxAge:     30, // days
			Compress:   true,
		})
	}

	logger = newLogger(level, writers...)
}

// newLogger fans out to every writer; stream partitions log from many goroutines and
// ConsoleWriter is not safe for concurrent use, so writes are serialized
func newLogger(level zerolog.Level, writers ...io.Writer) zerolog.Logger {
	return zerolog.New(zerolog.SyncWriter(zerolog.MultiLevelWriter(writers...))).
		Level(level).With().Timestamp().Logger()
}

func newConsoleWriter(out io.Writer) zerolog.ConsoleWriter {
	logColors := map[string]string{
		"debug": "\033[36m", // Cyan
		"info":  "\033[32m", // Green
		"warn":  "\033[33m", // Yellow
		"error": "\033[31m", // Red
		"fatal": "\033[31m", // Red
	}

	return zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: "2006-01-02 15:04:05",
		// the event map belongs to one write, so the message colour follows its own level
		FormatPrepare: func(evt map[string]interface{}) error {
			level, _ := evt[zerolog.LevelFieldName].(string)
			message, ok := evt[zerolog.MessageFieldName].(string)
			if ok && (level == zerolog.ErrorLevel.String() || level == zerolog.FatalLevel.String()) {
				evt[zerolog.MessageFieldName] = fmt.Sprintf("\033[31m%s\033[0m", message)
			}
			return nil
		},
		FormatLevel: func(i interface{}) string {
			level, _ := i.(string)
			return fmt.Sprintf("%s%s\033[0m", logColors[level], strings.ToUpper(level))
		},
		FormatMessage: func(i interface{}) string {
			switch v := i.(type) {
			case nil:
				return ""
			case string:
				return v
			default:
				jsonMsg, err := json.Marshal(v)
				if err != nil {
					return err.Error()
				}
				return string(jsonMsg)
			}
		},
		FormatTimestamp: func(i interface{}) string {
			return fmt.Sprintf("\033[90m%s\033[0m", i)
		},
	}
}
