package logger

import (
    "io"
    "os"
    "time"

    "github.com/natefinch/lumberjack"
    logrus "github.com/sirupsen/logrus"
)

// Setup configures the standard Logrus logger to write to stdout and a rotating file.
// An empty file name logs to stdout only.
func Setup(file, level string) error {
    lvl, err := logrus.ParseLevel(level)
    if err != nil {
        return err
    }

    var out io.Writer = os.Stdout
    if file != "" {
        // Lumberjack for file rotation
        rotator := &lumberjack.Logger{
            Filename:   file,
            MaxSize:    10, // megabytes
            MaxBackups: 7,  // keep up to 7 old files
            MaxAge:     7,  // days
            Compress:   true,
        }
        out = io.MultiWriter(os.Stdout, rotator)
    }

    logrus.SetOutput(out)
    logrus.SetFormatter(&logrus.TextFormatter{
        FullTimestamp:   true,
        TimestampFormat: time.RFC3339,
    })
    logrus.SetLevel(lvl)
    return nil
}
