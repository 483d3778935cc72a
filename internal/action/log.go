package action

import (
	"github.com/sirupsen/logrus"
)

// LogSink performs nothing and logs every command. Useful as a dry run.
type LogSink struct {
	entry *logrus.Entry
	level logrus.Level
}

// NewLogSink logs commands at info level. Moves are logged at debug since
// they arrive every frame.
func NewLogSink(logger logrus.FieldLogger) *LogSink {
	return &LogSink{
		entry: logger.WithField("component", "action"),
		level: logrus.InfoLevel,
	}
}

func (l *LogSink) log(op Op, fields logrus.Fields) error {
	l.entry.WithField("op", op).WithFields(fields).Log(l.level, "dry-run action")
	return nil
}

func (l *LogSink) Move(x, y int) error {
	l.entry.WithFields(logrus.Fields{"op": OpMove, "x": x, "y": y}).Debug("dry-run action")
	return nil
}

func (l *LogSink) Click() error       { return l.log(OpClick, nil) }
func (l *LogSink) DoubleClick() error { return l.log(OpDoubleClick, nil) }
func (l *LogSink) MouseDown() error   { return l.log(OpMouseDown, nil) }
func (l *LogSink) MouseUp() error     { return l.log(OpMouseUp, nil) }

func (l *LogSink) Scroll(delta int) error {
	return l.log(OpScroll, logrus.Fields{"delta": delta})
}

func (l *LogSink) Hotkey(keys ...string) error {
	return l.log(OpHotkey, logrus.Fields{"keys": FormatCombo(keys)})
}
