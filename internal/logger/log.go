package logger

import (
	"bytes"
	"fmt"

	"github.com/logrusorgru/aurora/v3"
)

type Printer interface {
	Output(calldepth int, s string) error
}

type Logger interface {
	Successf(format string, args ...interface{})
	Debugf(format string, args ...interface{})
	Error(err error)
	Command(op string, args ...interface{})
}

type ColoredLogger struct {
	printer  Printer
	debug    bool
	commands bool
}

type BWLogger struct {
	printer  Printer
	debug    bool
	commands bool
}

var _ Logger = (*ColoredLogger)(nil)
var _ Logger = (*BWLogger)(nil)

func NewColorLogger(p Printer, commands, debug bool) *ColoredLogger {
	return &ColoredLogger{
		printer:  p,
		debug:    debug,
		commands: commands,
	}
}

func NewBWLogger(p Printer, commands, debug bool) *BWLogger {
	return &BWLogger{
		printer:  p,
		debug:    debug,
		commands: commands,
	}
}

func (cl *ColoredLogger) Debugf(format string, args ...interface{}) {
	if cl.debug {
		msg := fmt.Sprintf("\nMongrate debug: "+format, args...)
		_ = cl.printer.Output(2, aurora.Yellow(msg).String())
	}
}

func (cl *ColoredLogger) Successf(format string, args ...interface{}) {
	msg := fmt.Sprintf("\nMongrate: "+format, args...)
	_ = cl.printer.Output(2, aurora.Green(msg).String())
}

func (cl *ColoredLogger) Error(err error) {
	msg := fmt.Sprintf("\nMongrate error: %s", err.Error())
	_ = cl.printer.Output(2, aurora.Red(msg).String())
}

func (cl *ColoredLogger) Command(op string, args ...interface{}) {
	if cl.commands {
		_ = cl.printer.Output(2, aurora.Gray(15, formatCommand(op, args)).String())
	}
}

func (bwl *BWLogger) Debugf(format string, args ...interface{}) {
	if bwl.debug {
		msg := fmt.Sprintf("\nMongrate debug: "+format, args...)
		_ = bwl.printer.Output(2, msg)
	}
}

func (bwl *BWLogger) Successf(format string, args ...interface{}) {
	msg := fmt.Sprintf("\nMongrate: "+format, args...)
	_ = bwl.printer.Output(2, msg)
}

func (bwl *BWLogger) Error(err error) {
	msg := fmt.Sprintf("\nMongrate error: %s", err.Error())
	_ = bwl.printer.Output(2, msg)
}

func (bwl *BWLogger) Command(op string, args ...interface{}) {
	if bwl.commands {
		_ = bwl.printer.Output(2, formatCommand(op, args))
	}
}

func formatCommand(op string, args []interface{}) string {
	var buf bytes.Buffer
	buf.WriteString("\nMongrate running ")
	buf.WriteString(op)

	for i := range args {
		if i == 0 {
			buf.WriteString(": ")
		} else {
			buf.WriteString(", ")
		}

		buf.WriteString(fmt.Sprintf("{%#v}", args[i]))
	}

	return buf.String()
}
