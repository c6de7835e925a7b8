package mongrate

import (
	"github.com/dmsavelev/mongrate/internal/logger"
)

func UseColorLogger(p logger.Printer, printCommands, printDebug bool) OptionFunc {
	return func(m *Migrator) error {
		m.lg = logger.NewColorLogger(p, printCommands, printDebug)
		return nil
	}
}

func UseLogger(p logger.Printer, printCommands, printDebug bool) OptionFunc {
	return func(m *Migrator) error {
		m.lg = logger.NewBWLogger(p, printCommands, printDebug)
		return nil
	}
}
