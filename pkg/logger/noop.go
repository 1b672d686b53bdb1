package logger

// Noop is a Logger that discards everything. Handy as a default for
// tests and optional dependencies.
type Noop struct{}

func (Noop) WithField(string, any) Logger     { return Noop{} }
func (Noop) WithFields(map[string]any) Logger { return Noop{} }
func (Noop) WithError(error) Logger           { return Noop{} }

func (Noop) Debug(...any) {}
func (Noop) Info(...any)  {}
func (Noop) Warn(...any)  {}
func (Noop) Error(...any) {}
func (Noop) Fatal(...any) {}

func (Noop) Debugf(string, ...any) {}
func (Noop) Infof(string, ...any)  {}
func (Noop) Warnf(string, ...any)  {}
func (Noop) Errorf(string, ...any) {}
func (Noop) Fatalf(string, ...any) {}

func (Noop) SetLevel(Level)  {}
func (Noop) GetLevel() Level { return Disabled }
