package logger

// Noop discards everything. Useful in tests that don't want log noise
// but still need to satisfy the Logger interface.
type Noop struct{}

func (Noop) Log(string)            {}
func (Noop) Logf(string, ...any)   {}
func (Noop) Debug(string)          {}
func (Noop) Debugf(string, ...any) {}
func (Noop) Warn(string)           {}
func (Noop) Warnf(string, ...any)  {}
func (Noop) Error(string)          {}
func (Noop) Errorf(string, ...any) {}
func (Noop) Fatal(string)          {}
func (Noop) Fatalf(string, ...any) {}
