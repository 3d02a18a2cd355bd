package network

type testLogger struct{}

func (testLogger) Debugf(format string, v ...any) {}
func (testLogger) Debug(message string)           {}
func (testLogger) Infof(format string, v ...any)  {}
func (testLogger) Info(message string)            {}
func (testLogger) Warnf(format string, v ...any)  {}
func (testLogger) Warn(message string)            {}
