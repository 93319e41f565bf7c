package services

// Logger is satisfied by *zap.SugaredLogger.
type Logger interface {
	Infof(format string, args ...any)
	Errorf(format string, args ...any)
}

func logErrorf(l Logger, format string, args ...any) {
	if l != nil {
		l.Errorf(format, args...)
	}
}
