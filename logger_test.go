package mongos

import "testing"

func TestNoOpLogger(t *testing.T) {
	// NoOpLogger should not panic or produce output
	logger := &NoOpLogger{}

	logger.Debug("test message", "key", "value")
	logger.Info("test message", "key", "value")
	logger.Warn("test message", "key", "value")
	logger.Error("test message", "key", "value")
}

func TestNoOpLoggerIsDefault(t *testing.T) {
	db := New(testConfig(), WithDialer(newFakeDialer(t)), WithLazyConnect(), WithLogger(nil))
	if _, ok := db.Connection().logger.(*NoOpLogger); !ok {
		t.Errorf("default logger = %T, want *NoOpLogger", db.Connection().logger)
	}
}
