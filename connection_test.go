package mongos

import (
	"errors"
	"testing"
)

func TestReadyStateValues(t *testing.T) {
	tests := []struct {
		state        ReadyState
		value        int
		name         string
		transitional bool
	}{
		{Disconnected, 0, "disconnected", false},
		{Connected, 1, "connected", false},
		{Connecting, 2, "connecting", true},
		{Disconnecting, 3, "disconnecting", true},
		{ReadyState(99), 99, "unknown", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if int(tt.state) != tt.value {
				t.Errorf("value = %d, want %d", int(tt.state), tt.value)
			}
			if tt.state.String() != tt.name {
				t.Errorf("String() = %q, want %q", tt.state.String(), tt.name)
			}
			if tt.state.Transitional() != tt.transitional {
				t.Errorf("Transitional() = %v, want %v", tt.state.Transitional(), tt.transitional)
			}
		})
	}
}

func TestConnection_Accessors(t *testing.T) {
	db := New(testConfig(), WithDialer(newFakeDialer(t)), WithLazyConnect())
	conn := db.Connection()

	if conn.Name() != "mongos_test" {
		t.Errorf("Name() = %q, want mongos_test", conn.Name())
	}
	if conn.Host() != "localhost:27017" {
		t.Errorf("Host() = %q, want localhost:27017", conn.Host())
	}
	if !IsValidID(conn.ID()) {
		t.Errorf("ID() = %q is not a UUID", conn.ID())
	}
	if conn.Client() != nil {
		t.Error("Client() should be nil before connecting")
	}
}

func TestConnection_DatabaseRequiresConnection(t *testing.T) {
	db := New(testConfig(), WithDialer(newFakeDialer(t)), WithLazyConnect())

	_, err := db.Connection().Database()
	if !errors.Is(err, ErrNotConnected) {
		t.Fatalf("expected ErrNotConnected, got %v", err)
	}

	if err := db.Connect().Wait(waitCtx(t)); err != nil {
		t.Fatalf("connect failed: %v", err)
	}
	database, err := db.Connection().Database()
	if err != nil {
		t.Fatalf("Database() after connect: %v", err)
	}
	if database.Name() != "mongos_test" {
		t.Errorf("database name = %q, want mongos_test", database.Name())
	}

	if err := db.Close(waitCtx(t)); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if _, err := db.Connection().Database(); !errors.Is(err, ErrNotConnected) {
		t.Errorf("expected ErrNotConnected after close, got %v", err)
	}
}

func TestConnection_DriverOnlyForMongoDialer(t *testing.T) {
	db := New(testConfig(), WithDialer(newFakeDialer(t)))
	if err := db.Connect().Wait(waitCtx(t)); err != nil {
		t.Fatalf("connect failed: %v", err)
	}

	if _, ok := db.Connection().Driver(); ok {
		t.Error("Driver() should report false for a non-driver client")
	}
}

func TestErrorType(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"invalid config", Config{}.Validate(), "invalid_config"},
		{"other", errors.New("boom"), "other"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errorType(tt.err); got != tt.want {
				t.Errorf("errorType() = %q, want %q", got, tt.want)
			}
		})
	}
}
