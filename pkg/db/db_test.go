package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"gorm.io/gorm"
)

func TestDialector(t *testing.T) {
	for _, driver := range []string{"mysql", "postgres"} {
		d, err := Dialector(driver, "dsn")
		if err != nil {
			t.Fatalf("Dialector(%s): %v", driver, err)
		}
		if d.Name() != driver {
			t.Errorf("Dialector(%s).Name() = %s", driver, d.Name())
		}
	}
	if _, err := Dialector("sqlite", "dsn"); err == nil {
		t.Error("expected error for unsupported driver")
	}
}

func TestSQLLoggerTraceSkipsQuietQueries(t *testing.T) {
	l := NewSQLLogger(false, time.Second)

	called := false
	fc := func() (string, int64) {
		called = true
		return "SELECT 1", 1
	}

	l.Trace(context.Background(), time.Now(), fc, nil)
	if called {
		t.Error("fast successful query evaluated SQL with logging disabled")
	}

	l.Trace(context.Background(), time.Now(), fc, gorm.ErrRecordNotFound)
	if called {
		t.Error("record not found treated as failure")
	}

	l.Trace(context.Background(), time.Now(), fc, errors.New("deadlock"))
	if !called {
		t.Error("failed query not logged")
	}

	called = false
	l.Trace(context.Background(), time.Now().Add(-2*time.Second), fc, nil)
	if !called {
		t.Error("slow query not logged")
	}
}
