package connector

import (
	"context"
	"strings"
	"testing"

	"sqlconsoleapi/models"
)

type noopConnector struct{}

func (noopConnector) Execute(ctx context.Context, conn *models.Connection, query string) (*Result, error) {
	return &Result{}, nil
}
func (noopConnector) Test(ctx context.Context, conn *models.Connection) error { return nil }

// TestForType_BuiltinsRegistered verifies the init-registered connectors are
// resolvable.
func TestForType_BuiltinsRegistered(t *testing.T) {
	for _, connType := range []string{models.ConnTypeMySQL, models.ConnTypeSandbox} {
		if _, err := ForType(connType); err != nil {
			t.Errorf("Expected connector for %q, got error: %v", connType, err)
		}
	}
}

// TestForType_Unknown verifies unregistered types fail with a named error.
func TestForType_Unknown(t *testing.T) {
	_, err := ForType("oracle")
	if err == nil {
		t.Fatal("Expected error for unregistered type")
	}
	if !strings.Contains(err.Error(), "oracle") {
		t.Errorf("Expected error to name the type, got %q", err.Error())
	}
}

// TestRegister_Overrides verifies a later registration replaces the earlier one.
func TestRegister_Overrides(t *testing.T) {
	Register("test-only", noopConnector{})
	c, err := ForType("test-only")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if _, ok := c.(noopConnector); !ok {
		t.Errorf("Expected the registered noop connector, got %T", c)
	}
}
