package connector

import (
	"context"
	"fmt"
	"sync"

	"sqlconsoleapi/models"
)

// Result carries the outcome of executing a statement against a target database.
// RowCount is the number of rows returned for reads, or rows affected for writes.
type Result struct {
	Columns  []string                 `json:"columns,omitempty"`
	Rows     []map[string]interface{} `json:"rows,omitempty"`
	RowCount int                      `json:"row_count"`
}

// Connector executes SQL against a single kind of target database.
// Implementations own their timeout behaviour; callers only measure elapsed time.
type Connector interface {
	// Execute runs one statement against the target described by conn.
	Execute(ctx context.Context, conn *models.Connection, query string) (*Result, error)
	// Test verifies the target is reachable with the stored credentials.
	Test(ctx context.Context, conn *models.Connection) error
}

var (
	registryMu sync.RWMutex
	connectors = map[string]Connector{}
)

// Register adds a connector implementation for a connection type.
// Called from init in the implementation files.
func Register(connType string, c Connector) {
	registryMu.Lock()
	defer registryMu.Unlock()
	connectors[connType] = c
}

// ForType returns the connector registered for a connection type.
func ForType(connType string) (Connector, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	c, ok := connectors[connType]
	if !ok {
		return nil, fmt.Errorf("unsupported connection type: %s", connType)
	}
	return c, nil
}
