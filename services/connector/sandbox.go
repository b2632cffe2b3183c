package connector

import (
	"context"
	"fmt"
	"io"
	"sync"

	sqle "github.com/dolthub/go-mysql-server"
	"github.com/dolthub/go-mysql-server/memory"
	"github.com/dolthub/go-mysql-server/sql"

	"sqlconsoleapi/models"
	"sqlconsoleapi/pkg/logger"
)

func init() {
	Register(models.ConnTypeSandbox, newSandboxConnector())
}

// sandboxConnector serves sandbox-type connections from embedded in-memory
// MySQL engines. Each connection id gets its own engine so users can test
// queries without touching a real target. State lives for the process lifetime
// only.
type sandboxConnector struct {
	mu      sync.Mutex
	engines map[uint]*sandboxEngine
}

type sandboxEngine struct {
	engine   *sqle.Engine
	provider *memory.DbProvider
	database string
}

func newSandboxConnector() *sandboxConnector {
	return &sandboxConnector{engines: make(map[uint]*sandboxEngine)}
}

func (c *sandboxConnector) engineFor(conn *models.Connection) *sandboxEngine {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.engines[conn.ID]; ok {
		return e
	}

	dbName := conn.Database
	if dbName == "" {
		dbName = "sandbox"
	}
	db := memory.NewDatabase(dbName)
	provider := memory.NewDBProvider(db)
	e := &sandboxEngine{
		engine:   sqle.NewDefault(provider),
		provider: provider,
		database: dbName,
	}
	c.engines[conn.ID] = e
	logger.Infof("Created sandbox engine %q for connection %d", dbName, conn.ID)
	return e
}

func (c *sandboxConnector) Execute(ctx context.Context, conn *models.Connection, query string) (*Result, error) {
	e := c.engineFor(conn)

	session := memory.NewSession(sql.NewBaseSession(), e.provider)
	sqlCtx := sql.NewContext(ctx, sql.WithSession(session))
	sqlCtx.SetCurrentDatabase(e.database)

	schema, rowIter, err := e.engine.Query(sqlCtx, query)
	if err != nil {
		return nil, fmt.Errorf("query execution failed: %w", err)
	}
	defer rowIter.Close(sqlCtx)

	result := &Result{Rows: []map[string]interface{}{}}
	for _, col := range schema {
		result.Columns = append(result.Columns, col.Name)
	}

	for {
		row, err := rowIter.Next(sqlCtx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to fetch row: %w", err)
		}
		rowMap := make(map[string]interface{}, len(schema))
		for i, col := range schema {
			rowMap[col.Name] = row[i]
		}
		result.Rows = append(result.Rows, rowMap)
	}

	result.RowCount = len(result.Rows)
	return result, nil
}

func (c *sandboxConnector) Test(ctx context.Context, conn *models.Connection) error {
	_, err := c.Execute(ctx, conn, "SELECT 1")
	return err
}

// ResetSandbox drops the engine for a connection so the next query starts from
// an empty database. Used when a sandbox connection is updated or deleted.
func ResetSandbox(connectionID uint) {
	registryMu.RLock()
	c, ok := connectors[models.ConnTypeSandbox].(*sandboxConnector)
	registryMu.RUnlock()
	if !ok {
		return
	}
	c.mu.Lock()
	delete(c.engines, connectionID)
	c.mu.Unlock()
}
