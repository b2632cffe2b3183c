package connmgmt

import (
	"context"
	"errors"
	"fmt"

	"sqlconsoleapi/models"
	"sqlconsoleapi/pkg/logger"
	"sqlconsoleapi/repository"
	"sqlconsoleapi/services/connector"

	"gorm.io/gorm"
)

// ErrConnectionNotFound is returned when a referenced connection does not exist.
var ErrConnectionNotFound = errors.New("connection not found")

// ConnectionService manages target database connections.
type ConnectionService interface {
	ListConnections(ctx context.Context, organizationID *uint) ([]models.Connection, error)
	GetConnection(ctx context.Context, id uint) (*models.Connection, error)
	CreateConnection(ctx context.Context, conn *models.Connection) error
	UpdateConnection(ctx context.Context, conn *models.Connection) error
	DeleteConnection(ctx context.Context, id uint) error
	// TestConnection verifies the target is reachable with stored credentials.
	TestConnection(ctx context.Context, id uint) error
}

type connectionService struct {
	connectionRepo repository.ConnectionRepository
	connectorFor   func(connType string) (connector.Connector, error)
}

// NewConnectionService creates a new connection management service instance.
func NewConnectionService() ConnectionService {
	return &connectionService{
		connectionRepo: repository.NewConnectionRepository(),
		connectorFor:   connector.ForType,
	}
}

// NewConnectionServiceWith creates a connection service with explicit
// collaborators. Used for dependency injection in tests.
func NewConnectionServiceWith(connectionRepo repository.ConnectionRepository, connectorFor func(string) (connector.Connector, error)) ConnectionService {
	return &connectionService{
		connectionRepo: connectionRepo,
		connectorFor:   connectorFor,
	}
}

func (s *connectionService) ListConnections(ctx context.Context, organizationID *uint) ([]models.Connection, error) {
	return s.connectionRepo.GetAll(nil, organizationID)
}

func (s *connectionService) GetConnection(ctx context.Context, id uint) (*models.Connection, error) {
	conn, err := s.connectionRepo.GetWithCredentials(nil, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConnectionNotFound
		}
		return nil, err
	}
	return conn, nil
}

func (s *connectionService) CreateConnection(ctx context.Context, conn *models.Connection) error {
	if conn.Type == "" {
		conn.Type = models.ConnTypeMySQL
	}
	if _, err := s.connectorFor(conn.Type); err != nil {
		return err
	}
	if conn.Status == "" {
		conn.Status = models.ConnStatusEnabled
	}
	logger.Infof("Creating connection %q (%s %s:%d)", conn.Name, conn.Type, conn.Host, conn.Port)
	return s.connectionRepo.Create(nil, conn)
}

func (s *connectionService) UpdateConnection(ctx context.Context, conn *models.Connection) error {
	existing, err := s.GetConnection(ctx, conn.ID)
	if err != nil {
		return err
	}
	// Blank password on update keeps the stored credential
	if conn.Password == "" {
		conn.Password = existing.Password
	}
	if conn.Type == models.ConnTypeSandbox {
		connector.ResetSandbox(conn.ID)
	}
	return s.connectionRepo.Update(nil, conn)
}

func (s *connectionService) DeleteConnection(ctx context.Context, id uint) error {
	conn, err := s.GetConnection(ctx, id)
	if err != nil {
		return err
	}
	if conn.Type == models.ConnTypeSandbox {
		connector.ResetSandbox(conn.ID)
	}
	return s.connectionRepo.Delete(nil, id)
}

func (s *connectionService) TestConnection(ctx context.Context, id uint) error {
	conn, err := s.GetConnection(ctx, id)
	if err != nil {
		return err
	}
	driver, err := s.connectorFor(conn.Type)
	if err != nil {
		return err
	}
	if err := driver.Test(ctx, conn); err != nil {
		return fmt.Errorf("connection test failed: %w", err)
	}
	logger.Infof("Connection test succeeded for %q (id=%d)", conn.Name, conn.ID)
	return nil
}
