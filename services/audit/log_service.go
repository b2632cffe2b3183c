package audit

import (
	"context"

	"sqlconsoleapi/models"
	"sqlconsoleapi/repository"
)

// ExecutionLogPage is one page of execution records.
type ExecutionLogPage struct {
	Records    []models.QueryExecution `json:"records"`
	Total      int64                   `json:"total"`
	Page       int                     `json:"page"`
	PageSize   int                     `json:"page_size"`
	TotalPages int                     `json:"total_pages"`
}

// LogService exposes read access to the execution audit trail.
type LogService interface {
	ListExecutions(ctx context.Context, connectionID *uint, executedBy string, page, pageSize int) (*ExecutionLogPage, error)
}

type logService struct {
	executionRepo repository.QueryExecutionRepository
}

// NewLogService creates a new execution log service instance.
func NewLogService() LogService {
	return &logService{
		executionRepo: repository.NewQueryExecutionRepository(),
	}
}

// NewLogServiceWithRepo creates a log service with an explicit repository.
// Used for dependency injection in tests.
func NewLogServiceWithRepo(executionRepo repository.QueryExecutionRepository) LogService {
	return &logService{executionRepo: executionRepo}
}

func (s *logService) ListExecutions(ctx context.Context, connectionID *uint, executedBy string, page, pageSize int) (*ExecutionLogPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 200 {
		pageSize = 20
	}
	records, total, err := s.executionRepo.ListPaginated(nil, connectionID, executedBy, page, pageSize)
	if err != nil {
		return nil, err
	}
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return &ExecutionLogPage{
		Records:    records,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}
