package query

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"sqlconsoleapi/config"
	"sqlconsoleapi/models"
	"sqlconsoleapi/pkg/logger"
	"sqlconsoleapi/repository"
	"sqlconsoleapi/services/audit"
	"sqlconsoleapi/services/connector"
	"sqlconsoleapi/services/riskpolicy"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// conservativeMaxRows caps result sets when the policy store cannot be read
// and the gate falls open.
const conservativeMaxRows = 100

// ExecutionResult is returned to the caller after a successful execution.
type ExecutionResult struct {
	ExecutionID   string                   `json:"execution_id"`
	Columns       []string                 `json:"columns,omitempty"`
	Rows          []map[string]interface{} `json:"rows,omitempty"`
	RowCount      int                      `json:"row_count"`
	DurationMs    int64                    `json:"duration_ms"`
	RiskScore     int                      `json:"risk_score"`
	ExecutedQuery string                   `json:"executed_query"`
}

// ExecutionService is the gate every statement passes through before reaching
// a database driver: security check, optional LIMIT rewrite, delegation to the
// connector, error translation, and unconditional audit emission.
type ExecutionService interface {
	// ExecuteQuery runs a statement against a managed connection on behalf of
	// executedBy. Fails with ErrConnectionNotFound, *ForbiddenError,
	// *ApprovalRequiredError, or a translated driver error.
	ExecuteQuery(ctx context.Context, connectionID uint, rawQuery, executedBy string) (*ExecutionResult, error)
}

type executionService struct {
	connectionRepo repository.ConnectionRepository
	evaluator      riskpolicy.EvaluatorService
	recorder       *audit.Recorder
	settings       func() config.SecuritySettings
	connectorFor   func(connType string) (connector.Connector, error)
}

// NewExecutionService creates the production execution gate.
func NewExecutionService() ExecutionService {
	return &executionService{
		connectionRepo: repository.NewConnectionRepository(),
		evaluator:      riskpolicy.NewEvaluatorService(),
		recorder:       audit.GetRecorder(),
		settings:       func() config.SecuritySettings { return config.Cfg.Security },
		connectorFor:   connector.ForType,
	}
}

// NewExecutionServiceWith creates an execution gate with explicit
// collaborators. Used for dependency injection in tests.
func NewExecutionServiceWith(
	connectionRepo repository.ConnectionRepository,
	evaluator riskpolicy.EvaluatorService,
	recorder *audit.Recorder,
	settings func() config.SecuritySettings,
	connectorFor func(connType string) (connector.Connector, error),
) ExecutionService {
	return &executionService{
		connectionRepo: connectionRepo,
		evaluator:      evaluator,
		recorder:       recorder,
		settings:       settings,
		connectorFor:   connectorFor,
	}
}

func (s *executionService) ExecuteQuery(ctx context.Context, connectionID uint, rawQuery, executedBy string) (*ExecutionResult, error) {
	conn, err := s.connectionRepo.GetWithCredentials(nil, connectionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConnectionNotFound
		}
		return nil, fmt.Errorf("failed to load connection %d: %w", connectionID, err)
	}

	executionID := uuid.NewString()
	settings := s.settings()
	maxRows := settings.MaxResultRows

	// Static toggles and the risk policy evaluator are independent vetoes;
	// either one can block the statement on its own.
	if reason, ok := StaticSecurityCheck(rawQuery, settings); !ok {
		s.emit(conn, executionID, rawQuery, executedBy, models.ExecutionStatusBlocked, 0, reason, "", 0, 0)
		return nil, &ForbiddenError{Reason: reason}
	}

	riskScore := 0
	evalResult, err := s.evaluator.ValidateQuery(ctx, rawQuery, conn.OrganizationID, &conn.ID)
	if err != nil {
		// Fail open: an unreadable policy store must not take query traffic
		// down with it. The statement runs under a conservative row cap and
		// the degradation is logged.
		logger.Errorf("Risk policy evaluation unavailable for connection %d, failing open: %v", conn.ID, err)
		if maxRows <= 0 || maxRows > conservativeMaxRows {
			maxRows = conservativeMaxRows
		}
	} else {
		riskScore = evalResult.RiskScore
		switch {
		case !evalResult.Allowed:
			reason := policyReason(evalResult)
			s.emit(conn, executionID, rawQuery, executedBy, models.ExecutionStatusBlocked, riskScore, reason, "", 0, 0)
			return nil, &ForbiddenError{Reason: reason}
		case evalResult.Action == models.PolicyActionRequireApproval:
			reason := policyReason(evalResult)
			s.emit(conn, executionID, rawQuery, executedBy, models.ExecutionStatusPendingApproval, riskScore, reason, "", 0, 0)
			return nil, &ApprovalRequiredError{Reason: reason}
		}
	}

	executedQuery := ApplyRowLimit(rawQuery, maxRows)
	if executedQuery != rawQuery {
		logger.Debugf("Applied row limit %d to query on connection %d", maxRows, conn.ID)
	}

	driver, err := s.connectorFor(conn.Type)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	result, err := driver.Execute(ctx, conn, executedQuery)
	durationMs := time.Since(start).Milliseconds()

	if err != nil {
		// Audit keeps the original, untranslated driver message.
		s.emit(conn, executionID, rawQuery, executedBy, models.ExecutionStatusFailed, riskScore, "", err.Error(), 0, durationMs)
		return nil, TranslateDriverError(err)
	}

	s.emit(conn, executionID, rawQuery, executedBy, models.ExecutionStatusSuccess, riskScore, "", "", result.RowCount, durationMs)

	return &ExecutionResult{
		ExecutionID:   executionID,
		Columns:       result.Columns,
		Rows:          result.Rows,
		RowCount:      result.RowCount,
		DurationMs:    durationMs,
		RiskScore:     riskScore,
		ExecutedQuery: executedQuery,
	}, nil
}

// emit hands the execution record to the audit recorder. Fire-and-forget: the
// response never waits on, or fails because of, the audit write.
func (s *executionService) emit(conn *models.Connection, executionID, rawQuery, executedBy, status string, riskScore int, blockedReason, errorMessage string, rowCount int, durationMs int64) {
	s.recorder.Record(&models.QueryExecution{
		ExecutionID:    executionID,
		ConnectionID:   conn.ID,
		ConnectionName: conn.Name,
		Query:          rawQuery,
		ExecutedBy:     executedBy,
		Status:         status,
		RiskScore:      riskScore,
		BlockedReason:  blockedReason,
		ErrorMessage:   errorMessage,
		RowCount:       rowCount,
		DurationMs:     durationMs,
		OrganizationID: conn.OrganizationID,
	})
}

// policyReason builds the user-facing violation message naming the rules that fired.
func policyReason(result *riskpolicy.ValidationResult) string {
	if len(result.MatchedPolicies) == 0 {
		return "query risk policy violation"
	}
	parts := make([]string, 0, len(result.MatchedPolicies))
	for _, m := range result.MatchedPolicies {
		parts = append(parts, fmt.Sprintf("%s (%s)", m.Name, m.Reason))
	}
	return "policy violation: " + strings.Join(parts, "; ")
}
