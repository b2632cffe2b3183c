package query

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"sqlconsoleapi/config"
	"sqlconsoleapi/models"
	"sqlconsoleapi/services/audit"
	"sqlconsoleapi/services/connector"
	"sqlconsoleapi/services/riskpolicy"

	"gorm.io/gorm"
)

// fakeConnectionRepo serves a single connection.
type fakeConnectionRepo struct {
	conn *models.Connection
}

func (f *fakeConnectionRepo) GetWithCredentials(tx *gorm.DB, id uint) (*models.Connection, error) {
	if f.conn == nil || f.conn.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return f.conn, nil
}

func (f *fakeConnectionRepo) GetAll(tx *gorm.DB, organizationID *uint) ([]models.Connection, error) {
	return nil, nil
}
func (f *fakeConnectionRepo) Create(tx *gorm.DB, conn *models.Connection) error { return nil }
func (f *fakeConnectionRepo) Update(tx *gorm.DB, conn *models.Connection) error { return nil }
func (f *fakeConnectionRepo) Delete(tx *gorm.DB, id uint) error                 { return nil }

// fakeEvaluator returns a canned validation result or error.
type fakeEvaluator struct {
	result *riskpolicy.ValidationResult
	err    error
}

func (f *fakeEvaluator) ValidateQuery(ctx context.Context, query string, organizationID, connectionID *uint) (*riskpolicy.ValidationResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	return &riskpolicy.ValidationResult{Allowed: true, Action: models.PolicyActionWarn, MatchedPolicies: []riskpolicy.MatchedPolicy{}}, nil
}

// capturingExecutionRepo collects audit records written by the recorder drain.
type capturingExecutionRepo struct {
	mu      sync.Mutex
	records []*models.QueryExecution
}

func (c *capturingExecutionRepo) Create(tx *gorm.DB, record *models.QueryExecution) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = append(c.records, record)
	return nil
}

func (c *capturingExecutionRepo) ListPaginated(tx *gorm.DB, connectionID *uint, executedBy string, page, pageSize int) ([]models.QueryExecution, int64, error) {
	return nil, 0, nil
}

func (c *capturingExecutionRepo) all() []*models.QueryExecution {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*models.QueryExecution, len(c.records))
	copy(out, c.records)
	return out
}

// fakeConnector records whether it was invoked and with what statement.
type fakeConnector struct {
	mu      sync.Mutex
	invoked bool
	lastSQL string
	result  *connector.Result
	execErr error
}

func (f *fakeConnector) Execute(ctx context.Context, conn *models.Connection, query string) (*connector.Result, error) {
	f.mu.Lock()
	f.invoked = true
	f.lastSQL = query
	f.mu.Unlock()
	if f.execErr != nil {
		return nil, f.execErr
	}
	if f.result != nil {
		return f.result, nil
	}
	return &connector.Result{Columns: []string{"id"}, Rows: []map[string]interface{}{{"id": 1}}, RowCount: 1}, nil
}

func (f *fakeConnector) Test(ctx context.Context, conn *models.Connection) error { return nil }

type gateFixture struct {
	service   ExecutionService
	conn      *models.Connection
	connector *fakeConnector
	auditRepo *capturingExecutionRepo
	recorder  *audit.Recorder
}

func newGateFixture(evaluator riskpolicy.EvaluatorService, settings config.SecuritySettings) *gateFixture {
	conn := &models.Connection{ID: 1, Name: "orders-prod", Type: models.ConnTypeMySQL}
	fc := &fakeConnector{}
	auditRepo := &capturingExecutionRepo{}
	recorder := audit.NewRecorder(auditRepo, 16)
	service := NewExecutionServiceWith(
		&fakeConnectionRepo{conn: conn},
		evaluator,
		recorder,
		func() config.SecuritySettings { return settings },
		func(connType string) (connector.Connector, error) { return fc, nil },
	)
	return &gateFixture{service: service, conn: conn, connector: fc, auditRepo: auditRepo, recorder: recorder}
}

// drainAudit flushes queued records so assertions see them.
func (fx *gateFixture) drainAudit() []*models.QueryExecution {
	fx.recorder.Stop()
	return fx.auditRepo.all()
}

// TestExecuteQuery_UnknownConnection verifies the sentinel error for a missing
// connection.
func TestExecuteQuery_UnknownConnection(t *testing.T) {
	fx := newGateFixture(&fakeEvaluator{}, config.SecuritySettings{})

	_, err := fx.service.ExecuteQuery(context.Background(), 42, "SELECT 1", "alice")
	if !errors.Is(err, ErrConnectionNotFound) {
		t.Errorf("Expected ErrConnectionNotFound, got %v", err)
	}
}

// TestExecuteQuery_SecurityCheckBlocks verifies a DDL statement is rejected
// before any driver is invoked and a blocked audit record is emitted.
func TestExecuteQuery_SecurityCheckBlocks(t *testing.T) {
	fx := newGateFixture(&fakeEvaluator{}, config.SecuritySettings{EnableDDLBlock: true})

	_, err := fx.service.ExecuteQuery(context.Background(), 1, "DROP TABLE users", "alice")

	var forbidden *ForbiddenError
	if !errors.As(err, &forbidden) {
		t.Fatalf("Expected *ForbiddenError, got %v", err)
	}
	if !strings.Contains(forbidden.Reason, "DROP") {
		t.Errorf("Expected reason to name the keyword, got %q", forbidden.Reason)
	}
	if fx.connector.invoked {
		t.Error("Expected connector to never be invoked for a blocked statement")
	}

	records := fx.drainAudit()
	if len(records) != 1 {
		t.Fatalf("Expected 1 audit record, got %d", len(records))
	}
	if records[0].Status != models.ExecutionStatusBlocked {
		t.Errorf("Expected blocked status, got %s", records[0].Status)
	}
	if records[0].ExecutedBy != "alice" {
		t.Errorf("Expected executed_by alice, got %s", records[0].ExecutedBy)
	}
	if records[0].ExecutionID == "" {
		t.Error("Expected audit record to carry an execution id")
	}
}

// TestExecuteQuery_PolicyBlocks verifies a blocking policy verdict stops
// execution with the policy named in the reason.
func TestExecuteQuery_PolicyBlocks(t *testing.T) {
	evaluator := &fakeEvaluator{result: &riskpolicy.ValidationResult{
		Allowed:   false,
		RiskScore: 90,
		Action:    models.PolicyActionBlock,
		MatchedPolicies: []riskpolicy.MatchedPolicy{
			{ID: 1, Name: "default-ddl-block", Reason: "DDL statement detected: DROP"},
		},
	}}
	fx := newGateFixture(evaluator, config.SecuritySettings{})

	_, err := fx.service.ExecuteQuery(context.Background(), 1, "DROP TABLE users", "alice")

	var forbidden *ForbiddenError
	if !errors.As(err, &forbidden) {
		t.Fatalf("Expected *ForbiddenError, got %v", err)
	}
	if !strings.Contains(forbidden.Reason, "default-ddl-block") {
		t.Errorf("Expected reason to name the policy, got %q", forbidden.Reason)
	}

	records := fx.drainAudit()
	if len(records) != 1 || records[0].Status != models.ExecutionStatusBlocked {
		t.Fatalf("Expected 1 blocked audit record, got %+v", records)
	}
	if records[0].RiskScore != 90 {
		t.Errorf("Expected risk score 90 on the audit record, got %d", records[0].RiskScore)
	}
}

// TestExecuteQuery_RequireApproval verifies an approval-demanding verdict
// records pending_approval without executing.
func TestExecuteQuery_RequireApproval(t *testing.T) {
	evaluator := &fakeEvaluator{result: &riskpolicy.ValidationResult{
		Allowed:   true,
		RiskScore: 80,
		Action:    models.PolicyActionRequireApproval,
		MatchedPolicies: []riskpolicy.MatchedPolicy{
			{ID: 2, Name: "pii-tables", Reason: "restricted table referenced: customer_pii"},
		},
	}}
	fx := newGateFixture(evaluator, config.SecuritySettings{})

	_, err := fx.service.ExecuteQuery(context.Background(), 1, "SELECT * FROM customer_pii", "alice")

	var approval *ApprovalRequiredError
	if !errors.As(err, &approval) {
		t.Fatalf("Expected *ApprovalRequiredError, got %v", err)
	}
	if fx.connector.invoked {
		t.Error("Expected connector to never be invoked for pending approval")
	}

	records := fx.drainAudit()
	if len(records) != 1 || records[0].Status != models.ExecutionStatusPendingApproval {
		t.Fatalf("Expected 1 pending_approval audit record, got %+v", records)
	}
}

// TestExecuteQuery_Success verifies the happy path: LIMIT rewrite, execution,
// result assembly, and the success audit record.
func TestExecuteQuery_Success(t *testing.T) {
	fx := newGateFixture(&fakeEvaluator{}, config.SecuritySettings{MaxResultRows: 1000})

	result, err := fx.service.ExecuteQuery(context.Background(), 1, "SELECT * FROM orders", "alice")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result.ExecutionID == "" {
		t.Error("Expected an execution id")
	}
	if result.RowCount != 1 {
		t.Errorf("Expected row count 1, got %d", result.RowCount)
	}
	if result.ExecutedQuery != "SELECT * FROM orders LIMIT 1000" {
		t.Errorf("Expected rewritten query, got %q", result.ExecutedQuery)
	}
	if fx.connector.lastSQL != result.ExecutedQuery {
		t.Errorf("Expected connector to receive the rewritten query, got %q", fx.connector.lastSQL)
	}

	records := fx.drainAudit()
	if len(records) != 1 || records[0].Status != models.ExecutionStatusSuccess {
		t.Fatalf("Expected 1 success audit record, got %+v", records)
	}
	if records[0].ExecutionID != result.ExecutionID {
		t.Error("Expected the audit record and result to share an execution id")
	}
	if records[0].Query != "SELECT * FROM orders" {
		t.Errorf("Expected audit to keep the original statement, got %q", records[0].Query)
	}
}

// TestExecuteQuery_DriverFailure verifies driver errors are translated for the
// caller while the audit record keeps the raw message.
func TestExecuteQuery_DriverFailure(t *testing.T) {
	fx := newGateFixture(&fakeEvaluator{}, config.SecuritySettings{})
	rawErr := errors.New("Error 1146: Table 'orders.legacy' doesn't exist")
	fx.connector.execErr = rawErr

	_, err := fx.service.ExecuteQuery(context.Background(), 1, "SELECT * FROM legacy", "alice")
	if err == nil {
		t.Fatal("Expected an error from the failed execution")
	}
	if !strings.Contains(err.Error(), "table does not exist") {
		t.Errorf("Expected translated hint, got %q", err.Error())
	}
	if !errors.Is(err, rawErr) {
		t.Error("Expected translated error to wrap the driver error")
	}

	records := fx.drainAudit()
	if len(records) != 1 || records[0].Status != models.ExecutionStatusFailed {
		t.Fatalf("Expected 1 failed audit record, got %+v", records)
	}
	if records[0].ErrorMessage != rawErr.Error() {
		t.Errorf("Expected audit to keep the raw driver message, got %q", records[0].ErrorMessage)
	}
}

// TestExecuteQuery_FailOpenCapsRows verifies an unreadable policy store lets
// the statement run under the conservative row cap.
func TestExecuteQuery_FailOpenCapsRows(t *testing.T) {
	evaluator := &fakeEvaluator{err: errors.New("policy store unavailable")}
	fx := newGateFixture(evaluator, config.SecuritySettings{MaxResultRows: 5000})

	result, err := fx.service.ExecuteQuery(context.Background(), 1, "SELECT * FROM orders", "alice")
	if err != nil {
		t.Fatalf("Expected fail-open execution, got error: %v", err)
	}
	if result.ExecutedQuery != "SELECT * FROM orders LIMIT 100" {
		t.Errorf("Expected conservative cap of 100, got %q", result.ExecutedQuery)
	}
	if result.RiskScore != 0 {
		t.Errorf("Expected risk score 0 when evaluation is unavailable, got %d", result.RiskScore)
	}
}
