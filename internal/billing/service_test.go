package billing

import (
	"context"
	"errors"
	"testing"

	"github.com/hitoshi/gymdesk/internal/model"
)

type mockPaymentRepo struct {
	createFn     func(ctx context.Context, in model.PaymentInput) error
	listFn       func(ctx context.Context, clientID string) ([]model.Payment, error)
	listRecentFn func(ctx context.Context, limit int) ([]model.Payment, error)
}

func (m *mockPaymentRepo) Create(ctx context.Context, in model.PaymentInput) error {
	return m.createFn(ctx, in)
}
func (m *mockPaymentRepo) List(ctx context.Context, clientID string) ([]model.Payment, error) {
	return m.listFn(ctx, clientID)
}
func (m *mockPaymentRepo) ListRecent(ctx context.Context, limit int) ([]model.Payment, error) {
	return m.listRecentFn(ctx, limit)
}

type mockSalaryRepo struct {
	createFn func(ctx context.Context, in model.SalaryInput) error
	listFn   func(ctx context.Context, trainerID string) ([]model.SalaryRecord, error)
}

func (m *mockSalaryRepo) Create(ctx context.Context, in model.SalaryInput) error {
	return m.createFn(ctx, in)
}
func (m *mockSalaryRepo) List(ctx context.Context, trainerID string) ([]model.SalaryRecord, error) {
	return m.listFn(ctx, trainerID)
}

type recordingCache struct {
	invalidated []string
}

func (c *recordingCache) Invalidate(prefixes ...string) {
	c.invalidated = append(c.invalidated, prefixes...)
}

func ptr(f float64) *float64 { return &f }

func TestRecordPayment_InvalidatesAdminPages(t *testing.T) {
	payments := &mockPaymentRepo{
		createFn: func(ctx context.Context, in model.PaymentInput) error {
			if in.ClientID != "c1" || *in.Amount != 49.9 {
				t.Errorf("input = %+v", in)
			}
			return nil
		},
	}
	cache := &recordingCache{}
	svc := NewService(payments, &mockSalaryRepo{}, cache, nil, 10)

	if err := svc.RecordPayment(context.Background(), model.PaymentInput{ClientID: "c1", Amount: ptr(49.9)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cache.invalidated) != 1 || cache.invalidated[0] != AdminPath {
		t.Errorf("invalidated = %v", cache.invalidated)
	}
}

func TestRecentRevenue_SumsOnlyWindow(t *testing.T) {
	var gotLimit int
	payments := &mockPaymentRepo{
		listRecentFn: func(ctx context.Context, limit int) ([]model.Payment, error) {
			gotLimit = limit
			return []model.Payment{{Amount: ptr(10)}, {Amount: nil}, {Amount: ptr(2.5)}}, nil
		},
	}
	svc := NewService(payments, &mockSalaryRepo{}, &recordingCache{}, nil, 3)

	total, err := svc.RecentRevenue(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotLimit != 3 {
		t.Errorf("limit = %d, want 3", gotLimit)
	}
	if total != 12.5 {
		t.Errorf("total = %v, want 12.5", total)
	}
}

func TestNewService_DefaultWindow(t *testing.T) {
	svc := NewService(&mockPaymentRepo{}, &mockSalaryRepo{}, &recordingCache{}, nil, 0)
	if svc.recentWindow != 10 {
		t.Errorf("recentWindow = %d, want 10", svc.recentWindow)
	}
}

func TestPaymentsPage_TotalOfFetchedRows(t *testing.T) {
	payments := &mockPaymentRepo{
		listFn: func(ctx context.Context, clientID string) ([]model.Payment, error) {
			if clientID != "" {
				t.Errorf("clientID = %q, want all", clientID)
			}
			return []model.Payment{{Amount: ptr(100)}, {Amount: ptr(20)}}, nil
		},
	}
	svc := NewService(payments, &mockSalaryRepo{}, &recordingCache{}, nil, 10)

	view, err := svc.PaymentsPage(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.Total != 120 || len(view.Payments) != 2 {
		t.Errorf("view = %+v", view)
	}
}

func TestListPayments_EmptyNotNil(t *testing.T) {
	payments := &mockPaymentRepo{
		listFn: func(ctx context.Context, clientID string) ([]model.Payment, error) { return nil, nil },
	}
	svc := NewService(payments, &mockSalaryRepo{}, &recordingCache{}, nil, 10)

	got, err := svc.ListPayments(context.Background(), "c1")
	if err != nil || got == nil {
		t.Errorf("got %v, err %v", got, err)
	}
}

func TestRecordSalary_ProviderErrorVerbatim(t *testing.T) {
	salaries := &mockSalaryRepo{
		createFn: func(ctx context.Context, in model.SalaryInput) error {
			return &model.ProviderError{Code: "22007", Message: "invalid input syntax for type date: \"soon\""}
		},
	}
	svc := NewService(&mockPaymentRepo{}, salaries, &recordingCache{}, nil, 10)

	err := svc.RecordSalary(context.Background(), model.SalaryInput{TrainerID: "t1"})
	var pe *model.ProviderError
	if !errors.As(err, &pe) || pe.Message != "invalid input syntax for type date: \"soon\"" {
		t.Fatalf("err = %v", err)
	}
}

func TestListSalaries_FilterPassed(t *testing.T) {
	salaries := &mockSalaryRepo{
		listFn: func(ctx context.Context, trainerID string) ([]model.SalaryRecord, error) {
			return []model.SalaryRecord{{TrainerID: trainerID}}, nil
		},
	}
	svc := NewService(&mockPaymentRepo{}, salaries, &recordingCache{}, nil, 10)

	got, err := svc.ListSalaries(context.Background(), "t1")
	if err != nil || len(got) != 1 || got[0].TrainerID != "t1" {
		t.Errorf("got %v, err %v", got, err)
	}
}
