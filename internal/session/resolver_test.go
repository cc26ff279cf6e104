package session

import (
	"context"
	"errors"
	"testing"

	"github.com/hitoshi/gymdesk/internal/model"
)

type mockValidator struct {
	calls      int
	validateFn func(ctx context.Context, token string) (string, bool, error)
}

func (m *mockValidator) ValidateCredential(ctx context.Context, token string) (string, bool, error) {
	m.calls++
	if m.validateFn != nil {
		return m.validateFn(ctx, token)
	}
	return "", false, nil
}

type mockProfileFinder struct {
	calls    int
	findByID func(ctx context.Context, id string) (*model.UserProfile, error)
}

func (m *mockProfileFinder) FindByID(ctx context.Context, id string) (*model.UserProfile, error) {
	m.calls++
	if m.findByID != nil {
		return m.findByID(ctx, id)
	}
	return nil, nil
}

func validFor(subject string) *mockValidator {
	return &mockValidator{validateFn: func(_ context.Context, token string) (string, bool, error) {
		if token == "good" {
			return subject, true, nil
		}
		return "", false, nil
	}}
}

func TestResolve_NoCredential_ReturnsNil(t *testing.T) {
	v := validFor("user-1")
	r := NewResolver(v, &mockProfileFinder{})

	profile, err := r.Resolve(context.Background(), "")
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if profile != nil {
		t.Fatalf("expected nil profile, got %+v", profile)
	}
	if v.calls != 0 {
		t.Errorf("validator called %d times for empty token, want 0", v.calls)
	}
}

func TestResolve_InvalidCredential_ReturnsNil(t *testing.T) {
	profiles := &mockProfileFinder{}
	r := NewResolver(validFor("user-1"), profiles)

	profile, err := r.Resolve(context.Background(), "forged")
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if profile != nil {
		t.Fatalf("expected nil profile, got %+v", profile)
	}
	if profiles.calls != 0 {
		t.Error("profile lookup must not run for an invalid credential")
	}
}

func TestResolve_ValidCredential_ReturnsProfile(t *testing.T) {
	profiles := &mockProfileFinder{findByID: func(_ context.Context, id string) (*model.UserProfile, error) {
		return &model.UserProfile{ID: id, Email: "t@example.com", FullName: "T", Role: model.RoleTrainer}, nil
	}}
	r := NewResolver(validFor("user-1"), profiles)

	profile, err := r.Resolve(context.Background(), "good")
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if profile.ID != "user-1" || profile.Role != model.RoleTrainer {
		t.Errorf("profile = %+v", profile)
	}
}

func TestResolve_MissingProfileRow_ReturnsRoleNone(t *testing.T) {
	r := NewResolver(validFor("orphan"), &mockProfileFinder{})

	profile, err := r.Resolve(context.Background(), "good")
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if profile == nil {
		t.Fatal("expected profile with RoleNone, got nil")
	}
	if profile.ID != "orphan" || profile.Role != model.RoleNone {
		t.Errorf("profile = %+v, want {ID: orphan, Role: none}", profile)
	}
}

func TestResolve_ProviderFailure_Propagates(t *testing.T) {
	v := &mockValidator{validateFn: func(_ context.Context, _ string) (string, bool, error) {
		return "", false, errors.New("connection refused")
	}}
	r := NewResolver(v, &mockProfileFinder{})

	if _, err := r.Resolve(context.Background(), "good"); err == nil {
		t.Fatal("expected error when the provider is unreachable")
	}
}

func TestResolve_ProfileLookupFailure_Propagates(t *testing.T) {
	profiles := &mockProfileFinder{findByID: func(_ context.Context, _ string) (*model.UserProfile, error) {
		return nil, errors.New("timeout")
	}}
	r := NewResolver(validFor("user-1"), profiles)

	if _, err := r.Resolve(context.Background(), "good"); err == nil {
		t.Fatal("expected error when the profile lookup fails")
	}
}

func TestResolve_TwiceInSameRequest_ReturnsSameProfile(t *testing.T) {
	v := validFor("user-1")
	profiles := &mockProfileFinder{findByID: func(_ context.Context, id string) (*model.UserProfile, error) {
		return &model.UserProfile{ID: id, Role: model.RoleClient}, nil
	}}
	r := NewResolver(v, profiles)
	ctx := WithRequestScope(context.Background())

	first, err := r.Resolve(ctx, "good")
	if err != nil {
		t.Fatalf("first Resolve() error: %v", err)
	}
	second, err := r.Resolve(ctx, "good")
	if err != nil {
		t.Fatalf("second Resolve() error: %v", err)
	}

	if first != second {
		t.Error("Resolve within one request should return the same profile")
	}
	if v.calls != 1 {
		t.Errorf("validator called %d times, want 1", v.calls)
	}
	if profiles.calls != 1 {
		t.Errorf("profile lookup called %d times, want 1", profiles.calls)
	}
}

func TestResolve_SeparateRequests_DoNotShareMemo(t *testing.T) {
	v := validFor("user-1")
	profiles := &mockProfileFinder{findByID: func(_ context.Context, id string) (*model.UserProfile, error) {
		return &model.UserProfile{ID: id, Role: model.RoleClient}, nil
	}}
	r := NewResolver(v, profiles)

	r.Resolve(WithRequestScope(context.Background()), "good")
	r.Resolve(WithRequestScope(context.Background()), "good")

	if v.calls != 2 || profiles.calls != 2 {
		t.Errorf("calls = (%d, %d), want (2, 2)", v.calls, profiles.calls)
	}
}

func TestAuthenticate_DoesNotLoadProfile(t *testing.T) {
	profiles := &mockProfileFinder{}
	r := NewResolver(validFor("user-1"), profiles)

	subject, ok, err := r.Authenticate(context.Background(), "good")
	if err != nil || !ok || subject != "user-1" {
		t.Fatalf("Authenticate() = (%q, %v, %v)", subject, ok, err)
	}
	if profiles.calls != 0 {
		t.Error("Authenticate must not read the profile")
	}
}

func TestWithRequestScope_IsIdempotent(t *testing.T) {
	ctx := WithRequestScope(context.Background())
	if WithRequestScope(ctx) != ctx {
		t.Error("WithRequestScope should reuse an existing scope")
	}
}
