package errs

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestClass_String(t *testing.T) {
	tests := []struct {
		class Class
		want  string
	}{
		{ClassUnknown, "unknown"},
		{ClassUserDeclined, "user_declined"},
		{ClassValidation, "validation"},
		{ClassVerification, "verification"},
		{ClassNetworkRejection, "network_rejection"},
		{ClassTransient, "transient"},
		{ClassInvariant, "invariant"},
		{Class(200), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.class.String(); got != tt.want {
			t.Errorf("Class(%d).String() = %q, want %q", tt.class, got, tt.want)
		}
	}
}

func TestError_Message(t *testing.T) {
	err := New(ClassNetworkRejection, "client.Transfer", "rejected").
		WithAccount("1001").
		WithAsset("NATIVE").
		WithStatus("INVALID_SIGNATURE")

	msg := err.Error()
	for _, want := range []string{"network_rejection", "client.Transfer", "account=1001", "asset=NATIVE", "status=INVALID_SIGNATURE", "rejected"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Error() = %q, missing %q", msg, want)
		}
	}
}

func TestWrap_Unwrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(ClassTransient, "node.Submit", cause)

	if !errors.Is(err, cause) {
		t.Error("wrapped error should match its cause with errors.Is")
	}
	if err.Unwrap() != cause {
		t.Error("Unwrap() should return the cause")
	}
}

func TestWrap_Nil(t *testing.T) {
	if err := Wrap(ClassTransient, "op", nil); err != nil {
		t.Errorf("Wrap(nil) = %v, want nil", err)
	}
}

func TestClassOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Class
	}{
		{"nil", nil, ClassUnknown},
		{"plain error", errors.New("plain"), ClassUnknown},
		{"classified", New(ClassValidation, "op", "bad input"), ClassValidation},
		{"wrapped classified", fmt.Errorf("outer: %w", New(ClassInvariant, "op", "defect")), ClassInvariant},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassOf(tt.err); got != tt.want {
				t.Errorf("ClassOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsTransient_IsInvariant(t *testing.T) {
	transient := New(ClassTransient, "op", "timeout")
	invariant := New(ClassInvariant, "op", "unbalanced")

	if !IsTransient(transient) {
		t.Error("IsTransient should match a transient error")
	}
	if IsTransient(invariant) {
		t.Error("IsTransient should not match an invariant error")
	}
	if !IsInvariant(invariant) {
		t.Error("IsInvariant should match an invariant error")
	}
	if IsInvariant(transient) {
		t.Error("IsInvariant should not match a transient error")
	}
}
