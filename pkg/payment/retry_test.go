package payment

import (
	"context"
	"errors"
	"testing"
)

func TestRetryPolicy_NoRetryOnSuccess(t *testing.T) {
	policy := retryPolicy{maxAttempts: 2, retryable: func(error) bool { return true }}
	tokens, calls := 0, 0
	err := policy.run(context.Background(),
		func(context.Context) (string, error) { tokens++; return "tok", nil },
		func(string) error { calls++; return nil },
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tokens != 1 || calls != 1 {
		t.Errorf("expected 1 token fetch and 1 call, got %d and %d", tokens, calls)
	}
}

func TestRetryPolicy_StopsWhenNotRetryable(t *testing.T) {
	policy := retryPolicy{maxAttempts: 2, retryable: func(error) bool { return false }}
	boom := errors.New("boom")
	tokens, calls := 0, 0
	err := policy.run(context.Background(),
		func(context.Context) (string, error) { tokens++; return "tok", nil },
		func(string) error { calls++; return boom },
	)
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if tokens != 1 || calls != 1 {
		t.Errorf("non-retryable failure should not retry: %d token fetches, %d calls", tokens, calls)
	}
}

func TestRetryPolicy_RefreshesTokenOnce(t *testing.T) {
	retryable := errors.New("expired")
	policy := retryPolicy{maxAttempts: 2, retryable: func(err error) bool { return errors.Is(err, retryable) }}
	tokens, calls := 0, 0
	err := policy.run(context.Background(),
		func(context.Context) (string, error) { tokens++; return "tok", nil },
		func(string) error {
			calls++
			if calls == 1 {
				return retryable
			}
			return nil
		},
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tokens != 2 || calls != 2 {
		t.Errorf("expected exactly one refresh and one resubmission, got %d token fetches, %d calls", tokens, calls)
	}
}

func TestRetryPolicy_SecondFailureIsFinal(t *testing.T) {
	retryable := errors.New("expired")
	policy := retryPolicy{maxAttempts: 2, retryable: func(err error) bool { return errors.Is(err, retryable) }}
	calls := 0
	err := policy.run(context.Background(),
		func(context.Context) (string, error) { return "tok", nil },
		func(string) error { calls++; return retryable },
	)
	if !errors.Is(err, retryable) {
		t.Fatalf("expected the second failure back, got %v", err)
	}
	if calls != 2 {
		t.Errorf("retry budget is one resubmission, got %d calls", calls)
	}
}

func TestRetryPolicy_TokenFailureShortCircuits(t *testing.T) {
	policy := retryPolicy{maxAttempts: 2, retryable: func(error) bool { return true }}
	noToken := errors.New("no token")
	calls := 0
	err := policy.run(context.Background(),
		func(context.Context) (string, error) { return "", noToken },
		func(string) error { calls++; return nil },
	)
	if !errors.Is(err, noToken) {
		t.Fatalf("expected token error, got %v", err)
	}
	if calls != 0 {
		t.Errorf("call should never run without a token, ran %d times", calls)
	}
}
