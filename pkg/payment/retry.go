package payment

import (
	"context"
	"log"
)

// retryPolicy bounds how many times a gateway call may run per payment.
// A fresh token is acquired before every attempt; an extra attempt happens
// only when the previous failure satisfies the predicate.
type retryPolicy struct {
	maxAttempts int
	retryable   func(error) bool
}

// expiredTokenRetry allows exactly one token refresh and one resubmission
// when the gateway reports the bearer token as invalid or expired.
var expiredTokenRetry = retryPolicy{maxAttempts: 2, retryable: isExpiredTokenErr}

func (rp retryPolicy) run(ctx context.Context, token func(context.Context) (string, error), call func(token string) error) error {
	var err error
	for attempt := 1; attempt <= rp.maxAttempts; attempt++ {
		var tok string
		tok, err = token(ctx)
		if err != nil {
			return err
		}
		if err = call(tok); err == nil || !rp.retryable(err) {
			return err
		}
		if attempt < rp.maxAttempts {
			log.Printf("[MPESA] refreshing token and retrying after: %v", err)
		}
	}
	return err
}
