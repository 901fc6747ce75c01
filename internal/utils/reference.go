package utils

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// GenerateOrderNumber builds a human-facing order number, e.g.
// BMS-20260831-142233-512-0831.
func GenerateOrderNumber() string {
	now := time.Now().UTC()

	datePart := now.Format("20060102-150405")
	millis := now.Nanosecond() / int(time.Millisecond)

	// 4-digit cryptographic random
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		// fallback: time-based entropy
		n = big.NewInt(now.UnixNano() % 10000)
	}

	return fmt.Sprintf(
		"BMS-%s-%03d-%04d",
		datePart,
		millis,
		n.Int64(),
	)
}

// GeneratePaymentReference builds the idempotency key handed to the payment
// gateway at checkout. It is assigned once and never changes for the lifetime
// of the payment attempt.
func GeneratePaymentReference() string {
	now := time.Now().UTC()

	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		n = big.NewInt(now.UnixNano() % 1_000_000)
	}

	return fmt.Sprintf("PAY-%s-%06d", now.Format("20060102150405"), n.Int64())
}
