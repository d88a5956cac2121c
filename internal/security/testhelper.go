package security

import "time"

// TestSecret is the HS256 secret used by NewTestCodec. For unit tests only.
const TestSecret = "rh360-test-secret-do-not-use-in-production"

// TestIssuer is the issuer used by NewTestCodec.
const TestIssuer = "rh360-test"

// NewTestCodec returns a Codec with the test secret. now may be nil to use time.Now.
// For unit tests only. Callers must not use in production.
func NewTestCodec(now func() time.Time) *Codec {
	c, err := NewCodec(CodecConfig{Secret: TestSecret, Issuer: TestIssuer}, WithClock(now))
	if err != nil {
		panic(err)
	}
	return c
}
