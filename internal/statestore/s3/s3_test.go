package s3

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeAPIError struct{ code string }

func (e fakeAPIError) Error() string     { return e.code }
func (e fakeAPIError) ErrorCode() string { return e.code }

func TestIsPreconditionFailed(t *testing.T) {
	assert.True(t, isPreconditionFailed(fakeAPIError{code: "PreconditionFailed"}))
	assert.True(t, isPreconditionFailed(fakeAPIError{code: "AtPreconditionFailed"}))
	assert.False(t, isPreconditionFailed(fakeAPIError{code: "NoSuchBucket"}))
	assert.False(t, isPreconditionFailed(errors.New("plain error")))
}
