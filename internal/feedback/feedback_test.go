package feedback

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

type detailErr struct{ detail string }

func (e detailErr) Error() string       { return "status 400: " + e.detail }
func (e detailErr) ErrorDetail() string { return e.detail }

var table = Table{
	Rules: []Rule{
		{Detail: "Invalid credentials", Kind: KindAuthentication, Message: "Username or password is incorrect"},
		{Detail: "Email already registered", Kind: KindConflict, Message: "Email already registered"},
	},
	Fallback: "Something went wrong",
}

func TestTableResolve_MatchesDetail(t *testing.T) {
	got := table.Resolve(fmt.Errorf("login: %w", detailErr{"Invalid credentials"}))

	assert.Equal(t, KindAuthentication, got.Kind)
	assert.Equal(t, "Username or password is incorrect", got.Message)
}

func TestTableResolve_UnknownDetailFallsBack(t *testing.T) {
	got := table.Resolve(detailErr{"Database exploded"})

	assert.Equal(t, KindTransport, got.Kind)
	assert.Equal(t, "Something went wrong", got.Message)
}

func TestTableResolve_TransportError(t *testing.T) {
	got := table.Resolve(errors.New("dial tcp: connection refused"))

	assert.Equal(t, KindTransport, got.Kind)
	assert.Equal(t, "Something went wrong", got.Message)
}

func TestTableResolve_PassesThroughMappedErrors(t *testing.T) {
	v := Validation("Invalid email format")

	assert.Same(t, v, table.Resolve(v))
	assert.Nil(t, table.Resolve(nil))
	assert.True(t, IsValidation(fmt.Errorf("wrap: %w", v)))
}

func TestFailure(t *testing.T) {
	assert.Equal(t, Notice{Level: LevelError, Message: "Passwords do not match."},
		Failure(Validation("Passwords do not match."), "fallback"))
	assert.Equal(t, Notice{Level: LevelError, Message: "fallback"},
		Failure(errors.New("boom"), "fallback"))
}
