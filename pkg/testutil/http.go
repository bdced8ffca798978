package testutil

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

// AssertStatusCode fails the test when actual differs from expected,
// naming both codes in the message.
func AssertStatusCode(t *testing.T, expected, actual int, msgAndArgs ...interface{}) bool {
	t.Helper()
	if expected == actual {
		return true
	}
	return assert.Fail(t,
		"unexpected status: want "+statusLine(expected)+", got "+statusLine(actual),
		msgAndArgs...)
}

// AssertStatusOK is AssertStatusCode for 200.
func AssertStatusOK(t *testing.T, actual int, msgAndArgs ...interface{}) bool {
	t.Helper()
	return AssertStatusCode(t, http.StatusOK, actual, msgAndArgs...)
}

// AssertJSONEqual compares two JSON documents ignoring formatting and key order.
func AssertJSONEqual(t *testing.T, expected, actual string, msgAndArgs ...interface{}) bool {
	t.Helper()
	return assert.JSONEq(t, expected, actual, msgAndArgs...)
}

func statusLine(code int) string {
	return fmt.Sprintf("%d %s", code, http.StatusText(code))
}
