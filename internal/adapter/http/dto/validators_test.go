package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// --- SanitizeStruct tests ---

func TestSanitizeStruct_TrimsWhitespace(t *testing.T) {
	req := RegisterRequest{
		Username: "  alice  ",
		Password: "  pass1234  ",
	}
	SanitizeStruct(&req)

	assert.Equal(t, "alice", req.Username)
	assert.Equal(t, "pass1234", req.Password)
}

func TestSanitizeStruct_EscapesHTML(t *testing.T) {
	req := SubmitReportRequest{
		Title:    "validator <script>alert('x')</script> misbehaving",
		Body:     "details here with enough length",
		Category: "infrastructure",
	}
	SanitizeStruct(&req)

	assert.Contains(t, req.Title, "&lt;script&gt;")
	assert.NotContains(t, req.Title, "<script>")
}

func TestSanitizeStruct_HandlesPointerString(t *testing.T) {
	note := "  looks legitimate  "
	req := ReviewReportRequest{
		Verdict: "verified",
		Note:    &note,
	}
	SanitizeStruct(&req)

	assert.Equal(t, "looks legitimate", *req.Note)
}

func TestSanitizeStruct_NilPointerIsNoOp(t *testing.T) {
	req := ReviewReportRequest{Verdict: "rejected"}
	SanitizeStruct(&req)
	assert.Nil(t, req.Note)
}

func TestSanitizeStruct_NonPointerIsNoOp(t *testing.T) {
	s := "hello"
	SanitizeStruct(s) // should not panic
}

// --- Custom Validator tests ---

func TestSafeID_Valid(t *testing.T) {
	cases := []string{
		"alice",
		"bob_the-builder",
		"a.b.c",
		"simple123",
		"ABC-def_GHI.123",
	}
	for _, tc := range cases {
		assert.True(t, safeStringRe.MatchString(tc), "expected valid: %s", tc)
	}
}

func TestSafeID_Invalid(t *testing.T) {
	cases := []string{
		"al ice",       // space
		"alice<admin>", // angle brackets
		"alice;DROP",   // semicolon
		"",             // empty
		"hello world",  // space
		"alice\nbob",   // newline
	}
	for _, tc := range cases {
		assert.False(t, safeStringRe.MatchString(tc), "expected invalid: %s", tc)
	}
}
