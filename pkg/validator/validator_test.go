package validator

import (
	"strings"
	"testing"
)

func TestValidateMessageContent(t *testing.T) {
	if errs := ValidateMessageContent("Hello"); errs.HasErrors() {
		t.Errorf("valid content rejected: %v", errs)
	}
	for _, content := range []string{"", "   ", "\t\n"} {
		if errs := ValidateMessageContent(content); !errs.HasErrors() {
			t.Errorf("blank content %q accepted", content)
		}
	}
	if errs := ValidateMessageContent(strings.Repeat("a", 4001)); !errs.HasErrors() {
		t.Error("overlong content accepted")
	}
}

func TestIsMessageID(t *testing.T) {
	for _, id := range []string{"01HZXW3T6GQ6ZP7E8D9K2M4N5R", "01hzxw3t6gq6zp7e8d9k2m4n5r"} {
		if !IsMessageID(id) {
			t.Errorf("valid ULID %q rejected", id)
		}
	}
	for _, id := range []string{"", "not-a-ulid", "01HZXW3T6GQ6ZP7E8D9K2M4N5", "01HZXW3T6GQ6ZP7E8D9K2M4NIL"} {
		if IsMessageID(id) {
			t.Errorf("invalid id %q accepted", id)
		}
	}
}

func TestValidateRegister(t *testing.T) {
	if errs := ValidateRegister("a@b.co", "alice", "Alice", "Str0ngpass"); errs.HasErrors() {
		t.Errorf("valid input rejected: %v", errs)
	}

	errs := ValidateRegister("", "x", "", "short")
	for _, field := range []string{"email", "username", "display_name", "password"} {
		if _, ok := errs[field]; !ok {
			t.Errorf("missing validation error for %s", field)
		}
	}
}
