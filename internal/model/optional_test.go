package model

import (
	"encoding/json"
	"testing"
)

func TestOptionalString_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantSet     bool
		wantNull    bool
		wantInvalid bool
		wantValue   string
	}{
		{"キーなし", `{}`, false, false, false, ""},
		{"文字列", `{"description":"x"}`, true, false, false, "x"},
		{"空文字列", `{"description":""}`, true, false, false, ""},
		{"null", `{"description":null}`, true, true, false, ""},
		{"数値", `{"description":42}`, true, false, true, ""},
		{"オブジェクト", `{"description":{"a":1}}`, true, false, true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var in EventInput
			if err := json.Unmarshal([]byte(tt.body), &in); err != nil {
				t.Fatalf("json.Unmarshal returned error: %v", err)
			}
			got := in.Description
			if got.Set != tt.wantSet {
				t.Errorf("Set = %v, want %v", got.Set, tt.wantSet)
			}
			if got.Null != tt.wantNull {
				t.Errorf("Null = %v, want %v", got.Null, tt.wantNull)
			}
			if got.Invalid != tt.wantInvalid {
				t.Errorf("Invalid = %v, want %v", got.Invalid, tt.wantInvalid)
			}
			if got.Value != tt.wantValue {
				t.Errorf("Value = %q, want %q", got.Value, tt.wantValue)
			}
		})
	}
}

func TestOptionalString_Present(t *testing.T) {
	if (OptionalString{}).Present() {
		t.Error("zero value should not be present")
	}
	if !Some("").Present() {
		t.Error("Some(\"\") should be present")
	}
	if (OptionalString{Set: true, Null: true}).Present() {
		t.Error("null should not be present")
	}
}
