// Peerrec - Attribute-Grouped Catalog Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/peerrec

package validation

import (
	"strings"
	"testing"
)

func TestGetValidator_Singleton(t *testing.T) {
	v1 := GetValidator()
	v2 := GetValidator()
	if v1 == nil || v1 != v2 {
		t.Error("GetValidator() should return one shared instance")
	}
}

type pageRequest struct {
	Limit  int    `validate:"min=1,max=500"`
	Offset int    `validate:"min=0"`
	Sort   string `validate:"omitempty,oneof=asc desc"`
}

type tableRequest struct {
	Table  string   `validate:"required,sqlident"`
	Type   string   `validate:"sqltype"`
	Fields []string `validate:"min=1"`
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name    string
		input   any
		wantTag string
	}{
		{"valid page", &pageRequest{Limit: 10}, ""},
		{"limit too small", &pageRequest{Limit: 0}, "min"},
		{"limit too large", &pageRequest{Limit: 501}, "max"},
		{"bad sort", &pageRequest{Limit: 1, Sort: "up"}, "oneof"},
		{"valid table", &tableRequest{Table: "public.products", Type: "VARCHAR(32)", Fields: []string{"id"}}, ""},
		{"missing table", &tableRequest{Type: "VARCHAR", Fields: []string{"id"}}, "required"},
		{"bad identifier", &tableRequest{Table: "products;", Type: "VARCHAR", Fields: []string{"id"}}, "sqlident"},
		{"bad type", &tableRequest{Table: "products", Type: "VARCHAR)", Fields: []string{"id"}}, "sqltype"},
		{"no fields", &tableRequest{Table: "products", Type: "VARCHAR"}, "min"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(tt.input)
			if tt.wantTag == "" {
				if err != nil {
					t.Fatalf("ValidateStruct() error = %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("ValidateStruct() = nil, want %s failure", tt.wantTag)
			}
			if got := err.Errors()[0].Tag(); got != tt.wantTag {
				t.Errorf("tag = %q, want %q", got, tt.wantTag)
			}
		})
	}
}

func TestToAPIError(t *testing.T) {
	single := ValidateStruct(&pageRequest{Limit: 0})
	apiErr := single.ToAPIError()
	if apiErr.Code != "VALIDATION_ERROR" {
		t.Errorf("Code = %q", apiErr.Code)
	}
	if !strings.Contains(apiErr.Message, "at least 1") {
		t.Errorf("Message = %q", apiErr.Message)
	}
	if apiErr.Details["tag"] != "min" {
		t.Errorf("Details = %v", apiErr.Details)
	}

	multi := ValidateStruct(&pageRequest{Limit: 0, Offset: -1})
	apiErr = multi.ToAPIError()
	fields, ok := apiErr.Details["fields"].([]map[string]any)
	if !ok || len(fields) != 2 {
		t.Fatalf("Details[fields] = %v", apiErr.Details["fields"])
	}
	if !strings.Contains(apiErr.Message, ";") {
		t.Errorf("Message = %q, want joined messages", apiErr.Message)
	}
}

func TestErrorMessages(t *testing.T) {
	err := ValidateStruct(&tableRequest{Table: "x y", Type: "VARCHAR", Fields: nil})
	if err == nil {
		t.Fatal("expected errors")
	}
	msg := err.Error()
	for _, want := range []string{"SQL identifier", "at least 1 items"} {
		if !strings.Contains(msg, want) {
			t.Errorf("Error() = %q, missing %q", msg, want)
		}
	}
}
