// Trackscope - Music Catalog Popularity Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackscope

package validation

import (
	"strings"
	"testing"
)

type trackRequest struct {
	TrackID string `validate:"required,spotify_id"`
	Limit   int    `validate:"min=1,max=100"`
	Offset  int    `validate:"min=0"`
	Sort    string `validate:"omitempty,oneof=asc desc"`
}

func TestValidateStructValid(t *testing.T) {
	t.Parallel()

	req := trackRequest{
		TrackID: "4uLU6hMCjMI75M1A2tKUQC",
		Limit:   20,
		Offset:  0,
		Sort:    "desc",
	}

	if err := ValidateStruct(&req); err != nil {
		t.Errorf("ValidateStruct() = %v, want nil", err)
	}
}

func TestValidateStructSpotifyID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		trackID string
		valid   bool
	}{
		{"valid id", "4uLU6hMCjMI75M1A2tKUQC", true},
		{"valid id all digits and letters", "0123456789aAbBcCdDeEfF", true},
		{"too short", "4uLU6hMCjMI75M1A2tKUQ", false},
		{"too long", "4uLU6hMCjMI75M1A2tKUQCx", false},
		{"invalid characters", "4uLU6hMCjMI75M1A2tKU_!", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := trackRequest{TrackID: tt.trackID, Limit: 10}
			err := ValidateStruct(&req)

			if tt.valid && err != nil {
				t.Errorf("ValidateStruct() = %v, want nil for %q", err, tt.trackID)
			}
			if !tt.valid && err == nil {
				t.Errorf("ValidateStruct() = nil, want error for %q", tt.trackID)
			}
		})
	}
}

func TestValidateStructSingleError(t *testing.T) {
	t.Parallel()

	req := trackRequest{
		TrackID: "4uLU6hMCjMI75M1A2tKUQC",
		Limit:   500, // above max
	}

	err := ValidateStruct(&req)
	if err == nil {
		t.Fatal("ValidateStruct() should fail")
	}

	apiErr := err.ToAPIError()
	if apiErr.Code != "VALIDATION_ERROR" {
		t.Errorf("Code = %q, want VALIDATION_ERROR", apiErr.Code)
	}
	if !strings.Contains(apiErr.Message, "Limit") {
		t.Errorf("Message = %q, want mention of Limit", apiErr.Message)
	}
	if apiErr.Details["field"] != "Limit" {
		t.Errorf("Details[field] = %v, want Limit", apiErr.Details["field"])
	}
}

func TestValidateStructMultipleErrors(t *testing.T) {
	t.Parallel()

	req := trackRequest{
		TrackID: "bad",
		Limit:   0,
		Sort:    "sideways",
	}

	err := ValidateStruct(&req)
	if err == nil {
		t.Fatal("ValidateStruct() should fail")
	}

	if len(err.Errors()) != 3 {
		t.Fatalf("Errors() = %d entries, want 3", len(err.Errors()))
	}

	apiErr := err.ToAPIError()
	if apiErr.Code != "VALIDATION_ERROR" {
		t.Errorf("Code = %q, want VALIDATION_ERROR", apiErr.Code)
	}
	fields, ok := apiErr.Details["fields"].([]map[string]interface{})
	if !ok {
		t.Fatalf("Details[fields] has unexpected type %T", apiErr.Details["fields"])
	}
	if len(fields) != 3 {
		t.Errorf("Details[fields] = %d entries, want 3", len(fields))
	}
}

func TestTranslateErrorMessages(t *testing.T) {
	t.Parallel()

	type msgRequest struct {
		Name  string `validate:"required"`
		Count int    `validate:"min=1"`
		Mode  string `validate:"oneof=fast slow"`
	}

	err := ValidateStruct(&msgRequest{Count: 0, Mode: "medium"})
	if err == nil {
		t.Fatal("ValidateStruct() should fail")
	}

	msg := err.Error()
	if !strings.Contains(msg, "Name is required") {
		t.Errorf("message %q should contain 'Name is required'", msg)
	}
	if !strings.Contains(msg, "Count must be at least 1") {
		t.Errorf("message %q should contain 'Count must be at least 1'", msg)
	}
	if !strings.Contains(msg, "Mode must be one of") {
		t.Errorf("message %q should contain 'Mode must be one of'", msg)
	}
}

func TestGetValidatorSingleton(t *testing.T) {
	t.Parallel()

	v1 := GetValidator()
	v2 := GetValidator()
	if v1 != v2 {
		t.Error("GetValidator() should return the same instance")
	}
}
