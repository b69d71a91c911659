// Trackscope - Music Catalog Popularity Tracking and Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/trackscope

package database

import "testing"

// Test assertion helpers with "check" prefix to avoid conflicts with existing helpers.
// Each helper encapsulates common validation patterns.
// Using t.Helper() ensures error messages point to the calling line.

// checkNoError fails the test if err is not nil
func checkNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// checkError fails the test if err is nil
func checkError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// checkStringEqual checks that got equals want
func checkStringEqual(t *testing.T, fieldName, got, want string) {
	t.Helper()
	if got != want {
		t.Errorf("%s: expected %q, got %q", fieldName, want, got)
	}
}

// checkIntEqual checks that got equals want
func checkIntEqual(t *testing.T, fieldName string, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("%s: expected %d, got %d", fieldName, want, got)
	}
}

// checkInt64Equal checks that got equals want
func checkInt64Equal(t *testing.T, fieldName string, got, want int64) {
	t.Helper()
	if got != want {
		t.Errorf("%s: expected %d, got %d", fieldName, want, got)
	}
}

// checkSliceLen checks that a slice has exactly the expected length
func checkSliceLen(t *testing.T, name string, length, want int) {
	t.Helper()
	if length != want {
		t.Fatalf("%s: expected %d items, got %d", name, want, length)
	}
}

// checkSliceEmpty checks that slice length == 0
func checkSliceEmpty(t *testing.T, name string, length int) {
	t.Helper()
	if length != 0 {
		t.Errorf("%s should be empty, got %d items", name, length)
	}
}

// checkPopularityEqual checks a nullable popularity against an expected value,
// where want < 0 means the popularity should be absent
func checkPopularityEqual(t *testing.T, fieldName string, got *int, want int) {
	t.Helper()
	if want < 0 {
		if got != nil {
			t.Errorf("%s: expected nil, got %d", fieldName, *got)
		}
		return
	}
	if got == nil {
		t.Errorf("%s: expected %d, got nil", fieldName, want)
		return
	}
	if *got != want {
		t.Errorf("%s: expected %d, got %d", fieldName, want, *got)
	}
}
