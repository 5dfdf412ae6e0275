// Package testutil provides shared test utilities and fixtures.
//
// This package centralises the geometric assertions used across the
// rotation, markers and calibrate test files.
package testutil

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// AssertQuatEqual checks that two unit quaternions encode the same
// rotation, treating q and -q as equal.
func AssertQuatEqual(t *testing.T, want, got quat.Number, tol float64) {
	t.Helper()
	d := math.Abs(want.Real*got.Real + want.Imag*got.Imag + want.Jmag*got.Jmag + want.Kmag*got.Kmag)
	if math.Abs(d-1) > tol {
		t.Errorf("quaternions differ: want %v, got %v (|dot| = %v)", want, got, d)
	}
}

// AssertVecEqual checks that two vectors coincide within tol.
func AssertVecEqual(t *testing.T, want, got r3.Vec, tol float64) {
	t.Helper()
	if r3.Norm(r3.Sub(want, got)) > tol {
		t.Errorf("vectors differ: want %v, got %v", want, got)
	}
}
