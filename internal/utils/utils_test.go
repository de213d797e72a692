package utils

import (
	"math"
	"testing"
)

func TestCosineSimilarity(t *testing.T) {
	if got := CosineSimilarity([]float64{1, 0}, []float64{1, 0}); math.Abs(got-1) > 1e-9 {
		t.Fatalf("identical vectors: got %v", got)
	}
	if got := CosineSimilarity([]float64{1, 0}, []float64{0, 1}); math.Abs(got) > 1e-9 {
		t.Fatalf("orthogonal vectors: got %v", got)
	}
	if got := CosineSimilarity([]float64{1, 0}, []float64{1, 0, 0}); got != 0 {
		t.Fatalf("length mismatch must score 0, got %v", got)
	}
	if got := CosineSimilarity([]float64{0, 0}, []float64{1, 0}); got != 0 {
		t.Fatalf("zero vector must score 0, got %v", got)
	}
}

func TestRunningMean(t *testing.T) {
	c := []float64{1, 1}
	got := RunningMean(c, []float64{4, 7}, 2)
	want := []float64{2, 3}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Fatalf("got %v want %v", got, want)
		}
	}
	if c[0] != 1 || c[1] != 1 {
		t.Fatalf("input centroid modified: %v", c)
	}
}

func TestAnonymizeUserID(t *testing.T) {
	cases := map[string]string{
		"":           "Anonymous",
		"abc":        "***",
		"abcdefghyz": "abc***yz",
	}
	for in, want := range cases {
		if got := AnonymizeUserID(in); got != want {
			t.Errorf("AnonymizeUserID(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestStableHashBuckets(t *testing.T) {
	if StableHash("wifi") != StableHash("wifi") {
		t.Fatal("hash must be deterministic")
	}
	for _, s := range []string{"", "wifi", "mess food", "hostel"} {
		if b := Bucket(s, 7); b < 0 || b >= 7 {
			t.Fatalf("bucket %d out of range for %q", b, s)
		}
		i, sign := SignedBucket(s, 16)
		if i < 0 || i >= 16 || (sign != 1 && sign != -1) {
			t.Fatalf("signed bucket (%d, %v) invalid for %q", i, sign, s)
		}
	}
}
