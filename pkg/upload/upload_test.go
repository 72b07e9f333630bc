package upload

import "testing"

func uint32p(v uint32) *uint32 { return &v }

func TestIsGoodEnoughNoBestKnown(t *testing.T) {
	if !IsGoodEnough(100, nil) {
		t.Fatal("expected true when no best-known score exists")
	}
}

func TestIsGoodEnoughExactMatch(t *testing.T) {
	if !IsGoodEnough(42, uint32p(42)) {
		t.Fatal("expected an exact match to be good enough")
	}
}

func TestIsGoodEnoughFarWorseIsRejected(t *testing.T) {
	// (1337 - 1024 - 5) * 10 = 3080, not < 1024.
	if IsGoodEnough(1337, uint32p(1024)) {
		t.Fatal("expected a far-worse score to be rejected")
	}
}

func TestIsGoodEnoughBetterThanBestNeverUnderflows(t *testing.T) {
	// score < best: (5 - 1024 - 5) * 10 is very negative, always < 1024.
	if !IsGoodEnough(5, uint32p(1024)) {
		t.Fatal("expected a better-than-best score to be accepted")
	}
}
