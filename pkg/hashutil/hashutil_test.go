package hashutil

import "testing"

func TestHashBytes(t *testing.T) {
	tests := []struct {
		name    string
		algo    HashAlgo
		input   []byte
		wantLen int
	}{
		{"sha256 hex length", HashAlgoSHA256, []byte("hello"), 64},
		{"blake3 hex length", HashAlgoBLAKE3, []byte("hello"), 64},
		{"sha256 empty input", HashAlgoSHA256, nil, 64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := HashBytes(tt.input, tt.algo)
			if err != nil {
				t.Fatalf("HashBytes returned error: %v", err)
			}
			if len(got) != tt.wantLen {
				t.Errorf("hash length %d, want %d", len(got), tt.wantLen)
			}
		})
	}
}

func TestHashBytes_Deterministic(t *testing.T) {
	for _, algo := range []HashAlgo{HashAlgoSHA256, HashAlgoBLAKE3} {
		a, _ := HashBytes([]byte("content"), algo)
		b, _ := HashBytes([]byte("content"), algo)
		if a != b {
			t.Errorf("%s: same input produced different hashes", algo)
		}

		c, _ := HashBytes([]byte("other"), algo)
		if a == c {
			t.Errorf("%s: different inputs produced identical hashes", algo)
		}
	}
}

func TestHashBytes_UnsupportedAlgo(t *testing.T) {
	_, err := HashBytes([]byte("x"), HashAlgo("md5"))
	if err == nil {
		t.Error("expected error for unsupported algorithm")
	}
}

func TestHashBytes_KnownSHA256(t *testing.T) {
	got, err := HashBytes([]byte("abc"), HashAlgoSHA256)
	if err != nil {
		t.Fatal(err)
	}
	want := "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got != want {
		t.Errorf("sha256(abc) = %s, want %s", got, want)
	}
}
