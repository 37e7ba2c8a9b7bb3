package solanachain

import "testing"

func TestParsePrivateKey_Base58(t *testing.T) {
	wallet := solanaTestWallet(t)

	parsed, err := ParsePrivateKey(wallet.String())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !parsed.PublicKey().Equals(wallet.PublicKey()) {
		t.Error("parsed key does not match original public key")
	}
}

func TestParsePrivateKey_JSONArray(t *testing.T) {
	wallet := solanaTestWallet(t)

	arr := "["
	for i, b := range wallet {
		if i > 0 {
			arr += ","
		}
		arr += itoa(int(b))
	}
	arr += "]"

	parsed, err := ParsePrivateKey(arr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !parsed.PublicKey().Equals(wallet.PublicKey()) {
		t.Error("parsed key from JSON array does not match original public key")
	}
}

func TestParsePrivateKey_Empty(t *testing.T) {
	if _, err := ParsePrivateKey(""); err == nil {
		t.Fatal("expected error for empty key")
	}
}

func TestParsePrivateKey_MalformedArray(t *testing.T) {
	if _, err := ParsePrivateKey("[1,2,3]"); err == nil {
		t.Fatal("expected error for short array")
	}
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := ""
	for n > 0 {
		digits = string(rune('0'+n%10)) + digits
		n /= 10
	}
	return digits
}
