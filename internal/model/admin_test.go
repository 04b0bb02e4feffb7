package model

import (
	"strings"
	"testing"
)

// パスワードのハッシュ化と照合を検証
func TestAdminCredential_Password(t *testing.T) {
	cred := &AdminCredential{}

	if err := cred.SetPassword("correct horse battery staple"); err != nil {
		t.Fatalf("SetPassword returned error: %v", err)
	}

	if cred.PasswordHash == "" {
		t.Fatal("PasswordHash is empty after SetPassword")
	}
	if strings.Contains(cred.PasswordHash, "correct horse") {
		t.Error("PasswordHash must not contain the plaintext password")
	}

	if !cred.CheckPassword("correct horse battery staple") {
		t.Error("CheckPassword(correct) = false, want true")
	}
	if cred.CheckPassword("wrong password") {
		t.Error("CheckPassword(wrong) = true, want false")
	}
}

// 空のハッシュに対する照合は失敗することを検証
func TestAdminCredential_CheckPassword_EmptyHash(t *testing.T) {
	cred := &AdminCredential{}
	if cred.CheckPassword("anything") {
		t.Error("CheckPassword against empty hash must fail")
	}
}
