package cmd

import (
	"os"
	"testing"

	"github.com/nats-io/jwt"
	"github.com/nats-io/nkeys"
)

func TestSetDefault(t *testing.T) {
	t.Setenv("STABLEPOOL_TEST_SET", "explicit")
	t.Setenv("STABLEPOOL_TEST_UNSET", "")

	setDefault("STABLEPOOL_TEST_SET", "default")
	setDefault("STABLEPOOL_TEST_UNSET", "default")

	if got := os.Getenv("STABLEPOOL_TEST_SET"); got != "explicit" {
		t.Errorf("explicit value overwritten: %q", got)
	}
	if got := os.Getenv("STABLEPOOL_TEST_UNSET"); got != "default" {
		t.Errorf("default not applied: %q", got)
	}
}

func TestNewNatsUser(t *testing.T) {
	account, err := nkeys.CreateAccount()
	if err != nil {
		t.Fatal(err)
	}
	seed, err := account.Seed()
	if err != nil {
		t.Fatal(err)
	}
	accountPub, err := account.PublicKey()
	if err != nil {
		t.Fatal(err)
	}

	user, err := newNatsUser(string(seed))
	if err != nil {
		t.Fatal(err)
	}

	claims, err := jwt.DecodeUserClaims(user.JWT)
	if err != nil {
		t.Fatal(err)
	}
	if claims.Issuer != accountPub {
		t.Errorf("issuer = %s, want %s", claims.Issuer, accountPub)
	}

	keys, err := nkeys.FromSeed([]byte(user.Seed))
	if err != nil {
		t.Fatal(err)
	}
	userPub, _ := keys.PublicKey()
	if claims.Subject != userPub {
		t.Errorf("subject = %s, want %s", claims.Subject, userPub)
	}

	if _, err := newNatsUser("not a seed"); err == nil {
		t.Error("newNatsUser() expected error")
	}
}

func TestMakeNats_Disabled(t *testing.T) {
	conn, err := makeNats("test", "", "", "", "", "", "", "")
	if conn != nil || err != nil {
		t.Errorf("makeNats() = %v, %v, want nil connection", conn, err)
	}
}
