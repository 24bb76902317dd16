package cmd

import (
	"fmt"
	"os"

	"github.com/nats-io/jwt"
	"github.com/nats-io/nkeys"
)

// setDefault fills an environment variable that neither the shell nor .env provided,
// so flag defaults can be read back with os.Getenv.
func setDefault(field string, value string) {
	if os.Getenv(field) == "" {
		os.Setenv(field, value)
	}
}

// natsUser is a freshly minted NATS user signed by an account key.
type natsUser struct {
	Seed string
	JWT  string
}

// newNatsUser mints a user NKey and issues its JWT with the account seed,
// for deployments that hand the indexer an account key instead of user credentials.
func newNatsUser(accountSeed string) (natsUser, error) {
	account, err := nkeys.FromSeed([]byte(accountSeed))
	if err != nil {
		return natsUser{}, fmt.Errorf("invalid account seed: %w", err)
	}
	accountPub, err := account.PublicKey()
	if err != nil {
		return natsUser{}, fmt.Errorf("account public key: %w", err)
	}

	user, err := nkeys.CreateUser()
	if err != nil {
		return natsUser{}, fmt.Errorf("create user key: %w", err)
	}
	seed, err := user.Seed()
	if err != nil {
		return natsUser{}, fmt.Errorf("user seed: %w", err)
	}
	userPub, err := user.PublicKey()
	if err != nil {
		return natsUser{}, fmt.Errorf("user public key: %w", err)
	}

	claims := jwt.NewUserClaims(userPub)
	claims.Name = "stablepool-indexer"
	claims.Issuer = accountPub
	token, err := claims.Encode(account)
	if err != nil {
		return natsUser{}, fmt.Errorf("encode user jwt: %w", err)
	}

	return natsUser{Seed: string(seed), JWT: token}, nil
}
