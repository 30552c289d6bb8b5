package cli

import (
	"fmt"
	"strconv"

	"github.com/LeJamon/gorebase/internal/core/keylet"
	"github.com/LeJamon/gorebase/internal/crypto"
)

func parseID(what, s string) (keylet.ID, error) {
	id, err := keylet.Parse(s)
	if err != nil {
		return keylet.ID{}, fmt.Errorf("invalid %s id %q: %w", what, s, err)
	}
	return id, nil
}

func parseAmount(s string) (uint64, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return v, nil
}

func parseAccount(s string) (crypto.AccountID, error) {
	id, err := crypto.ParseAccountID(s)
	if err != nil {
		return crypto.AccountID{}, fmt.Errorf("invalid account %q: %w", s, err)
	}
	return id, nil
}
