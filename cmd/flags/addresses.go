package flags

import (
	"fmt"
	"log"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

type Addresses struct {
	Value *[]common.Address
}

func NewAddresses(addresses string) *Addresses {
	parsed, err := parse(addresses)
	if err != nil {
		log.Fatal(err)
	}

	return &Addresses{Value: &parsed}
}

func (a *Addresses) Set(addresses string) error {
	if addresses == "" {
		*a.Value = make([]common.Address, 0)
		return nil
	}

	parsed, err := parse(addresses)
	if err != nil {
		return err
	}
	*a.Value = append(*a.Value, parsed...)
	return nil
}

func (a *Addresses) String() string {
	out := make([]string, len(*a.Value))
	for i, d := range *a.Value {
		out[i] = d.Hex()
	}
	return "[" + strings.Join(out, ",") + "]"
}

func (a Addresses) Type() string {
	return "addressSlice"
}

func parse(addresses string) ([]common.Address, error) {
	clean := SplitList(addresses)

	out := make([]common.Address, len(clean))
	for i, s := range clean {
		if !common.IsHexAddress(s) {
			return nil, fmt.Errorf("invalid contract address %q", s)
		}
		out[i] = common.HexToAddress(s)
	}

	return out, nil
}
