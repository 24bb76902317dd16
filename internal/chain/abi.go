package chain

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const poolABIJSON = `[
	{"type":"function","name":"totalSupply","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"_totalBalance","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"_ntokens","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"_yTokenAddresses","stateMutability":"view","inputs":[{"name":"","type":"uint256"}],"outputs":[{"name":"","type":"address"}]},
	{"type":"function","name":"_yBalances","stateMutability":"view","inputs":[{"name":"","type":"uint256"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"getTokenStats","stateMutability":"view","inputs":[{"name":"bTokenIdx","type":"uint256"}],"outputs":[
		{"name":"softWeight","type":"uint256"},
		{"name":"hardWeight","type":"uint256"},
		{"name":"balance","type":"uint256"},
		{"name":"decimals","type":"uint256"}
	]},
	{"type":"event","name":"Transfer","anonymous":false,"inputs":[
		{"name":"from","type":"address","indexed":true},
		{"name":"to","type":"address","indexed":true},
		{"name":"value","type":"uint256","indexed":false}
	]},
	{"type":"event","name":"Swap","anonymous":false,"inputs":[
		{"name":"buyer","type":"address","indexed":true},
		{"name":"bTokenIdIn","type":"uint256","indexed":false},
		{"name":"bTokenIdOut","type":"uint256","indexed":false},
		{"name":"inAmount","type":"uint256","indexed":false},
		{"name":"outAmount","type":"uint256","indexed":false}
	]},
	{"type":"event","name":"SwapAll","anonymous":false,"inputs":[
		{"name":"provider","type":"address","indexed":true},
		{"name":"amounts","type":"uint256[]","indexed":false},
		{"name":"inOutFlag","type":"uint256","indexed":false},
		{"name":"sTokenMintedOrBurned","type":"uint256","indexed":false}
	]}
]`

const yieldTokenABIJSON = `[
	{"type":"function","name":"symbol","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
	{"type":"function","name":"getPricePerFullShare","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"decimals","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]}
]`

var (
	PoolABI       = mustParseABI(poolABIJSON)
	YieldTokenABI = mustParseABI(yieldTokenABIJSON)
)

func mustParseABI(s string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(s))
	if err != nil {
		panic(err)
	}
	return parsed
}
