package main

import "github.com/Synternet/stablepool-indexer/cmd"

func main() {
	cmd.Execute()
}
