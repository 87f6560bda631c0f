package main

import (
	"os"

	"github.com/kysee/zk-arith/provers"
	"github.com/kysee/zk-arith/provers/types"
)

func main() {
	prover.ProverMain(types.NewConfig(os.Args[1:]...))
}
