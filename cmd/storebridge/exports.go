package main

import (
	"fmt"

	"github.com/gwillem/signal-bridge/internal/bridge"
)

type exportsCommand struct{}

func (cmd *exportsCommand) Execute(args []string) error {
	fmt.Printf("%-24s %3s  %-8s  %s\n", "OP", "ID", "SHAPE", "ADDRESS")
	for _, op := range bridge.Ops() {
		fmt.Printf("%-24s %3d  %-8s  %#x\n", op, uint32(op), bridge.ShapeOf(op), bridge.FunctionAddress(op))
	}
	return nil
}
