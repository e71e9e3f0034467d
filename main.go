package main

import (
	"github.com/hoangnm/techshop/cmd"
)

func main() {
	cmd.Start()
}
