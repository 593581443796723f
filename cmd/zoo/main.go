package main

import (
	"github.com/kittycad/kittycad-go/cmd"
	"github.com/kittycad/kittycad-go/internal/logging"
)

func main() {
	defer logging.RecoverPanic("main", nil)

	cmd.Execute()
}
