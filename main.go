package main

import (
	_ "time/tzdata"

	"lexamen/cmd"
)

func main() {
	cmd.Execute()
}
