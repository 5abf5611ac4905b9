package main

import "github.com/custodia/walletmigrate/cmd/walletmigrate/cmd"

func main() {
	cmd.Execute()
}
