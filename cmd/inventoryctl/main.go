package main

import "go-warehouse-ws/cmd/inventoryctl/commands"

func main() {
	commands.Execute()
}
