package main

import "example.com/shipchain/services/shipment/cmd"

func main() {
	cmd.Execute()
}
