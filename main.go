// main.go - Application entry point
package main

import "github.com/pawelpiwowarski/wms-scraper/cmd"

func main() {
	cmd.Execute()
}
