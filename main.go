// The main package for the supplications executable.
package main

import "github.com/JakeFAU/daily-supplications/cmd"

func main() {
	cmd.Execute()
}
