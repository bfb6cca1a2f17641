// Command csim simulates a set-associative cache on a memory trace.
package main

import "github.com/sarchlab/csim/cmd"

func main() {
	cmd.Execute()
}
