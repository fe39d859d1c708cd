// Command assessrec serves assessment recommendations and builds the vector
// index they are retrieved from.
package main

import "os"

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
