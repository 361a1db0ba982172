// Command lextriage is the LexTriage command-line interface.
package main

import "github.com/lexintel/LexTriage/internal/interfaces/cli"

func main() {
	cli.Execute()
}
