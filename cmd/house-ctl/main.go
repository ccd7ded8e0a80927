// Command house-ctl queries and commands a house-server.
package main

import "github.com/oshokin/smart-home/cmd/house-ctl/cmd"

func main() {
	cmd.Execute()
}
