// Command house-server runs the smart-home controller.
package main

import "github.com/oshokin/smart-home/cmd/house-server/cmd"

func main() {
	cmd.Execute()
}
