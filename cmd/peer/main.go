package main

import "github.com/rudransh-shrivastava/peer-index/internal/client/cmd"

func main() {
	cmd.Execute()
}
