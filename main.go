package main

import "github.com/KaramelBytes/dqagent/cmd"

func main() {
	cmd.Execute()
}
