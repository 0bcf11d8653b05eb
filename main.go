package main

import "github.com/KaramelBytes/surveyclust/cmd"

func main() {
	cmd.Execute()
}
