package main

import "github.com/MeKo-Tech/hydrasphere/internal/cmd"

func main() {
	cmd.Execute()
}
