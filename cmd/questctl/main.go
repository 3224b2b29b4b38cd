package main

import "github.com/taskventure/backend/cmd/questctl/root"

func main() {
	root.Execute()
}
