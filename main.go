package main

import "github.com/nextlevelbuilder/wamux/cmd"

func main() {
	cmd.Execute()
}
