package main

import "github.com/vibast-solutions/ms-go-pos-auth/cmd"

func main() {
	cmd.Execute()
}
