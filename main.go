package main

import "github.com/vibast-solutions/ms-go-onboarding/cmd"

func main() {
	cmd.Execute()
}
