package main

import "github.com/sitepilot/crm-backend/cmd"

func main() {
	cmd.Init()
}
